package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Validate    bool
	ShowVersion bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("LUMINO_CONFIG", "configs/node.yaml"),
		"Path to configuration file (env: LUMINO_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LUMINO_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: LUMINO_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LUMINO_LOG_FORMAT", ""),
		"Log format: json, text (env: LUMINO_LOG_FORMAT)")

	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func printVersion() {
	fmt.Printf("lumino %s (built %s)\n", Version, BuildTime)
}
