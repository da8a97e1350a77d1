package natsclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestClient runs a throwaway NATS server in a container with JetStream
// enabled and a connected Client. Cleanup is registered on the test.
type TestClient struct {
	container testcontainers.Container
	Client    *Client
	URL       string
}

// NewTestClient starts a NATS container and connects a client to it.
// Accepts testing.TB so it works with both *testing.T and *testing.B.
func NewTestClient(t testing.TB) *TestClient {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          []string{"--port", "4222", "--http_port", "8222", "--js"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4222/tcp"),
			wait.ForHTTP("/").WithPort("8222/tcp").WithStartupTimeout(30*time.Second),
		),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start NATS container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("mapped port: %v", err)
	}
	url := fmt.Sprintf("nats://%s:%s", host, port.Port())

	client, err := New(url,
		WithTimeout(5*time.Second),
		WithMaxReconnects(0),
	)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("create client: %v", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect to NATS: %v", err)
	}

	tc := &TestClient{container: container, Client: client, URL: url}
	t.Cleanup(func() {
		tc.Client.Close()
		_ = tc.container.Terminate(context.Background())
	})
	return tc
}
