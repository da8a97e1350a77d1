package natsclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/santicomp2014/lumino/errors"
)

// KVEntry wraps a KV entry with its revision.
type KVEntry struct {
	Key      string
	Value    []byte
	Revision uint64
}

// KVStore provides JetStream KV operations with timeout handling and
// error mapping to the repository's error taxonomy.
type KVStore struct {
	bucket  jetstream.KeyValue
	timeout time.Duration
	logger  *slog.Logger
}

func newKVStore(bucket jetstream.KeyValue, timeout time.Duration, logger *slog.Logger) *KVStore {
	return &KVStore{bucket: bucket, timeout: timeout, logger: logger}
}

func (kv *KVStore) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if kv.timeout > 0 {
		return context.WithTimeout(ctx, kv.timeout)
	}
	return ctx, func() {}
}

// Get retrieves a value with its revision. Returns ErrRecordNotFound when
// the key does not exist.
func (kv *KVStore) Get(ctx context.Context, key string) (*KVEntry, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	entry, err := kv.bucket.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}

	return &KVEntry{
		Key:      key,
		Value:    entry.Value(),
		Revision: entry.Revision(),
	}, nil
}

// Put creates or updates a key (last writer wins) and returns the revision.
func (kv *KVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	kv.logger.Debug("kv put", "key", key, "revision", rev)
	return rev, nil
}

// Create stores a key only if it does not exist yet. Returns
// ErrRecordExists when another writer got there first, which callers use
// as the idempotency signal.
func (kv *KVStore) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	rev, err := kv.bucket.Create(ctx, key, value)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyExists) {
			return 0, errors.ErrRecordExists
		}
		return 0, fmt.Errorf("kv create %s: %w", key, err)
	}
	kv.logger.Debug("kv create", "key", key, "revision", rev)
	return rev, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (kv *KVStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := kv.applyTimeout(ctx)
	defer cancel()

	if err := kv.bucket.Delete(ctx, key); err != nil && !stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
