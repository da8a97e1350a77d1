package wal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/natsclient"
	"github.com/santicomp2014/lumino/transfer"
)

// KVLog is a Log backed by a NATS JetStream key-value bucket.
//
// Key layout:
//
//	record.<message id>.<payment id>.<order>  full record JSON
//	principal.<message id>                    principal record JSON
//	statechange.<record id>                   state-change record JSON
//
// Record writes use KV Create, so the (message id, payment id, order)
// idempotency invariant holds across concurrent writers and restarts: the
// first writer wins and later writers observe ErrRecordExists.
type KVLog struct {
	kv *natsclient.KVStore
}

// NewKVLog wraps an opened KV bucket.
func NewKVLog(kv *natsclient.KVStore) *KVLog {
	return &KVLog{kv: kv}
}

func recordKVKey(id transfer.MessageID, paymentID transfer.PaymentID, order int) string {
	return fmt.Sprintf("record.%d.%d.%d", id, paymentID, order)
}

func principalKVKey(id transfer.MessageID) string {
	return fmt.Sprintf("principal.%d", id)
}

// ProtocolMessage returns the principal record for the message identifier.
func (l *KVLog) ProtocolMessage(ctx context.Context, id transfer.MessageID) (StoredProtocolMessage, error) {
	entry, err := l.kv.Get(ctx, principalKVKey(id))
	if err != nil {
		return StoredProtocolMessage{}, errors.Wrap(err, "wal", "ProtocolMessage", "lookup principal record")
	}
	var rec StoredProtocolMessage
	if err := json.Unmarshal(entry.Value, &rec); err != nil {
		return StoredProtocolMessage{}, errors.WrapInvalid(err, "wal", "ProtocolMessage", "decode principal record")
	}
	return rec, nil
}

// RecordExists reports whether the triple is already stored.
func (l *KVLog) RecordExists(
	ctx context.Context, id transfer.MessageID, paymentID transfer.PaymentID, order int,
) (bool, error) {
	_, err := l.kv.Get(ctx, recordKVKey(id, paymentID, order))
	if err != nil {
		if errors.Is(err, errors.ErrRecordNotFound) {
			return false, nil
		}
		return false, errors.WrapTransient(err, "wal", "RecordExists", "lookup record")
	}
	return true, nil
}

// StoreProtocolMessage persists a new record, first writer wins.
func (l *KVLog) StoreProtocolMessage(ctx context.Context, rec StoredProtocolMessage) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapInvalid(err, "wal", "StoreProtocolMessage", "encode record")
	}

	if _, err := l.kv.Create(ctx, recordKVKey(rec.MessageID, rec.PaymentID, rec.Order), data); err != nil {
		if errors.Is(err, errors.ErrRecordExists) {
			return errors.Wrap(errors.ErrRecordExists, "wal", "StoreProtocolMessage", "store record")
		}
		return errors.WrapTransient(err, "wal", "StoreProtocolMessage", "store record")
	}

	if !rec.IsAck {
		// The principal index is best effort: a concurrent writer storing
		// the same principal record loses the Create race harmlessly.
		if _, err := l.kv.Create(ctx, principalKVKey(rec.MessageID), data); err != nil &&
			!errors.Is(err, errors.ErrRecordExists) {
			return errors.WrapTransient(err, "wal", "StoreProtocolMessage", "index principal record")
		}
	}
	return nil
}

// AppendStateChange durably appends a state-change record. The KV revision
// becomes the record's sequence number.
func (l *KVLog) AppendStateChange(ctx context.Context, rec *StateChangeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WrapInvalid(err, "wal", "AppendStateChange", "encode record")
	}
	rev, err := l.kv.Put(ctx, "statechange."+rec.ID, data)
	if err != nil {
		return errors.WrapTransient(err, "wal", "AppendStateChange", "append record")
	}
	rec.Sequence = rev
	return nil
}
