package wal

import (
	"context"
	"sync"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

type recordKey struct {
	messageID transfer.MessageID
	paymentID transfer.PaymentID
	order     int
}

// MemoryLog is an in-memory Log for tests and single-process operation.
// Safe for concurrent use.
type MemoryLog struct {
	mu           sync.Mutex
	records      map[recordKey]StoredProtocolMessage
	principals   map[transfer.MessageID]StoredProtocolMessage
	stateChanges []StateChangeRecord
	sequence     uint64
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		records:    make(map[recordKey]StoredProtocolMessage),
		principals: make(map[transfer.MessageID]StoredProtocolMessage),
	}
}

// ProtocolMessage returns the principal record for the message identifier.
func (l *MemoryLog) ProtocolMessage(_ context.Context, id transfer.MessageID) (StoredProtocolMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.principals[id]
	if !ok {
		return StoredProtocolMessage{}, errors.Wrap(
			errors.ErrRecordNotFound, "wal", "ProtocolMessage", "lookup principal record")
	}
	return rec, nil
}

// RecordExists reports whether the triple is already stored.
func (l *MemoryLog) RecordExists(
	_ context.Context, id transfer.MessageID, paymentID transfer.PaymentID, order int,
) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.records[recordKey{id, paymentID, order}]
	return ok, nil
}

// StoreProtocolMessage persists a new record, first writer wins.
func (l *MemoryLog) StoreProtocolMessage(_ context.Context, rec StoredProtocolMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := recordKey{rec.MessageID, rec.PaymentID, rec.Order}
	if _, ok := l.records[key]; ok {
		return errors.Wrap(errors.ErrRecordExists, "wal", "StoreProtocolMessage", "store record")
	}
	l.records[key] = rec
	if !rec.IsAck {
		if _, ok := l.principals[rec.MessageID]; !ok {
			l.principals[rec.MessageID] = rec
		}
	}
	return nil
}

// AppendStateChange appends a record and assigns the next sequence number.
func (l *MemoryLog) AppendStateChange(_ context.Context, rec *StateChangeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sequence++
	rec.Sequence = l.sequence
	l.stateChanges = append(l.stateChanges, *rec)
	return nil
}

// StateChanges returns a copy of the appended state-change records in
// order. Test helper.
func (l *MemoryLog) StateChanges() []StateChangeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]StateChangeRecord, len(l.stateChanges))
	copy(out, l.stateChanges)
	return out
}

// RecordCount returns the number of stored protocol message records.
// Test helper.
func (l *MemoryLog) RecordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
