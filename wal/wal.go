// Package wal defines the node's durable log contract: stored protocol
// message records for delegated clients and the append-only state-change
// log. Two implementations are provided, an in-memory log for tests and a
// NATS JetStream KV backed log for production.
package wal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/santicomp2014/lumino/transfer"
)

// StoredProtocolMessage is one record of a delegated client's message
// exchange. Records are immutable once written; at most one record exists
// per (message identifier, payment identifier, order) triple.
type StoredProtocolMessage struct {
	MessageID transfer.MessageID `json:"message_identifier"`
	PaymentID transfer.PaymentID `json:"payment_identifier"`
	Order     int                `json:"order"`
	IsAck     bool               `json:"is_ack"`

	// UnsignedMessage and SignedMessage hold the message body as structured
	// content (message.Marshal format). Either may be empty; the signed form
	// is preferred when both are present.
	UnsignedMessage json.RawMessage `json:"unsigned_message,omitempty"`
	SignedMessage   json.RawMessage `json:"signed_message,omitempty"`
}

// Content returns the record's structured message body, preferring the
// signed form.
func (r StoredProtocolMessage) Content() json.RawMessage {
	if len(r.SignedMessage) > 0 {
		return r.SignedMessage
	}
	return r.UnsignedMessage
}

// StateChangeRecord is one durably logged state change.
type StateChangeRecord struct {
	ID         string          `json:"id"`
	Sequence   uint64          `json:"sequence"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Log is the durable log consumed by the inbound core. Implementations own
// the storage engine; this core only relies on the idempotency and lookup
// semantics below.
type Log interface {
	// ProtocolMessage returns the principal (non-acknowledgment) record
	// stored for the given message identifier. Returns an error wrapping
	// errors.ErrRecordNotFound when no principal record exists.
	ProtocolMessage(ctx context.Context, id transfer.MessageID) (StoredProtocolMessage, error)

	// RecordExists reports whether a record is already stored under the
	// (message identifier, payment identifier, order) triple.
	RecordExists(ctx context.Context, id transfer.MessageID, paymentID transfer.PaymentID, order int) (bool, error)

	// StoreProtocolMessage persists a new record. Returns an error wrapping
	// errors.ErrRecordExists when the record's triple is already taken;
	// the existing record is left untouched.
	StoreProtocolMessage(ctx context.Context, rec StoredProtocolMessage) error

	// AppendStateChange durably appends a state-change record, assigning
	// its sequence number.
	AppendStateChange(ctx context.Context, rec *StateChangeRecord) error
}
