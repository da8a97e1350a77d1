package lightclient

import (
	"context"
	"log/slog"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/transfer"
	"github.com/santicomp2014/lumino/wal"
)

// Store persists Processed and Delivered acknowledgments for delegated
// clients, deduplicated per (message identifier, payment identifier, order).
// The transport layer may deliver the same acknowledgment more than once;
// storing is idempotent.
type Store struct {
	log    wal.Log
	logger *slog.Logger
}

// NewStore creates an acknowledgment store over the given durable log.
func NewStore(log wal.Log, logger *slog.Logger) *Store {
	return &Store{log: log, logger: logger}
}

// StoreAck persists one acknowledgment:
//
//  1. Resolve the acknowledged message identifier (for Delivered the
//     identifier of the message being acknowledged, for Processed the
//     processed message's own identifier).
//  2. Look up the principal record and extract its declared kind tag.
//  3. Resolve the acknowledgment's ordinal from the ordering table. An
//     unknown pairing is logged at error level and not stored.
//  4. Store the acknowledgment unless a record already exists for the
//     triple; duplicates are logged at info level and skipped.
//
// Lookup and storage failures of the durable log are propagated; every
// other outcome completes normally.
func (s *Store) StoreAck(ctx context.Context, msg message.Message) error {
	var ackedID transfer.MessageID
	switch m := msg.(type) {
	case *message.Delivered:
		ackedID = m.DeliveredMessageID
	case *message.Processed:
		ackedID = m.MessageID
	default:
		s.logger.Error("not an acknowledgment message, ignoring",
			"kind", msg.Kind().String())
		return nil
	}

	principal, err := s.log.ProtocolMessage(ctx, ackedID)
	if err != nil {
		return errors.Wrap(err, "lightclient", "StoreAck", "lookup principal message")
	}

	principalKind, err := message.KindOfJSON(principal.Content())
	if err != nil {
		s.logger.Error("stored principal message has no usable kind tag, ignoring ack",
			"message_identifier", uint64(ackedID),
			"error", err)
		return nil
	}

	order, ok := OrderForAck(principalKind, msg.Kind())
	if !ok {
		s.logger.Error("no acknowledgment ordering for principal message",
			"principal_kind", principalKind.String(),
			"ack_kind", msg.Kind().String(),
			"message_identifier", uint64(ackedID))
		return nil
	}

	exists, err := s.log.RecordExists(ctx, ackedID, principal.PaymentID, order)
	if err != nil {
		return errors.Wrap(err, "lightclient", "StoreAck", "check stored record")
	}
	if exists {
		s.logger.Info("acknowledgment already stored, skipping",
			"ack_kind", msg.Kind().String(),
			"message_identifier", uint64(ackedID),
			"payment_identifier", uint64(principal.PaymentID),
			"order", order)
		return nil
	}

	content, err := message.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "lightclient", "StoreAck", "encode acknowledgment")
	}

	rec := wal.StoredProtocolMessage{
		MessageID:     ackedID,
		PaymentID:     principal.PaymentID,
		Order:         order,
		IsAck:         true,
		SignedMessage: content,
	}
	if err := s.log.StoreProtocolMessage(ctx, rec); err != nil {
		if errors.Is(err, errors.ErrRecordExists) {
			// Lost a storage race with a concurrent duplicate; same outcome
			// as the exists check above.
			s.logger.Info("acknowledgment already stored, skipping",
				"ack_kind", msg.Kind().String(),
				"message_identifier", uint64(ackedID),
				"payment_identifier", uint64(principal.PaymentID),
				"order", order)
			return nil
		}
		return errors.Wrap(err, "lightclient", "StoreAck", "store acknowledgment")
	}
	return nil
}
