// Package lightclient persists protocol message acknowledgments on behalf
// of delegated clients, nodes whose messages are relayed and partially
// managed by this node. Acknowledgments are stored idempotently and in
// protocol order so they can be replayed and audited.
package lightclient

import "github.com/santicomp2014/lumino/message"

// ackPair keys the ordering table: the kind of the acknowledged principal
// message and the kind of the acknowledgment itself.
type ackPair struct {
	principal message.Kind
	ack       message.Kind
}

// ackOrder maps each known (principal, ack) pairing to the ordinal position
// of the acknowledgment within the principal message's expected sequence.
// The table is keyed by the message kind enumeration; a pairing missing
// here is a protocol-sequence bug or a malformed acknowledgment and is
// never stored.
var ackOrder = map[ackPair]int{
	{message.KindLockedTransfer, message.KindDelivered}: 1,
	{message.KindLockedTransfer, message.KindProcessed}: 2,
	{message.KindSecretRequest, message.KindDelivered}:  4,
	{message.KindRevealSecret, message.KindDelivered}:   6,
	{message.KindRevealSecret, message.KindProcessed}:   7,
	{message.KindUnlock, message.KindDelivered}:         10,
	{message.KindUnlock, message.KindProcessed}:         11,
	{message.KindLockExpired, message.KindDelivered}:    12,
	{message.KindLockExpired, message.KindProcessed}:    13,
}

// OrderForAck returns the ordinal for an acknowledgment of the given kind
// against a principal message of the given kind. The second return value is
// false when the pairing is unknown.
func OrderForAck(principal, ack message.Kind) (int, bool) {
	order, ok := ackOrder[ackPair{principal: principal, ack: ack}]
	return order, ok
}
