// Package message defines the signed protocol messages consumed by the
// node's inbound processing core as a closed, tagged variant set.
//
// The set is closed on purpose: the Message interface has an unexported
// method, so no type outside this package can satisfy it. Dispatch switches
// on the exact concrete type, never on a capability or subtype match. A
// value that is structurally similar to a recognized kind but is not that
// exact kind cannot be constructed, and therefore cannot be processed as the
// base kind. Construction of variants is restricted to trusted decoding
// code in the transport layer.
//
// Messages are immutable once received: handlers read fields and build
// state changes, they never mutate a message.
package message

import (
	"encoding/json"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

// Kind identifies the exact declared kind of a protocol message.
type Kind int

// Message kinds handled by the inbound core.
const (
	KindUnknown Kind = iota
	KindSecretRequest
	KindRevealSecret
	KindUnlock
	KindLockExpired
	KindRefundTransfer
	KindLockedTransfer
	KindDelivered
	KindProcessed
	// KindPing is a transport-level keepalive. It is part of the wire
	// protocol but carries no state-machine meaning; the dispatcher treats
	// it as unrecognized.
	KindPing
)

var kindNames = map[Kind]string{
	KindSecretRequest:  "SecretRequest",
	KindRevealSecret:   "RevealSecret",
	KindUnlock:         "Unlock",
	KindLockExpired:    "LockExpired",
	KindRefundTransfer: "RefundTransfer",
	KindLockedTransfer: "LockedTransfer",
	KindDelivered:      "Delivered",
	KindProcessed:      "Processed",
	KindPing:           "Ping",
}

// String returns the canonical kind name used as the type tag in stored
// message content.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind resolves a canonical kind name to its Kind. Returns an error
// wrapping ErrUnknownMessageKind for names outside the closed set.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnknown, errors.WrapInvalid(
		errors.ErrUnknownMessageKind, "message", "ParseKind", "resolve kind "+name)
}

// Message is the closed interface over all protocol message variants.
type Message interface {
	// Kind returns the message's exact declared kind.
	Kind() Kind

	// Sender returns the verified sender identity. For envelope-carrying
	// messages this is the address recovered from the envelope signature
	// by the transport layer.
	Sender() transfer.Address

	// Validate checks the kind-specific required fields.
	Validate() error

	// sealed restricts implementations to this package.
	sealed()
}

// Marshal encodes a message as JSON with its kind name under the "type"
// key. This is the structured content format of the durable log's stored
// protocol messages.
func Marshal(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WrapInvalid(err, "message", "Marshal", "encode "+m.Kind().String())
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.WrapInvalid(err, "message", "Marshal", "reshape "+m.Kind().String())
	}
	tag, err := json.Marshal(m.Kind().String())
	if err != nil {
		return nil, errors.WrapInvalid(err, "message", "Marshal", "tag "+m.Kind().String())
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// KindOfJSON extracts the declared kind tag from stored message content.
func KindOfJSON(data []byte) (Kind, error) {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return KindUnknown, errors.WrapInvalid(err, "message", "KindOfJSON", "decode type tag")
	}
	return ParseKind(tagged.Type)
}
