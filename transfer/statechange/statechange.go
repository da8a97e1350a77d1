// Package statechange defines the state changes emitted by the inbound
// message handlers. Each protocol message kind maps to exactly one state
// change variant; the set is closed the same way the message set is.
//
// State changes are opaque to the handlers beyond construction: they are
// submitted to the node's state-change pipeline, which applies them to the
// transfer state machine and durably logs them.
package statechange

import (
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/transfer"
)

// StateChange is the closed interface over all state change variants.
type StateChange interface {
	// Type returns the variant name used for logging, metrics, and the
	// durable log's record envelope.
	Type() string

	// sealed restricts implementations to this package.
	sealed()
}

// ReplayContext marks a state change as produced on behalf of a delegated
// client and retains the originating message for later re-delivery and
// audit. A nil ReplayContext means the node handled the message for itself.
type ReplayContext struct {
	ClientAddress transfer.Address `json:"client_address"`
	Message       message.Message  `json:"-"`
}

// ReceiveSecretRequest records an inbound request to reveal a secret.
type ReceiveSecretRequest struct {
	PaymentID  transfer.PaymentID   `json:"payment_identifier"`
	Amount     transfer.TokenAmount `json:"amount"`
	Expiration transfer.BlockNumber `json:"expiration"`
	SecretHash transfer.SecretHash  `json:"secrethash"`
	Sender     transfer.Address     `json:"sender"`
	Replay     *ReplayContext       `json:"replay,omitempty"`
}

// Type returns the variant name.
func (*ReceiveSecretRequest) Type() string { return "ReceiveSecretRequest" }

func (*ReceiveSecretRequest) sealed() {}

// ReceiveSecretReveal records an inbound cleartext secret.
type ReceiveSecretReveal struct {
	Secret transfer.Secret  `json:"secret"`
	Sender transfer.Address `json:"sender"`
	Replay *ReplayContext   `json:"replay,omitempty"`
}

// Type returns the variant name.
func (*ReceiveSecretReveal) Type() string { return "ReceiveSecretReveal" }

func (*ReceiveSecretReveal) sealed() {}

// ReceiveUnlock records an off-chain lock settlement backed by a balance
// proof derived from the message's signed envelope.
type ReceiveUnlock struct {
	MessageID    transfer.MessageID    `json:"message_identifier"`
	Secret       transfer.Secret       `json:"secret"`
	BalanceProof transfer.BalanceProof `json:"balance_proof"`
}

// Type returns the variant name.
func (*ReceiveUnlock) Type() string { return "ReceiveUnlock" }

func (*ReceiveUnlock) sealed() {}

// ReceiveLockExpired records the removal of an expired lock, backed by a
// balance proof derived from the message's signed envelope.
type ReceiveLockExpired struct {
	BalanceProof transfer.BalanceProof `json:"balance_proof"`
	SecretHash   transfer.SecretHash   `json:"secrethash"`
	MessageID    transfer.MessageID    `json:"message_identifier"`
}

// Type returns the variant name.
func (*ReceiveLockExpired) Type() string { return "ReceiveLockExpired" }

func (*ReceiveLockExpired) sealed() {}

// ReceiveTransferRefund records a refused transfer for a mediator or
// target: the reconstructed transfer plus the candidate routes to retry
// along. Routes may be empty when the resolver found none.
type ReceiveTransferRefund struct {
	Transfer transfer.LockedTransferState `json:"transfer"`
	Routes   []transfer.RouteState        `json:"routes"`
}

// Type returns the variant name.
func (*ReceiveTransferRefund) Type() string { return "ReceiveTransferRefund" }

func (*ReceiveTransferRefund) sealed() {}

// ReceiveTransferRefundCancelRoute records a refused transfer for the
// initiator: routes to retry along and a freshly minted secret for the new
// attempt. Routes are forced empty when the initiator no longer holds the
// old secret, pushing the payment into a terminal failure instead of a
// route-level retry.
type ReceiveTransferRefundCancelRoute struct {
	Routes   []transfer.RouteState        `json:"routes"`
	Transfer transfer.LockedTransferState `json:"transfer"`
	Secret   transfer.Secret              `json:"secret"`
}

// Type returns the variant name.
func (*ReceiveTransferRefundCancelRoute) Type() string { return "ReceiveTransferRefundCancelRoute" }

func (*ReceiveTransferRefundCancelRoute) sealed() {}

// ReceiveProcessed records a processing acknowledgment.
type ReceiveProcessed struct {
	Sender    transfer.Address   `json:"sender"`
	MessageID transfer.MessageID `json:"message_identifier"`
}

// Type returns the variant name.
func (*ReceiveProcessed) Type() string { return "ReceiveProcessed" }

func (*ReceiveProcessed) sealed() {}

// ReceiveDelivered records a delivery acknowledgment.
type ReceiveDelivered struct {
	Sender    transfer.Address   `json:"sender"`
	MessageID transfer.MessageID `json:"message_identifier"`
}

// Type returns the variant name.
func (*ReceiveDelivered) Type() string { return "ReceiveDelivered" }

func (*ReceiveDelivered) sealed() {}
