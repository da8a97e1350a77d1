package message

import (
	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

// SecretRequest asks the initiator of a payment to reveal the secret for a
// lock, sent by the target once the locked transfer reached it.
type SecretRequest struct {
	MessageID  transfer.MessageID   `json:"message_identifier"`
	PaymentID  transfer.PaymentID   `json:"payment_identifier"`
	Amount     transfer.TokenAmount `json:"amount"`
	Expiration transfer.BlockNumber `json:"expiration"`
	SecretHash transfer.SecretHash  `json:"secrethash"`
	SenderAddr transfer.Address     `json:"sender"`
}

// Kind returns KindSecretRequest.
func (m *SecretRequest) Kind() Kind { return KindSecretRequest }

// Sender returns the requesting party.
func (m *SecretRequest) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a secret request.
func (m *SecretRequest) Validate() error {
	if m.SenderAddr.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "SecretRequest", "empty sender")
	}
	if m.SecretHash == (transfer.SecretHash{}) {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "SecretRequest", "empty secret hash")
	}
	return nil
}

func (m *SecretRequest) sealed() {}

// RevealSecret publishes the cleartext secret for a lock along the payment
// path.
type RevealSecret struct {
	MessageID  transfer.MessageID `json:"message_identifier"`
	Secret     transfer.Secret    `json:"secret"`
	SenderAddr transfer.Address   `json:"sender"`
}

// Kind returns KindRevealSecret.
func (m *RevealSecret) Kind() Kind { return KindRevealSecret }

// Sender returns the revealing party.
func (m *RevealSecret) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a secret reveal.
func (m *RevealSecret) Validate() error {
	if m.SenderAddr.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "RevealSecret", "empty sender")
	}
	if m.Secret.IsEmpty() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "RevealSecret", "empty secret")
	}
	return nil
}

func (m *RevealSecret) sealed() {}

// Unlock settles a lock off-chain: the sender commits to the new channel
// balance in the signed envelope and discloses the secret.
type Unlock struct {
	Envelope
	MessageID transfer.MessageID `json:"message_identifier"`
	PaymentID transfer.PaymentID `json:"payment_identifier"`
	Secret    transfer.Secret    `json:"secret"`
}

// Kind returns KindUnlock.
func (m *Unlock) Kind() Kind { return KindUnlock }

// Sender returns the address recovered from the envelope signature.
func (m *Unlock) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of an unlock.
func (m *Unlock) Validate() error {
	if m.Secret.IsEmpty() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "Unlock", "empty secret")
	}
	if len(m.Signature) == 0 {
		return errors.WrapInvalid(errors.ErrMissingSignature, "message", "Unlock", "unsigned envelope")
	}
	return nil
}

func (m *Unlock) sealed() {}

// LockExpired removes an expired lock from the sender's balance proof.
type LockExpired struct {
	Envelope
	MessageID  transfer.MessageID  `json:"message_identifier"`
	SecretHash transfer.SecretHash `json:"secrethash"`
}

// Kind returns KindLockExpired.
func (m *LockExpired) Kind() Kind { return KindLockExpired }

// Sender returns the address recovered from the envelope signature.
func (m *LockExpired) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a lock expiry.
func (m *LockExpired) Validate() error {
	if m.SecretHash == (transfer.SecretHash{}) {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "LockExpired", "empty secret hash")
	}
	if len(m.Signature) == 0 {
		return errors.WrapInvalid(errors.ErrMissingSignature, "message", "LockExpired", "unsigned envelope")
	}
	return nil
}

func (m *LockExpired) sealed() {}

// LockedTransfer offers a new mediated transfer: the signed envelope locks
// an amount under a secret hash until expiration, to be forwarded toward
// Target.
type LockedTransfer struct {
	Envelope
	MessageID transfer.MessageID    `json:"message_identifier"`
	PaymentID transfer.PaymentID    `json:"payment_identifier"`
	Token     transfer.Address      `json:"token"`
	Lock      transfer.HashTimeLock `json:"lock"`
	Initiator transfer.Address      `json:"initiator"`
	Target    transfer.Address      `json:"target"`
}

// Kind returns KindLockedTransfer.
func (m *LockedTransfer) Kind() Kind { return KindLockedTransfer }

// Sender returns the address recovered from the envelope signature.
func (m *LockedTransfer) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a locked transfer offer.
func (m *LockedTransfer) Validate() error {
	if err := m.Lock.Validate(); err != nil {
		return err
	}
	if m.Target.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "LockedTransfer", "empty target")
	}
	if len(m.Signature) == 0 {
		return errors.WrapInvalid(errors.ErrMissingSignature, "message", "LockedTransfer", "unsigned envelope")
	}
	return nil
}

func (m *LockedTransfer) sealed() {}

// SignedTransfer reconstructs the state-machine representation of the
// offered transfer from the message's embedded data.
func (m *LockedTransfer) SignedTransfer() (transfer.LockedTransferState, error) {
	proof, err := m.BalanceProof()
	if err != nil {
		return transfer.LockedTransferState{}, err
	}
	return transfer.LockedTransferState{
		PaymentID:    m.PaymentID,
		Token:        m.Token,
		BalanceProof: proof,
		Lock:         m.Lock,
		Initiator:    m.Initiator,
		Target:       m.Target,
	}, nil
}

// RefundTransfer refuses a locked transfer back along the mediation path.
// It carries the same field set as LockedTransfer but is a distinct kind:
// a refund must never be dispatched as a transfer offer.
type RefundTransfer struct {
	Envelope
	MessageID transfer.MessageID    `json:"message_identifier"`
	PaymentID transfer.PaymentID    `json:"payment_identifier"`
	Token     transfer.Address      `json:"token"`
	Lock      transfer.HashTimeLock `json:"lock"`
	Initiator transfer.Address      `json:"initiator"`
	Target    transfer.Address      `json:"target"`
}

// Kind returns KindRefundTransfer.
func (m *RefundTransfer) Kind() Kind { return KindRefundTransfer }

// Sender returns the address recovered from the envelope signature.
func (m *RefundTransfer) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a refund.
func (m *RefundTransfer) Validate() error {
	if err := m.Lock.Validate(); err != nil {
		return err
	}
	if len(m.Signature) == 0 {
		return errors.WrapInvalid(errors.ErrMissingSignature, "message", "RefundTransfer", "unsigned envelope")
	}
	return nil
}

func (m *RefundTransfer) sealed() {}

// SignedTransfer reconstructs the refused transfer from the refund's
// embedded original-transfer data.
func (m *RefundTransfer) SignedTransfer() (transfer.LockedTransferState, error) {
	proof, err := m.BalanceProof()
	if err != nil {
		return transfer.LockedTransferState{}, err
	}
	return transfer.LockedTransferState{
		PaymentID:    m.PaymentID,
		Token:        m.Token,
		BalanceProof: proof,
		Lock:         m.Lock,
		Initiator:    m.Initiator,
		Target:       m.Target,
	}, nil
}

// Delivered acknowledges transport-level receipt of a message.
type Delivered struct {
	DeliveredMessageID transfer.MessageID `json:"delivered_message_identifier"`
	SenderAddr         transfer.Address   `json:"sender"`
}

// Kind returns KindDelivered.
func (m *Delivered) Kind() Kind { return KindDelivered }

// Sender returns the acknowledging party.
func (m *Delivered) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a delivery acknowledgment.
func (m *Delivered) Validate() error {
	if m.SenderAddr.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "Delivered", "empty sender")
	}
	if m.DeliveredMessageID == 0 {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "Delivered", "zero message identifier")
	}
	return nil
}

func (m *Delivered) sealed() {}

// Processed acknowledges that a message was applied to the sender's state
// machine.
type Processed struct {
	MessageID  transfer.MessageID `json:"message_identifier"`
	SenderAddr transfer.Address   `json:"sender"`
}

// Kind returns KindProcessed.
func (m *Processed) Kind() Kind { return KindProcessed }

// Sender returns the acknowledging party.
func (m *Processed) Sender() transfer.Address { return m.SenderAddr }

// Validate checks the required fields of a processing acknowledgment.
func (m *Processed) Validate() error {
	if m.SenderAddr.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "Processed", "empty sender")
	}
	if m.MessageID == 0 {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "message", "Processed", "zero message identifier")
	}
	return nil
}

func (m *Processed) sealed() {}

// Ping is the transport keepalive. It reaches this core only when the
// transport fails to strip it; the dispatcher logs it as unrecognized and
// drops it.
type Ping struct {
	MessageID  transfer.MessageID `json:"message_identifier"`
	SenderAddr transfer.Address   `json:"sender"`
}

// Kind returns KindPing.
func (m *Ping) Kind() Kind { return KindPing }

// Sender returns the pinging party.
func (m *Ping) Sender() transfer.Address { return m.SenderAddr }

// Validate always succeeds; a keepalive has no required payload.
func (m *Ping) Validate() error { return nil }

func (m *Ping) sealed() {}
