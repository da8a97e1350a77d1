package message

import (
	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

// Envelope is the signed balance-proof envelope embedded in Unlock,
// LockExpired, LockedTransfer and RefundTransfer messages. Signature
// verification and sender recovery happen in the transport layer before a
// message reaches this core; the envelope carries the recovered sender.
type Envelope struct {
	Nonce             transfer.Nonce               `json:"nonce"`
	TokenNetwork      transfer.TokenNetworkAddress `json:"token_network_address"`
	ChannelID         transfer.ChannelID           `json:"channel_identifier"`
	TransferredAmount transfer.TokenAmount         `json:"transferred_amount"`
	LockedAmount      transfer.TokenAmount         `json:"locked_amount"`
	LocksRoot         [32]byte                     `json:"locksroot"`
	SenderAddr        transfer.Address             `json:"sender"`
	Signature         []byte                       `json:"signature"`
}

// BalanceProof derives the balance proof committed to by the envelope.
// Fails when the envelope was never signed or carries no usable commitment;
// the failure is propagated to the dispatcher's caller as a handling
// failure.
func (e Envelope) BalanceProof() (transfer.BalanceProof, error) {
	if len(e.Signature) == 0 {
		return transfer.BalanceProof{}, errors.WrapInvalid(
			errors.ErrMissingSignature, "message", "BalanceProof", "derive balance proof")
	}
	if e.Nonce == 0 {
		return transfer.BalanceProof{}, errors.WrapInvalid(
			errors.ErrInvalidEnvelope, "message", "BalanceProof", "zero nonce")
	}
	if e.SenderAddr.IsZero() {
		return transfer.BalanceProof{}, errors.WrapInvalid(
			errors.ErrInvalidEnvelope, "message", "BalanceProof", "unrecovered sender")
	}
	return transfer.BalanceProof{
		Nonce:             e.Nonce,
		TransferredAmount: e.TransferredAmount,
		LockedAmount:      e.LockedAmount,
		LocksRoot:         e.LocksRoot,
		TokenNetwork:      e.TokenNetwork,
		ChannelID:         e.ChannelID,
		Sender:            e.SenderAddr,
		Signature:         e.Signature,
	}, nil
}
