// Package transfer defines the primitive protocol types of the off-chain
// transfer state machine: addresses, secrets and their hashes, payment and
// message identifiers, the hash time lock, and the immutable chain-state
// snapshot that role and route resolution are computed against.
package transfer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/santicomp2014/lumino/errors"
)

// Address is a 20-byte participant or contract address.
type Address [20]byte

// Hex returns the lowercase hex representation with a 0x prefix.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// TokenNetworkAddress identifies the token network a transfer belongs to.
// It is a distinct type so a participant address can never be passed where
// a token network is expected.
type TokenNetworkAddress [20]byte

// Hex returns the lowercase hex representation with a 0x prefix.
func (t TokenNetworkAddress) Hex() string {
	return "0x" + hex.EncodeToString(t[:])
}

// Secret is the 32-byte preimage that unlocks a hash time lock.
type Secret [32]byte

// EmptySecret is the sentinel for "no secret known". A node that resolves
// this value for a secret hash does not hold the cleartext secret.
var EmptySecret = Secret{}

// IsEmpty reports whether the secret is the empty sentinel.
func (s Secret) IsEmpty() bool {
	return s == EmptySecret
}

// Hash returns the SHA-256 hash locking this secret.
func (s Secret) Hash() SecretHash {
	return SecretHash(sha256.Sum256(s[:]))
}

// SecretHash is the 32-byte hash a transfer's lock commits to.
type SecretHash [32]byte

// Hex returns the lowercase hex representation with a 0x prefix.
func (h SecretHash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// RandomSecret generates a fresh secret from the system CSPRNG. The result
// is guaranteed to differ from EmptySecret.
func RandomSecret() (Secret, error) {
	var s Secret
	for {
		if _, err := rand.Read(s[:]); err != nil {
			return EmptySecret, errors.WrapFatal(err, "transfer", "RandomSecret", "read entropy")
		}
		if !s.IsEmpty() {
			return s, nil
		}
	}
}

// PaymentID identifies a payment across its message exchange.
type PaymentID uint64

// MessageID identifies a single protocol message instance.
type MessageID uint64

// ChannelID identifies a payment channel within a token network.
type ChannelID uint64

// TokenAmount is a token value in the token's smallest denomination.
type TokenAmount uint64

// BlockNumber is an absolute block height.
type BlockNumber uint64

// Nonce is the strictly increasing counter of a channel participant's
// balance proofs.
type Nonce uint64

// HashTimeLock is the lock carried by a mediated transfer: an amount locked
// until expiration under a secret hash.
type HashTimeLock struct {
	Amount     TokenAmount
	Expiration BlockNumber
	SecretHash SecretHash
}

// Validate checks the lock's required fields.
func (l HashTimeLock) Validate() error {
	if l.Amount == 0 {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "transfer", "HashTimeLock", "zero lock amount")
	}
	if l.Expiration == 0 {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "transfer", "HashTimeLock", "zero lock expiration")
	}
	if l.SecretHash == (SecretHash{}) {
		return errors.WrapInvalid(errors.ErrInvalidMessage, "transfer", "HashTimeLock", "empty secret hash")
	}
	return nil
}

// Role is the part the local node plays for a given transfer, resolved per
// secret hash against a chain-state snapshot.
type Role int

// Transfer roles.
const (
	// RoleUnknown means the snapshot holds no transfer task for the hash.
	RoleUnknown Role = iota
	// RoleInitiator marks the node as the payment's origin.
	RoleInitiator
	// RoleMediator marks the node as a forwarding hop.
	RoleMediator
	// RoleTarget marks the node as the payment's destination.
	RoleTarget
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleMediator:
		return "mediator"
	case RoleTarget:
		return "target"
	default:
		return "unknown"
	}
}

// BlockTag selects which chain view a registry query is evaluated against.
type BlockTag string

// BlockTagLatest queries the most recent known chain view. Secret registry
// checks for inbound locked transfers must use this tag: the question is
// whether the secret was ever exposed, not whether it is exposed in a
// consistent historical view.
const BlockTagLatest BlockTag = "latest"

// BalanceProof is a participant's signed commitment to a channel's
// cumulative transferred and locked value. It is derived from a message's
// signed envelope; this core treats it as opaque beyond construction.
type BalanceProof struct {
	Nonce             Nonce
	TransferredAmount TokenAmount
	LockedAmount      TokenAmount
	LocksRoot         [32]byte
	TokenNetwork      TokenNetworkAddress
	ChannelID         ChannelID
	Sender            Address
	Signature         []byte
}

// LockedTransferState is the state-machine representation of a signed
// locked transfer, reconstructed from a LockedTransfer or RefundTransfer
// message.
type LockedTransferState struct {
	PaymentID    PaymentID
	Token        Address
	BalanceProof BalanceProof
	Lock         HashTimeLock
	Initiator    Address
	Target       Address
}

// RouteState is one candidate forwarding path for a transfer, ordered from
// the next hop onward.
type RouteState struct {
	NextHop          Address
	ChannelID        ChannelID
	EstimatedFee     TokenAmount
	AvailableBalance TokenAmount
}

func (r RouteState) String() string {
	return fmt.Sprintf("route{next_hop=%s channel=%d}", r.NextHop.Hex(), r.ChannelID)
}
