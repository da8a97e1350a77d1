package transfer

import "context"

// RoleForHash resolves which role the node plays for the transfer locked
// under the given secret hash. Returns RoleUnknown when the snapshot holds
// no task for the hash. Pure over the snapshot.
func RoleForHash(state *ChainState, h SecretHash) Role {
	t, ok := state.task(h)
	if !ok {
		return RoleUnknown
	}
	return t.Role
}

// KnownSecret returns the cleartext secret the node holds for the given
// hash, or EmptySecret when the node does not hold it. Only the initiator
// of a payment normally holds the secret before it is revealed. Pure over
// the snapshot.
func KnownSecret(state *ChainState, h SecretHash) Secret {
	t, ok := state.task(h)
	if !ok {
		return EmptySecret
	}
	return t.Secret
}

// SecretRegistry is the on-chain registry of publicly revealed secrets.
// Implementations read chain state and own their retry and timeout policy.
type SecretRegistry interface {
	// IsSecretRegistered reports whether the secret for the given hash was
	// ever registered on chain, evaluated against the requested chain view.
	IsSecretRegistered(ctx context.Context, h SecretHash, tag BlockTag) (bool, error)
}
