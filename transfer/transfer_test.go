package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSecret(t *testing.T) {
	s1, err := RandomSecret()
	require.NoError(t, err)
	s2, err := RandomSecret()
	require.NoError(t, err)

	assert.False(t, s1.IsEmpty())
	assert.False(t, s2.IsEmpty())
	assert.NotEqual(t, s1, s2)
}

func TestSecret_Hash(t *testing.T) {
	s := Secret{0x01, 0x02}
	h1 := s.Hash()
	h2 := s.Hash()

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, SecretHash{}, h1)
}

func TestAddress_Hex(t *testing.T) {
	a := Address{0xAB, 0xCD}
	assert.Equal(t, "0xabcd000000000000000000000000000000000000", a.Hex())
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestHashTimeLock_Validate(t *testing.T) {
	valid := HashTimeLock{Amount: 1, Expiration: 2, SecretHash: SecretHash{0x01}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		lock HashTimeLock
	}{
		{"zero amount", HashTimeLock{Expiration: 2, SecretHash: SecretHash{1}}},
		{"zero expiration", HashTimeLock{Amount: 1, SecretHash: SecretHash{1}}},
		{"empty secret hash", HashTimeLock{Amount: 1, Expiration: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.lock.Validate())
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "initiator", RoleInitiator.String())
	assert.Equal(t, "mediator", RoleMediator.String())
	assert.Equal(t, "target", RoleTarget.String())
	assert.Equal(t, "unknown", RoleUnknown.String())
}

func TestRoleForHash(t *testing.T) {
	h := SecretHash{0x05}
	state := NewChainState(10, Address{0x01}, map[SecretHash]TransferTask{
		h: {Role: RoleMediator},
	})

	assert.Equal(t, RoleMediator, RoleForHash(state, h))
	assert.Equal(t, RoleUnknown, RoleForHash(state, SecretHash{0x06}))
}

func TestKnownSecret(t *testing.T) {
	h := SecretHash{0x05}
	secret := Secret{0x55}
	state := NewChainState(10, Address{0x01}, map[SecretHash]TransferTask{
		h:                {Role: RoleInitiator, Secret: secret},
		SecretHash{0x06}: {Role: RoleInitiator},
	})

	assert.Equal(t, secret, KnownSecret(state, h))
	assert.True(t, KnownSecret(state, SecretHash{0x06}).IsEmpty(), "task without secret yields the sentinel")
	assert.True(t, KnownSecret(state, SecretHash{0x07}).IsEmpty(), "missing task yields the sentinel")
}

func TestChainState_Immutable(t *testing.T) {
	h := SecretHash{0x05}
	tasks := map[SecretHash]TransferTask{h: {Role: RoleTarget}}
	state := NewChainState(10, Address{0x01}, tasks)

	delete(tasks, h)

	assert.Equal(t, RoleTarget, RoleForHash(state, h), "snapshot is detached from the caller's map")
	assert.Equal(t, BlockNumber(10), state.BlockNumber())
	assert.Equal(t, Address{0x01}, state.OurAddress())
}
