package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Format(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "wal", "StoreProtocolMessage", "store record")
	require.Error(t, err)
	assert.Equal(t, "wal.StoreProtocolMessage: store record failed: boom", err.Error())
	assert.True(t, errors.Is(err, base))

	assert.NoError(t, Wrap(nil, "wal", "StoreProtocolMessage", "store record"))
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		check func(error) bool
		class ErrorClass
	}{
		{"transient", WrapTransient, IsTransient, ErrorTransient},
		{"invalid", WrapInvalid, IsInvalid, ErrorInvalid},
		{"fatal", WrapFatal, IsFatal, ErrorFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "natsclient", "Connect", "connect")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.class, Classify(err))
			assert.True(t, errors.Is(err, base))

			var ce *ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "natsclient", ce.Component)
			assert.Equal(t, "Connect", ce.Operation)

			assert.NoError(t, tt.wrap(nil, "natsclient", "Connect", "connect"))
		})
	}
}

func TestClassification_KnownSentinels(t *testing.T) {
	assert.True(t, IsTransient(ErrConnectionLost))
	assert.True(t, IsTransient(fmt.Errorf("queue: %w", context.DeadlineExceeded)))
	assert.True(t, IsInvalid(ErrInvalidMessage))
	assert.True(t, IsInvalid(fmt.Errorf("decode: %w", ErrInvalidEnvelope)))
	assert.True(t, IsFatal(ErrMissingConfig))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsInvalid(nil))
	assert.False(t, IsFatal(nil))
}

func TestClassify_DefaultsToTransient(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(errors.New("something happened")))
}

func TestClassifiedError_PreservesWrappedSentinel(t *testing.T) {
	err := WrapTransient(ErrRecordExists, "wal", "StoreProtocolMessage", "store record")
	assert.True(t, Is(err, ErrRecordExists))
	assert.False(t, Is(err, ErrRecordNotFound))
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}
