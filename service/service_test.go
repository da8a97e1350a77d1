package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/handler"
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/routing"
	"github.com/santicomp2014/lumino/transfer"
	"github.com/santicomp2014/lumino/transfer/statechange"
	"github.com/santicomp2014/lumino/wal"
)

type stubRegistry struct{ registered bool }

func (r *stubRegistry) IsSecretRegistered(context.Context, transfer.SecretHash, transfer.BlockTag) (bool, error) {
	return r.registered, nil
}

type recordingFlows struct {
	targeted []*message.LockedTransfer
	mediated []*message.LockedTransfer
}

func (f *recordingFlows) Target(_ context.Context, msg *message.LockedTransfer) error {
	f.targeted = append(f.targeted, msg)
	return nil
}

func (f *recordingFlows) Mediate(_ context.Context, msg *message.LockedTransfer) error {
	f.mediated = append(f.mediated, msg)
	return nil
}

type noRoutes struct{}

func (noRoutes) GetBestRoutes(
	context.Context, *transfer.ChainState, routing.Request,
) ([]transfer.RouteState, routing.Diagnostics, error) {
	return nil, routing.Diagnostics{}, nil
}

func newService(t *testing.T, log wal.Log) *Service {
	t.Helper()
	svc, err := New(Options{
		Address:        transfer.Address{0x0a},
		SecretRegistry: &stubRegistry{},
		Flows:          &recordingFlows{},
		Routes:         noRoutes{},
		Log:            log,
		InboundBuffer:  4,
	})
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresCollaborators(t *testing.T) {
	base := Options{
		SecretRegistry: &stubRegistry{},
		Flows:          &recordingFlows{},
		Routes:         noRoutes{},
		Log:            wal.NewMemoryLog(),
	}

	for name, mutate := range map[string]func(*Options){
		"registry": func(o *Options) { o.SecretRegistry = nil },
		"flows":    func(o *Options) { o.Flows = nil },
		"routes":   func(o *Options) { o.Routes = nil },
		"log":      func(o *Options) { o.Log = nil },
	} {
		t.Run(name, func(t *testing.T) {
			opts := base
			mutate(&opts)
			_, err := New(opts)
			assert.True(t, errors.Is(err, errors.ErrMissingConfig))
		})
	}
}

func TestHandleStateChange_AppendsRecord(t *testing.T) {
	log := wal.NewMemoryLog()
	svc := newService(t, log)

	change := &statechange.ReceiveProcessed{MessageID: 11, Sender: transfer.Address{0x02}}
	require.NoError(t, svc.HandleStateChange(context.Background(), change))

	records := log.StateChanges()
	require.Len(t, records, 1)
	rec := records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, change.Type(), rec.Type)
	assert.Equal(t, uint64(1), rec.Sequence)
	assert.False(t, rec.RecordedAt.IsZero())

	var decoded statechange.ReceiveProcessed
	require.NoError(t, json.Unmarshal(rec.Data, &decoded))
	assert.Equal(t, transfer.MessageID(11), decoded.MessageID)
}

func TestChainState_SnapshotSwap(t *testing.T) {
	svc := newService(t, wal.NewMemoryLog())

	initial := svc.ChainState()
	require.NotNil(t, initial)
	assert.Equal(t, transfer.Address{0x0a}, initial.OurAddress())

	next := transfer.NewChainState(42, transfer.Address{0x0a}, nil)
	svc.SetChainState(next)
	assert.Equal(t, transfer.BlockNumber(42), svc.ChainState().BlockNumber())

	// A nil snapshot is ignored.
	svc.SetChainState(nil)
	assert.Equal(t, transfer.BlockNumber(42), svc.ChainState().BlockNumber())
}

func TestOnMessage_DispatchesToHandlers(t *testing.T) {
	log := wal.NewMemoryLog()
	svc := newService(t, log)

	msg := &message.Processed{MessageID: 5, SenderAddr: transfer.Address{0x02}}
	require.NoError(t, svc.OnMessage(context.Background(), msg, nil))

	records := log.StateChanges()
	require.Len(t, records, 1)
	assert.Equal(t, (&statechange.ReceiveProcessed{}).Type(), records[0].Type)
}

func TestRun_ConsumesDeliveredMessages(t *testing.T) {
	log := wal.NewMemoryLog()
	svc := newService(t, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	msg := &message.Processed{MessageID: 5, SenderAddr: transfer.Address{0x02}}
	require.NoError(t, svc.Deliver(ctx, Inbound{Message: msg}))

	require.Eventually(t, func() bool {
		return len(log.StateChanges()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestRun_SecondStartRejected(t *testing.T) {
	svc := newService(t, wal.NewMemoryLog())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return errors.Is(svc.Run(ctx), errors.ErrAlreadyStarted)
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestDeliver_FailsOnDoneContext(t *testing.T) {
	svc, err := New(Options{
		Address:        transfer.Address{0x0a},
		SecretRegistry: &stubRegistry{},
		Flows:          &recordingFlows{},
		Routes:         noRoutes{},
		Log:            wal.NewMemoryLog(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The channel is unbuffered and nothing consumes it.
	err = svc.Deliver(ctx, Inbound{Message: &message.Processed{MessageID: 1, SenderAddr: transfer.Address{0x02}}})
	assert.True(t, errors.IsTransient(err))
}

var _ handler.Node = (*Service)(nil)
