// Package service wires the inbound processing core into a running node:
// it owns the state-change pipeline (serialized, durably logged
// submissions), the chain-state snapshot handed to handlers, and the
// message consumption loop.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/handler"
	"github.com/santicomp2014/lumino/lightclient"
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/metric"
	"github.com/santicomp2014/lumino/transfer"
	"github.com/santicomp2014/lumino/transfer/statechange"
	"github.com/santicomp2014/lumino/wal"
)

// TransferFlows starts the target and mediation flows for an accepted
// locked transfer. The flows themselves live outside the inbound core.
type TransferFlows interface {
	Target(ctx context.Context, msg *message.LockedTransfer) error
	Mediate(ctx context.Context, msg *message.LockedTransfer) error
}

// Inbound pairs a decoded message with the delegated client it was
// received on behalf of, nil for the node's own traffic.
type Inbound struct {
	Message message.Message
	Client  *handler.DelegatedClient
}

// Options configures a Service.
type Options struct {
	Address        transfer.Address
	SecretRegistry transfer.SecretRegistry
	Flows          TransferFlows
	Routes         handler.RouteResolver
	Log            wal.Log
	Logger         *slog.Logger
	Metrics        *metric.Metrics

	// InboundBuffer sizes the inbound message channel; zero means
	// unbuffered.
	InboundBuffer int
}

// Service is the node service the handlers drive. It satisfies
// handler.Node.
type Service struct {
	address  transfer.Address
	registry transfer.SecretRegistry
	flows    TransferFlows
	log      wal.Log
	logger   *slog.Logger
	metrics  *metric.Metrics

	dispatcher *handler.MessageHandler

	// submitMu serializes state-change submission; the pipeline is the
	// core's sole synchronization point with the rest of the node.
	submitMu sync.Mutex

	chain   atomic.Pointer[transfer.ChainState]
	inbound chan Inbound
	started atomic.Bool
}

// New creates a Service. Options must carry the registry, flows, routes,
// and durable log; Logger defaults to slog.Default().
func New(opts Options) (*Service, error) {
	if opts.SecretRegistry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "service", "New", "nil secret registry")
	}
	if opts.Flows == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "service", "New", "nil transfer flows")
	}
	if opts.Routes == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "service", "New", "nil route resolver")
	}
	if opts.Log == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "service", "New", "nil durable log")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		address:  opts.Address,
		registry: opts.SecretRegistry,
		flows:    opts.Flows,
		log:      opts.Log,
		logger:   logger,
		metrics:  opts.Metrics,
		inbound:  make(chan Inbound, opts.InboundBuffer),
	}
	acks := lightclient.NewStore(opts.Log, logger)
	s.dispatcher = handler.NewMessageHandler(opts.Routes, acks, logger, opts.Metrics)
	s.chain.Store(transfer.NewChainState(0, opts.Address, nil))
	return s, nil
}

// Address returns the local node's address.
func (s *Service) Address() transfer.Address { return s.address }

// SecretRegistry returns the on-chain secret registry collaborator.
func (s *Service) SecretRegistry() transfer.SecretRegistry { return s.registry }

// ChainState returns the current chain-state snapshot.
func (s *Service) ChainState() *transfer.ChainState { return s.chain.Load() }

// SetChainState installs a new snapshot. Called by the chain
// synchronization collaborator; handlers dispatched afterwards observe the
// new snapshot.
func (s *Service) SetChainState(state *transfer.ChainState) {
	if state != nil {
		s.chain.Store(state)
	}
}

// TargetTransfer begins the target flow.
func (s *Service) TargetTransfer(ctx context.Context, msg *message.LockedTransfer) error {
	return s.flows.Target(ctx, msg)
}

// MediateTransfer begins the mediation flow.
func (s *Service) MediateTransfer(ctx context.Context, msg *message.LockedTransfer) error {
	return s.flows.Mediate(ctx, msg)
}

// HandleStateChange durably applies one state change. Submissions are
// serialized; the call returns only after the record is accepted by the
// durable log, so a handler never reports success for a change that was
// not logged.
func (s *Service) HandleStateChange(ctx context.Context, change statechange.StateChange) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	data, err := json.Marshal(change)
	if err != nil {
		return errors.WrapInvalid(err, "service", "HandleStateChange", "encode "+change.Type())
	}
	rec := wal.StateChangeRecord{
		ID:         uuid.NewString(),
		Type:       change.Type(),
		Data:       data,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.log.AppendStateChange(ctx, &rec); err != nil {
		return errors.Wrap(err, "service", "HandleStateChange", "append "+change.Type())
	}

	s.logger.Debug("state change applied",
		"type", change.Type(),
		"id", rec.ID,
		"sequence", rec.Sequence)
	return nil
}

// OnMessage dispatches one message synchronously. The call returns after
// the message is fully handled or dropped.
func (s *Service) OnMessage(ctx context.Context, msg message.Message, client *handler.DelegatedClient) error {
	return s.dispatcher.OnMessage(ctx, s, msg, client)
}

// Deliver queues one inbound message for the run loop. Blocks when the
// buffer is full; fails once the context is done.
func (s *Service) Deliver(ctx context.Context, in Inbound) error {
	select {
	case s.inbound <- in:
		return nil
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "service", "Deliver", "queue inbound message")
	}
}

// Run consumes queued inbound messages until the context is canceled. Each
// message is processed to completion before the next one is taken.
// Collaborator failures are logged and the loop continues; no message
// failure is fatal to the node.
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.ErrAlreadyStarted
	}
	defer s.started.Store(false)

	s.logger.Info("message service started", "address", s.address.Hex())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case in := <-s.inbound:
				if err := s.OnMessage(ctx, in.Message, in.Client); err != nil {
					kind := "nil"
					if in.Message != nil {
						kind = in.Message.Kind().String()
					}
					s.logger.Error("message handling failed",
						"kind", kind,
						"error", err)
				}
			}
		}
	})

	err := g.Wait()
	s.logger.Info("message service stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
