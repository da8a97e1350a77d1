// Package handler classifies inbound protocol messages and translates each
// into a durable state change driving the node's off-chain transfer state
// machine. It is the central control point of the inbound path: every
// message is handled by exactly one per-kind handler or logged and dropped.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/lightclient"
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/metric"
	"github.com/santicomp2014/lumino/routing"
	"github.com/santicomp2014/lumino/transfer"
	"github.com/santicomp2014/lumino/transfer/statechange"
)

// Node is the surrounding node service the handlers drive. State-change
// submission is the handlers' sole synchronization point with the rest of
// the node: HandleStateChange must apply and durably log the change with
// at-least-once semantics before returning.
type Node interface {
	// Address returns the local node's address.
	Address() transfer.Address

	// ChainState returns an immutable snapshot of the node's current chain
	// and network view. Handlers resolve roles and routes against one
	// snapshot per message.
	ChainState() *transfer.ChainState

	// HandleStateChange durably applies and logs a state change.
	HandleStateChange(ctx context.Context, change statechange.StateChange) error

	// SecretRegistry returns the on-chain secret registry collaborator.
	SecretRegistry() transfer.SecretRegistry

	// TargetTransfer begins the target flow for a locked transfer addressed
	// to this node.
	TargetTransfer(ctx context.Context, msg *message.LockedTransfer) error

	// MediateTransfer begins the mediation flow for a locked transfer
	// addressed to another node.
	MediateTransfer(ctx context.Context, msg *message.LockedTransfer) error
}

// RouteResolver resolves candidate routes for retrying a refused transfer.
// *routing.Resolver satisfies it; tests substitute fakes.
type RouteResolver interface {
	GetBestRoutes(
		ctx context.Context, state *transfer.ChainState, req routing.Request,
	) ([]transfer.RouteState, routing.Diagnostics, error)
}

// DelegatedClient identifies the delegated ("light") client a message was
// received on behalf of. A nil *DelegatedClient means the node handles the
// message for itself; a non-nil one switches the secret handlers to replay
// state changes and the acknowledgment handlers to durable storage.
type DelegatedClient struct {
	Address transfer.Address
}

func (c *DelegatedClient) replay(msg message.Message) *statechange.ReplayContext {
	if c == nil {
		return nil
	}
	return &statechange.ReplayContext{ClientAddress: c.Address, Message: msg}
}

// MessageHandler dispatches inbound messages to per-kind handlers.
type MessageHandler struct {
	routes  RouteResolver
	acks    *lightclient.Store
	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewMessageHandler creates the dispatcher. metrics may be nil.
func NewMessageHandler(
	routes RouteResolver, acks *lightclient.Store, logger *slog.Logger, metrics *metric.Metrics,
) *MessageHandler {
	return &MessageHandler{routes: routes, acks: acks, logger: logger, metrics: metrics}
}

// OnMessage handles one inbound message to completion. Selection is by the
// message's exact declared kind: a value that is not an exact match for a
// recognized kind is logged as an error and dropped, never processed as a
// structurally similar kind. OnMessage returns an error only for
// collaborator failures (balance-proof derivation, route resolution,
// registry or log access, state-change submission); unrecognized or invalid
// input never fails the call, so one bad message cannot halt processing of
// the ones behind it.
func (h *MessageHandler) OnMessage(
	ctx context.Context, node Node, msg message.Message, client *DelegatedClient,
) error {
	if msg == nil {
		h.logger.Error("dropping nil message")
		h.metrics.ObserveDropped("nil", metric.ReasonInvalid)
		return nil
	}

	start := time.Now()
	defer func() {
		h.metrics.ObserveDuration(msg.Kind().String(), time.Since(start))
	}()
	h.metrics.ObserveReceived(msg.Kind().String())

	if err := msg.Validate(); err != nil {
		h.logger.Error("dropping invalid message",
			"kind", msg.Kind().String(),
			"sender", msg.Sender().Hex(),
			"error", err)
		h.metrics.ObserveDropped(msg.Kind().String(), metric.ReasonInvalid)
		return nil
	}

	switch m := msg.(type) {
	case *message.SecretRequest:
		return h.handleSecretRequest(ctx, node, m, client)
	case *message.RevealSecret:
		return h.handleRevealSecret(ctx, node, m, client)
	case *message.Unlock:
		return h.handleUnlock(ctx, node, m)
	case *message.LockExpired:
		return h.handleLockExpired(ctx, node, m)
	case *message.RefundTransfer:
		return h.handleRefundTransfer(ctx, node, m)
	case *message.LockedTransfer:
		return h.handleLockedTransfer(ctx, node, m)
	case *message.Delivered:
		return h.handleDelivered(ctx, node, m, client)
	case *message.Processed:
		return h.handleProcessed(ctx, node, m, client)
	default:
		h.logger.Error("unknown message kind",
			"kind", msg.Kind().String(),
			"sender", msg.Sender().Hex())
		h.metrics.ObserveDropped(msg.Kind().String(), metric.ReasonUnknownKind)
		return nil
	}
}

func (h *MessageHandler) submit(ctx context.Context, node Node, change statechange.StateChange) error {
	if err := node.HandleStateChange(ctx, change); err != nil {
		return errors.Wrap(err, "handler", "submit", "submit "+change.Type())
	}
	h.metrics.ObserveStateChange(change.Type())
	return nil
}

func (h *MessageHandler) handleSecretRequest(
	ctx context.Context, node Node, msg *message.SecretRequest, client *DelegatedClient,
) error {
	return h.submit(ctx, node, &statechange.ReceiveSecretRequest{
		PaymentID:  msg.PaymentID,
		Amount:     msg.Amount,
		Expiration: msg.Expiration,
		SecretHash: msg.SecretHash,
		Sender:     msg.SenderAddr,
		Replay:     client.replay(msg),
	})
}

func (h *MessageHandler) handleRevealSecret(
	ctx context.Context, node Node, msg *message.RevealSecret, client *DelegatedClient,
) error {
	return h.submit(ctx, node, &statechange.ReceiveSecretReveal{
		Secret: msg.Secret,
		Sender: msg.SenderAddr,
		Replay: client.replay(msg),
	})
}

func (h *MessageHandler) handleUnlock(ctx context.Context, node Node, msg *message.Unlock) error {
	proof, err := msg.BalanceProof()
	if err != nil {
		return errors.Wrap(err, "handler", "handleUnlock", "derive balance proof")
	}
	return h.submit(ctx, node, &statechange.ReceiveUnlock{
		MessageID:    msg.MessageID,
		Secret:       msg.Secret,
		BalanceProof: proof,
	})
}

func (h *MessageHandler) handleLockExpired(ctx context.Context, node Node, msg *message.LockExpired) error {
	proof, err := msg.BalanceProof()
	if err != nil {
		return errors.Wrap(err, "handler", "handleLockExpired", "derive balance proof")
	}
	return h.submit(ctx, node, &statechange.ReceiveLockExpired{
		BalanceProof: proof,
		SecretHash:   msg.SecretHash,
		MessageID:    msg.MessageID,
	})
}

func (h *MessageHandler) handleRefundTransfer(
	ctx context.Context, node Node, msg *message.RefundTransfer,
) error {
	fromTransfer, err := msg.SignedTransfer()
	if err != nil {
		return errors.Wrap(err, "handler", "handleRefundTransfer", "reconstruct refunded transfer")
	}

	state := node.ChainState()

	// Retry routes for the refused transfer, around the hop that refused
	// it. An empty candidate set is a valid outcome.
	routes, _, err := h.routes.GetBestRoutes(ctx, state, routing.Request{
		TokenNetwork: msg.TokenNetwork,
		Initiator:    node.Address(),
		Target:       fromTransfer.Target,
		Amount:       fromTransfer.Lock.Amount,
		ExcludedHop:  msg.Sender(),
	})
	if err != nil {
		return errors.Wrap(err, "handler", "handleRefundTransfer", "resolve routes")
	}

	role := transfer.RoleForHash(state, fromTransfer.Lock.SecretHash)

	var change statechange.StateChange
	if role == transfer.RoleInitiator {
		// Multi-route retries are not allowed when the initiator no longer
		// holds the secret: discard every candidate so the payment fails
		// terminally instead of retrying per route.
		oldSecret := transfer.KnownSecret(state, fromTransfer.Lock.SecretHash)
		if oldSecret.IsEmpty() {
			routes = []transfer.RouteState{}
		}

		// Only the initiator may mint a new secret; no other party has a
		// retry that does not require coordinating the committed secret.
		secret, err := transfer.RandomSecret()
		if err != nil {
			return errors.Wrap(err, "handler", "handleRefundTransfer", "generate secret")
		}
		change = &statechange.ReceiveTransferRefundCancelRoute{
			Routes:   routes,
			Transfer: fromTransfer,
			Secret:   secret,
		}
	} else {
		change = &statechange.ReceiveTransferRefund{
			Transfer: fromTransfer,
			Routes:   routes,
		}
	}

	return h.submit(ctx, node, change)
}

func (h *MessageHandler) handleLockedTransfer(
	ctx context.Context, node Node, msg *message.LockedTransfer,
) error {
	secretHash := msg.Lock.SecretHash

	// The registry check must run against the latest chain view, even if
	// the registering transaction was forked away: someone else knows the
	// secret regardless of the current chain state, so the node must not
	// start a payment with it. A pinned historical view could miss the
	// exposure.
	registered, err := node.SecretRegistry().IsSecretRegistered(ctx, secretHash, transfer.BlockTagLatest)
	if err != nil {
		return errors.Wrap(err, "handler", "handleLockedTransfer", "query secret registry")
	}
	if registered {
		h.logger.Warn("ignoring locked transfer, secret already registered",
			"secrethash", secretHash.Hex(),
			"sender", msg.Sender().Hex())
		h.metrics.ObserveDropped(msg.Kind().String(), metric.ReasonSecretRegistered)
		return nil
	}

	if msg.Target == node.Address() {
		return node.TargetTransfer(ctx, msg)
	}
	return node.MediateTransfer(ctx, msg)
}

func (h *MessageHandler) handleDelivered(
	ctx context.Context, node Node, msg *message.Delivered, client *DelegatedClient,
) error {
	err := h.submit(ctx, node, &statechange.ReceiveDelivered{
		Sender:    msg.SenderAddr,
		MessageID: msg.DeliveredMessageID,
	})
	if err != nil {
		return err
	}
	if client != nil {
		return h.acks.StoreAck(ctx, msg)
	}
	return nil
}

func (h *MessageHandler) handleProcessed(
	ctx context.Context, node Node, msg *message.Processed, client *DelegatedClient,
) error {
	err := h.submit(ctx, node, &statechange.ReceiveProcessed{
		Sender:    msg.SenderAddr,
		MessageID: msg.MessageID,
	})
	if err != nil {
		return err
	}
	if client != nil {
		return h.acks.StoreAck(ctx, msg)
	}
	return nil
}
