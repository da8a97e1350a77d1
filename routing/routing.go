// Package routing resolves ordered candidate routes for retrying a refused
// transfer. The pathfinding algorithm itself is an external collaborator;
// this package owns only the per-refund request shape and the exclusion of
// the hop that just refused.
package routing

import (
	"context"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

// Request describes one route resolution for a refunded transfer.
type Request struct {
	// TokenNetwork the transfer belongs to.
	TokenNetwork transfer.TokenNetworkAddress
	// Initiator is the path-cost origin: the local node, not the
	// payment's initiator.
	Initiator transfer.Address
	// Target of the reconstructed transfer.
	Target transfer.Address
	// Amount is the transfer's locked amount.
	Amount transfer.TokenAmount
	// ExcludedHop is the previous hop to route around, normally the sender
	// of the refund. Routing back through the node that just refused would
	// only produce another refund.
	ExcludedHop transfer.Address
}

// Diagnostics carries pathfinder feedback alongside the resolved routes.
// Handlers ignore it; the surrounding service may report route quality back
// to the pathfinding collaborator.
type Diagnostics struct {
	// FeedbackToken correlates a later route-quality report with this
	// resolution. Opaque to this core.
	FeedbackToken string
	// Considered is the number of candidate paths seen before filtering.
	Considered int
}

// PathFinder is the external routing collaborator. Implementations own
// their retry and timeout policy; calls may block on network state.
type PathFinder interface {
	FindPaths(
		ctx context.Context,
		state *transfer.ChainState,
		tokenNetwork transfer.TokenNetworkAddress,
		from, to transfer.Address,
		amount transfer.TokenAmount,
	) ([]transfer.RouteState, Diagnostics, error)
}

// Config bounds route resolution and carries the pathfinder credentials.
type Config struct {
	// MaxPaths caps the candidate list; zero means no cap.
	MaxPaths int
	// Credentials authenticates the node against a paid path service.
	// Opaque to this package.
	Credentials []byte
}

// Resolver produces ordered candidate route lists for refunded transfers.
// Route lists are resolved fresh per refund and never cached.
type Resolver struct {
	finder PathFinder
	config Config
}

// NewResolver wraps a pathfinding collaborator.
func NewResolver(finder PathFinder, config Config) *Resolver {
	return &Resolver{finder: finder, config: config}
}

// GetBestRoutes resolves candidate routes for the request, dropping routes
// through the excluded hop and capping the list at the configured maximum.
// An empty result with a nil error is a valid outcome, not a failure.
func (r *Resolver) GetBestRoutes(
	ctx context.Context, state *transfer.ChainState, req Request,
) ([]transfer.RouteState, Diagnostics, error) {
	paths, diag, err := r.finder.FindPaths(
		ctx, state, req.TokenNetwork, req.Initiator, req.Target, req.Amount)
	if err != nil {
		return nil, diag, errors.WrapTransient(err, "routing", "GetBestRoutes", "find paths")
	}
	diag.Considered = len(paths)

	routes := make([]transfer.RouteState, 0, len(paths))
	for _, route := range paths {
		if route.NextHop == req.ExcludedHop {
			continue
		}
		routes = append(routes, route)
		if r.config.MaxPaths > 0 && len(routes) == r.config.MaxPaths {
			break
		}
	}
	return routes, diag, nil
}
