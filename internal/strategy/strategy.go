package strategy

import (
	"context"

	"github.com/tradecove/tradesim/internal/types"
)

// Activation is the strategy collaborator's response to activating a
// deployment: the assigned deployment id, the instruments the strategy
// resolved for the run, and its indicator requirements.
type Activation struct {
	DeploymentID string
	Instruments  []types.Instrument
	Indicators   []string
}

// Strategy is the opaque strategy-action collaborator. The engine never knows
// how a strategy is loaded or executed; it only activates deployments, feeds
// ticks in, and receives ordered lists of order actions back.
type Strategy interface {
	// Activate starts a deployment for the given spec.
	Activate(ctx context.Context, spec types.DeploymentSpec) (Activation, error)
	// Deactivate tears the deployment down at the end of a run.
	Deactivate(ctx context.Context, deploymentID string) error
	// ActionsFor returns the ordered actions the deployment emits for a tick.
	ActionsFor(ctx context.Context, deploymentID string, tick types.Tick) ([]types.OrderAction, error)
}
