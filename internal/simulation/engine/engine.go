package engine

import (
	"context"

	"github.com/tradecove/tradesim/internal/types"
)

// OnTickCallback is invoked after each processed tick with the running total.
type OnTickCallback func(processedTicks int64)

// Engine replays historical market data against strategy deployments and
// produces a reconciled simulation report. A run either completes and returns
// the report or fails with the triggering error; no partial report is
// persisted.
type Engine interface {
	Run(ctx context.Context) (types.SimulationReport, error)
	// SetOnTick registers a progress callback. May be nil.
	SetOnTick(callback OnTickCallback)
}
