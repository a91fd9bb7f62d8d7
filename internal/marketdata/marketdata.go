package marketdata

import (
	"context"
	"time"

	"github.com/tradecove/tradesim/internal/types"
)

// Source supplies historical candles for the simulation engine. Implementations
// must return candles in non-decreasing timestamp order; any internal
// parallelism must not reorder the returned slice.
type Source interface {
	// EnsureSynced guarantees local candles for the instrument and timeframes
	// are consistent with the venue for the requested range.
	EnsureSynced(ctx context.Context, instrument types.Instrument, timeframes []types.Timeframe, from time.Time, to time.Time) error
	// Candles returns the candles for [from, to) ordered by time.
	Candles(ctx context.Context, instrument types.Instrument, timeframe types.Timeframe, from time.Time, to time.Time) ([]types.Candle, error)
}
