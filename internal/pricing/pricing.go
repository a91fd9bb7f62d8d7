package pricing

import (
	"context"
	"time"

	"github.com/tradecove/tradesim/internal/marketdata"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

// Oracle resolves the price of an instrument at a point in time. Used only for
// currency conversion when a report is assembled.
type Oracle interface {
	Price(ctx context.Context, instrument types.Instrument, at time.Time) (float64, error)
}

// lookback bounds how far behind the requested timestamp the oracle searches
// for the nearest candle.
const lookback = 7 * 24 * time.Hour

// CandleOracle answers price lookups with the close of the latest candle at or
// before the requested timestamp.
type CandleOracle struct {
	source    marketdata.Source
	timeframe types.Timeframe
}

// NewCandleOracle creates an oracle backed by the given candle source.
func NewCandleOracle(source marketdata.Source, timeframe types.Timeframe) *CandleOracle {
	return &CandleOracle{
		source:    source,
		timeframe: timeframe,
	}
}

// Price implements Oracle.
func (o *CandleOracle) Price(ctx context.Context, instrument types.Instrument, at time.Time) (float64, error) {
	// The [from, to) candle query excludes `at` itself, so nudge the upper
	// bound to include a candle stamped exactly at the requested time.
	candles, err := o.source.Candles(ctx, instrument, o.timeframe, at.Add(-lookback), at.Add(time.Nanosecond))
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodePriceLookupFailed, err, "price lookup failed for %s", instrument)
	}

	if len(candles) == 0 {
		return 0, errors.Newf(errors.ErrCodePriceNotFound, "no price for %s at %s", instrument, at.Format(time.RFC3339))
	}

	return candles[len(candles)-1].Close, nil
}
