package engine

import (
	"context"
	"time"

	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/marketdata"
	"github.com/tradecove/tradesim/internal/types"
	"go.uber.org/zap"
)

// TickGenerator turns candles for a subscription into a chronological,
// de-duplicated tick sequence.
type TickGenerator struct {
	source marketdata.Source
	logger *logger.Logger
}

// NewTickGenerator creates a tick generator over the given candle source.
func NewTickGenerator(source marketdata.Source, log *logger.Logger) *TickGenerator {
	return &TickGenerator{
		source: source,
		logger: log,
	}
}

// Ticks fetches candles for the subscription over [from, to), expands them
// into ticks and collapses consecutive duplicate prices.
func (g *TickGenerator) Ticks(ctx context.Context, sub types.Subscription, from time.Time, to time.Time) ([]types.Tick, error) {
	err := g.source.EnsureSynced(ctx, sub.Instrument, []types.Timeframe{sub.Timeframe}, from, to)
	if err != nil {
		return nil, err
	}

	candles, err := g.source.Candles(ctx, sub.Instrument, sub.Timeframe, from, to)
	if err != nil {
		return nil, err
	}

	ticks := DedupTicks(ExpandCandles(candles))

	g.logger.Debug("Generated ticks",
		zap.String("instrument", sub.Instrument.String()),
		zap.String("timeframe", string(sub.Timeframe)),
		zap.Int("candles", len(candles)),
		zap.Int("ticks", len(ticks)),
	)

	return ticks, nil
}

// ExpandCandles derives four ticks per candle, in the fixed order open, low,
// high, close, all stamped with the candle's own timestamp.
func ExpandCandles(candles []types.Candle) []types.Tick {
	ticks := make([]types.Tick, 0, 4*len(candles))

	for _, candle := range candles {
		for _, price := range []float64{candle.Open, candle.Low, candle.High, candle.Close} {
			ticks = append(ticks, types.Tick{
				Time:       candle.Time,
				Instrument: candle.Instrument,
				Price:      price,
			})
		}
	}

	return ticks
}

// DedupTicks collapses consecutive ticks with an unchanged price to the
// earlier tick. The final tick is always kept so the sequence still ends at
// the window cutoff. The filter is idempotent.
func DedupTicks(ticks []types.Tick) []types.Tick {
	if len(ticks) == 0 {
		return ticks
	}

	deduped := make([]types.Tick, 0, len(ticks))
	deduped = append(deduped, ticks[0])

	for i := 1; i < len(ticks)-1; i++ {
		if ticks[i].Price != deduped[len(deduped)-1].Price {
			deduped = append(deduped, ticks[i])
		}
	}

	if len(ticks) > 1 {
		deduped = append(deduped, ticks[len(ticks)-1])
	}

	return deduped
}
