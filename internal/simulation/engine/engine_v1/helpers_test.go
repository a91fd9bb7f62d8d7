package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/tradecove/tradesim/internal/strategy"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

// fakeSource serves preset candles keyed by instrument and timeframe.
type fakeSource struct {
	candles map[string][]types.Candle
	// syncErr, when set, is returned from EnsureSynced.
	syncErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		candles: make(map[string][]types.Candle),
	}
}

func (f *fakeSource) add(timeframe types.Timeframe, candles ...types.Candle) {
	for _, candle := range candles {
		key := candle.Instrument.String() + "|" + string(timeframe)
		f.candles[key] = append(f.candles[key], candle)
	}
}

func (f *fakeSource) EnsureSynced(ctx context.Context, instrument types.Instrument, timeframes []types.Timeframe, from time.Time, to time.Time) error {
	return f.syncErr
}

func (f *fakeSource) Candles(ctx context.Context, instrument types.Instrument, timeframe types.Timeframe, from time.Time, to time.Time) ([]types.Candle, error) {
	var result []types.Candle

	for _, candle := range f.candles[instrument.String()+"|"+string(timeframe)] {
		if !candle.Time.Before(from) && candle.Time.Before(to) {
			result = append(result, candle)
		}
	}

	return result, nil
}

// fakeStrategy replays a scripted list of per-tick actions, one entry per
// ActionsFor invocation, and records the calls it receives.
type fakeStrategy struct {
	instruments []types.Instrument
	script      [][]types.OrderAction
	calls       int
	activated   []string
	deactivated []string
	actionsErr  error
}

func newFakeStrategy(instruments ...types.Instrument) *fakeStrategy {
	return &fakeStrategy{instruments: instruments}
}

func (f *fakeStrategy) Activate(ctx context.Context, spec types.DeploymentSpec) (strategy.Activation, error) {
	id := "dep-" + spec.Plugin
	f.activated = append(f.activated, id)

	return strategy.Activation{
		DeploymentID: id,
		Instruments:  f.instruments,
		Indicators:   []string{"none"},
	}, nil
}

func (f *fakeStrategy) Deactivate(ctx context.Context, deploymentID string) error {
	f.deactivated = append(f.deactivated, deploymentID)

	return nil
}

func (f *fakeStrategy) ActionsFor(ctx context.Context, deploymentID string, tick types.Tick) ([]types.OrderAction, error) {
	if f.actionsErr != nil {
		return nil, f.actionsErr
	}

	call := f.calls
	f.calls++

	if call >= len(f.script) {
		return nil, nil
	}

	return f.script[call], nil
}

// fakeOracle answers price lookups from a fixed instrument price table.
type fakeOracle struct {
	prices map[string]float64
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{prices: make(map[string]float64)}
}

func (f *fakeOracle) Price(ctx context.Context, instrument types.Instrument, at time.Time) (float64, error) {
	if price, ok := f.prices[instrument.String()]; ok {
		return price, nil
	}

	return 0, errors.Newf(errors.ErrCodePriceNotFound, "no price for %s", instrument)
}

// fakeStore records every saved report.
type fakeStore struct {
	saved   []types.SimulationReport
	saveErr error
}

func (f *fakeStore) Save(ctx context.Context, report types.SimulationReport) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.saved = append(f.saved, report)

	return nil
}

func (f *fakeStore) Get(ctx context.Context, simulationID optional.Option[string]) ([]types.SimulationReport, error) {
	if simulationID.IsNone() {
		return f.saved, nil
	}

	var result []types.SimulationReport

	for _, report := range f.saved {
		if report.SimulationID == simulationID.Unwrap() {
			result = append(result, report)
		}
	}

	return result, nil
}

func candle(at time.Time, instrument types.Instrument, open, high, low, close float64) types.Candle {
	return types.Candle{
		Time:       at,
		Instrument: instrument,
		Open:       open,
		High:       high,
		Low:        low,
		Close:      close,
		Volume:     100,
	}
}

func tickAt(at time.Time, instrument types.Instrument, price float64) types.Tick {
	return types.Tick{Time: at, Instrument: instrument, Price: price}
}
