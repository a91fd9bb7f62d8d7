package strategy

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

// PluginSMACrossover is the plugin name the engine config uses to request
// this strategy.
const PluginSMACrossover = "sma_crossover"

// SMACrossover is a reference strategy: it emits a market buy with protective
// stop-loss/take-profit legs when the fast moving average crosses above the
// slow one. Every emitted order carries its own protective exit, so the
// strategy never has to emit a closing action itself.
type SMACrossover struct {
	exchange    types.Exchange
	market      types.MarketType
	deployments map[string]*smaState
}

type smaState struct {
	instrument     types.Instrument
	fastPeriod     int
	slowPeriod     int
	sourceSize     float64
	stopLossPct    float64
	takeProfitPct  float64
	prices         []float64
	prevFastAbove  bool
	prevComparable bool
}

// NewSMACrossover creates the reference strategy for the given venue.
func NewSMACrossover(exchange types.Exchange, market types.MarketType) *SMACrossover {
	return &SMACrossover{
		exchange:    exchange,
		market:      market,
		deployments: make(map[string]*smaState),
	}
}

// Activate implements Strategy. Recognized params: instrument (required),
// fast, slow, size_source, stop_loss_pct, take_profit_pct.
func (s *SMACrossover) Activate(ctx context.Context, spec types.DeploymentSpec) (Activation, error) {
	if spec.Plugin != PluginSMACrossover {
		return Activation{}, errors.Newf(errors.ErrCodeStrategyActivation, "unknown plugin %q", spec.Plugin)
	}

	instrument, err := types.ParseInstrument(spec.Params["instrument"])
	if err != nil {
		return Activation{}, errors.Wrap(errors.ErrCodeStrategyActivation, "sma_crossover requires an instrument param", err)
	}

	state := &smaState{
		instrument:    instrument,
		fastPeriod:    paramInt(spec.Params, "fast", 5),
		slowPeriod:    paramInt(spec.Params, "slow", 20),
		sourceSize:    paramFloat(spec.Params, "size_source", 100.0),
		stopLossPct:   paramFloat(spec.Params, "stop_loss_pct", 0.05),
		takeProfitPct: paramFloat(spec.Params, "take_profit_pct", 0.10),
	}

	if state.fastPeriod >= state.slowPeriod {
		return Activation{}, errors.Newf(errors.ErrCodeStrategyActivation,
			"fast period %d must be below slow period %d", state.fastPeriod, state.slowPeriod)
	}

	deploymentID := uuid.New().String()
	s.deployments[deploymentID] = state

	return Activation{
		DeploymentID: deploymentID,
		Instruments:  []types.Instrument{instrument},
		Indicators:   []string{"sma"},
	}, nil
}

// Deactivate implements Strategy.
func (s *SMACrossover) Deactivate(ctx context.Context, deploymentID string) error {
	if _, ok := s.deployments[deploymentID]; !ok {
		return errors.Newf(errors.ErrCodeStrategyDeactivation, "unknown deployment %q", deploymentID)
	}

	delete(s.deployments, deploymentID)

	return nil
}

// ActionsFor implements Strategy.
func (s *SMACrossover) ActionsFor(ctx context.Context, deploymentID string, tick types.Tick) ([]types.OrderAction, error) {
	state, ok := s.deployments[deploymentID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyRuntimeError, "unknown deployment %q", deploymentID)
	}

	if tick.Instrument != state.instrument {
		return nil, nil
	}

	state.prices = append(state.prices, tick.Price)
	if len(state.prices) < state.slowPeriod {
		return nil, nil
	}

	fast := sma(state.prices, state.fastPeriod)
	slow := sma(state.prices, state.slowPeriod)
	fastAbove := fast > slow

	crossedUp := state.prevComparable && fastAbove && !state.prevFastAbove
	state.prevFastAbove = fastAbove
	state.prevComparable = true

	if !crossedUp {
		return nil, nil
	}

	request := types.CreateOrderRequest{
		Exchange:   s.exchange,
		Instrument: state.instrument,
		Market:     s.market,
		Type:       types.OrderTypeMarket,
		Side:       types.SideBuy,
		Size:       types.OrderSize{Unit: types.SizeUnitSource, Value: state.sourceSize},
		StopLoss: optional.Some(types.Trigger{
			Price:     tick.Price * (1 - state.stopLossPct),
			OrderType: types.OrderTypeMarket,
		}),
		TakeProfit: optional.Some(types.Trigger{
			Price:     tick.Price * (1 + state.takeProfitPct),
			OrderType: types.OrderTypeLimit,
		}),
	}

	return []types.OrderAction{
		{
			Type:        types.ActionTypeCreateOrder,
			CreateOrder: optional.Some(request),
		},
	}, nil
}

func sma(prices []float64, period int) float64 {
	sum := 0.0
	for _, price := range prices[len(prices)-period:] {
		sum += price
	}

	return sum / float64(period)
}

func paramInt(params map[string]string, key string, fallback int) int {
	if raw, ok := params[key]; ok {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}

	return fallback
}

func paramFloat(params map[string]string, key string, fallback float64) float64 {
	if raw, ok := params[key]; ok {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			return value
		}
	}

	return fallback
}
