package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/marketdata"
	"github.com/tradecove/tradesim/internal/persistence"
	"github.com/tradecove/tradesim/internal/pricing"
	simengine "github.com/tradecove/tradesim/internal/simulation/engine"
	"github.com/tradecove/tradesim/internal/simulation/engine/engine_v1/fees"
	"github.com/tradecove/tradesim/internal/strategy"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
	"go.uber.org/zap"
)

// batchWindow is the width of one market-data batch. Candles are fetched and
// replayed one batch at a time so a long window never loads fully into memory.
const batchWindow = 7 * 24 * time.Hour

// SimulationV1 replays historical candles against strategy deployments,
// matching the emitted synthetic orders tick by tick against a per-currency
// ledger. Processing is strictly sequential; any collaborator failure aborts
// the run and no report is produced.
type SimulationV1 struct {
	config   SimulationConfigV1
	source   marketdata.Source
	strategy strategy.Strategy
	oracle   pricing.Oracle
	// store may be nil; the report is then only returned, not persisted.
	store  persistence.ReportStore
	logger *logger.Logger
	onTick simengine.OnTickCallback
}

// NewSimulationV1 creates a simulation engine over the given collaborators.
func NewSimulationV1(
	config SimulationConfigV1,
	source marketdata.Source,
	strat strategy.Strategy,
	oracle pricing.Oracle,
	store persistence.ReportStore,
	log *logger.Logger,
) *SimulationV1 {
	return &SimulationV1{
		config:   config,
		source:   source,
		strategy: strat,
		oracle:   oracle,
		store:    store,
		logger:   log,
	}
}

// SetOnTick implements engine.Engine.
func (s *SimulationV1) SetOnTick(callback simengine.OnTickCallback) {
	s.onTick = callback
}

// Run implements engine.Engine.
func (s *SimulationV1) Run(ctx context.Context) (types.SimulationReport, error) {
	if err := s.config.Validate(); err != nil {
		return types.SimulationReport{}, err
	}

	sim := &types.Simulation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Start:     s.config.Start,
		End:       s.config.End,
	}

	for _, position := range s.config.Positions {
		sim.Positions = append(sim.Positions, types.SimulationPosition{
			SimulationID: sim.ID,
			Exchange:     position.Exchange,
			Currency:     position.Currency,
			StartBalance: position.Balance,
			Balance:      position.Balance,
		})
	}

	ledger := NewLedger(sim.ID, fees.GetSchedule(s.config.FeeSchedule))
	ledger.Seed(sim.Positions)

	stats := NewStatsCollector()
	matcher := NewMatchingEngine(ledger, stats, s.logger)
	tickGen := NewTickGenerator(s.source, s.logger)

	s.logger.Info("Simulation started",
		zap.String("simulation_id", sim.ID),
		zap.Time("start", sim.Start),
		zap.Time("end", sim.End),
		zap.Int("deployments", len(s.config.Deployments)),
	)

	if err := s.activate(ctx, sim); err != nil {
		return types.SimulationReport{}, err
	}

	if err := s.replay(ctx, sim, matcher, tickGen); err != nil {
		return types.SimulationReport{}, err
	}

	if err := s.deactivate(ctx, sim); err != nil {
		return types.SimulationReport{}, err
	}

	sim.Positions = ledger.Snapshot()

	builder := NewReportBuilder(s.oracle, s.config.QuoteCurrency, s.logger)

	report, err := builder.Build(ctx, sim, sim.Positions, stats.Snapshot())
	if err != nil {
		return types.SimulationReport{}, err
	}

	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			return types.SimulationReport{}, err
		}
	}

	s.logger.Info("Simulation finished",
		zap.String("simulation_id", sim.ID),
		zap.Int64("processed_ticks", sim.ProcessedTicks),
		zap.Float64("profit", report.Profit),
	)

	return report, nil
}

// activate starts every configured deployment and records the resolved
// subscriptions on the aggregate.
func (s *SimulationV1) activate(ctx context.Context, sim *types.Simulation) error {
	for _, spec := range s.config.Deployments {
		activation, err := s.strategy.Activate(ctx, spec)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyActivation, err, "failed to activate plugin %s", spec.Plugin)
		}

		// TODO: fetch per-subscription tick buffers instead of reusing one.
		// With multiple instruments only the last subscription's ticks are
		// replayed; see replay.
		if len(activation.Instruments) > 1 {
			s.logger.Warn("Deployment resolved multiple instruments; only the last will be replayed",
				zap.String("deployment_id", activation.DeploymentID),
				zap.Int("instruments", len(activation.Instruments)),
			)
		}

		sim.Deployments = append(sim.Deployments, types.Deployment{
			Spec:        spec,
			ID:          activation.DeploymentID,
			Instruments: activation.Instruments,
			Indicators:  activation.Indicators,
		})

		s.logger.Info("Deployment activated",
			zap.String("deployment_id", activation.DeploymentID),
			zap.String("plugin", spec.Plugin),
		)
	}

	return nil
}

// replay walks the window batch by batch, feeding each deployment its tick
// sequence and settling orders around every strategy invocation.
func (s *SimulationV1) replay(ctx context.Context, sim *types.Simulation, matcher *MatchingEngine, tickGen *TickGenerator) error {
	for batchStart := sim.Start; batchStart.Before(sim.End); batchStart = batchStart.Add(batchWindow) {
		batchEnd := batchStart.Add(batchWindow)
		if batchEnd.After(sim.End) {
			batchEnd = sim.End
		}

		for i := range sim.Deployments {
			deployment := &sim.Deployments[i]

			var ticks []types.Tick

			for _, sub := range deployment.Subscriptions() {
				batch, err := tickGen.Ticks(ctx, sub, batchStart, batchEnd)
				if err != nil {
					return err
				}

				// Reassigned per subscription, so with multiple instruments
				// only the last buffer survives.
				ticks = batch
			}

			for _, tick := range ticks {
				if err := s.processTick(ctx, sim, matcher, deployment.ID, tick); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// processTick runs the full per-tick cycle: settle, ask the strategy, apply
// its actions, settle again.
func (s *SimulationV1) processTick(ctx context.Context, sim *types.Simulation, matcher *MatchingEngine, deploymentID string, tick types.Tick) error {
	remaining, _, err := matcher.Settle(sim.ActiveOrders, tick)
	if err != nil {
		return err
	}

	sim.ActiveOrders = remaining

	actions, err := s.strategy.ActionsFor(ctx, deploymentID, tick)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy failed on tick at %s", tick.Time.Format(time.RFC3339))
	}

	for _, action := range actions {
		if err := s.applyAction(sim, action, tick); err != nil {
			return err
		}
	}

	sim.EmittedActions += int64(len(actions))

	remaining, _, err = matcher.Settle(sim.ActiveOrders, tick)
	if err != nil {
		return err
	}

	sim.ActiveOrders = remaining
	sim.ProcessedTicks++

	if s.onTick != nil {
		s.onTick(sim.ProcessedTicks)
	}

	return nil
}

func (s *SimulationV1) applyAction(sim *types.Simulation, action types.OrderAction, tick types.Tick) error {
	switch action.Type {
	case types.ActionTypeCreateOrder:
		if action.CreateOrder.IsNone() {
			return errors.New(errors.ErrCodeInvalidOrderAction, "create order action carries no order")
		}

		order, err := NewOrder(sim.ID, tick.Time, action.CreateOrder.Unwrap())
		if err != nil {
			return err
		}

		sim.ActiveOrders = append(sim.ActiveOrders, order)

		s.logger.Debug("Order created",
			zap.String("order_id", order.ID),
			zap.String("instrument", order.Instrument.String()),
			zap.String("side", string(order.Side)),
		)

		return nil
	case types.ActionTypeCancelOrder:
		if action.OrderID.IsNone() {
			return errors.New(errors.ErrCodeInvalidOrderAction, "cancel order action carries no order id")
		}

		s.cancelOrder(sim, action.OrderID.Unwrap())

		return nil
	case types.ActionTypePatchOrder:
		return errors.New(errors.ErrCodeUnsupportedAction, "patch order actions are not supported by the simulated matching")
	default:
		return errors.Newf(errors.ErrCodeInvalidOrderAction, "unknown action type %q", action.Type)
	}
}

// cancelOrder marks the order canceled and drops it from the active set. A
// miss is logged and ignored: the order may already have completed on an
// earlier tick.
func (s *SimulationV1) cancelOrder(sim *types.Simulation, orderID string) {
	remaining := make([]*types.Order, 0, len(sim.ActiveOrders))

	found := false

	for _, order := range sim.ActiveOrders {
		if order.ID == orderID {
			order.Status = types.OrderStatusCanceled
			found = true

			continue
		}

		remaining = append(remaining, order)
	}

	sim.ActiveOrders = remaining

	if !found {
		s.logger.Warn("Cancel requested for unknown order", zap.String("order_id", orderID))
	} else {
		s.logger.Debug("Order canceled", zap.String("order_id", orderID))
	}
}

func (s *SimulationV1) deactivate(ctx context.Context, sim *types.Simulation) error {
	for _, deployment := range sim.Deployments {
		if err := s.strategy.Deactivate(ctx, deployment.ID); err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyDeactivation, err, "failed to deactivate deployment %s", deployment.ID)
		}
	}

	return nil
}
