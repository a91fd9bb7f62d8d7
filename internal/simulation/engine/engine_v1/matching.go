package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/types"
	"go.uber.org/zap"
)

// MatchingEngine owns the evaluation of active synthetic orders against
// ticks: primary fills, stop-loss/take-profit resolution and completion.
type MatchingEngine struct {
	ledger *Ledger
	stats  *StatsCollector
	logger *logger.Logger
}

// NewMatchingEngine creates a matching engine over the run's ledger and stats.
func NewMatchingEngine(ledger *Ledger, stats *StatsCollector, log *logger.Logger) *MatchingEngine {
	return &MatchingEngine{
		ledger: ledger,
		stats:  stats,
		logger: log,
	}
}

// Settle evaluates every active order against the tick, settling fills and
// protective triggers against the ledger. It returns the orders still active
// after the pass and the ids of orders that completed during it. Orders are
// evaluated in slice order and each order sees at most one transition per
// pass: an entry that fills on this tick leaves its protective legs to the
// next tick.
func (m *MatchingEngine) Settle(orders []*types.Order, tick types.Tick) ([]*types.Order, []string, error) {
	var completed []string

	for _, order := range orders {
		if order.Instrument != tick.Instrument {
			continue
		}

		switch order.Status {
		case types.OrderStatusCreated:
			if err := m.settleEntry(order, tick); err != nil {
				return nil, nil, err
			}
		case types.OrderStatusInProgress:
			if err := m.settleTriggers(order, tick); err != nil {
				return nil, nil, err
			}
		}

		if order.Status == types.OrderStatusCompleted {
			completed = append(completed, order.ID)
		}
	}

	// Terminal orders leave the active set only after the full pass, so a
	// single tick can fill one order's entry and resolve another's exit.
	remaining := make([]*types.Order, 0, len(orders))

	for _, order := range orders {
		if !order.Status.IsTerminal() {
			remaining = append(remaining, order)
		}
	}

	return remaining, completed, nil
}

// settleEntry evaluates the primary entry condition of a Created order.
func (m *MatchingEngine) settleEntry(order *types.Order, tick types.Tick) error {
	var execPrice float64

	switch order.Type {
	case types.OrderTypeLimit:
		crossed := (order.Side == types.SideBuy && tick.Price <= order.Price) ||
			(order.Side == types.SideSell && tick.Price >= order.Price)
		if !crossed {
			return nil
		}

		execPrice = order.Price
	case types.OrderTypeMarket:
		execPrice = tick.Price
	default:
		return nil
	}

	fee, err := m.ledger.Settle(order, execPrice)
	if err != nil {
		return err
	}

	order.Fee += fee
	order.FillPrice = execPrice
	// The protective legs close the original position, so the working side
	// flips once the entry is filled.
	order.Side = order.Side.Invert()

	if order.HasTriggers() {
		order.Status = types.OrderStatusInProgress
	} else {
		order.Status = types.OrderStatusCompleted
	}

	m.logger.Debug("Order entry filled",
		zap.String("order_id", order.ID),
		zap.Float64("price", execPrice),
		zap.String("status", string(order.Status)),
	)

	return nil
}

// settleTriggers evaluates the protective legs of an InProgress order. The
// stop-loss is checked first; if it fires the take-profit is not evaluated
// on this tick.
func (m *MatchingEngine) settleTriggers(order *types.Order, tick types.Tick) error {
	if order.StopLoss.IsSome() {
		trigger := order.StopLoss.Unwrap()
		if triggerFires(order.Side, true, trigger.Price, tick.Price) {
			fee, err := m.ledger.Settle(order, trigger.Price)
			if err != nil {
				return err
			}

			order.Fee += fee
			order.StopLossFillPrice = trigger.Price
			order.Status = types.OrderStatusCompleted
			m.stats.RecordStopLoss()

			m.logger.Debug("Stop loss fired",
				zap.String("order_id", order.ID),
				zap.Float64("price", trigger.Price),
			)

			return nil
		}
	}

	if order.TakeProfit.IsSome() {
		trigger := order.TakeProfit.Unwrap()
		if triggerFires(order.Side, false, trigger.Price, tick.Price) {
			fee, err := m.ledger.Settle(order, trigger.Price)
			if err != nil {
				return err
			}

			order.Fee += fee
			order.TakeProfitFillPrice = trigger.Price
			order.Status = types.OrderStatusCompleted
			m.stats.RecordTakeProfit()

			m.logger.Debug("Take profit fired",
				zap.String("order_id", order.ID),
				zap.Float64("price", trigger.Price),
			)
		}
	}

	return nil
}

// triggerFires decides whether a protective trigger condition holds for the
// order's working side. For a closing sell the stop-loss fires when the price
// falls to or below the trigger and the take-profit when it rises to or above
// it; for a closing buy the comparisons invert.
func triggerFires(workingSide types.Side, stopLoss bool, triggerPrice float64, tickPrice float64) bool {
	if workingSide == types.SideSell {
		if stopLoss {
			return tickPrice <= triggerPrice
		}

		return tickPrice >= triggerPrice
	}

	if stopLoss {
		return tickPrice >= triggerPrice
	}

	return tickPrice <= triggerPrice
}

// NewOrder materializes a validated create-order action as an active order.
func NewOrder(simulationID string, at time.Time, request types.CreateOrderRequest) (*types.Order, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	return &types.Order{
		ID:           uuid.New().String(),
		SimulationID: simulationID,
		CreatedAt:    at,
		Exchange:     request.Exchange,
		Instrument:   request.Instrument,
		Market:       request.Market,
		Type:         request.Type,
		Price:        request.Price,
		Side:         request.Side,
		Size:         request.Size,
		Status:       types.OrderStatusCreated,
		StopLoss:     request.StopLoss,
		TakeProfit:   request.TakeProfit,
	}, nil
}
