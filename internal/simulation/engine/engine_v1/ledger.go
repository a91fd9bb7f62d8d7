package engine

import (
	"github.com/shopspring/decimal"
	"github.com/tradecove/tradesim/internal/simulation/engine/engine_v1/fees"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

type entryKey struct {
	exchange types.Exchange
	currency types.Currency
}

// Ledger holds one mutable balance record per (exchange, currency) pair for a
// single simulation run. Entries are created lazily on first touch and never
// removed.
type Ledger struct {
	simulationID string
	schedule     fees.Schedule
	entries      map[entryKey]*types.SimulationPosition
	// order preserves first-touch order for deterministic snapshots.
	order []entryKey
}

// NewLedger creates an empty ledger for the run.
func NewLedger(simulationID string, schedule fees.Schedule) *Ledger {
	return &Ledger{
		simulationID: simulationID,
		schedule:     schedule,
		entries:      make(map[entryKey]*types.SimulationPosition),
		order:        nil,
	}
}

// Seed pre-creates entries from the run's initial position list.
func (l *Ledger) Seed(positions []types.SimulationPosition) {
	for _, position := range positions {
		entry := l.entry(position.Exchange, position.Currency)
		entry.StartBalance = position.StartBalance
		entry.Balance = position.Balance
		entry.Fees = position.Fees
	}
}

func (l *Ledger) entry(exchange types.Exchange, currency types.Currency) *types.SimulationPosition {
	key := entryKey{exchange: exchange, currency: currency}
	if entry, ok := l.entries[key]; ok {
		return entry
	}

	entry := &types.SimulationPosition{
		SimulationID: l.simulationID,
		Exchange:     exchange,
		Currency:     currency,
		StartBalance: 0,
		Balance:      0,
		Fees:         0,
	}
	l.entries[key] = entry
	l.order = append(l.order, key)

	return entry
}

// Settle applies one execution of the order at the given price and returns the
// fee charged on the receiving leg. The order's working side decides the
// economic direction: the engine flips it after the primary fill, so a
// protective execution settles in the closing direction automatically.
//
// Both legs of the pair are updated atomically and in opposite direction: for
// a buy the source entry decreases by the source amount while the target
// entry increases by the target amount net of fee, and symmetrically for a
// sell.
func (l *Ledger) Settle(order *types.Order, execPrice float64) (float64, error) {
	if execPrice <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidExecution, "execution price must be positive, got %f", execPrice)
	}

	if order.Instrument.Target == "" || order.Instrument.Source == "" {
		return 0, errors.Newf(errors.ErrCodeLedgerViolation, "order %s has no instrument", order.ID)
	}

	targetQty := decimal.NewFromFloat(order.Size.TargetQuantity(execPrice))
	sourceQty := decimal.NewFromFloat(order.Size.SourceQuantity(execPrice))
	rate := decimal.NewFromFloat(l.schedule.Rate(order.Exchange, order.Market, order.Side))

	target := l.entry(order.Exchange, order.Instrument.Target)
	source := l.entry(order.Exchange, order.Instrument.Source)

	var fee decimal.Decimal

	switch order.Side {
	case types.SideBuy:
		// Receiving leg is the target currency.
		fee = targetQty.Mul(rate)
		setBalance(target, decimal.NewFromFloat(target.Balance).Add(targetQty).Sub(fee))
		setBalance(source, decimal.NewFromFloat(source.Balance).Sub(sourceQty))
		addFee(target, fee)
	case types.SideSell:
		// Receiving leg is the source currency.
		fee = sourceQty.Mul(rate)
		setBalance(source, decimal.NewFromFloat(source.Balance).Add(sourceQty).Sub(fee))
		setBalance(target, decimal.NewFromFloat(target.Balance).Sub(targetQty))
		addFee(source, fee)
	default:
		return 0, errors.Newf(errors.ErrCodeSettlementFailed, "order %s has unknown side %q", order.ID, order.Side)
	}

	feeValue, _ := fee.Float64()

	return feeValue, nil
}

// Snapshot returns the entries in first-touch order.
func (l *Ledger) Snapshot() []types.SimulationPosition {
	positions := make([]types.SimulationPosition, 0, len(l.order))
	for _, key := range l.order {
		positions = append(positions, *l.entries[key])
	}

	return positions
}

func setBalance(entry *types.SimulationPosition, balance decimal.Decimal) {
	value, _ := balance.Float64()
	entry.Balance = value
}

func addFee(entry *types.SimulationPosition, fee decimal.Decimal) {
	value, _ := decimal.NewFromFloat(entry.Fees).Add(fee).Float64()
	entry.Fees = value
}
