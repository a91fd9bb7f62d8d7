package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/pricing"
	"github.com/tradecove/tradesim/internal/types"
	"go.uber.org/zap"
)

// ReportBuilder converts the final ledger state into a single quote-currency
// profit/fee figure and assembles the immutable SimulationReport.
type ReportBuilder struct {
	oracle pricing.Oracle
	quote  types.Currency
	logger *logger.Logger
}

// NewReportBuilder creates a report builder normalizing to the quote currency.
func NewReportBuilder(oracle pricing.Oracle, quote types.Currency, log *logger.Logger) *ReportBuilder {
	return &ReportBuilder{
		oracle: oracle,
		quote:  quote,
		logger: log,
	}
}

// Build assembles the report from the run's final state. Profit and fees are
// valued at end-of-run prices; clean profit values the same diffs at
// start-of-run prices. Entries already denominated in the quote currency skip
// the oracle lookup.
func (r *ReportBuilder) Build(ctx context.Context, sim *types.Simulation, positions []types.SimulationPosition, stats types.SimulationStats) (types.SimulationReport, error) {
	profit := decimal.Zero
	cleanProfit := decimal.Zero
	totalFees := decimal.Zero

	for _, position := range positions {
		endPrice := 1.0
		startPrice := 1.0

		if position.Currency != r.quote {
			instrument := types.Instrument{Target: position.Currency, Source: r.quote}

			var err error

			endPrice, err = r.oracle.Price(ctx, instrument, sim.End)
			if err != nil {
				return types.SimulationReport{}, err
			}

			startPrice, err = r.oracle.Price(ctx, instrument, sim.Start)
			if err != nil {
				return types.SimulationReport{}, err
			}
		}

		diff := decimal.NewFromFloat(position.Diff())
		profit = profit.Add(diff.Mul(decimal.NewFromFloat(endPrice)))
		cleanProfit = cleanProfit.Add(diff.Mul(decimal.NewFromFloat(startPrice)))
		totalFees = totalFees.Add(decimal.NewFromFloat(position.Fees).Mul(decimal.NewFromFloat(endPrice)))
	}

	activeOrders := make([]types.Order, 0, len(sim.ActiveOrders))
	for _, order := range sim.ActiveOrders {
		activeOrders = append(activeOrders, *order)
	}

	profitValue, _ := profit.Float64()
	cleanProfitValue, _ := cleanProfit.Float64()
	totalFeesValue, _ := totalFees.Float64()

	report := types.SimulationReport{
		SimulationID:   sim.ID,
		CreatedAt:      time.Now().UTC(),
		Start:          sim.Start,
		End:            sim.End,
		QuoteCurrency:  r.quote,
		Deployments:    sim.Deployments,
		ProcessedTicks: sim.ProcessedTicks,
		EmittedActions: sim.EmittedActions,
		Profit:         profitValue,
		CleanProfit:    cleanProfitValue,
		TotalFees:      totalFeesValue,
		Positions:      positions,
		ActiveOrders:   activeOrders,
		Stats:          stats,
	}

	r.logger.Debug("Report assembled",
		zap.String("simulation_id", sim.ID),
		zap.Float64("profit", report.Profit),
		zap.Float64("fees", report.TotalFees),
	)

	return report, nil
}
