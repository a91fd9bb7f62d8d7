package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SimulationStats tracks protective-trigger resolutions across one run.
type SimulationStats struct {
	// StopLossHits counts stop-loss resolutions.
	StopLossHits int `yaml:"stop_loss_hits" json:"stop_loss_hits"`
	// TakeProfitHits counts take-profit resolutions.
	TakeProfitHits int `yaml:"take_profit_hits" json:"take_profit_hits"`
	// StopLossStreak is the current run of consecutive stop-loss hits.
	StopLossStreak int `yaml:"stop_loss_streak" json:"stop_loss_streak"`
	// TakeProfitStreak is the current run of consecutive take-profit hits.
	TakeProfitStreak int `yaml:"take_profit_streak" json:"take_profit_streak"`
	// MaxStopLossStreak is the high-water mark of StopLossStreak.
	MaxStopLossStreak int `yaml:"max_stop_loss_streak" json:"max_stop_loss_streak"`
	// MaxTakeProfitStreak is the high-water mark of TakeProfitStreak.
	MaxTakeProfitStreak int `yaml:"max_take_profit_streak" json:"max_take_profit_streak"`
}

// SimulationReport is the persisted artifact of one completed run.
type SimulationReport struct {
	SimulationID string    `yaml:"simulation_id" json:"simulation_id"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	Start        time.Time `yaml:"start" json:"start"`
	End          time.Time `yaml:"end" json:"end"`
	// QuoteCurrency is the currency profit and fees are normalized to.
	QuoteCurrency  Currency     `yaml:"quote_currency" json:"quote_currency"`
	Deployments    []Deployment `yaml:"deployments" json:"deployments"`
	ProcessedTicks int64        `yaml:"processed_ticks" json:"processed_ticks"`
	EmittedActions int64        `yaml:"emitted_actions" json:"emitted_actions"`
	// Profit is the sum of ledger diffs valued at end-of-run prices.
	Profit float64 `yaml:"profit" json:"profit"`
	// CleanProfit is the same sum valued at start-of-run prices.
	CleanProfit float64 `yaml:"clean_profit" json:"clean_profit"`
	// TotalFees is the sum of fee accumulators valued at end-of-run prices.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`
	// Positions is the final ledger snapshot.
	Positions []SimulationPosition `yaml:"positions" json:"positions"`
	// ActiveOrders are the orders still open at the cutoff.
	ActiveOrders []Order         `yaml:"active_orders" json:"active_orders"`
	Stats        SimulationStats `yaml:"stats" json:"stats"`
}

// WriteReportYAML marshals the report to YAML and writes it to path.
func WriteReportYAML(path string, report SimulationReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write simulation report to file: %w", err)
	}

	return nil
}
