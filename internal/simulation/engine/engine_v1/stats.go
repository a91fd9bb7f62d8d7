package engine

import (
	"github.com/tradecove/tradesim/internal/types"
)

// StatsCollector tracks stop-loss/take-profit hit counts and consecutive-hit
// streaks across one run. A hit of one kind resets the other kind's current
// streak; the recorded maximums are never lowered.
type StatsCollector struct {
	stats types.SimulationStats
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		stats: types.SimulationStats{},
	}
}

// RecordStopLoss registers a stop-loss resolution.
func (c *StatsCollector) RecordStopLoss() {
	c.stats.StopLossHits++
	c.stats.StopLossStreak++
	c.stats.TakeProfitStreak = 0

	if c.stats.StopLossStreak > c.stats.MaxStopLossStreak {
		c.stats.MaxStopLossStreak = c.stats.StopLossStreak
	}
}

// RecordTakeProfit registers a take-profit resolution.
func (c *StatsCollector) RecordTakeProfit() {
	c.stats.TakeProfitHits++
	c.stats.TakeProfitStreak++
	c.stats.StopLossStreak = 0

	if c.stats.TakeProfitStreak > c.stats.MaxTakeProfitStreak {
		c.stats.MaxTakeProfitStreak = c.stats.TakeProfitStreak
	}
}

// StopLossPercent reports the stop-loss share of all protective resolutions,
// 0 if none occurred.
func (c *StatsCollector) StopLossPercent() float64 {
	total := c.stats.StopLossHits + c.stats.TakeProfitHits
	if total == 0 {
		return 0
	}

	return float64(c.stats.StopLossHits) / float64(total)
}

// TakeProfitPercent reports the take-profit share of all protective
// resolutions, 0 if none occurred.
func (c *StatsCollector) TakeProfitPercent() float64 {
	total := c.stats.StopLossHits + c.stats.TakeProfitHits
	if total == 0 {
		return 0
	}

	return float64(c.stats.TakeProfitHits) / float64(total)
}

// Snapshot returns a copy of the accumulated stats.
func (c *StatsCollector) Snapshot() types.SimulationStats {
	return c.stats
}
