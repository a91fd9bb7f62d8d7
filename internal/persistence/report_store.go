package persistence

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/tradecove/tradesim/internal/types"
)

// ReportStore persists finished simulation reports. The engine hands a report
// over exactly once, after a run completes; failed runs persist nothing.
type ReportStore interface {
	// Save stores the report.
	Save(ctx context.Context, report types.SimulationReport) error
	// Get returns the report with the given simulation id, or all reports
	// when no id is given.
	Get(ctx context.Context, simulationID optional.Option[string]) ([]types.SimulationReport, error)
}
