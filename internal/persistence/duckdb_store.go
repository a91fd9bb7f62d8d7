package persistence

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DuckDBReportStore stores reports in a DuckDB database: flat summary columns
// for querying plus a YAML payload for lossless round-trips, and one row per
// final ledger entry in report_positions.
type DuckDBReportStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBReportStore opens the database at path (":memory:" for transient
// use) and creates the report tables.
func NewDuckDBReportStore(path string, log *logger.Logger) (*DuckDBReportStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to open report database", err)
	}

	store := &DuckDBReportStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *DuckDBReportStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			simulation_id TEXT PRIMARY KEY,
			created_at TIMESTAMP,
			start_time TIMESTAMP,
			end_time TIMESTAMP,
			quote_currency TEXT,
			processed_ticks BIGINT,
			emitted_actions BIGINT,
			profit DOUBLE,
			clean_profit DOUBLE,
			total_fees DOUBLE,
			payload TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to create reports table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS report_positions (
			simulation_id TEXT,
			exchange TEXT,
			currency TEXT,
			start_balance DOUBLE,
			balance DOUBLE,
			fees DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to create report_positions table", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *DuckDBReportStore) Close() error {
	return s.db.Close()
}

// Save implements ReportStore.
func (s *DuckDBReportStore) Save(ctx context.Context, report types.SimulationReport) error {
	payload, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to marshal report payload", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to begin transaction", err)
	}

	insertReport := s.sq.
		Insert("reports").
		Columns(
			"simulation_id", "created_at", "start_time", "end_time", "quote_currency",
			"processed_ticks", "emitted_actions", "profit", "clean_profit", "total_fees", "payload",
		).
		Values(
			report.SimulationID, report.CreatedAt, report.Start, report.End, string(report.QuoteCurrency),
			report.ProcessedTicks, report.EmittedActions, report.Profit, report.CleanProfit, report.TotalFees,
			string(payload),
		).
		RunWith(tx)

	if _, err := insertReport.ExecContext(ctx); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to insert report", err)
	}

	for _, position := range report.Positions {
		insertPosition := s.sq.
			Insert("report_positions").
			Columns("simulation_id", "exchange", "currency", "start_balance", "balance", "fees").
			Values(
				report.SimulationID, string(position.Exchange), string(position.Currency),
				position.StartBalance, position.Balance, position.Fees,
			).
			RunWith(tx)

		if _, err := insertPosition.ExecContext(ctx); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to insert report position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeReportSaveFailed, "failed to commit report", err)
	}

	s.logger.Info("Simulation report saved",
		zap.String("simulation_id", report.SimulationID),
		zap.Float64("profit", report.Profit),
	)

	return nil
}

// Get implements ReportStore.
func (s *DuckDBReportStore) Get(ctx context.Context, simulationID optional.Option[string]) ([]types.SimulationReport, error) {
	selectQuery := s.sq.
		Select("payload").
		From("reports").
		OrderBy("created_at ASC")

	if simulationID.IsSome() {
		selectQuery = selectQuery.Where(squirrel.Eq{"simulation_id": simulationID.Unwrap()})
	}

	rows, err := selectQuery.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query reports", err)
	}
	defer rows.Close()

	var reports []types.SimulationReport

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan report", err)
		}

		var report types.SimulationReport
		if err := yaml.Unmarshal([]byte(payload), &report); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to unmarshal report payload", err)
		}

		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating reports", err)
	}

	if simulationID.IsSome() && len(reports) == 0 {
		return nil, errors.Newf(errors.ErrCodeReportNotFound, "no report for simulation %s", simulationID.Unwrap())
	}

	return reports, nil
}
