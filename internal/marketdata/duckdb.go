package marketdata

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBSource serves candles from a DuckDB database. The backing file is
// expected to hold (or is created with) a candles table keyed by
// (instrument, timeframe, time).
type DuckDBSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBSource opens the database at path (":memory:" for transient use)
// and ensures the candles table exists.
func NewDuckDBSource(path string, log *logger.Logger) (*DuckDBSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCandlesUnavailable, "failed to open candle database", err)
	}

	source := &DuckDBSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := source.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return source, nil
}

func (s *DuckDBSource) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			instrument TEXT,
			timeframe TEXT,
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCandlesUnavailable, "failed to create candles table", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *DuckDBSource) Close() error {
	return s.db.Close()
}

// InsertCandles loads candles into the store. Used by ingestion tooling and tests.
func (s *DuckDBSource) InsertCandles(ctx context.Context, timeframe types.Timeframe, candles []types.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	for _, candle := range candles {
		insertQuery := s.sq.
			Insert("candles").
			Columns("instrument", "timeframe", "time", "open", "high", "low", "close", "volume").
			Values(
				candle.Instrument.String(), string(timeframe), candle.Time,
				candle.Open, candle.High, candle.Low, candle.Close, candle.Volume,
			).
			RunWith(tx)

		if _, err := insertQuery.ExecContext(ctx); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert candle", err)
		}
	}

	return tx.Commit()
}

// EnsureSynced implements Source. A file-backed store cannot reach out to the
// venue, so consistency means the requested range is covered at all.
func (s *DuckDBSource) EnsureSynced(ctx context.Context, instrument types.Instrument, timeframes []types.Timeframe, from time.Time, to time.Time) error {
	for _, timeframe := range timeframes {
		countQuery := s.sq.
			Select("COUNT(*)").
			From("candles").
			Where(squirrel.Eq{"instrument": instrument.String(), "timeframe": string(timeframe)}).
			Where(squirrel.GtOrEq{"time": from}).
			Where(squirrel.Lt{"time": to}).
			RunWith(s.db)

		var count int
		if err := countQuery.QueryRowContext(ctx).Scan(&count); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
		}

		if count == 0 {
			return errors.Newf(errors.ErrCodeCandleSyncFailed,
				"no candles for %s %s in [%s, %s)",
				instrument, timeframe, from.Format(time.RFC3339), to.Format(time.RFC3339))
		}
	}

	s.logger.Debug("Candle range verified",
		zap.String("instrument", instrument.String()),
		zap.Time("from", from),
		zap.Time("to", to),
	)

	return nil
}

// Candles implements Source.
func (s *DuckDBSource) Candles(ctx context.Context, instrument types.Instrument, timeframe types.Timeframe, from time.Time, to time.Time) ([]types.Candle, error) {
	selectQuery := s.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.Eq{"instrument": instrument.String(), "timeframe": string(timeframe)}).
		Where(squirrel.GtOrEq{"time": from}).
		Where(squirrel.Lt{"time": to}).
		OrderBy("time ASC").
		RunWith(s.db)

	rows, err := selectQuery.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		candle := types.Candle{Instrument: instrument}

		err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	return candles, nil
}
