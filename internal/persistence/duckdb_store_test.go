package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

type DuckDBReportStoreTestSuite struct {
	suite.Suite
	store *DuckDBReportStore
}

func (suite *DuckDBReportStoreTestSuite) SetupTest() {
	store, err := NewDuckDBReportStore(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.store = store
}

func (suite *DuckDBReportStoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *DuckDBReportStoreTestSuite) report(id string) types.SimulationReport {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.SimulationReport{
		SimulationID:   id,
		CreatedAt:      start.Add(31 * 24 * time.Hour),
		Start:          start,
		End:            start.Add(30 * 24 * time.Hour),
		QuoteCurrency:  "USDT",
		ProcessedTicks: 1000,
		EmittedActions: 12,
		Profit:         150.5,
		CleanProfit:    140.0,
		TotalFees:      3.2,
		Positions: []types.SimulationPosition{
			{SimulationID: id, Exchange: "binance", Currency: "USDT", StartBalance: 5000, Balance: 5150.5},
			{SimulationID: id, Exchange: "binance", Currency: "BTC", StartBalance: 0, Balance: 0, Fees: 0.001},
		},
		Stats: types.SimulationStats{TakeProfitHits: 3, StopLossHits: 1, MaxTakeProfitStreak: 2},
	}
}

func (suite *DuckDBReportStoreTestSuite) TestSaveAndGetByID() {
	report := suite.report("sim-1")
	suite.Require().NoError(suite.store.Save(context.Background(), report))

	loaded, err := suite.store.Get(context.Background(), optional.Some("sim-1"))
	suite.Require().NoError(err)
	suite.Require().Len(loaded, 1)

	suite.Equal(report.SimulationID, loaded[0].SimulationID)
	suite.Equal(report.Profit, loaded[0].Profit)
	suite.Equal(report.QuoteCurrency, loaded[0].QuoteCurrency)
	suite.Require().Len(loaded[0].Positions, 2)
	suite.Equal(report.Positions[1].Fees, loaded[0].Positions[1].Fees)
	suite.Equal(report.Stats, loaded[0].Stats)
}

func (suite *DuckDBReportStoreTestSuite) TestGetAll() {
	suite.Require().NoError(suite.store.Save(context.Background(), suite.report("sim-1")))
	suite.Require().NoError(suite.store.Save(context.Background(), suite.report("sim-2")))

	loaded, err := suite.store.Get(context.Background(), optional.None[string]())
	suite.Require().NoError(err)
	suite.Len(loaded, 2)
}

func (suite *DuckDBReportStoreTestSuite) TestGetMissingReportFails() {
	_, err := suite.store.Get(context.Background(), optional.Some("missing"))

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeReportNotFound))
}

func TestDuckDBReportStoreTestSuite(t *testing.T) {
	suite.Run(t, new(DuckDBReportStoreTestSuite))
}
