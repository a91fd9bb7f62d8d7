package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/marketdata"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

type CandleOracleTestSuite struct {
	suite.Suite
	source     *marketdata.DuckDBSource
	oracle     *CandleOracle
	instrument types.Instrument
	start      time.Time
}

func (suite *CandleOracleTestSuite) SetupTest() {
	source, err := marketdata.NewDuckDBSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.source = source
	suite.oracle = NewCandleOracle(source, types.Timeframe1h)
	suite.instrument = types.Instrument{Target: "BTC", Source: "USDT"}
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *CandleOracleTestSuite) TearDownTest() {
	if suite.source != nil {
		suite.source.Close()
	}
}

func (suite *CandleOracleTestSuite) seed(at time.Time, close float64) {
	suite.Require().NoError(suite.source.InsertCandles(context.Background(), types.Timeframe1h, []types.Candle{
		{Time: at, Instrument: suite.instrument, Open: close, High: close, Low: close, Close: close, Volume: 1},
	}))
}

func (suite *CandleOracleTestSuite) TestReturnsLatestCloseAtOrBefore() {
	suite.seed(suite.start, 30000)
	suite.seed(suite.start.Add(time.Hour), 31000)
	suite.seed(suite.start.Add(2*time.Hour), 32000)

	price, err := suite.oracle.Price(context.Background(), suite.instrument, suite.start.Add(90*time.Minute))
	suite.Require().NoError(err)
	suite.Equal(31000.0, price)
}

func (suite *CandleOracleTestSuite) TestIncludesCandleStampedAtRequestTime() {
	suite.seed(suite.start, 30000)

	price, err := suite.oracle.Price(context.Background(), suite.instrument, suite.start)
	suite.Require().NoError(err)
	suite.Equal(30000.0, price)
}

func (suite *CandleOracleTestSuite) TestFailsBeyondLookback() {
	suite.seed(suite.start, 30000)

	_, err := suite.oracle.Price(context.Background(), suite.instrument, suite.start.Add(8*24*time.Hour))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePriceNotFound))
}

func (suite *CandleOracleTestSuite) TestFailsWithoutData() {
	_, err := suite.oracle.Price(context.Background(), suite.instrument, suite.start)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePriceNotFound))
}

func TestCandleOracleTestSuite(t *testing.T) {
	suite.Run(t, new(CandleOracleTestSuite))
}
