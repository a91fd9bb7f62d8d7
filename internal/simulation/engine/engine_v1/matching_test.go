package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/simulation/engine/engine_v1/fees"
	"github.com/tradecove/tradesim/internal/types"
)

type MatchingEngineTestSuite struct {
	suite.Suite
	instrument types.Instrument
	ledger     *Ledger
	stats      *StatsCollector
	matcher    *MatchingEngine
	now        time.Time
}

func (suite *MatchingEngineTestSuite) SetupTest() {
	suite.instrument = types.Instrument{Target: "BTC", Source: "USDT"}
	suite.now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.ledger = NewLedger("sim-1", fees.NewZeroSchedule())
	suite.ledger.Seed([]types.SimulationPosition{
		{SimulationID: "sim-1", Exchange: "binance", Currency: "USDT", StartBalance: 10000, Balance: 10000},
	})

	suite.stats = NewStatsCollector()
	suite.matcher = NewMatchingEngine(suite.ledger, suite.stats, logger.NewNopLogger())
}

func (suite *MatchingEngineTestSuite) order(orderType types.OrderType, price float64, size types.OrderSize) *types.Order {
	return &types.Order{
		ID:         "order-1",
		Exchange:   "binance",
		Instrument: suite.instrument,
		Market:     types.MarketTypeSpot,
		Type:       orderType,
		Price:      price,
		Side:       types.SideBuy,
		Size:       size,
		Status:     types.OrderStatusCreated,
	}
}

func (suite *MatchingEngineTestSuite) tick(price float64) types.Tick {
	return tickAt(suite.now, suite.instrument, price)
}

func (suite *MatchingEngineTestSuite) TestMarketOrderWithoutTriggersCompletesOnFillTick() {
	order := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})

	remaining, completed, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)

	suite.Empty(remaining)
	suite.Equal([]string{"order-1"}, completed)
	suite.Equal(types.OrderStatusCompleted, order.Status)
	suite.Equal(30000.0, order.FillPrice)
	suite.Equal(types.SideSell, order.Side)
}

func (suite *MatchingEngineTestSuite) TestLimitBuyWaitsForCross() {
	order := suite.order(types.OrderTypeLimit, 27000, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})

	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)
	suite.Require().Len(remaining, 1)
	suite.Equal(types.OrderStatusCreated, order.Status)

	remaining, _, err = suite.matcher.Settle(remaining, suite.tick(26500))
	suite.Require().NoError(err)
	suite.Empty(remaining)
	// Limit orders fill at their own price, not the crossing tick.
	suite.Equal(27000.0, order.FillPrice)
}

func (suite *MatchingEngineTestSuite) TestLimitSellWaitsForCross() {
	order := suite.order(types.OrderTypeLimit, 32000, types.OrderSize{Unit: types.SizeUnitTarget, Value: 0.1})
	order.Side = types.SideSell

	suite.ledger.Seed([]types.SimulationPosition{
		{SimulationID: "sim-1", Exchange: "binance", Currency: "BTC", StartBalance: 1, Balance: 1},
	})

	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(31000))
	suite.Require().NoError(err)
	suite.Len(remaining, 1)

	remaining, _, err = suite.matcher.Settle(remaining, suite.tick(32500))
	suite.Require().NoError(err)
	suite.Empty(remaining)
	suite.Equal(32000.0, order.FillPrice)
}

func (suite *MatchingEngineTestSuite) TestEntryFillLeavesTriggersToNextTick() {
	order := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})
	order.TakeProfit = optional.Some(types.Trigger{Price: 29000, OrderType: types.OrderTypeLimit})

	// The fill tick is already beyond the take-profit trigger, but the order
	// sees at most one transition per pass.
	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)
	suite.Require().Len(remaining, 1)
	suite.Equal(types.OrderStatusInProgress, order.Status)

	remaining, completed, err := suite.matcher.Settle(remaining, suite.tick(30000))
	suite.Require().NoError(err)
	suite.Empty(remaining)
	suite.Equal([]string{"order-1"}, completed)
	suite.Equal(29000.0, order.TakeProfitFillPrice)
}

func (suite *MatchingEngineTestSuite) TestStopLossWinsTieBreak() {
	order := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})
	// Both triggers at the same price: the stop-loss must resolve the order.
	order.StopLoss = optional.Some(types.Trigger{Price: 30000, OrderType: types.OrderTypeMarket})
	order.TakeProfit = optional.Some(types.Trigger{Price: 30000, OrderType: types.OrderTypeLimit})

	_, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusInProgress, order.Status)

	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)
	suite.Empty(remaining)

	suite.Equal(30000.0, order.StopLossFillPrice)
	suite.Equal(0.0, order.TakeProfitFillPrice)
	suite.Equal(1, suite.stats.Snapshot().StopLossHits)
	suite.Equal(0, suite.stats.Snapshot().TakeProfitHits)
}

func (suite *MatchingEngineTestSuite) TestStopLossFiresBelowTriggerForClosingSell() {
	order := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})
	order.StopLoss = optional.Some(types.Trigger{Price: 28000, OrderType: types.OrderTypeMarket})
	order.TakeProfit = optional.Some(types.Trigger{Price: 33000, OrderType: types.OrderTypeLimit})

	_, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(30000))
	suite.Require().NoError(err)

	// Between the triggers nothing fires.
	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, suite.tick(29000))
	suite.Require().NoError(err)
	suite.Len(remaining, 1)

	remaining, _, err = suite.matcher.Settle(remaining, suite.tick(27500))
	suite.Require().NoError(err)
	suite.Empty(remaining)
	suite.Equal(28000.0, order.StopLossFillPrice)
	suite.Equal(1, suite.stats.Snapshot().StopLossHits)
}

func (suite *MatchingEngineTestSuite) TestIgnoresTicksForOtherInstruments() {
	order := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})

	other := types.Instrument{Target: "ETH", Source: "USDT"}
	remaining, _, err := suite.matcher.Settle([]*types.Order{order}, tickAt(suite.now, other, 2000))
	suite.Require().NoError(err)

	suite.Len(remaining, 1)
	suite.Equal(types.OrderStatusCreated, order.Status)
}

func (suite *MatchingEngineTestSuite) TestOneTickCanFillOneOrderAndResolveAnother() {
	entry := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})

	exit := suite.order(types.OrderTypeMarket, 0, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})
	exit.ID = "order-2"
	exit.Status = types.OrderStatusInProgress
	exit.Side = types.SideSell
	exit.TakeProfit = optional.Some(types.Trigger{Price: 29000, OrderType: types.OrderTypeLimit})

	remaining, completed, err := suite.matcher.Settle([]*types.Order{entry, exit}, suite.tick(30000))
	suite.Require().NoError(err)

	suite.Empty(remaining)
	suite.ElementsMatch([]string{"order-1", "order-2"}, completed)
}

func (suite *MatchingEngineTestSuite) TestLimitEntryThenTakeProfit() {
	order := suite.order(types.OrderTypeLimit, 27000, types.OrderSize{Unit: types.SizeUnitSource, Value: 1000})
	order.StopLoss = optional.Some(types.Trigger{Price: 15000, OrderType: types.OrderTypeMarket})
	order.TakeProfit = optional.Some(types.Trigger{Price: 60000, OrderType: types.OrderTypeLimit})

	active := []*types.Order{order}

	for _, price := range []float64{30000, 27000, 40000} {
		var err error
		active, _, err = suite.matcher.Settle(active, suite.tick(price))
		suite.Require().NoError(err)
	}

	suite.Require().Len(active, 1)
	suite.Equal(types.OrderStatusInProgress, order.Status)
	suite.Equal(27000.0, order.FillPrice)

	active, completed, err := suite.matcher.Settle(active, suite.tick(60000))
	suite.Require().NoError(err)

	suite.Empty(active)
	suite.Equal([]string{"order-1"}, completed)
	suite.Equal(types.OrderStatusCompleted, order.Status)
	suite.Equal(60000.0, order.TakeProfitFillPrice)

	stats := suite.stats.Snapshot()
	suite.Equal(1, stats.TakeProfitHits)
	suite.Equal(1, stats.TakeProfitStreak)
	suite.Equal(0, stats.StopLossHits)
}

func (suite *MatchingEngineTestSuite) TestNewOrderValidatesRequest() {
	request := types.CreateOrderRequest{
		Exchange:   "binance",
		Instrument: suite.instrument,
		Market:     types.MarketTypeSpot,
		Type:       types.OrderTypeMarket,
		Side:       types.SideBuy,
		Size:       types.OrderSize{Unit: types.SizeUnitSource, Value: 1000},
	}

	order, err := NewOrder("sim-1", suite.now, request)
	suite.Require().NoError(err)
	suite.NotEmpty(order.ID)
	suite.Equal(types.OrderStatusCreated, order.Status)
	suite.Equal("sim-1", order.SimulationID)

	request.Size.Value = -1
	_, err = NewOrder("sim-1", suite.now, request)
	suite.Error(err)
}

func TestMatchingEngineTestSuite(t *testing.T) {
	suite.Run(t, new(MatchingEngineTestSuite))
}
