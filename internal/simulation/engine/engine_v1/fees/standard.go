package fees

import (
	"github.com/tradecove/tradesim/internal/types"
)

type rateKey struct {
	exchange types.Exchange
	market   types.MarketType
	side     types.Side
}

// StandardSchedule is a fixed per-exchange rate table. Spot and margin carry
// different rates; unknown venues fall back to a conservative default.
type StandardSchedule struct {
	rates    map[rateKey]float64
	fallback float64
}

// NewStandardSchedule builds the built-in rate table.
func NewStandardSchedule() *StandardSchedule {
	schedule := &StandardSchedule{
		rates:    make(map[rateKey]float64),
		fallback: 0.001,
	}

	schedule.set("binance", types.MarketTypeSpot, 0.001, 0.001)
	schedule.set("binance", types.MarketTypeMargin, 0.002, 0.002)
	schedule.set("coinbase", types.MarketTypeSpot, 0.006, 0.004)
	schedule.set("coinbase", types.MarketTypeMargin, 0.008, 0.006)
	schedule.set("kraken", types.MarketTypeSpot, 0.0026, 0.0016)
	schedule.set("kraken", types.MarketTypeMargin, 0.0036, 0.0026)

	return schedule
}

func (s *StandardSchedule) set(exchange types.Exchange, market types.MarketType, buy float64, sell float64) {
	s.rates[rateKey{exchange: exchange, market: market, side: types.SideBuy}] = buy
	s.rates[rateKey{exchange: exchange, market: market, side: types.SideSell}] = sell
}

// Rate implements Schedule.
func (s *StandardSchedule) Rate(exchange types.Exchange, market types.MarketType, side types.Side) float64 {
	if rate, ok := s.rates[rateKey{exchange: exchange, market: market, side: side}]; ok {
		return rate
	}

	return s.fallback
}

// ZeroSchedule implements Schedule with no fees.
type ZeroSchedule struct{}

// NewZeroSchedule creates a schedule that charges nothing.
func NewZeroSchedule() *ZeroSchedule {
	return &ZeroSchedule{}
}

// Rate returns 0 for any key.
func (z *ZeroSchedule) Rate(exchange types.Exchange, market types.MarketType, side types.Side) float64 {
	return 0.0
}
