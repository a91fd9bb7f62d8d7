package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradecove/tradesim/pkg/errors"
)

// Exchange identifies a trading venue, e.g. "binance".
type Exchange string

// Currency is a single asset symbol, e.g. "BTC" or "USDT".
type Currency string

type MarketType string

const (
	MarketTypeSpot   MarketType = "SPOT"
	MarketTypeMargin MarketType = "MARGIN"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Invert returns the opposite economic side.
func (s Side) Invert() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Duration returns the candle length of the timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Instrument is a tradable pair. Target is the asset being bought or sold,
// Source is the asset it is priced in: BTC/USDT has Target BTC and Source USDT.
type Instrument struct {
	Target Currency `yaml:"target" json:"target"`
	Source Currency `yaml:"source" json:"source"`
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s/%s", i.Target, i.Source)
}

// ParseInstrument parses a "TARGET/SOURCE" pair string.
func ParseInstrument(s string) (Instrument, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Instrument{}, errors.Newf(errors.ErrCodeInvalidParameter, "invalid instrument %q, expected TARGET/SOURCE", s)
	}

	return Instrument{
		Target: Currency(parts[0]),
		Source: Currency(parts[1]),
	}, nil
}

// Candle is an OHLC(+volume) aggregate over one timeframe.
type Candle struct {
	Time       time.Time  `yaml:"time" json:"time"`
	Instrument Instrument `yaml:"instrument" json:"instrument"`
	Open       float64    `yaml:"open" json:"open"`
	High       float64    `yaml:"high" json:"high"`
	Low        float64    `yaml:"low" json:"low"`
	Close      float64    `yaml:"close" json:"close"`
	Volume     float64    `yaml:"volume" json:"volume"`
}

// Tick is a single price observation derived from a candle.
type Tick struct {
	Time       time.Time  `yaml:"time" json:"time"`
	Instrument Instrument `yaml:"instrument" json:"instrument"`
	Price      float64    `yaml:"price" json:"price"`
}

// Subscription names the (instrument, timeframe) stream a deployment consumes.
type Subscription struct {
	Instrument Instrument `yaml:"instrument" json:"instrument"`
	Timeframe  Timeframe  `yaml:"timeframe" json:"timeframe"`
}
