package fees

import (
	"github.com/tradecove/tradesim/internal/types"
)

// Schedule resolves the fractional fee rate charged on the receiving leg of a
// settlement, keyed by (exchange, market type, side).
type Schedule interface {
	Rate(exchange types.Exchange, market types.MarketType, side types.Side) float64
}

type Kind string

const (
	KindStandard Kind = "standard"
	KindZero     Kind = "zero"
)

var AllKinds = []any{
	KindStandard,
	KindZero,
}

// GetSchedule returns the fee schedule for the given kind.
func GetSchedule(kind Kind) Schedule {
	switch kind {
	case KindStandard:
		return NewStandardSchedule()
	case KindZero:
		return NewZeroSchedule()
	default:
		return NewStandardSchedule()
	}
}
