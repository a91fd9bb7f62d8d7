package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/tradecove/tradesim/pkg/errors"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus is the lifecycle state of a simulated order.
//
// Created -> InProgress -> {Completed | Canceled | Failed}
type OrderStatus string

const (
	// OrderStatusCreated means the primary entry condition has not been met yet.
	OrderStatusCreated OrderStatus = "CREATED"
	// OrderStatusInProgress means the primary entry filled and only the
	// protective triggers are still evaluated.
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled || s == OrderStatusFailed
}

// SizeUnit names the currency leg an order size is denominated in.
type SizeUnit string

const (
	// SizeUnitTarget denominates the size in target-currency units (e.g. BTC for BTC/USDT).
	SizeUnitTarget SizeUnit = "TARGET"
	// SizeUnitSource denominates the size in source-currency units (e.g. USDT for BTC/USDT).
	SizeUnitSource SizeUnit = "SOURCE"
)

// OrderSize is a tagged size value. The counterpart unit is derived only at
// settlement time, from the execution price, and never re-derived later.
type OrderSize struct {
	Unit  SizeUnit `yaml:"unit" json:"unit" validate:"required,oneof=TARGET SOURCE"`
	Value float64  `yaml:"value" json:"value" validate:"required,gt=0"`
}

// TargetQuantity converts the size to target-currency units at the given execution price.
func (s OrderSize) TargetQuantity(execPrice float64) float64 {
	if s.Unit == SizeUnitTarget {
		return s.Value
	}

	return s.Value / execPrice
}

// SourceQuantity converts the size to source-currency units at the given execution price.
func (s OrderSize) SourceQuantity(execPrice float64) float64 {
	if s.Unit == SizeUnitSource {
		return s.Value
	}

	return s.Value * execPrice
}

// Trigger is a protective stop-loss or take-profit leg attached to an order.
// It is evaluated only after the order's primary fill. A limit trigger executes
// at its own price; a market trigger executes at the trigger price itself.
type Trigger struct {
	Price     float64   `yaml:"price" json:"price" validate:"required,gt=0"`
	OrderType OrderType `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
}

// Order is a synthetic order owned by one simulation run.
type Order struct {
	ID           string     `yaml:"id" json:"id"`
	SimulationID string     `yaml:"simulation_id" json:"simulation_id"`
	CreatedAt    time.Time  `yaml:"created_at" json:"created_at"`
	Exchange     Exchange   `yaml:"exchange" json:"exchange"`
	Instrument   Instrument `yaml:"instrument" json:"instrument"`
	Market       MarketType `yaml:"market" json:"market"`
	Type         OrderType  `yaml:"type" json:"type"`
	// Price is the limit price for limit orders; ignored for market orders.
	Price float64 `yaml:"price" json:"price"`
	// Side is the working side. It is flipped after the primary fill because
	// the protective legs close the original exposure.
	Side   Side        `yaml:"side" json:"side"`
	Size   OrderSize   `yaml:"size" json:"size"`
	Status OrderStatus `yaml:"status" json:"status"`
	// Fee accumulates across the primary and protective executions, each in
	// the currency of its receiving leg.
	Fee float64 `yaml:"fee" json:"fee"`
	// FillPrice is the average fill price of the primary execution, 0 until filled.
	FillPrice           float64                 `yaml:"fill_price" json:"fill_price"`
	StopLoss            optional.Option[Trigger] `yaml:"stop_loss" json:"stop_loss"`
	StopLossFillPrice   float64                 `yaml:"stop_loss_fill_price" json:"stop_loss_fill_price"`
	TakeProfit          optional.Option[Trigger] `yaml:"take_profit" json:"take_profit"`
	TakeProfitFillPrice float64                 `yaml:"take_profit_fill_price" json:"take_profit_fill_price"`
	FailReason          string                  `yaml:"fail_reason,omitempty" json:"fail_reason,omitempty"`
}

// HasTriggers reports whether any protective trigger is attached.
func (o *Order) HasTriggers() bool {
	return o.StopLoss.IsSome() || o.TakeProfit.IsSome()
}

type ActionType string

const (
	ActionTypeCreateOrder ActionType = "CREATE_ORDER"
	ActionTypeCancelOrder ActionType = "CANCEL_ORDER"
	// ActionTypePatchOrder is declared for strategy compatibility but is not
	// implemented by the simulated matching; receiving it aborts the run.
	ActionTypePatchOrder ActionType = "PATCH_ORDER"
)

// CreateOrderRequest carries the full parameters of a requested order.
type CreateOrderRequest struct {
	Exchange   Exchange   `yaml:"exchange" json:"exchange" validate:"required"`
	Instrument Instrument `yaml:"instrument" json:"instrument"`
	Market     MarketType `yaml:"market" json:"market" validate:"required,oneof=SPOT MARGIN"`
	Type       OrderType  `yaml:"type" json:"type" validate:"required,oneof=MARKET LIMIT"`
	// Price is required for limit orders.
	Price float64 `yaml:"price" json:"price" validate:"gte=0"`
	Side  Side    `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	// Size is validated separately so size violations carry their own code.
	Size       OrderSize                `yaml:"size" json:"size" validate:"-"`
	StopLoss   optional.Option[Trigger] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[Trigger] `yaml:"take_profit" json:"take_profit"`
}

// OrderAction is one instruction emitted by a strategy for a tick.
type OrderAction struct {
	Type ActionType `yaml:"type" json:"type" validate:"required,oneof=CREATE_ORDER CANCEL_ORDER PATCH_ORDER"`
	// CreateOrder is set for CREATE_ORDER actions.
	CreateOrder optional.Option[CreateOrderRequest] `yaml:"create_order" json:"create_order"`
	// OrderID is set for CANCEL_ORDER and PATCH_ORDER actions.
	OrderID optional.Option[string] `yaml:"order_id" json:"order_id"`
}

// Validate validates the CreateOrderRequest struct.
func (r *CreateOrderRequest) Validate() error {
	validate := validator.New()

	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderAction, "invalid create order action", err)
	}

	if err := validate.Struct(r.Size); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSize, "invalid order size", err)
	}

	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOrderAction, "limit order requires a positive price, got %f", r.Price)
	}

	if r.StopLoss.IsSome() {
		if err := validate.Struct(r.StopLoss.Unwrap()); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidStopLoss, "invalid stop loss", err)
		}
	}

	if r.TakeProfit.IsSome() {
		if err := validate.Struct(r.TakeProfit.Unwrap()); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTakeProfit, "invalid take profit", err)
		}
	}

	return nil
}
