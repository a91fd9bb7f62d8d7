package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/tradecove/tradesim/internal/simulation/engine/engine_v1/fees"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/tradecove/tradesim/pkg/errors"
)

// PositionConfig seeds one ledger entry before the run starts.
type PositionConfig struct {
	Exchange types.Exchange `yaml:"exchange" json:"exchange" jsonschema:"title=Exchange" validate:"required"`
	Currency types.Currency `yaml:"currency" json:"currency" jsonschema:"title=Currency" validate:"required"`
	Balance  float64        `yaml:"balance" json:"balance" jsonschema:"title=Balance,minimum=0" validate:"gte=0"`
}

// SimulationConfigV1 configures one simulation run.
type SimulationConfigV1 struct {
	QuoteCurrency types.Currency `yaml:"quote_currency" json:"quote_currency" jsonschema:"title=Quote Currency,description=Currency profit and fees are normalized to" validate:"required"`
	FeeSchedule   fees.Kind      `yaml:"fee_schedule" json:"fee_schedule" jsonschema:"title=Fee Schedule,description=The fee schedule used for settlements"`
	Start         time.Time      `yaml:"start" json:"start" jsonschema:"title=Start Time" validate:"required"`
	End           time.Time      `yaml:"end" json:"end" jsonschema:"title=End Time,description=Exclusive end of the replayed window" validate:"required"`
	Positions     []PositionConfig       `yaml:"positions" json:"positions" jsonschema:"title=Initial Positions" validate:"dive"`
	Deployments   []types.DeploymentSpec `yaml:"deployments" json:"deployments" jsonschema:"title=Strategy Deployments" validate:"required,min=1,dive"`
	// OracleTimeframe is the candle timeframe the price oracle reads for
	// report normalization.
	OracleTimeframe types.Timeframe `yaml:"oracle_timeframe" json:"oracle_timeframe" jsonschema:"title=Oracle Timeframe"`
}

// Validate checks the config for a runnable window and deployments.
func (c *SimulationConfigV1) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeSimulationConfigError, "invalid simulation config", err)
	}

	if !c.End.After(c.Start) {
		return errors.Newf(errors.ErrCodeInvalidWindow, "end %s must be after start %s",
			c.End.Format(time.RFC3339), c.Start.Format(time.RFC3339))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the SimulationConfigV1.
func (c *SimulationConfigV1) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "fees.Kind") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: fees.AllKinds,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "simulation-config-v1"
	schema.Description = "Configuration schema for SimulationV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the SimulationConfigV1.
func (c *SimulationConfigV1) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a SimulationConfigV1 with default values.
func EmptyConfig() SimulationConfigV1 {
	return SimulationConfigV1{
		QuoteCurrency:   "USDT",
		FeeSchedule:     fees.KindStandard,
		Start:           time.Time{},
		End:             time.Time{},
		Positions:       nil,
		Deployments:     nil,
		OracleTimeframe: types.Timeframe1h,
	}
}

// TestConfig returns a runnable config for tests.
func TestConfig(start time.Time, end time.Time, schedule fees.Kind) SimulationConfigV1 {
	return SimulationConfigV1{
		QuoteCurrency: "USDT",
		FeeSchedule:   schedule,
		Start:         start,
		End:           end,
		Positions: []PositionConfig{
			{Exchange: "binance", Currency: "USDT", Balance: 10000},
		},
		Deployments: []types.DeploymentSpec{
			{
				Plugin:    "sma_crossover",
				Timeframe: types.Timeframe1h,
				Params:    map[string]string{"instrument": "BTC/USDT"},
			},
		},
		OracleTimeframe: types.Timeframe1h,
	}
}
