package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/tradecove/tradesim/internal/logger"
	"github.com/tradecove/tradesim/internal/marketdata"
	"github.com/tradecove/tradesim/internal/persistence"
	"github.com/tradecove/tradesim/internal/pricing"
	engine "github.com/tradecove/tradesim/internal/simulation/engine/engine_v1"
	"github.com/tradecove/tradesim/internal/strategy"
	"github.com/tradecove/tradesim/internal/types"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// simulateAction loads the run configuration, wires the collaborators and
// executes one simulation run.
func simulateAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	candlePath := cmd.String("candles")
	reportPath := cmd.String("reports")
	outputPath := cmd.String("output")
	exchange := cmd.String("exchange")
	market := cmd.String("market")

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := engine.EmptyConfig()
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	source, err := marketdata.NewDuckDBSource(candlePath, appLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	oracle := pricing.NewCandleOracle(source, config.OracleTimeframe)
	smaStrategy := strategy.NewSMACrossover(types.Exchange(exchange), types.MarketType(market))

	var store persistence.ReportStore

	if reportPath != "" {
		duckStore, err := persistence.NewDuckDBReportStore(reportPath, appLogger)
		if err != nil {
			return err
		}
		defer duckStore.Close()

		store = duckStore
	}

	simulation := engine.NewSimulationV1(config, source, smaStrategy, oracle, store, appLogger)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Replaying ticks"),
		progressbar.OptionShowCount(),
	)
	simulation.SetOnTick(func(processedTicks int64) {
		//nolint:errcheck // progress output only
		bar.Add(1)
	})

	report, err := simulation.Run(ctx)
	if err != nil {
		return err
	}

	//nolint:errcheck // progress output only
	bar.Finish()
	fmt.Println()

	if outputPath != "" {
		if err := types.WriteReportYAML(outputPath, report); err != nil {
			return err
		}
	}

	fmt.Printf("Simulation %s finished\n", report.SimulationID)
	fmt.Printf("  processed ticks: %d\n", report.ProcessedTicks)
	fmt.Printf("  emitted actions: %d\n", report.EmittedActions)
	fmt.Printf("  profit:          %.2f %s\n", report.Profit, report.QuoteCurrency)
	fmt.Printf("  clean profit:    %.2f %s\n", report.CleanProfit, report.QuoteCurrency)
	fmt.Printf("  total fees:      %.2f %s\n", report.TotalFees, report.QuoteCurrency)
	fmt.Printf("  stop losses:     %d (max streak %d)\n", report.Stats.StopLossHits, report.Stats.MaxStopLossStreak)
	fmt.Printf("  take profits:    %d (max streak %d)\n", report.Stats.TakeProfitHits, report.Stats.MaxTakeProfitStreak)

	return nil
}

// schemaAction prints the JSON schema of the run configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schemaJSON)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "Replay historical market data against strategy deployments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the simulation config YAML",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "candles",
				Aliases: []string{"d"},
				Usage:   "Path to the candle DuckDB database",
				Value:   "data/candles.duckdb",
			},
			&cli.StringFlag{
				Name:    "reports",
				Aliases: []string{"r"},
				Usage:   "Path to the report DuckDB database; empty disables persistence",
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path to write the report as YAML; empty skips the file",
				Value:   "",
			},
			&cli.StringFlag{
				Name:  "exchange",
				Usage: "Venue the strategy trades on",
				Value: "binance",
			},
			&cli.StringFlag{
				Name:  "market",
				Usage: "Market type the strategy trades on (SPOT or MARGIN)",
				Value: string(types.MarketTypeSpot),
			},
		},
		Action: simulateAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the simulation config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
