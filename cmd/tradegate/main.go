package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/tradegate/internal/diag"
	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/engine"
	"github.com/sawpanic/tradegate/internal/gates"
	"github.com/sawpanic/tradegate/internal/infrastructure/db"
	httpapi "github.com/sawpanic/tradegate/internal/interfaces/http"
	"github.com/sawpanic/tradegate/internal/metrics"
	sig "github.com/sawpanic/tradegate/internal/signal"
)

const (
	appName = "tradegate"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Trade admission and lifecycle engine",
		Long:    "tradegate validates trade proposals through a nine-gate battery, prices admitted signals, and manages the open/close lifecycle against PostgreSQL.",
		Version: version,
	}

	var configPath, gatesPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to server/database config")
	rootCmd.PersistentFlags().StringVar(&gatesPath, "gates", "", "Path to gate threshold config (defaults built in)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, gatesPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	}

	evaluateCmd := &cobra.Command{
		Use:   "evaluate <snapshot.json>",
		Short: "Evaluate one proposal from a JSON snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(gatesPath, args[0])
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, evaluateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func loadGates(gatesPath string) (*gates.Config, error) {
	if gatesPath == "" {
		return gates.DefaultConfig(), nil
	}
	return gates.LoadConfig(gatesPath)
}

func runServe(configPath, gatesPath string) error {
	dbConfig, err := db.LoadConfig(configPath)
	if err != nil {
		return err
	}

	manager, err := db.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer manager.Close()

	gateConfig, err := loadGates(gatesPath)
	if err != nil {
		return err
	}

	serverConfig, err := httpapi.LoadServerConfig(configPath)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	evaluator := gates.NewEvaluator(gateConfig).WithObserver(registry)
	generator := sig.NewGenerator(evaluator)
	eng := engine.New(manager.Store()).WithObserver(registry)
	recorder := diag.NewRecorder(diag.NewAuto(), diag.DefaultTTL)

	server := httpapi.NewServer(serverConfig, generator, eng, manager.Store(), recorder, registry, manager)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-stop:
		log.Info().Str("signal", s.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runMigrate(configPath string) error {
	dbConfig, err := db.LoadConfig(configPath)
	if err != nil {
		return err
	}

	manager, err := db.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := manager.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info().Msg("Schema applied")
	return nil
}

// runEvaluate runs the gate battery and generator against a snapshot file and
// prints the verdict, for operators reproducing a rejection.
func runEvaluate(gatesPath, snapshotPath string) error {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", snapshotPath, err)
	}

	var input struct {
		Symbol     string                `json:"symbol"`
		Direction  domain.Direction      `json:"direction"`
		Confidence float64               `json:"ai_confidence"`
		Reasoning  string                `json:"reasoning"`
		Snapshot   domain.MarketSnapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", snapshotPath, err)
	}
	if input.Symbol == "" || !input.Direction.Valid() {
		return fmt.Errorf("snapshot must carry a symbol and a BUY or SELL direction")
	}

	gateConfig, err := loadGates(gatesPath)
	if err != nil {
		return err
	}

	generator := sig.NewGenerator(gates.NewEvaluator(gateConfig))
	eval := generator.Generate(input.Symbol, input.Direction, input.Snapshot, input.Confidence, input.Reasoning)

	out := map[string]interface{}{
		"admitted":     eval.Admitted,
		"rr_ratio":     eval.RRRatio,
		"gate_results": eval.Report.Map(),
	}
	if eval.Signal != nil {
		out["signal"] = eval.Signal
	}
	if reasons := eval.Report.FailureReasons(); len(reasons) > 0 {
		out["failure_reasons"] = reasons
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
