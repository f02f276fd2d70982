package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"backtest_go/internal/app"
	"backtest_go/internal/domain"
	"backtest_go/internal/infra"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("❌ Backtest failed", slog.Any("error", err))
		os.Exit(app.ExitCode(err))
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "backtest",
		Short:         "Replay historical ticks through trading strategies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to YAML config")

	root.AddCommand(runCmd(&configPath), importCmd(&configPath), exportCmd(&configPath), versionCmd())
	return root
}

// loadConfig reads the config file. A missing file at the default location
// falls back to built-in defaults; an explicitly requested one must exist.
func loadConfig(cmd *cobra.Command, path string) (*infra.Config, error) {
	cfg, err := infra.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrConfigNotFound) || cmd.Flags().Changed("config") {
		return nil, err
	}
	cfg = infra.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCmd(configPath *string) *cobra.Command {
	var (
		csvPath     string
		seed        int64
		successRate float64
		outDir      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest and write the performance report",
		Long: `Load ticks from the configured feed, replay them through every configured
strategy against the simulated execution engine, and write performance.md
and equity.png to the report directory.

Example:
  backtest run --csv data/market_data.csv --seed 42
  backtest run -c configs/config.yaml --success-rate 1 --out reports/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("csv") {
				cfg.Feed.Kind = infra.FeedCSV
				cfg.Feed.Path = csvPath
			}
			if flags.Changed("seed") {
				cfg.Backtest.Seed = &seed
			}
			if flags.Changed("success-rate") {
				cfg.Backtest.SuccessRate = successRate
			}
			if flags.Changed("out") {
				cfg.Report.OutputDir = outDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			b := app.NewBootstrap(cfg)
			if err := b.Initialize(); err != nil {
				return err
			}
			defer b.Close()

			res, err := b.Run(cmd.Context())
			if err != nil {
				return err
			}

			s := res.Summary
			fmt.Fprintf(cmd.OutOrStdout(),
				"ticks=%d signals=%d filled=%d failed=%d rejected=%d start=%.2f end=%.2f elapsed=%s\nreport: %s\n",
				s.Ticks, s.Signals, s.Filled, s.Failed, s.Rejected, s.StartingValue, s.EndingValue, s.Elapsed, res.ReportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV tick file (overrides feed settings)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for fill outcomes")
	cmd.Flags().Float64Var(&successRate, "success-rate", 0.9, "Probability that a valid order fills")
	cmd.Flags().StringVar(&outDir, "out", ".", "Report output directory")
	return cmd
}

func importCmd(configPath *string) *cobra.Command {
	var (
		dbPath  string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import <csv>...",
		Short: "Import CSV ticks into the SQLite tick store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Feed.DBPath = dbPath
			}

			b := app.NewBootstrap(cfg)
			if err := b.Initialize(); err != nil {
				return err
			}
			defer b.Close()

			prev, err := b.LastImport()
			if err != nil {
				return err
			}
			if prev != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "previous import: %s\n", prev)
			}
			if replace {
				n, err := b.ClearTicks(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d ticks\n", n)
			}

			total := 0
			for _, path := range args {
				n, err := b.Import(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d ticks into %s\n", total, cfg.Feed.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides feed.db_path)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete every stored tick before importing")
	return cmd
}

func exportCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <csv>",
		Short: "Write the configured feed to a CSV file",
		Long: `Load ticks from the configured feed (csv, sqlite or ws) and write them as
timestamp,symbol,price rows. With a ws feed this records a live session
that "backtest run --csv" can replay later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			b := app.NewBootstrap(cfg)
			if err := b.Initialize(); err != nil {
				return err
			}
			defer b.Close()

			n, err := b.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d ticks to %s\n", n, args[0])
			return nil
		},
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "backtest", version)
		},
	}
}
