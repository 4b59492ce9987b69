// Command ingest is the Steam library collection CLI.
//
// Usage:
//
//	steam-ingest collect --steam-id 76561198004707326
//	steam-ingest collect --workers 4 --output library.csv
//	steam-ingest stats --input steam_games_data.csv
//	steam-ingest export --input steam_games_data.csv
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/steam-ledger/internal/collect"
	"github.com/albapepper/steam-ledger/internal/config"
	"github.com/albapepper/steam-ledger/internal/db"
	"github.com/albapepper/steam-ledger/internal/library"
	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/stats"
	"github.com/albapepper/steam-ledger/internal/table"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "steam-ingest",
		Short:        "Steam library collection CLI",
		SilenceUsage: true,
	}

	root.AddCommand(collectCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(exportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// collect command
// --------------------------------------------------------------------------

func collectCmd() *cobra.Command {
	var (
		apiKey, steamID, output string
		workers                 int
		skipStats, skipDB       bool
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the owned library, enrich it from the store and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				flags := cmd.Flags()
				if flags.Changed("api-key") {
					cfg.SteamAPIKey = apiKey
				}
				if flags.Changed("steam-id") {
					cfg.SteamID = steamID
				}
				if flags.Changed("output") {
					cfg.OutputFile = output
				}
				if flags.Changed("workers") {
					cfg.Workers = workers
				}

				if err := promptMissing(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
					return err
				}
				creds, err := cfg.Credentials()
				if err != nil {
					return err
				}

				pipeline := collect.NewSteamPipeline(
					collect.Endpoints{APIBaseURL: cfg.APIBaseURL, StoreBaseURL: cfg.StoreBaseURL},
					cfg.Policy(),
					collect.Options{Workers: cfg.Workers},
					logger,
				)
				result := pipeline.Run(ctx, creds)

				if err := ctx.Err(); err != nil {
					return fmt.Errorf("collection interrupted, nothing saved: %w", err)
				}
				for _, e := range result.Errors {
					logger.Debug("collect error", "error", e)
				}
				if result.Empty() {
					fmt.Fprintln(cmd.OutOrStdout(), "No data to save.")
					return nil
				}

				sinks := library.Sinks{Targets: []library.Sink{library.File{Path: cfg.OutputFile}}, Logger: logger}
				if cfg.HasDatabase() && !skipDB {
					pool, err := db.New(ctx, cfg)
					if err != nil {
						return fmt.Errorf("connect to database: %w", err)
					}
					defer pool.Close()
					sinks.Targets = append(sinks.Targets, library.Table{Store: pool, SteamID: creds.SteamID})
				}
				if err := sinks.Save(ctx, result.Records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Data saved to %s\n", cfg.OutputFile)

				if skipStats {
					return nil
				}
				return printStats(cmd.OutOrStdout(), result.Records)
			})
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Steam Web API key (default $STEAM_API_KEY)")
	cmd.Flags().StringVar(&steamID, "steam-id", "", "64-bit Steam account id (default $STEAM_ID)")
	cmd.Flags().StringVarP(&output, "output", "o", table.DefaultFile, "CSV output path (default $OUTPUT_FILE)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Items enriched concurrently")
	cmd.Flags().BoolVar(&skipStats, "no-stats", false, "Do not print statistics after saving")
	cmd.Flags().BoolVar(&skipDB, "no-db", false, "Do not write to Postgres even if DATABASE_URL is set")
	return cmd
}

// promptMissing asks for credentials that neither flags nor environment
// provided. The key is never echoed back.
func promptMissing(in io.Reader, out io.Writer, cfg *config.Config) error {
	if cfg.SteamAPIKey != "" && cfg.SteamID != "" {
		return nil
	}
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			return config.ErrMissingCredentials
		}
	}

	r := bufio.NewReader(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	if cfg.SteamAPIKey == "" {
		fmt.Fprintln(out, "Get your Steam API key here: https://steamcommunity.com/dev/apikey")
		v, err := ask("Please enter your API key: ")
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
		cfg.SteamAPIKey = v
	}
	if cfg.SteamID == "" {
		fmt.Fprintln(out, "Your Steam ID is near the top of your Steam Account Details page.")
		v, err := ask("Please enter your Steam ID: ")
		if err != nil {
			return fmt.Errorf("read steam id: %w", err)
		}
		cfg.SteamID = v
		fmt.Fprintf(out, "You entered: %s\n", v)
	}
	return nil
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for a saved library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				if !cmd.Flags().Changed("input") {
					input = cfg.OutputFile
				}
				records, err := table.ReadFile(input)
				if err != nil {
					return err
				}
				return printStats(cmd.OutOrStdout(), records)
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", table.DefaultFile, "CSV input path (default $OUTPUT_FILE)")
	return cmd
}

func printStats(w io.Writer, records []provider.EnrichedRecord) error {
	summary, err := stats.Compute(records)
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}
	for _, line := range summary.Lines() {
		fmt.Fprintln(w, line)
	}
	return nil
}

// --------------------------------------------------------------------------
// export command
// --------------------------------------------------------------------------

func exportCmd() *cobra.Command {
	var input, steamID string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load a saved CSV library into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				if !cmd.Flags().Changed("input") {
					input = cfg.OutputFile
				}
				if cmd.Flags().Changed("steam-id") {
					cfg.SteamID = steamID
				}
				if cfg.SteamID == "" {
					return fmt.Errorf("STEAM_ID or --steam-id is required")
				}
				if !cfg.HasDatabase() {
					return fmt.Errorf("DATABASE_URL is required")
				}

				records, err := table.ReadFile(input)
				if err != nil {
					return err
				}
				pool, err := db.New(ctx, cfg)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer pool.Close()

				if err := pool.ReplaceLibrary(ctx, cfg.SteamID, records); err != nil {
					return fmt.Errorf("export library: %w", err)
				}
				logger.Info("Library exported", "steam_id", cfg.SteamID, "records", len(records))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", table.DefaultFile, "CSV input path (default $OUTPUT_FILE)")
	cmd.Flags().StringVar(&steamID, "steam-id", "", "Account the rows belong to (default $STEAM_ID)")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// run loads configuration, applies the log level and calls fn with a context
// cancelled on interrupt.
func run(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	return fn(ctx, cfg)
}
