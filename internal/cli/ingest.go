package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-analyzer/internal/store"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Cities    []string
	RawOutput string
	DryRun    bool
	Migrate   bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [city...]",
		Short: "Run the pipeline once",
		Long: `Fetch current weather for every city, write the raw snapshot and store
normalized records.

Cities come from --cities (and any extra arguments), falling back to
CITIES_FILE or CITIES from the environment.

Example:
  weather-analyzer ingest --cities Stockholm London "New York"
  weather-analyzer ingest --raw-output /tmp/raw --dry-run`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, args)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Cities, "cities", nil, "cities to fetch")
	cmd.Flags().StringVar(&opts.RawOutput, "raw-output", "", "directory for raw JSON snapshots (default HISTORY_DIR)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "keep records in memory instead of the database")
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the schema before running")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions, args []string) error {
	cfg, err := loadConfig(opts.RootOptions, false)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	cities := cityArgs(opts.Cities, args)
	if len(cities) == 0 {
		cities, err = configuredCities(cfg, logger)
		if err != nil {
			return err
		}
	}

	var st weather.Store
	if opts.DryRun {
		logger.Info("dry run; records are not persisted")
		st = store.NewMemoryStore()
	} else {
		sqlStore, err := newSQLStore(cfg, logger)
		if err != nil {
			return err
		}
		if err := migrate(ctx, sqlStore, opts.Migrate, logger); err != nil {
			return err
		}
		st = sqlStore
	}

	out := newPipeline(cfg, logger, st, opts.RawOutput).Run(ctx, cities)

	if err := writeOutcome(cmd.OutOrStdout(), opts.Format, out); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if !out.Success() {
		return runFailed(out)
	}
	return nil
}

// cityArgs merges --cities values and positional arguments, so both
// "--cities A,B" and "--cities A B" work.
func cityArgs(flagged, args []string) []string {
	var cities []string
	for _, c := range append(append([]string{}, flagged...), args...) {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

func writeOutcome(w io.Writer, format string, out weather.Outcome) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "run %s: %s\n", out.RunID, out.Label())
	fmt.Fprintf(w, "  fetched:  %d/%d cities\n", out.Fetched, len(out.Cities))
	if len(out.FailedCities) > 0 {
		fmt.Fprintf(w, "  failed:   %s\n", strings.Join(out.FailedCities, ", "))
	}
	fmt.Fprintf(w, "  records:  %d (%d inserted)\n", len(out.Records), out.Inserted)
	if out.SnapshotPath != "" {
		fmt.Fprintf(w, "  snapshot: %s\n", out.SnapshotPath)
	}
	if out.HistoryError != "" {
		fmt.Fprintf(w, "  history error: %s\n", out.HistoryError)
	}
	if out.StoreError != "" {
		fmt.Fprintf(w, "  store error: %s\n", out.StoreError)
	}
	return nil
}
