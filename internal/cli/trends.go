package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// TrendsOptions holds flags for the trends command.
type TrendsOptions struct {
	*RootOptions
	City string
}

// NewTrendsCommand creates the trends command.
func NewTrendsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrendsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show temperature statistics from stored records",
		Long: `Print overall and per-day min/max/mean temperature for every city
(or one city with --city) from the record store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.City, "city", "", "only this city")

	return cmd
}

func runTrends(cmd *cobra.Command, opts *TrendsOptions) error {
	cfg, err := loadConfig(opts.RootOptions, true)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.RootOptions, cmd.ErrOrStderr())

	st, err := newSQLStore(cfg, logger)
	if err != nil {
		return err
	}

	records, err := st.History(cmd.Context(), weather.HistoryQuery{City: opts.City})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read records", err)
	}
	if len(records) == 0 {
		return NewExitError(ExitFailure, "no records to summarize")
	}

	if err := writeTrends(cmd.OutOrStdout(), opts.Format, weather.ComputeTrends(records)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

func writeTrends(w io.Writer, format string, t weather.Trends) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tMIN\tMAX\tMEAN\tCOUNT")
	for _, s := range t.Overall {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\n", s.City, s.Min, s.Max, s.Mean, s.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CITY\tDATE\tMIN\tMAX\tMEAN\tCOUNT")
	for _, d := range t.Daily {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n", d.City, d.Date.Format("2006-01-02"), d.Min, d.Max, d.Mean, d.Count)
	}
	return tw.Flush()
}
