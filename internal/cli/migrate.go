package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the weather_summary table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts, true)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, rootOpts, cmd.ErrOrStderr())

			st, err := newSQLStore(cfg, logger)
			if err != nil {
				return err
			}
			if err := migrate(cmd.Context(), st, true, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.DB.Driver)
			return nil
		},
	}
}
