// Package cli implements bakeryctl, the operator tool for the bakery API:
// schema migrations, demo data and smoke runs against a live server.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/bakery/internal/config"
	"github.com/okian/bakery/pkg/logger"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	databaseURL string
	logLevel    string
}

// NewRootCmd builds the bakeryctl command tree writing its report to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "bakeryctl",
		Short:         "Operator tool for the bakery API",
		Long:          "bakeryctl manages the bakery schema, seeds demo data and smoke tests a running server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.databaseURL, "database-url", "", "database url; overrides BAKERY_DATABASE_URL")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newSmokeCmd(),
	)
	return rootCmd
}

// Execute runs bakeryctl with the process arguments.
func Execute(ctx context.Context, out io.Writer) error {
	return NewRootCmd(out).ExecuteContext(ctx)
}

// loadConfig reads the service configuration and applies flag overrides.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	return cfg, nil
}
