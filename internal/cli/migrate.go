package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/bakery/internal/adapters/repository/migrate"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		newMigrateUpCmd(opts),
		newMigrateDownCmd(opts),
		newMigrateStatusCmd(opts),
	)
	return migrateCmd
}

func newMigrateUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}
			store, err := connectStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			applied, err := newRunner(store, cfg).Migrate(ctx)
			for _, m := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s_%s\n", m.Version(), m.Name())
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
			}
			return nil
		},
	}
}

func newMigrateDownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down [n]",
		Short: "Roll back migrations",
		Long:  "Rolls back the last N applied migrations (default: 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) > 0 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("invalid number %q: must be a positive integer", args[0])
				}
				n = v
			}

			ctx := cmd.Context()
			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}
			store, err := connectStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reverted, err := newRunner(store, cfg).Rollback(ctx, n)
			if errors.Is(err, migrate.ErrNothingToRevert) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations to roll back")
				return nil
			}
			for _, m := range reverted {
				fmt.Fprintf(cmd.OutOrStdout(), "reverted %s_%s\n", m.Version(), m.Name())
			}
			return err
		},
	}
}

func newMigrateStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}
			store, err := connectStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, err := newRunner(store, cfg).Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Repeat("=", 60))
			fmt.Fprintln(out, "Migration Status")
			fmt.Fprintln(out, strings.Repeat("=", 60))
			for _, rec := range status.Applied {
				fmt.Fprintf(out, "[applied] %s_%s  %s\n", rec.Version, rec.Name, rec.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			for _, m := range status.Pending {
				fmt.Fprintf(out, "[pending] %s_%s\n", m.Version(), m.Name())
			}
			fmt.Fprintf(out, "\n%d applied, %d pending\n", len(status.Applied), len(status.Pending))
			return nil
		},
	}
}
