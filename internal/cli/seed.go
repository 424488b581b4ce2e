package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/pkg/logger"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var seed service.SeedOptions
	var migrateFirst bool

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo bakeries and baked goods",
		Long:  "Inserts N bakeries each owning M baked goods in a single transaction",
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

			if migrateFirst {
				if _, err := newRunner(store, cfg).Migrate(ctx); err != nil {
					return err
				}
			}

			svc := service.New(store, service.WithLogger(logger.Named("seed")))
			counts, err := svc.Seed(ctx, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded: %d bakeries, %d baked goods in store\n", counts.Bakeries, counts.BakedGoods)
			return nil
		},
	}

	flags := seedCmd.Flags()
	flags.IntVar(&seed.Bakeries, "bakeries", 3, "number of bakeries to create")
	flags.IntVar(&seed.GoodsPerBakery, "goods", 4, "baked goods per bakery")
	flags.BoolVar(&seed.Reset, "reset", false, "delete existing rows first")
	flags.BoolVar(&migrateFirst, "migrate", true, "apply pending migrations before seeding")
	return seedCmd
}
