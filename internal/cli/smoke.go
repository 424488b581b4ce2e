package cli

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/okian/bakery/internal/smoke"
)

const urlFlag = "url"

func newSmokeCmd() *cobra.Command {
	cfg := &smoke.Config{}
	smokeFlags := map[string]cobraflags.Flag{
		urlFlag: &cobraflags.StringFlag{
			Name:  urlFlag,
			Value: "http://localhost:5555",
			Usage: "base URL of the service",
		},
	}

	smokeCmd := &cobra.Command{
		Use:   "smoke",
		Short: "Exercise a running bakery API",
		Long: `Creates baked goods concurrently against a running server, checks the
reported counts, deletes everything it created and checks again.`,
		Example: `  bakeryctl smoke
  bakeryctl smoke --goods 5000 --workers 16 --url http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.BaseURL = smokeFlags[urlFlag].GetString()
			if cfg.NumGoods < 0 {
				return errors.New("--goods must not be negative")
			}
			stats, err := smoke.Run(cmd.Context(), cfg)
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "created %d (%d failed), deleted %d (%d failed) in %s\n",
					stats.GoodsCreated, stats.CreateFailed, stats.GoodsDeleted, stats.DeleteFailed,
					stats.Duration.Round(time.Millisecond))
			}
			return err
		},
	}

	cobraflags.RegisterMap(smokeCmd, smokeFlags)
	flags := smokeCmd.Flags()
	flags.IntVar(&cfg.NumGoods, "goods", 1000, "number of baked goods to create")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "log every failed request")
	return smokeCmd
}
