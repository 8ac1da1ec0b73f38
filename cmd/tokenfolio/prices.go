package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func pricesCmd(a *app) *cobra.Command {
	var (
		schema   string
		from, to string
		tokens   []string
		resume   bool
	)

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Download daily price history from Alchemy into <schema>.prices",
		Long: `Downloads daily prices for every stored token (or --token) in windows of
max_days_per_request days. With --resume the start is the latest stored
timestamp of the schema, or lookback_days ago when the schema is empty.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if schema == "" {
				schema = a.cfg.Backtest.Schema
			}

			start, err := parseDate("from", from)
			if err != nil {
				return err
			}
			end, err := parseDate("to", to)
			if err != nil {
				return err
			}

			addrs := make([]string, 0, len(tokens))
			for _, t := range tokens {
				addr, err := domain.NormalizeAddress(t)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			c, closeRPC := a.collector(ctx, store)
			defer closeRPC()

			if resume {
				if start, err = c.ResolveStart(ctx, schema); err != nil {
					return err
				}
			}

			began := time.Now()
			report, err := c.SyncPrices(ctx, schema, addrs, start, end)
			if err != nil {
				return err
			}
			slog.Info("prices synced",
				"schema", schema,
				"tokens", report.Tokens,
				"failed", report.Failed,
				"rows", report.Rows,
				"elapsed", time.Since(began).Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "price schema: backtest|live (default from config)")
	cmd.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD (default 2015-07-30)")
	cmd.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&tokens, "token", nil, "token address to sync (repeatable; default all stored tokens)")
	cmd.Flags().BoolVar(&resume, "resume", false, "start from the latest stored timestamp")
	return cmd
}
