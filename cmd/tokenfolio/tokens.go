package main

import (
	"fmt"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

func tokensCmd(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Sync the token list from 1inch into contracts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if list {
				tokens, err := store.GetTokens(ctx)
				if err != nil {
					return err
				}
				printTokens(cmd, tokens)
				return nil
			}

			c, closeRPC := a.collector(ctx, store)
			defer closeRPC()

			report, err := c.SyncTokens(ctx)
			if err != nil {
				return err
			}
			slog.Info("tokens synced",
				"before", report.Before,
				"fetched", report.Fetched,
				"enriched", report.Enriched,
				"after", report.After,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print stored tokens instead of syncing")
	return cmd
}

func printTokens(cmd *cobra.Command, tokens []domain.Token) {
	out := cmd.OutOrStdout()
	if len(tokens) == 0 {
		fmt.Fprintln(out, "no tokens stored, run `tokenfolio tokens` first")
		return
	}

	table := tablewriter.NewWriter(out)
	table.Header("Address", "Symbol", "Name", "Decimals", "Chain")
	for _, t := range tokens {
		table.Append(t.Address, t.Symbol, t.Name, fmt.Sprintf("%d", t.Decimals), fmt.Sprintf("%d", t.ChainID))
	}
	table.Render()
}
