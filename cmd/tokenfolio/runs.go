package main

import (
	"github.com/spf13/cobra"
)

func runsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved backtest runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return a.notifier().NotifyRuns(ctx, runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max runs to list (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved run with its latest snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			return a.notifier().NotifyRun(ctx, run)
		},
	})

	var exportPath string
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved run's history to a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if exportPath == "" {
				exportPath = run.ID + ".parquet"
			}
			return newExporter().ExportHistory(ctx, exportPath, run)
		},
	}
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output path (default <id>.parquet)")
	cmd.AddCommand(exportCmd)

	return cmd
}
