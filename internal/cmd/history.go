package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allergenapp/backend/internal/app"
	"github.com/allergenapp/backend/internal/domain"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		all   bool
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				var (
					entries []domain.HistoryEntry
					err     error
				)
				if all {
					entries, err = a.Ledger.All(cmd.Context(), opts.user)
				} else {
					entries, err = a.Ledger.Recent(cmd.Context(), opts.user, limit)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default: configured display limit)")
	historyCmd.Flags().BoolVar(&all, "all", false, "Show the full history")

	return historyCmd
}
