package cmd

import (
	"github.com/spf13/cobra"

	"github.com/allergenapp/backend/internal/app"
	"github.com/allergenapp/backend/internal/delivery/mcpgo"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve scan tools over MCP on stdio",
		Long: `Runs a Model Context Protocol server on stdin/stdout for local
assistant integration. Tools act on behalf of the --user profile:

- scan_barcode: look a product up by barcode
- search_product: look a product up by name
- scan_history: list recent verdicts

Logs go to stderr so they do not interfere with the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				srv := mcpgo.NewServer(a.Scans, a.Ledger, opts.user, a.Logger.Named("mcp"))
				return srv.ServeStdio()
			})
		},
	}
}
