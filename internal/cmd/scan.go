package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allergenapp/backend/internal/app"
	"github.com/allergenapp/backend/internal/domain"
	"github.com/allergenapp/backend/internal/infrastructure/vision"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a product by barcode, name or label photo",
	}

	scanCmd.AddCommand(
		&cobra.Command{
			Use:   "barcode <code>",
			Short: "Look a product up by barcode",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(a *app.App) error {
					verdict, err := a.Scans.ScanBarcode(cmd.Context(), opts.user, args[0])
					return printVerdict(cmd, verdict, err)
				})
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Look a product up by name",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				query := strings.Join(args, " ")
				return opts.withApp(cmd, func(a *app.App) error {
					verdict, err := a.Scans.SearchProduct(cmd.Context(), opts.user, query)
					return printVerdict(cmd, verdict, err)
				})
			},
		},
		&cobra.Command{
			Use:   "label <image-file>",
			Short: "Read a photographed ingredient label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				image, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				return opts.withApp(cmd, func(a *app.App) error {
					mediaType := vision.DetectMediaType(image, "")
					verdict, err := a.Scans.ScanLabel(cmd.Context(), opts.user, image, mediaType)
					return printVerdict(cmd, verdict, err)
				})
			},
		},
	)

	return scanCmd
}

func printVerdict(cmd *cobra.Command, verdict *domain.Verdict, err error) error {
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), verdict)
}
