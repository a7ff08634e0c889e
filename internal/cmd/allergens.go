package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allergenapp/backend/internal/app"
	"github.com/allergenapp/backend/internal/domain"
)

func newAllergensCmd(opts *rootOptions) *cobra.Command {
	allergensCmd := &cobra.Command{
		Use:   "allergens",
		Short: "Show or change the allergens in a profile",
	}

	allergensCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the profile's allergens",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(a *app.App) error {
					profile, err := a.Profiles.Get(cmd.Context(), opts.user)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), profile)
				})
			},
		},
		&cobra.Command{
			Use:   "set <allergen>...",
			Short: "Replace the profile's allergens, creating the profile if needed",
			Args:  cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(a *app.App) error {
					profile, err := a.Profiles.UpdateAllergens(cmd.Context(), opts.user, args)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), profile)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the common allergens",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, allergen := range domain.CommonAllergens {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), allergen); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)

	return allergensCmd
}
