package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/config"
	"github.com/allergenapp/backend/internal/app"
	"github.com/allergenapp/backend/internal/infrastructure/logging"
)

// DefaultUser is the profile used when --user is not given
const DefaultUser = "default"

// AppFactory builds the wired services for a command run
type AppFactory func(ctx context.Context) (*app.App, error)

// LoadApp builds the application from config files and the environment
func LoadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.Environment)
	if err != nil {
		return nil, err
	}

	return app.Build(ctx, cfg, logger)
}

type rootOptions struct {
	user    string
	factory AppFactory
}

// withApp builds the application, runs fn and closes the store afterwards
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := o.factory(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
		_ = a.Logger.Sync()
	}()
	return fn(a)
}

// NewRootCmd creates the allergenctl command tree
func NewRootCmd(factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = LoadApp
	}
	opts := &rootOptions{factory: factory}

	rootCmd := &cobra.Command{
		Use:   "allergenctl",
		Short: "Check food products against your allergens",
		Long: `allergenctl scans products for the allergens in your profile.

Products are looked up by barcode or name in the built-in catalog and
Open Food Facts, or read from a photographed ingredient label. Every
verdict is kept in your scan history.

Configuration is read from config.yaml and ALLERGENAPP_* environment
variables, the same way as the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.user, "user", "u", DefaultUser, "Profile to scan for")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newHistoryCmd(opts),
		newAllergensCmd(opts),
		newMCPCmd(opts),
	)

	return rootCmd
}

// Run is the main entry point for the CLI application
func Run() error {
	return NewRootCmd(nil).ExecuteContext(context.Background())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
