// Package app wires configuration into the services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/config"
	"github.com/allergenapp/backend/internal/domain"
	"github.com/allergenapp/backend/internal/infrastructure/alert"
	"github.com/allergenapp/backend/internal/infrastructure/catalog"
	"github.com/allergenapp/backend/internal/infrastructure/metrics"
	"github.com/allergenapp/backend/internal/infrastructure/openfoodfacts"
	"github.com/allergenapp/backend/internal/infrastructure/store"
	"github.com/allergenapp/backend/internal/infrastructure/vision"
	"github.com/allergenapp/backend/internal/usecase"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "allergenapp"

// App holds the wired services
type App struct {
	Config    *config.Config
	Store     domain.KeyValueStore
	Source    domain.ProductSource
	Metrics   *metrics.Collector
	Profiles  *usecase.ProfileService
	Ledger    *usecase.HistoryLedger
	Suggester *usecase.AlternativeSuggester
	Scans     *usecase.ScanService
	Logger    *zap.Logger
}

// Build opens the store and creates all services from the configuration
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := store.New(ctx, store.Config{
		Type:       cfg.Store.Type,
		SQLitePath: cfg.Store.SQLitePath,
		RedisURL:   cfg.Store.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}
	logger.Info("store opened", zap.String("type", cfg.Store.Type))

	source, err := buildSources(cfg, logger)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	var analyzer domain.LabelAnalyzer
	if cfg.Vision.Enabled {
		analyzer = vision.NewAnalyzer(vision.AnalyzerConfig{
			APIKey:     cfg.Vision.APIKey,
			BaseURL:    cfg.Vision.BaseURL,
			Model:      cfg.Vision.Model,
			MaxTokens:  cfg.Vision.MaxTokens,
			Timeout:    cfg.Vision.Timeout,
			MaxRetries: cfg.Vision.MaxRetries,
		}, logger.Named("vision"))
		logger.Info("label scanning enabled", zap.String("model", cfg.Vision.Model))
	} else {
		logger.Info("label scanning disabled")
	}

	collector := metrics.NewCollector(MetricsNamespace)
	profiles := usecase.NewProfileService(kv, cfg.Store.Namespace, logger.Named("profiles"))
	ledger := usecase.NewHistoryLedger(kv, usecase.LedgerConfig{
		Namespace:    cfg.Store.Namespace,
		DisplayLimit: cfg.History.DisplayLimit,
	}, logger.Named("history"))
	suggester := usecase.NewAlternativeSuggester(domain.SafeSwaps)

	scans := usecase.NewScanService(usecase.ScanServiceDeps{
		Source:    source,
		Analyzer:  analyzer,
		Profiles:  profiles,
		Ledger:    ledger,
		Matcher:   usecase.NewAllergenMatcher(logger.Named("matcher")),
		Suggester: suggester,
		Alerter:   alert.NewLogAlerter(logger.Named("alert"), collector.DangerAlerts),
		Observer:  collector,
		Logger:    logger.Named("scan"),
	})

	return &App{
		Config:    cfg,
		Store:     kv,
		Source:    source,
		Metrics:   collector,
		Profiles:  profiles,
		Ledger:    ledger,
		Suggester: suggester,
		Scans:     scans,
		Logger:    logger,
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}

// buildSources creates the product sources in configured order
func buildSources(cfg *config.Config, logger *zap.Logger) (domain.ProductSource, error) {
	sources := make([]domain.ProductSource, 0, len(cfg.Acquisition.Sources))
	for _, name := range cfg.Acquisition.Sources {
		switch name {
		case config.SourceCatalog:
			products, err := catalog.Load(cfg.Acquisition.CatalogPath)
			if err != nil {
				return nil, fmt.Errorf("load catalog: %w", err)
			}
			logger.Info("catalog loaded", zap.Int("products", products.Len()))
			sources = append(sources, products)

		case config.SourceOpenFoodFacts:
			off := cfg.OpenFoodFacts
			sources = append(sources, openfoodfacts.NewClient(openfoodfacts.ClientConfig{
				BaseURL:           off.BaseURL,
				UserAgent:         off.UserAgent,
				Timeout:           off.Timeout,
				RequestsPerSecond: off.RequestsPerSecond,
				Burst:             off.Burst,
				MaxRetries:        off.MaxRetries,
				BreakerFailures:   off.BreakerFailures,
				BreakerTimeout:    off.BreakerTimeout,
			}, logger.Named("openfoodfacts")))
			logger.Info("Open Food Facts configured", zap.String("base_url", off.BaseURL))

		default:
			return nil, fmt.Errorf("unknown acquisition source: %s", name)
		}
	}
	return usecase.NewSourceChain(logger.Named("sources"), sources...), nil
}
