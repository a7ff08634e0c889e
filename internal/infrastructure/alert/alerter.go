// Package alert raises danger alerts for scans that hit a user's allergens.
package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// Counter is the part of a metrics counter the alerter needs
type Counter interface {
	Inc()
}

// LogAlerter writes a warning per danger verdict and counts it.
// It stands in for the device vibration of the mobile client.
type LogAlerter struct {
	logger  *zap.Logger
	counter Counter
}

// NewLogAlerter creates an alerter; counter may be nil
func NewLogAlerter(logger *zap.Logger, counter Counter) *LogAlerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAlerter{logger: logger, counter: counter}
}

// Alert implements domain.Alerter
func (a *LogAlerter) Alert(ctx context.Context, userID string, verdict domain.Verdict) {
	product := ""
	if verdict.Product != nil {
		product = verdict.Product.Name
	}

	a.logger.Warn("DANGER: allergen detected",
		zap.String("user_id", userID),
		zap.String("product", product),
		zap.Strings("allergens", verdict.DetectedAllergens),
		zap.String("mode", string(verdict.Mode)))

	if a.counter != nil {
		a.counter.Inc()
	}
}
