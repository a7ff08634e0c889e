package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// SourceChain asks each product source in turn; the first found record wins
type SourceChain struct {
	sources []domain.ProductSource
	logger  *zap.Logger
}

// NewSourceChain creates a chain over sources in priority order
func NewSourceChain(logger *zap.Logger, sources ...domain.ProductSource) *SourceChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceChain{sources: sources, logger: logger}
}

// Name lists the chained sources
func (c *SourceChain) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// LookupBarcode resolves a barcode through the chain
func (c *SourceChain) LookupBarcode(ctx context.Context, barcode string) (domain.RawProductRecord, error) {
	return c.resolve(ctx, "barcode", barcode, func(s domain.ProductSource) (domain.RawProductRecord, error) {
		return s.LookupBarcode(ctx, barcode)
	})
}

// SearchByName resolves a free-text name through the chain
func (c *SourceChain) SearchByName(ctx context.Context, query string) (domain.RawProductRecord, error) {
	return c.resolve(ctx, "search", query, func(s domain.ProductSource) (domain.RawProductRecord, error) {
		return s.SearchByName(ctx, query)
	})
}

// resolve returns the first found record. When no source found the product
// and at least one failed, the first failure is returned instead of not-found.
func (c *SourceChain) resolve(
	ctx context.Context,
	op, input string,
	call func(domain.ProductSource) (domain.RawProductRecord, error),
) (domain.RawProductRecord, error) {
	var firstErr error
	for _, source := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAcquisitionFailed, err)
		}

		start := time.Now()
		record, err := call(source)
		if err != nil {
			c.logger.Warn("product source failed",
				zap.String("source", source.Name()),
				zap.String("op", op),
				zap.String("input", input),
				zap.Duration("took", time.Since(start)),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if _, found := Normalize(record); found {
			c.logger.Debug("product source hit",
				zap.String("source", source.Name()),
				zap.String("op", op),
				zap.String("input", input),
				zap.Duration("took", time.Since(start)))
			return record, nil
		}
	}

	if firstErr != nil {
		if !errors.Is(firstErr, domain.ErrAcquisitionFailed) {
			firstErr = fmt.Errorf("%w: %v", domain.ErrAcquisitionFailed, firstErr)
		}
		return nil, firstErr
	}
	return domain.NotFoundRecord(), nil
}
