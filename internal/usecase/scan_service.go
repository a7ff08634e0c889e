package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// ScanServiceDeps holds the collaborators of the scan service.
// Analyzer, Alerter and Observer are optional.
type ScanServiceDeps struct {
	Source    domain.ProductSource
	Analyzer  domain.LabelAnalyzer
	Profiles  *ProfileService
	Ledger    *HistoryLedger
	Matcher   *AllergenMatcher
	Suggester *AlternativeSuggester
	Alerter   domain.Alerter
	Observer  domain.ScanObserver
	Logger    *zap.Logger
}

// ScanService runs the scan pipeline:
// acquire -> normalize -> match -> classify -> suggest -> record -> alert
type ScanService struct {
	source    domain.ProductSource
	analyzer  domain.LabelAnalyzer
	profiles  *ProfileService
	ledger    *HistoryLedger
	matcher   *AllergenMatcher
	suggester *AlternativeSuggester
	alerter   domain.Alerter
	observer  domain.ScanObserver
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewScanService creates a new scan service with dependencies
func NewScanService(deps ScanServiceDeps) *ScanService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	matcher := deps.Matcher
	if matcher == nil {
		matcher = NewAllergenMatcher(logger)
	}

	suggester := deps.Suggester
	if suggester == nil {
		suggester = NewAlternativeSuggester(nil)
	}

	return &ScanService{
		source:    deps.Source,
		analyzer:  deps.Analyzer,
		profiles:  deps.Profiles,
		ledger:    deps.Ledger,
		matcher:   matcher,
		suggester: suggester,
		alerter:   deps.Alerter,
		observer:  deps.Observer,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// ScanBarcode looks a product up by barcode and checks it against the user's allergens
func (s *ScanService) ScanBarcode(ctx context.Context, userID, barcode string) (*domain.Verdict, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidRequest)
	}

	return s.scanProduct(ctx, userID, domain.ScanModeBarcode, func() (domain.RawProductRecord, error) {
		return s.source.LookupBarcode(ctx, barcode)
	})
}

// SearchProduct looks a product up by name and checks it against the user's allergens
func (s *ScanService) SearchProduct(ctx context.Context, userID, query string) (*domain.Verdict, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidRequest)
	}

	return s.scanProduct(ctx, userID, domain.ScanModeSearch, func() (domain.RawProductRecord, error) {
		return s.source.SearchByName(ctx, query)
	})
}

// ScanLabel sends a label image for analysis and classifies the answer
func (s *ScanService) ScanLabel(ctx context.Context, userID string, image []byte, mediaType string) (*domain.Verdict, error) {
	if s.analyzer == nil {
		return nil, domain.ErrVisionDisabled
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidRequest)
	}

	release, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	defer release()

	allergens, err := s.profiles.Allergens(ctx, userID)
	if err != nil {
		return nil, err
	}

	text, err := s.analyzer.AnalyzeLabel(ctx, image, mediaType, allergens)
	if errors.Is(err, domain.ErrInvalidRequest) {
		return nil, err
	}
	if err != nil {
		s.observeFailure(domain.ScanModeLabel)
		s.logger.Error("label analysis failed", zap.String("user_id", userID), zap.Error(err))
		return nil, wrapAcquisition(err)
	}

	var verdict domain.Verdict
	record, err := ParseVisionResponse(text)
	if err != nil {
		s.logger.Warn("unparseable label analysis", zap.String("user_id", userID), zap.Error(err))
		verdict = AnalysisFailedVerdict()
	} else {
		verdict = ClassifyVision(record)
	}

	return s.record(ctx, userID, domain.ScanModeLabel, verdict), nil
}

func (s *ScanService) scanProduct(
	ctx context.Context,
	userID string,
	mode domain.ScanMode,
	acquire func() (domain.RawProductRecord, error),
) (*domain.Verdict, error) {
	release, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	defer release()

	allergens, err := s.profiles.Allergens(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := acquire()
	if err != nil {
		s.observeFailure(mode)
		s.logger.Error("product acquisition failed",
			zap.String("user_id", userID),
			zap.String("mode", string(mode)),
			zap.Error(err))
		return nil, wrapAcquisition(err)
	}

	product, found := Normalize(raw)
	match := s.matcher.Match(product, allergens)
	verdict := Classify(product, found, match)
	if verdict.IsDanger() {
		verdict.Alternatives = s.suggester.Suggest(verdict.DetectedAllergens)
	}

	return s.record(ctx, userID, mode, verdict), nil
}

// record stores the finished verdict and fires the danger alert.
// A history write failure is logged; the verdict is still returned.
func (s *ScanService) record(ctx context.Context, userID string, mode domain.ScanMode, verdict domain.Verdict) *domain.Verdict {
	verdict.Mode = mode

	if s.ledger != nil {
		if _, err := s.ledger.Append(ctx, userID, verdict); err != nil {
			s.logger.Error("failed to record scan history",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	if verdict.IsDanger() && s.alerter != nil {
		s.alerter.Alert(ctx, userID, verdict)
	}

	if s.observer != nil {
		s.observer.ObserveScan(mode, verdict.Status)
	}

	s.logger.Info("scan complete",
		zap.String("user_id", userID),
		zap.String("mode", string(mode)),
		zap.String("status", string(verdict.Status)),
		zap.Strings("detected", verdict.DetectedAllergens))

	return &verdict
}

// begin marks a scan in flight for the user; concurrent scans are rejected
func (s *ScanService) begin(userID string) (func(), error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[userID]; busy {
		return nil, domain.ErrScanInProgress
	}
	s.inFlight[userID] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inFlight, userID)
		s.mu.Unlock()
	}, nil
}

func (s *ScanService) observeFailure(mode domain.ScanMode) {
	if s.observer != nil {
		s.observer.ObserveAcquisitionFailure(mode)
	}
}

func wrapAcquisition(err error) error {
	if errors.Is(err, domain.ErrAcquisitionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrAcquisitionFailed, err)
}
