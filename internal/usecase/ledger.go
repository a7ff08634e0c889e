package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// DefaultDisplayLimit is how many recent scans a dashboard shows
const DefaultDisplayLimit = 5

// LedgerConfig holds configuration for the history ledger
type LedgerConfig struct {
	Namespace    string
	DisplayLimit int
}

// HistoryLedger keeps every verdict a user received, newest first.
// The full history is retained; only reads are capped.
type HistoryLedger struct {
	store        domain.KeyValueStore
	namespace    string
	displayLimit int
	logger       *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewHistoryLedger creates a ledger on top of a key-value store
func NewHistoryLedger(store domain.KeyValueStore, config LedgerConfig, logger *zap.Logger) *HistoryLedger {
	if logger == nil {
		logger = zap.NewNop()
	}

	displayLimit := config.DisplayLimit
	if displayLimit <= 0 {
		displayLimit = DefaultDisplayLimit
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = "allergenapp"
	}

	return &HistoryLedger{
		store:        store,
		namespace:    namespace,
		displayLimit: displayLimit,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Append records a verdict at the head of the user's history
func (l *HistoryLedger) Append(ctx context.Context, userID string, verdict domain.Verdict) (domain.HistoryEntry, error) {
	if userID == "" {
		return domain.HistoryEntry{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	entry := domain.HistoryEntry{
		ID:        l.newID(),
		ScannedAt: l.now(),
		Verdict:   verdict,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("encode history entry: %w", err)
	}

	if err := l.store.Append(ctx, l.key(userID), data); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("append history entry: %w", err)
	}

	return entry, nil
}

// Recent returns up to n entries, newest first. n <= 0 uses the display limit.
func (l *HistoryLedger) Recent(ctx context.Context, userID string, n int) ([]domain.HistoryEntry, error) {
	if n <= 0 {
		n = l.displayLimit
	}
	return l.read(ctx, userID, n)
}

// All returns the full history, newest first
func (l *HistoryLedger) All(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	return l.read(ctx, userID, 0)
}

// DisplayLimit returns the configured dashboard cap
func (l *HistoryLedger) DisplayLimit() int {
	return l.displayLimit
}

func (l *HistoryLedger) read(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	items, err := l.store.Range(ctx, l.key(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry domain.HistoryEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			l.logger.Warn("skipping unreadable history entry",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *HistoryLedger) key(userID string) string {
	return fmt.Sprintf("%s:history:%s", l.namespace, userID)
}
