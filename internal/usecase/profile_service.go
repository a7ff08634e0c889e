package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// ProfileService stores the allergen selection of each user
type ProfileService struct {
	store     domain.KeyValueStore
	namespace string
	logger    *zap.Logger
	now       func() time.Time
}

// NewProfileService creates a profile service on top of a key-value store
func NewProfileService(store domain.KeyValueStore, namespace string, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = "allergenapp"
	}
	return &ProfileService{
		store:     store,
		namespace: namespace,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get loads a profile, returning domain.ErrUserNotFound when it does not exist
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	data, err := s.store.Get(ctx, s.key(userID))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// Allergens returns the user's allergen selection
func (s *ProfileService) Allergens(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Allergens, nil
}

// UpdateAllergens replaces the allergen selection, creating the profile if needed.
// Entries are trimmed, blanks dropped and duplicates removed case-insensitively.
func (s *ProfileService) UpdateAllergens(ctx context.Context, userID string, allergens []string) (*domain.UserProfile, error) {
	profile, err := s.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		profile = &domain.UserProfile{ID: userID}
	case err != nil:
		return nil, err
	}

	profile.Allergens = uniqueTerms(allergens)
	profile.UpdatedAt = s.now()

	if err := s.Save(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("allergen profile updated",
		zap.String("user_id", userID),
		zap.Strings("allergens", profile.Allergens))
	return profile, nil
}

// Save writes a profile as-is
func (s *ProfileService) Save(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("%w: profile id is required", domain.ErrInvalidRequest)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Set(ctx, s.key(profile.ID), data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *ProfileService) key(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.namespace, userID)
}

func uniqueTerms(values []string) []string {
	terms := []string{}
	seen := make(map[string]bool, len(values))
	for _, t := range cleanTerms(values) {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
	}
	return terms
}
