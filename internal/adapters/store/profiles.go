package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"kaleidoscope/internal/domain"
)

// ProfileStore implements ports.ProfileStore on GORM. Lookups return the
// profile with its tags attached.
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Create(ctx context.Context, profile *domain.Profile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) Update(ctx context.Context, profile *domain.Profile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) ByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.first(ctx, "user_id = ?", userID)
}

func (s *ProfileStore) ByHandle(ctx context.Context, handle string) (*domain.Profile, error) {
	return s.first(ctx, "handle = ?", handle)
}

func (s *ProfileStore) ByDisplayName(ctx context.Context, displayName string) (*domain.Profile, error) {
	return s.first(ctx, "display_name = ?", displayName)
}

func (s *ProfileStore) TagsFor(ctx context.Context, profileID string) ([]domain.Tag, error) {
	var tags []domain.Tag
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile tags: %w", err)
	}
	return tags, nil
}

func (s *ProfileStore) first(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var profile domain.Profile
	err := s.db.WithContext(ctx).Where(query, arg).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	tags, err := s.TagsFor(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	profile.Tags = tags
	return &profile, nil
}
