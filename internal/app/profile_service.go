package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

// Free-text profile fields are stripped of markup and script vectors before
// storage, so everything downstream can treat them as plain text.
var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	jsSchemePattern  = regexp.MustCompile(`(?i)javascript:`)
	eventAttrPattern = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

func sanitize(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = jsSchemePattern.ReplaceAllString(s, "")
	s = eventAttrPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ProfileService implements profile reads, updates, and avatar management.
type ProfileService struct {
	profiles ports.ProfileStore
	avatars  ports.AvatarUploader
	log      *zap.Logger
}

// NewProfileService creates the profile service.
func NewProfileService(profiles ports.ProfileStore, avatars ports.AvatarUploader, log *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, avatars: avatars, log: log}
}

// PublicProfile resolves a profile by user id, handle, or display name, in
// that order, and returns its public shape.
func (s *ProfileService) PublicProfile(ctx context.Context, identifier string) (*domain.PublicProfile, error) {
	profile, err := s.profiles.ByUserID(ctx, identifier)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile, err = s.profiles.ByHandle(ctx, strings.ToLower(identifier))
	}
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile, err = s.profiles.ByDisplayName(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	tags := profile.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return &domain.PublicProfile{
		Handle:      profile.Handle,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		AvatarURL:   profile.AvatarURL,
		Tags:        tags,
	}, nil
}

// MyProfile returns the caller's full profile.
func (s *ProfileService) MyProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.ByUserID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of the update. Handles are
// validated and must stay unique; free-text fields are sanitized.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	profile, err := s.profiles.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Handle != nil {
		handle := strings.ToLower(strings.TrimSpace(*update.Handle))
		if !handlePattern.MatchString(handle) {
			return nil, domain.ErrInvalidHandle
		}
		if handle != profile.Handle {
			if existing, err := s.profiles.ByHandle(ctx, handle); err == nil && existing.UserID != userID {
				return nil, domain.ErrHandleTaken
			} else if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
				return nil, err
			}
			profile.Handle = handle
		}
	}
	if update.DisplayName != nil {
		profile.DisplayName = sanitize(*update.DisplayName)
	}
	if update.Bio != nil {
		profile.Bio = sanitize(*update.Bio)
	}
	if update.AvatarURL != nil {
		profile.AvatarURL = sanitize(*update.AvatarURL)
	}

	profile.UpdatedAt = time.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAvatar uploads a new avatar to the image host and swaps it in, deleting
// the previous one best effort. The input accepts bare base64 and data-URL
// form.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, imageBase64 string) (*domain.Profile, error) {
	profile, err := s.profiles.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw := imageBase64
	if strings.HasPrefix(raw, "data:") {
		if comma := strings.Index(raw, ","); comma >= 0 {
			raw = raw[comma+1:]
		}
	}
	image, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar image encoding: %w", err)
	}

	displayURL, deleteURL, err := s.avatars.Upload(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("avatar upload failed: %w", err)
	}

	if profile.AvatarDeleteURL != "" {
		if err := s.avatars.Delete(ctx, profile.AvatarDeleteURL); err != nil {
			s.log.Warn("failed to delete previous avatar", zap.String("userId", userID), zap.Error(err))
		}
	}

	profile.AvatarURL = displayURL
	profile.AvatarDeleteURL = deleteURL
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RemoveAvatar clears the avatar, deleting the hosted image best effort.
func (s *ProfileService) RemoveAvatar(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if profile.AvatarDeleteURL != "" {
		if err := s.avatars.Delete(ctx, profile.AvatarDeleteURL); err != nil {
			s.log.Warn("failed to delete hosted avatar", zap.String("userId", userID), zap.Error(err))
		}
	}

	profile.AvatarURL = ""
	profile.AvatarDeleteURL = ""
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
