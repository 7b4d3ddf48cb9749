package ports

import (
	"context"

	"kaleidoscope/internal/domain"
)

// Catalog defines the contract every upstream catalog adapter implements.
// This is the primary driven port of the hexagonal architecture.
//
// Search and TrackDetails return errors for upstream failures; the
// application layer decides whether to degrade them (empty results for
// search, not-found for details) so that logging stays a side observation at
// the call site rather than the failure signal itself.
type Catalog interface {
	// Search returns normalized tracks for a free-text query. Partial
	// upstream records (missing id) are discarded, never surfaced.
	Search(ctx context.Context, query string, limit int) ([]domain.Track, error)

	// TrackDetails returns the normalized track for an id, or
	// domain.ErrTrackNotFound when the upstream has no such record.
	TrackDetails(ctx context.Context, id string) (*domain.Track, error)

	// Name returns the catalog identifier (e.g. "spotify", "soundcloud").
	Name() string
}

// StreamSource is implemented by catalogs that host playable audio directly.
// The licensed catalog deliberately does not implement it; its streams are
// obtained through the cross-catalog resolver instead.
type StreamSource interface {
	Catalog

	// ResolveStream turns a track id into a playable URL, or an error when
	// the catalog cannot serve one for this track. Callers that already hold
	// the track's details pass them as prefetched so the catalog can skip a
	// metadata refetch; nil forces a fresh lookup.
	ResolveStream(ctx context.Context, id string, prefetched *domain.Track) (*domain.StreamResult, error)
}

// QueryStreamSource is implemented by catalogs that can go from a free-text
// query straight to a stream (search for the best candidate, then resolve
// it). The returned id identifies the candidate that was resolved, when
// known, so callers can verify the match.
type QueryStreamSource interface {
	StreamSource

	ResolveStreamByQuery(ctx context.Context, query string) (*domain.StreamResult, string, error)
}

// CatalogService is the driving port for the aggregation use cases: dispatch
// by catalog name, search, details, and stream resolution (direct or via the
// cross-catalog fallback chain).
type CatalogService interface {
	Search(ctx context.Context, catalog, query string, limit int) ([]domain.Track, error)
	TrackDetails(ctx context.Context, catalog, id string) (*domain.Track, error)
	ResolveStream(ctx context.Context, catalog, id string) (*domain.StreamResult, error)
}

// AuthService is the driving port for account and session management.
type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest, userAgent string) (*domain.TokenPair, error)
	Login(ctx context.Context, req domain.LoginRequest, userAgent string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken, userAgent string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// ProfileService is the driving port for profile reads and updates.
type ProfileService interface {
	PublicProfile(ctx context.Context, identifier string) (*domain.PublicProfile, error)
	MyProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error)
	SetAvatar(ctx context.Context, userID, imageBase64 string) (*domain.Profile, error)
	RemoveAvatar(ctx context.Context, userID string) (*domain.Profile, error)
}

// UserStore persists account records.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
}

// ProfileStore persists profiles and their tags.
type ProfileStore interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	ByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	ByHandle(ctx context.Context, handle string) (*domain.Profile, error)
	ByDisplayName(ctx context.Context, displayName string) (*domain.Profile, error)
	TagsFor(ctx context.Context, profileID string) ([]domain.Tag, error)
}

// SessionStore persists refresh-token sessions with expiry.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	FindByRefreshToken(ctx context.Context, userID, refreshToken string) (*domain.Session, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

// AvatarUploader pushes avatar images to the third-party image host and
// deletes them again, best effort.
type AvatarUploader interface {
	Upload(ctx context.Context, image []byte) (displayURL, deleteURL string, err error)
	Delete(ctx context.Context, deleteURL string) error
}
