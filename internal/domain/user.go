package domain

import "time"

// User is an account record. The password hash never serializes.
type User struct {
	ID           string    `json:"userId" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session backs a refresh token. Sessions live in Redis with a TTL matching
// the refresh token lifetime.
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	RefreshToken string    `json:"refreshToken"`
	UserAgent    string    `json:"userAgent,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Profile is the per-user public-facing record gating access to the
// aggregation endpoints.
type Profile struct {
	UserID          string    `json:"userId" gorm:"primaryKey;size:36"`
	Handle          string    `json:"handle" gorm:"uniqueIndex;size:64"`
	DisplayName     string    `json:"displayName" gorm:"size:128"`
	Bio             string    `json:"bio,omitempty" gorm:"size:1024"`
	AvatarURL       string    `json:"avatarUrl,omitempty" gorm:"size:512"`
	AvatarDeleteURL string    `json:"-" gorm:"size:512"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Tags            []Tag     `json:"tags" gorm:"-"`
}

// Tag is a small badge attached to a profile.
type Tag struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	ProfileID string `json:"profileId" gorm:"index;size:36"`
	Text      string `json:"text" gorm:"size:64"`
	IconName  string `json:"iconName,omitempty" gorm:"size:64"`
	Color     string `json:"color,omitempty" gorm:"size:16"`
}

// PublicProfile is the reduced shape served on the unauthenticated profile
// endpoint.
type PublicProfile struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Tags        []Tag  `json:"tags"`
}

// TokenPair is the response shape for all token-issuing auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Handle   string `json:"handle" binding:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /auth/refresh and /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ProfileUpdate carries the mutable profile fields; nil means "leave as is".
type ProfileUpdate struct {
	Handle      *string `json:"handle"`
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatarUrl"`
}

// AvatarUpload is the body of POST /profile/me/avatar. ImageBase64 accepts
// both bare base64 and data-URL form ("data:image/png;base64,....").
type AvatarUpload struct {
	ImageBase64 string `json:"imageBase64" binding:"required"`
}
