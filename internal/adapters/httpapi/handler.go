// Package httpapi exposes the aggregation, auth, and profile services over
// HTTP with Gin.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kaleidoscope/internal/auth"
	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

const apiVersion = "v0.1.0"

// Handler holds the HTTP handlers for the API.
type Handler struct {
	catalogs ports.CatalogService
	auth     ports.AuthService
	profiles ports.ProfileService
	tokens   *auth.Manager
}

// NewHandler creates a new HTTP handler over the application services.
func NewHandler(catalogs ports.CatalogService, authSvc ports.AuthService, profiles ports.ProfileService, tokens *auth.Manager) *Handler {
	return &Handler{
		catalogs: catalogs,
		auth:     authSvc,
		profiles: profiles,
		tokens:   tokens,
	}
}

// RegisterRoutes sets up all API routes on the given Gin engine. The
// aggregation and private profile routes sit behind token auth; auth and the
// public profile lookup do not.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
	}

	r.GET("/profiles/:identifier", h.PublicProfile)

	private := r.Group("/")
	private.Use(AuthRequired(h.tokens))
	{
		private.GET("/profile/me", h.MyProfile)
		private.PUT("/profile/me", h.UpdateProfile)
		private.POST("/profile/me/avatar", h.SetAvatar)
		private.DELETE("/profile/me/avatar", h.RemoveAvatar)

		private.POST("/search/:catalog", h.Search)
		private.GET("/track/:catalog/:id", h.TrackDetails)
		private.GET("/track/:catalog/:id/stream", h.ResolveStream)
	}
}

// Root identifies the service.
//
//	@Summary		Service banner
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/ [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"kaleidoscope-api": apiVersion,
	})
}

// Health returns a simple health check response.
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// -- Auth --------------------------------------------------------------------

// Register creates an account and returns its first token pair.
//
//	@Summary		Register account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.RegisterRequest	true	"Email, password, and handle"
//	@Success		201		{object}	domain.TokenPair
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	pair, err := h.auth.Register(c.Request.Context(), req, c.GetHeader("User-Agent"))
	switch {
	case errors.Is(err, domain.ErrInvalidHandle):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_handle",
			Message: "handle may only contain letters, digits, '_' and '-'",
		})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "email_taken",
			Message: "an account with this email already exists",
		})
	case errors.Is(err, domain.ErrHandleTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "handle_taken",
			Message: "this handle is already in use",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusCreated, pair)
	}
}

// Login verifies credentials and returns a token pair.
//
//	@Summary		Log in
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.LoginRequest	true	"Email and password"
//	@Success		200		{object}	domain.TokenPair
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req, c.GetHeader("User-Agent"))
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "email or password is incorrect",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token into a fresh token pair.
//
//	@Summary		Refresh session
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	domain.TokenPair
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, c.GetHeader("User-Agent"))
	if errors.Is(err, domain.ErrInvalidToken) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "refresh token is invalid or its session was revoked",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout revokes the session behind a refresh token.
//
//	@Summary		Log out
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	domain.RefreshRequest	true	"Refresh token"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "refresh token is invalid",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// -- Profiles ----------------------------------------------------------------

// PublicProfile returns a profile's public shape by user id, handle, or
// display name.
//
//	@Summary		Public profile lookup
//	@Tags			profiles
//	@Produce		json
//	@Param			identifier	path		string	true	"User id, handle, or display name"
//	@Success		200			{object}	domain.PublicProfile
//	@Failure		404			{object}	ErrorResponse
//	@Router			/profiles/{identifier} [get]
func (h *Handler) PublicProfile(c *gin.Context) {
	profile, err := h.profiles.PublicProfile(c.Request.Context(), c.Param("identifier"))
	if errors.Is(err, domain.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "profile_not_found",
			Message: "no profile matches this identifier",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// MyProfile returns the caller's full profile.
//
//	@Summary		Own profile
//	@Tags			profiles
//	@Produce		json
//	@Success		200	{object}	domain.Profile
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/profile/me [get]
func (h *Handler) MyProfile(c *gin.Context) {
	profile, err := h.profiles.MyProfile(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		h.profileError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the caller's profile.
//
//	@Summary		Update own profile
//	@Tags			profiles
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.ProfileUpdate	true	"Fields to change; omitted fields stay"
//	@Success		200		{object}	domain.Profile
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/profile/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var update domain.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), c.GetString(ContextUserID), update)
	switch {
	case errors.Is(err, domain.ErrInvalidHandle):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_handle",
			Message: "handle may only contain letters, digits, '_' and '-'",
		})
	case errors.Is(err, domain.ErrHandleTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "handle_taken",
			Message: "this handle is already in use",
		})
	case err != nil:
		h.profileError(c, err)
	default:
		c.JSON(http.StatusOK, profile)
	}
}

// SetAvatar uploads a new avatar image for the caller.
//
//	@Summary		Set avatar
//	@Tags			profiles
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.AvatarUpload	true	"Base64-encoded image"
//	@Success		200		{object}	domain.Profile
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/profile/me/avatar [post]
func (h *Handler) SetAvatar(c *gin.Context) {
	var req domain.AvatarUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	profile, err := h.profiles.SetAvatar(c.Request.Context(), c.GetString(ContextUserID), req.ImageBase64)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			h.profileError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "avatar_upload_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RemoveAvatar clears the caller's avatar.
//
//	@Summary		Remove avatar
//	@Tags			profiles
//	@Produce		json
//	@Success		200	{object}	domain.Profile
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/profile/me/avatar [delete]
func (h *Handler) RemoveAvatar(c *gin.Context) {
	profile, err := h.profiles.RemoveAvatar(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		h.profileError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) profileError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "profile_not_found",
			Message: "no profile exists for this account",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}

// -- Aggregation -------------------------------------------------------------

// Aggregation endpoints report failures as a bare {"error": "..."} object;
// clients of these endpoints key on that exact shape.

// Search searches one catalog.
//
//	@Summary		Search a catalog
//	@Description	Supported catalogs: spotify, soundcloud, youtube.
//	@Tags			catalog
//	@Produce		json
//	@Param			catalog	path		string	true	"Catalog name"	Enums(spotify, soundcloud, youtube)
//	@Param			query	query		string	true	"Free-text search query"
//	@Param			limit	query		int		false	"Maximum results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/search/{catalog} [post]
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'query' is required"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'limit' must be a positive integer"})
			return
		}
		limit = parsed
	}

	tracks, err := h.catalogs.Search(c.Request.Context(), c.Param("catalog"), query, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Results: tracks})
}

// TrackDetails returns one track's normalized details.
//
//	@Summary		Track details
//	@Tags			catalog
//	@Produce		json
//	@Param			catalog	path		string	true	"Catalog name"	Enums(spotify, soundcloud, youtube)
//	@Param			id		path		string	true	"Track id within the catalog"
//	@Success		200		{object}	domain.Track
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/track/{catalog}/{id} [get]
func (h *Handler) TrackDetails(c *gin.Context) {
	track, err := h.catalogs.TrackDetails(c.Request.Context(), c.Param("catalog"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTrackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, track)
}

// ResolveStream returns a playable URL for a track, resolving across
// catalogs when the track's own catalog hosts no audio.
//
//	@Summary		Resolve stream
//	@Tags			catalog
//	@Produce		json
//	@Param			catalog	path		string	true	"Catalog name"	Enums(spotify, soundcloud, youtube)
//	@Param			id		path		string	true	"Track id within the catalog"
//	@Success		200		{object}	domain.StreamResult
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/track/{catalog}/{id}/stream [get]
func (h *Handler) ResolveStream(c *gin.Context) {
	stream, err := h.catalogs.ResolveStream(c.Request.Context(), c.Param("catalog"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTrackNotFound) || errors.Is(err, domain.ErrNoStream) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stream)
}

// SearchResponse is the envelope for catalog search results.
type SearchResponse struct {
	Results []domain.Track `json:"results"`
}

// ErrorResponse is the standard error response format for the auth and
// profile endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
