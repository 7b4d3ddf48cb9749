// Package soundcloud implements the upload-catalog adapter against the
// api-v2 JSON API. The API is unauthenticated but token-gated: every request
// carries a client id obtained out of band.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
)

const (
	defaultBaseURL = "https://api-v2.soundcloud.com"
	appVersion     = "1686318471"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	requestTimeout = 10 * time.Second
	maxLimit       = 50

	// preferredArtworkSize replaces the low-resolution size markers upstream
	// embeds in artwork URLs.
	preferredArtworkSize = "t500x500"
)

// lowResMarkers are the artwork size markers rewritten to the preferred size.
var lowResMarkers = []string{
	"badge", "tiny", "small", "t67x67", "mini", "t120x120", "large", "t300x300", "crop",
}

// Provider implements ports.StreamSource for the upload catalog.
type Provider struct {
	clientID string
	log      *zap.Logger

	baseURL string
	client  *http.Client
}

// NewProvider creates a new upload-catalog provider.
func NewProvider(clientID string, log *zap.Logger) *Provider {
	return &Provider{
		clientID: clientID,
		log:      log,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

func (p *Provider) Name() string {
	return string(domain.SourceSoundCloud)
}

// -- API response types (internal) ------------------------------------------

type searchResponse struct {
	Collection []trackPayload `json:"collection"`
}

type trackPayload struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Streamable   bool        `json:"streamable"`
	DurationMs   int         `json:"duration"`
	Genre        string      `json:"genre"`
	PermalinkURL string      `json:"permalink_url"`
	ArtworkURL   string      `json:"artwork_url"`
	User         userPayload `json:"user"`
	Media        media       `json:"media"`
}

type userPayload struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type media struct {
	Transcodings []transcoding `json:"transcodings"`
}

type transcoding struct {
	URL    string `json:"url"`
	Format format `json:"format"`
}

type format struct {
	Protocol string `json:"protocol"`
}

type streamPayload struct {
	URL string `json:"url"`
}

// -- Catalog implementation --------------------------------------------------

func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("client_id", p.clientID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", "0")
	params.Set("app_version", appVersion)
	params.Set("app_locale", "en")

	body, err := p.doGet(ctx, p.baseURL+"/search/tracks?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("soundcloud: search failed: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("soundcloud: failed to parse search response: %w", err)
	}

	// Unstreamable records are dropped here, not flagged: callers never see
	// dead ends from this catalog during search.
	tracks := make([]domain.Track, 0, len(resp.Collection))
	for i := range resp.Collection {
		if t := normalize(&resp.Collection[i]); t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}

func (p *Provider) TrackDetails(ctx context.Context, id string) (*domain.Track, error) {
	payload, err := p.fetchTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	track := normalize(payload)
	if track == nil {
		return nil, domain.ErrTrackNotFound
	}
	return track, nil
}

// ResolveStream obtains the final signed audio URL for a track. It is a
// two-hop process: locate the progressive transcoding entry from the track
// metadata, then fetch that entry's URL (appending the client id if absent)
// to obtain the signed URL. Prefetched details carrying the transcoding
// locator skip the first hop.
func (p *Provider) ResolveStream(ctx context.Context, id string, prefetched *domain.Track) (*domain.StreamResult, error) {
	infoURL := ""
	if prefetched != nil && prefetched.ID == id {
		infoURL = prefetched.StreamInfoURL
	}
	if infoURL == "" {
		payload, err := p.fetchTrack(ctx, id)
		if err != nil {
			return nil, err
		}
		infoURL = progressiveURL(payload)
	}
	if infoURL == "" {
		return nil, fmt.Errorf("soundcloud: no progressive transcoding for track %s", id)
	}

	if !strings.Contains(infoURL, "client_id=") {
		sep := "?"
		if strings.Contains(infoURL, "?") {
			sep = "&"
		}
		infoURL += sep + "client_id=" + url.QueryEscape(p.clientID)
	}

	body, err := p.doGet(ctx, infoURL)
	if err != nil {
		return nil, fmt.Errorf("soundcloud: failed to fetch stream data for track %s: %w", id, err)
	}

	var stream streamPayload
	if err := json.Unmarshal(body, &stream); err != nil {
		return nil, fmt.Errorf("soundcloud: failed to parse stream response for track %s: %w", id, err)
	}
	if stream.URL == "" {
		return nil, fmt.Errorf("soundcloud: stream response for track %s has no url", id)
	}

	return &domain.StreamResult{
		URL:    stream.URL,
		Type:   domain.StreamAudio,
		Source: domain.SourceSoundCloud,
	}, nil
}

func (p *Provider) fetchTrack(ctx context.Context, id string) (*trackPayload, error) {
	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("app_version", appVersion)

	body, err := p.doGet(ctx, fmt.Sprintf("%s/tracks/%s?%s", p.baseURL, url.PathEscape(id), params.Encode()))
	if err != nil {
		if errStatus(err) == http.StatusNotFound {
			return nil, domain.ErrTrackNotFound
		}
		return nil, fmt.Errorf("soundcloud: failed to fetch track %s: %w", id, err)
	}

	var payload trackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("soundcloud: failed to parse track %s: %w", id, err)
	}
	return &payload, nil
}

// -- Normalization -----------------------------------------------------------

// normalize maps an upstream payload to the common track shape. Records
// without an id, and records that neither expose a progressive transcoding
// nor carry the upstream streamable flag, yield nil.
func normalize(data *trackPayload) *domain.Track {
	if data == nil || data.ID == 0 {
		return nil
	}

	hasProgressive := progressiveURL(data) != ""
	if !hasProgressive && !data.Streamable {
		return nil
	}

	artist := data.User.Username
	if artist == "" {
		artist = domain.UnknownArtist
	}

	coverArt := artworkURL(data.ArtworkURL)
	if coverArt == "" {
		coverArt = artworkURL(data.User.AvatarURL)
	}

	seconds := data.DurationMs / 1000

	return &domain.Track{
		ID:              strconv.FormatInt(data.ID, 10),
		Source:          domain.SourceSoundCloud,
		Title:           data.Title,
		Artist:          artist,
		DurationSeconds: seconds,
		DurationString:  domain.FormatDuration(seconds),
		DurationMillis:  data.DurationMs,
		CoverArtURL:     coverArt,
		StreamInfoURL:   progressiveURL(data),
		Streamable:      hasProgressive || data.Streamable,
		Genre:           data.Genre,
		PermalinkURL:    data.PermalinkURL,
	}
}

// progressiveURL returns the first direct-file transcoding entry, or "".
func progressiveURL(data *trackPayload) string {
	for _, tc := range data.Media.Transcodings {
		if tc.Format.Protocol == "progressive" && tc.URL != "" {
			return tc.URL
		}
	}
	return ""
}

// artworkURL upgrades an artwork URL to the preferred size. URLs already at
// the preferred or original size pass through unchanged; URLs with a known
// low-resolution marker get it substituted; marker-less URLs pass through if
// they look like URLs at all, otherwise "" is returned rather than a
// malformed URL.
func artworkURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "-"+preferredArtworkSize+".") || strings.Contains(raw, "-original.") {
		return raw
	}
	for _, marker := range lowResMarkers {
		if strings.Contains(raw, "-"+marker+".") {
			return strings.Replace(raw, "-"+marker+".", "-"+preferredArtworkSize+".", 1)
		}
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return ""
}

// -- HTTP helpers ------------------------------------------------------------

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("soundcloud API returned status %d: %s", e.status, e.body)
}

func errStatus(err error) int {
	if se, ok := err.(*statusError); ok {
		return se.status
	}
	return 0
}

func (p *Provider) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://soundcloud.com/")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	}

	return body, nil
}
