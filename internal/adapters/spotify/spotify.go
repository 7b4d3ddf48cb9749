// Package spotify implements the licensed-catalog adapter. The catalog's
// license forbids serving full audio, so this adapter has no stream
// resolution; playable URLs for its tracks come from the cross-catalog
// resolver, with the track's short preview clip as the last fallback.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"kaleidoscope/internal/domain"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	tokenURL       = "https://accounts.spotify.com/api/token"
	requestTimeout = 10 * time.Second
	maxLimit       = 50
)

// Provider implements ports.Catalog for the licensed catalog using the
// client-credentials flow. The authenticated HTTP client is built once on
// first use and reused; concurrent first use is guarded by a sync.Once.
type Provider struct {
	clientID     string
	clientSecret string
	log          *zap.Logger

	baseURL string

	initOnce sync.Once
	client   *http.Client
}

// NewProvider creates a new licensed-catalog provider. The upstream client is
// not built until the first request needs it.
func NewProvider(clientID, clientSecret string, log *zap.Logger) *Provider {
	return &Provider{
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          log,
		baseURL:      defaultBaseURL,
	}
}

func (p *Provider) Name() string {
	return string(domain.SourceSpotify)
}

// -- API response types (internal) ------------------------------------------

type searchResponse struct {
	Tracks searchTracks `json:"tracks"`
}

type searchTracks struct {
	Items []trackData `json:"items"`
}

type trackData struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Name         string       `json:"name"`
	DurationMs   int          `json:"duration_ms"`
	PreviewURL   string       `json:"preview_url"`
	Popularity   int          `json:"popularity"`
	Artists      []artistData `json:"artists"`
	Album        albumData    `json:"album"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type artistData struct {
	Name string `json:"name"`
}

type albumData struct {
	Name   string      `json:"name"`
	Images []imageData `json:"images"`
}

type imageData struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// -- Catalog implementation --------------------------------------------------

func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	endpoint := fmt.Sprintf("%s/search?type=track&market=US&limit=%d&q=%s",
		p.baseURL, limit, url.QueryEscape(query))

	body, err := p.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("spotify: search failed: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("spotify: failed to parse search response: %w", err)
	}

	tracks := make([]domain.Track, 0, len(resp.Tracks.Items))
	for i := range resp.Tracks.Items {
		if t := normalize(&resp.Tracks.Items[i]); t != nil {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}

func (p *Provider) TrackDetails(ctx context.Context, id string) (*domain.Track, error) {
	body, err := p.doGet(ctx, fmt.Sprintf("%s/tracks/%s", p.baseURL, url.PathEscape(id)))
	if err != nil {
		if errStatus(err) == http.StatusNotFound {
			return nil, domain.ErrTrackNotFound
		}
		return nil, fmt.Errorf("spotify: failed to get track %s: %w", id, err)
	}

	var data trackData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("spotify: failed to parse track response: %w", err)
	}

	track := normalize(&data)
	if track == nil {
		return nil, domain.ErrTrackNotFound
	}
	return track, nil
}

// -- Normalization -----------------------------------------------------------

// normalize maps an upstream payload to the common track shape, or nil for
// records that must not enter the system (wrong type, missing id).
func normalize(data *trackData) *domain.Track {
	if data == nil || data.ID == "" {
		return nil
	}
	if data.Type != "" && data.Type != "track" {
		return nil
	}

	// Artist names are sorted alphabetically before joining, so the display
	// string is independent of upstream ordering. Documented quirk of this
	// catalog's normalization; preserved, not corrected.
	names := make([]string, 0, len(data.Artists))
	for _, a := range data.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)

	artist := domain.UnknownArtist
	if len(names) > 0 {
		artist = strings.Join(names, ", ")
	}

	// The upstream image list is assumed highest-resolution-first; the first
	// entry wins. Not verified.
	coverArt := ""
	if len(data.Album.Images) > 0 {
		coverArt = data.Album.Images[0].URL
	}

	seconds := data.DurationMs / 1000

	return &domain.Track{
		ID:              data.ID,
		Source:          domain.SourceSpotify,
		Title:           data.Name,
		Artist:          artist,
		Album:           data.Album.Name,
		DurationSeconds: seconds,
		DurationString:  domain.FormatDuration(seconds),
		DurationMillis:  data.DurationMs,
		CoverArtURL:     coverArt,
		Streamable:      false,
		PreviewURL:      data.PreviewURL,
		ExternalURL:     data.ExternalURLs.Spotify,
		Popularity:      data.Popularity,
	}
}

// -- HTTP helpers ------------------------------------------------------------

// httpClient returns the authenticated upstream client, building it on first
// use. Tests inject their own client before the first call.
func (p *Provider) httpClient() *http.Client {
	p.initOnce.Do(func() {
		if p.client != nil {
			return
		}
		cc := clientcredentials.Config{
			ClientID:     p.clientID,
			ClientSecret: p.clientSecret,
			TokenURL:     tokenURL,
		}
		client := cc.Client(context.Background())
		client.Timeout = requestTimeout
		p.client = client
	})
	return p.client
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spotify API returned status %d: %s", e.status, e.body)
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

	resp, err := p.httpClient().Do(req)
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
