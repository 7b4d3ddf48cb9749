// Package youtube implements the video-catalog adapter. Search and the first
// details tier go through the Data API's song-filtered endpoints; stream
// resolution and the second details tier go through an external audio
// extraction tool (yt-dlp). When no direct audio URL can be extracted the
// adapter degrades to a playable embed-page URL rather than failing: for
// this catalog an embed is always better than no stream at all.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	watchURL       = "https://www.youtube.com/watch?v="
	embedURL       = "https://www.youtube.com/embed/"
	requestTimeout = 10 * time.Second
	maxResults     = 50

	// maxDurationSeconds caps both search results and fresh details lookups,
	// biasing results toward individual tracks over long mixes and albums.
	// Details already obtained through a prior successful lookup are served
	// regardless; the cap only prevents a fresh lookup from completing.
	maxDurationSeconds = 300
)

// Provider implements ports.QueryStreamSource for the video catalog.
type Provider struct {
	apiKey    string
	extractor Extractor
	log       *zap.Logger

	baseURL string
	client  *http.Client
}

// NewProvider creates a new video-catalog provider. The extractor handles
// stream resolution and the details fallback tier.
func NewProvider(apiKey string, extractor Extractor, log *zap.Logger) *Provider {
	return &Provider{
		apiKey:    apiKey,
		extractor: extractor,
		log:       log,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

func (p *Provider) Name() string {
	return string(domain.SourceYouTube)
}

// -- API response types (internal) ------------------------------------------

type searchListResponse struct {
	Items []searchResult `json:"items"`
}

type searchResult struct {
	ID searchResultID `json:"id"`
}

type searchResultID struct {
	VideoID string `json:"videoId"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID             string         `json:"id"`
	Snippet        videoSnippet   `json:"snippet"`
	ContentDetails contentDetails `json:"contentDetails"`
}

type videoSnippet struct {
	Title        string               `json:"title"`
	ChannelTitle string               `json:"channelTitle"`
	Thumbnails   map[string]thumbnail `json:"thumbnails"`
}

type contentDetails struct {
	Duration string `json:"duration"`
}

// thumbnail is one entry of an upstream thumbnail list, from either the
// metadata API or the extractor.
type thumbnail struct {
	URL    string `json:"url"`
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// -- Catalog implementation --------------------------------------------------

func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxResults {
		limit = maxResults
	}

	// videoCategoryId 10 is the music category: the song-filtered endpoint.
	endpoint := fmt.Sprintf(
		"%s/search?part=snippet&type=video&videoCategoryId=10&maxResults=%d&q=%s&key=%s",
		p.baseURL, limit, url.QueryEscape(query), url.QueryEscape(p.apiKey),
	)

	body, err := p.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("youtube: search failed: %w", err)
	}

	var resp searchListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to parse search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := p.listVideos(ctx, ids)
	if err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(videos))
	for i := range videos {
		track := p.normalize(&videos[i])
		if track == nil {
			continue
		}
		// Over-cap results are excluded entirely, not flagged.
		if track.DurationSeconds > maxDurationSeconds {
			p.log.Debug("youtube: dropping over-cap search result",
				zap.String("videoId", track.ID),
				zap.String("duration", track.DurationString))
			continue
		}
		tracks = append(tracks, *track)
	}
	return tracks, nil
}

// TrackDetails looks a video up on the metadata API first and falls back to
// the extractor when the API fails or returns nothing usable.
func (p *Provider) TrackDetails(ctx context.Context, id string) (*domain.Track, error) {
	if track := p.detailsFromAPI(ctx, id); track != nil {
		return track, nil
	}
	return p.detailsFromExtractor(ctx, id)
}

func (p *Provider) detailsFromAPI(ctx context.Context, id string) *domain.Track {
	videos, err := p.listVideos(ctx, []string{id})
	if err != nil {
		p.log.Warn("youtube: metadata API details failed, trying extractor",
			zap.String("videoId", id), zap.Error(err))
		return nil
	}
	if len(videos) == 0 {
		return nil
	}

	track := p.normalize(&videos[0])
	if track == nil {
		return nil
	}
	if track.DurationSeconds > maxDurationSeconds {
		p.log.Debug("youtube: over-cap track skipped at details stage",
			zap.String("videoId", id),
			zap.String("duration", track.DurationString))
		return nil
	}
	return track
}

func (p *Provider) detailsFromExtractor(ctx context.Context, id string) (*domain.Track, error) {
	info, err := p.extractor.Extract(ctx, watchURL+id)
	if err != nil {
		return nil, fmt.Errorf("youtube: failed to get details for %s: %w", id, err)
	}

	seconds := int(info.Duration)
	if seconds > maxDurationSeconds {
		p.log.Debug("youtube: over-cap track skipped at extractor details stage",
			zap.String("videoId", id),
			zap.String("duration", domain.FormatDuration(seconds)))
		return nil, domain.ErrTrackNotFound
	}

	title := info.Title
	artist := extractorArtist(info)
	if artist == "" {
		if name, byArtist := parseVideoTitle(title); byArtist != "" {
			title, artist = name, byArtist
		}
	}
	if artist == "" {
		artist = domain.UnknownArtist
	}

	return &domain.Track{
		ID:              id,
		Source:          domain.SourceYouTube,
		Title:           title,
		Artist:          artist,
		Album:           info.Album,
		DurationSeconds: seconds,
		DurationString:  domain.FormatDuration(seconds),
		CoverArtURL:     pickThumbnail(info.Thumbnails),
		Streamable:      true,
	}, nil
}

// ResolveStream extracts the best audio-only stream for a video. Any
// extractor failure, and any success without a resolvable direct URL,
// degrades to the embed page. Prefetched details carry nothing the
// extractor needs, so they are ignored.
func (p *Provider) ResolveStream(ctx context.Context, id string, _ *domain.Track) (*domain.StreamResult, error) {
	embed := &domain.StreamResult{
		URL:    embedURL + id + "?autoplay=1",
		Type:   domain.StreamEmbed,
		Source: domain.SourceYouTube,
	}

	info, err := p.extractor.Extract(ctx, watchURL+id)
	if err != nil {
		p.log.Warn("youtube: extraction failed, falling back to embed",
			zap.String("videoId", id), zap.Error(err))
		return embed, nil
	}
	if info.URL == "" {
		return embed, nil
	}

	return &domain.StreamResult{
		URL:    info.URL,
		Type:   domain.StreamAudio,
		Source: domain.SourceYouTube,
	}, nil
}

// ResolveStreamByQuery runs a single-result search to obtain a video id and
// resolves its stream. It fails when the search yields nothing.
func (p *Provider) ResolveStreamByQuery(ctx context.Context, query string) (*domain.StreamResult, string, error) {
	results, err := p.Search(ctx, query, 1)
	if err != nil {
		return nil, "", fmt.Errorf("youtube: stream search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, "", fmt.Errorf("youtube: no results for %q: %w", query, domain.ErrNoStream)
	}

	id := results[0].ID
	stream, err := p.ResolveStream(ctx, id, &results[0])
	if err != nil {
		return nil, "", err
	}
	return stream, id, nil
}

// -- Normalization -----------------------------------------------------------

func (p *Provider) normalize(video *videoResource) *domain.Track {
	if video == nil || video.ID == "" {
		return nil
	}

	seconds := parseISODuration(video.ContentDetails.Duration)

	// The metadata API carries no structured artist list; titles in the
	// "Artist - Track" convention are split, with the channel title as the
	// plain-string fallback.
	title := video.Snippet.Title
	artist := ""
	if name, byArtist := parseVideoTitle(title); byArtist != "" {
		title, artist = name, byArtist
	}
	if artist == "" {
		artist = video.Snippet.ChannelTitle
	}
	if artist == "" {
		artist = domain.UnknownArtist
	}

	return &domain.Track{
		ID:              video.ID,
		Source:          domain.SourceYouTube,
		Title:           title,
		Artist:          artist,
		DurationSeconds: seconds,
		DurationString:  domain.FormatDuration(seconds),
		CoverArtURL:     pickThumbnail(apiThumbnails(video.Snippet.Thumbnails)),
		Streamable:      true,
	}
}

// thumbnailKeys orders the metadata API's thumbnail map into a list, lowest
// priority first, so the shared selection policy's reverse scan sees the
// highest priority entries first.
var thumbnailKeys = []string{"default", "medium", "high", "standard", "maxres"}

func apiThumbnails(m map[string]thumbnail) []thumbnail {
	entries := make([]thumbnail, 0, len(m))
	for _, key := range thumbnailKeys {
		if t, ok := m[key]; ok && t.URL != "" {
			t.ID = key
			entries = append(entries, t)
		}
	}
	return entries
}

// qualityOrder ranks the quality labels embedded in thumbnail URLs and ids,
// best first.
var qualityOrder = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault", "default"}

// pickThumbnail selects the best thumbnail URL. When every entry carries
// explicit dimensions the largest area wins. Otherwise entries are scanned in
// reverse (upstream preference order is assumed last-listed-highest-priority
// when sizes are absent) looking for quality labels; failing that, the last
// well-formed URL seen during the scan is returned, or "".
func pickThumbnail(entries []thumbnail) string {
	if len(entries) == 0 {
		return ""
	}

	sized := true
	for _, t := range entries {
		if t.URL == "" || t.Width <= 0 || t.Height <= 0 {
			sized = false
			break
		}
	}
	if sized {
		best := entries[0]
		for _, t := range entries[1:] {
			if t.Width*t.Height > best.Width*best.Height {
				best = t
			}
		}
		return best.URL
	}

	found := make(map[string]string)
	bestURL := ""
	for i := len(entries) - 1; i >= 0; i-- {
		t := entries[i]
		if t.URL == "" {
			continue
		}
		bestURL = t.URL
		id := strings.ToLower(t.ID)
		for _, label := range qualityOrder {
			if strings.Contains(t.URL, label) || label == id {
				if _, ok := found[label]; !ok {
					found[label] = t.URL
				}
			}
		}
	}
	for _, label := range qualityOrder {
		if u, ok := found[label]; ok {
			return u
		}
	}
	return bestURL
}

// extractorArtist applies the artist fallback order to extractor metadata:
// structured artist list, then the plain artist string, then uploader and
// channel.
func extractorArtist(info *ExtractedInfo) string {
	names := make([]string, 0, len(info.Artists))
	for _, n := range info.Artists {
		if strings.TrimSpace(n) != "" {
			names = append(names, strings.TrimSpace(n))
		}
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	if info.Artist != "" {
		return info.Artist
	}
	if info.Uploader != "" {
		return info.Uploader
	}
	return info.Channel
}

// parseVideoTitle attempts to split a video title into track name and
// artist. Common formats: "Artist - Track", "Artist - Track (Official Video)".
func parseVideoTitle(title string) (name, artist string) {
	suffixes := []string{
		"(Official Video)", "(Official Music Video)", "(Official Audio)",
		"(Lyric Video)", "(Lyrics)", "(Audio)", "[Official Video]",
		"[Official Music Video]", "[Official Audio]", "(HD)", "(HQ)",
	}
	cleaned := title
	for _, suffix := range suffixes {
		cleaned = strings.TrimSpace(strings.Replace(cleaned, suffix, "", 1))
	}

	parts := strings.SplitN(cleaned, " - ", 2)
	if len(parts) == 2 && len(parts[0]) < len(parts[1]) && len(parts[0]) < 40 {
		return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
	}

	return cleaned, ""
}

// parseISODuration parses the metadata API's ISO 8601 durations ("PT4M13S").
// Malformed input yields 0: duration unknown.
func parseISODuration(s string) int {
	if !strings.HasPrefix(s, "PT") {
		return 0
	}
	total := 0
	value := 0
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
			value = value*10 + int(r-'0')
		case r == 'H':
			total += value * 3600
			value = 0
		case r == 'M':
			total += value * 60
			value = 0
		case r == 'S':
			total += value
			value = 0
		default:
			return 0
		}
	}
	return total
}

// -- HTTP helpers ------------------------------------------------------------

func (p *Provider) listVideos(ctx context.Context, ids []string) ([]videoResource, error) {
	endpoint := fmt.Sprintf(
		"%s/videos?part=snippet,contentDetails&id=%s&key=%s",
		p.baseURL, url.QueryEscape(strings.Join(ids, ",")), url.QueryEscape(p.apiKey),
	)

	body, err := p.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("youtube: failed to list videos: %w", err)
	}

	var resp videoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube: failed to parse videos response: %w", err)
	}
	return resp.Items, nil
}

func (p *Provider) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

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
		return nil, fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
