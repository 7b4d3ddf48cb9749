package domain

// Source identifies the upstream catalog a record came from.
type Source string

const (
	SourceSpotify    Source = "spotify"
	SourceSoundCloud Source = "soundcloud"
	SourceYouTube    Source = "youtube"
)

// UnknownArtist is the sentinel artist name used when no artist information
// could be extracted from an upstream record.
const UnknownArtist = "Unknown Artist"

// Track is the common shape every catalog adapter normalizes into. A Track is
// fully formed at construction and never mutated afterwards; upstream records
// without an ID are discarded by the adapters and never become Tracks.
type Track struct {
	ID     string `json:"id"`
	Source Source `json:"source"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`

	// DurationSeconds of 0 means the duration is unknown, not a zero-length
	// track. Cross-catalog duration comparisons are only meaningful when both
	// sides are nonzero.
	DurationSeconds int    `json:"duration"`
	DurationString  string `json:"durationString"`

	// DurationMillis is an advisory passthrough set by catalogs that report
	// millisecond precision; 0 when unavailable.
	DurationMillis int `json:"durationMs,omitempty"`

	CoverArtURL string `json:"coverArt,omitempty"`

	// Streamable is true only when this record is known to have, or be
	// resolvable to, a playable audio URL without a cross-catalog lookup.
	Streamable bool `json:"streamable"`

	// StreamInfoURL is the catalog's locator for this track's stream data,
	// captured at normalization time so a later stream resolution can skip
	// refetching the track metadata. Never serialized.
	StreamInfoURL string `json:"-"`

	// Advisory passthrough fields. Nothing downstream depends on them except
	// PreviewURL, which the cross-catalog resolver uses as its last fallback.
	Genre        string `json:"genre,omitempty"`
	PermalinkURL string `json:"permalinkUrl,omitempty"`
	PreviewURL   string `json:"previewUrl,omitempty"`
	ExternalURL  string `json:"externalUrl,omitempty"`
	Popularity   int    `json:"popularity,omitempty"`
}

// StreamType classifies the kind of playable URL a resolution produced.
type StreamType string

const (
	// StreamAudio is a direct audio file or signed audio URL.
	StreamAudio StreamType = "audio"
	// StreamAudioPreview is a short low-fidelity preview clip.
	StreamAudioPreview StreamType = "audio_preview"
	// StreamEmbed is a playable embed page, the degraded fallback when no
	// direct audio URL could be extracted from the video catalog.
	StreamEmbed StreamType = "embed"
)

// MatchRef records which foreign-catalog track satisfied a cross-catalog
// resolution.
type MatchRef struct {
	TrackID string `json:"trackId"`
	Source  Source `json:"source"`
}

// StreamResult is a successfully resolved playable URL. Failures are reported
// as typed errors, never as a partially filled StreamResult.
type StreamResult struct {
	URL        string     `json:"url"`
	Type       StreamType `json:"type"`
	Source     Source     `json:"source"`
	MatchedVia *MatchRef  `json:"matchedVia,omitempty"`
}
