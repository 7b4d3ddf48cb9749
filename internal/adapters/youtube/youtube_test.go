package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
)

// -- Stub extractor ----------------------------------------------------------

type stubExtractor struct {
	info *ExtractedInfo
	err  error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*ExtractedInfo, error) {
	return s.info, s.err
}

func newTestProvider(t *testing.T, handler http.Handler, extractor Extractor) *Provider {
	t.Helper()
	if extractor == nil {
		extractor = &stubExtractor{err: errors.New("extractor unused")}
	}

	p := NewProvider("api-key", extractor, zap.NewNop())
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		p.baseURL = srv.URL
		p.client = srv.Client()
	}
	return p
}

// -- Thumbnail selection -----------------------------------------------------

func TestPickThumbnail_LargestAreaWhenAllSized(t *testing.T) {
	got := pickThumbnail([]thumbnail{
		{URL: "a", Width: 120, Height: 90},
		{URL: "b", Width: 1280, Height: 720},
		{URL: "c", Width: 640, Height: 480},
	})
	assert.Equal(t, "b", got)
}

func TestPickThumbnail_QualityLabelsWhenUnsized(t *testing.T) {
	got := pickThumbnail([]thumbnail{
		{URL: "https://i.ytimg.com/vi/x/default.jpg"},
		{URL: "https://i.ytimg.com/vi/x/hqdefault.jpg"},
	})
	assert.Equal(t, "https://i.ytimg.com/vi/x/hqdefault.jpg", got)
}

func TestPickThumbnail_LabelOrdering(t *testing.T) {
	got := pickThumbnail([]thumbnail{
		{URL: "https://i.ytimg.com/vi/x/mqdefault.jpg"},
		{URL: "https://i.ytimg.com/vi/x/maxresdefault.jpg"},
		{URL: "https://i.ytimg.com/vi/x/sddefault.jpg"},
	})
	assert.Equal(t, "https://i.ytimg.com/vi/x/maxresdefault.jpg", got)
}

func TestPickThumbnail_FallsBackToLastScanned(t *testing.T) {
	got := pickThumbnail([]thumbnail{
		{URL: "https://img.example/one.jpg"},
		{URL: "https://img.example/two.jpg"},
	})
	// The reverse scan ends at the first entry; with no labels anywhere it is
	// the last well-formed URL seen.
	assert.Equal(t, "https://img.example/one.jpg", got)
}

func TestPickThumbnail_Empty(t *testing.T) {
	assert.Equal(t, "", pickThumbnail(nil))
	assert.Equal(t, "", pickThumbnail([]thumbnail{{URL: ""}}))
}

// -- Duration parsing --------------------------------------------------------

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT4M13S", 253},
		{"PT1H2M5S", 3725},
		{"PT45S", 45},
		{"PT2M", 120},
		{"PT1H", 3600},
		{"P1DT1H", 0},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseISODuration(tt.in), "input=%q", tt.in)
	}
}

// -- Title parsing -----------------------------------------------------------

func TestParseVideoTitle(t *testing.T) {
	name, artist := parseVideoTitle("Daft Punk - Harder Better Faster Stronger (Official Video)")
	assert.Equal(t, "Daft Punk", artist)
	assert.Equal(t, "Harder Better Faster Stronger", name)

	name, artist = parseVideoTitle("Just A Plain Title")
	assert.Equal(t, "", artist)
	assert.Equal(t, "Just A Plain Title", name)
}

// -- Search ------------------------------------------------------------------

func searchAndVideosHandler(videosJSON string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"id": {"videoId": "vid1"}},
			{"id": {"videoId": "vid2"}}
		]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(videosJSON))
	})
	return mux
}

func TestSearch_DropsOverCapResults(t *testing.T) {
	p := newTestProvider(t, searchAndVideosHandler(`{"items": [
		{
			"id": "vid1",
			"snippet": {
				"title": "Artist - Short Song",
				"channelTitle": "ArtistVEVO",
				"thumbnails": {
					"default": {"url": "https://i.ytimg.com/vi/vid1/default.jpg", "width": 120, "height": 90},
					"high": {"url": "https://i.ytimg.com/vi/vid1/hqdefault.jpg", "width": 480, "height": 360}
				}
			},
			"contentDetails": {"duration": "PT3M20S"}
		},
		{
			"id": "vid2",
			"snippet": {"title": "Two Hour Mix", "channelTitle": "MixChannel", "thumbnails": {}},
			"contentDetails": {"duration": "PT2H1M"}
		}
	]}`), nil)

	tracks, err := p.Search(context.Background(), "short song", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1, "results over the duration cap are excluded")

	track := tracks[0]
	assert.Equal(t, "vid1", track.ID)
	assert.Equal(t, domain.SourceYouTube, track.Source)
	assert.Equal(t, "Artist", track.Artist)
	assert.Equal(t, "Short Song", track.Title)
	assert.Equal(t, 200, track.DurationSeconds)
	assert.Equal(t, "3:20", track.DurationString)
	assert.Equal(t, "https://i.ytimg.com/vi/vid1/hqdefault.jpg", track.CoverArtURL)
	assert.True(t, track.Streamable)
}

func TestSearch_ChannelTitleFallback(t *testing.T) {
	p := newTestProvider(t, searchAndVideosHandler(`{"items": [
		{
			"id": "vid1",
			"snippet": {"title": "Untitled Upload", "channelTitle": "Some Channel", "thumbnails": {}},
			"contentDetails": {"duration": "PT2M"}
		}
	]}`), nil)

	tracks, err := p.Search(context.Background(), "untitled", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Some Channel", tracks[0].Artist)
}

// -- Details -----------------------------------------------------------------

func TestTrackDetails_FallsBackToExtractor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	p := newTestProvider(t, mux, &stubExtractor{info: &ExtractedInfo{
		Title:    "Deep Cut",
		Artists:  []string{"A One", "A Two"},
		Album:    "Rarities",
		Duration: 207,
		Thumbnails: []thumbnail{
			{URL: "https://i.ytimg.com/vi/x/hqdefault.jpg"},
		},
	}})

	track, err := p.TrackDetails(context.Background(), "vidX")
	require.NoError(t, err)
	assert.Equal(t, "vidX", track.ID)
	assert.Equal(t, "A One, A Two", track.Artist, "structured artist list is preferred")
	assert.Equal(t, "Rarities", track.Album)
	assert.Equal(t, 207, track.DurationSeconds)
	assert.Equal(t, "https://i.ytimg.com/vi/x/hqdefault.jpg", track.CoverArtURL)
}

func TestTrackDetails_ExtractorOverCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	p := newTestProvider(t, mux, &stubExtractor{info: &ExtractedInfo{
		Title:    "Long Mix",
		Uploader: "mixes",
		Duration: 4000,
	}})

	_, err := p.TrackDetails(context.Background(), "vidY")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

// -- Stream resolution -------------------------------------------------------

func TestResolveStream_DirectAudio(t *testing.T) {
	p := newTestProvider(t, nil, &stubExtractor{info: &ExtractedInfo{
		URL: "https://rr1.googlevideo.com/audio.m4a",
	}})

	stream, err := p.ResolveStream(context.Background(), "vid1", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://rr1.googlevideo.com/audio.m4a", stream.URL)
	assert.Equal(t, domain.StreamAudio, stream.Type)
	assert.Equal(t, domain.SourceYouTube, stream.Source)
}

func TestResolveStream_EmbedFallbackOnExtractorError(t *testing.T) {
	p := newTestProvider(t, nil, &stubExtractor{err: errors.New("sign in to confirm your age")})

	stream, err := p.ResolveStream(context.Background(), "vid1", nil)
	require.NoError(t, err, "extraction failure degrades, never errors")
	assert.Equal(t, "https://www.youtube.com/embed/vid1?autoplay=1", stream.URL)
	assert.Equal(t, domain.StreamEmbed, stream.Type)
}

func TestResolveStream_EmbedFallbackOnMissingURL(t *testing.T) {
	p := newTestProvider(t, nil, &stubExtractor{info: &ExtractedInfo{Title: "no url"}})

	stream, err := p.ResolveStream(context.Background(), "vid2", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamEmbed, stream.Type)
}

func TestResolveStreamByQuery_NoResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	p := newTestProvider(t, mux, nil)

	_, _, err := p.ResolveStreamByQuery(context.Background(), "nothing here")
	assert.ErrorIs(t, err, domain.ErrNoStream)
}

func TestResolveStreamByQuery_ReturnsVideoID(t *testing.T) {
	p := newTestProvider(t, searchAndVideosHandler(`{"items": [
		{
			"id": "vid1",
			"snippet": {"title": "Artist - Song", "channelTitle": "c", "thumbnails": {}},
			"contentDetails": {"duration": "PT3M"}
		}
	]}`), &stubExtractor{info: &ExtractedInfo{URL: "https://rr1.googlevideo.com/a.m4a"}})

	stream, videoID, err := p.ResolveStreamByQuery(context.Background(), "artist song")
	require.NoError(t, err)
	assert.Equal(t, "vid1", videoID)
	assert.Equal(t, domain.StreamAudio, stream.Type)
}
