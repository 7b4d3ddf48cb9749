package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
)

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewProvider("id", "secret", zap.NewNop())
	p.baseURL = srv.URL
	p.client = srv.Client()
	return p
}

func TestSearch_NormalizesTracks(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		w.Write([]byte(`{
			"tracks": {"items": [
				{
					"id": "t1",
					"type": "track",
					"name": "Song One",
					"duration_ms": 215999,
					"preview_url": "https://p.scdn.co/preview/t1",
					"popularity": 61,
					"artists": [{"name": "Zeta"}, {"name": "Alpha"}],
					"album": {
						"name": "First Album",
						"images": [
							{"url": "https://img/640.jpg", "width": 640, "height": 640},
							{"url": "https://img/300.jpg", "width": 300, "height": 300}
						]
					},
					"external_urls": {"spotify": "https://open.spotify.com/track/t1"}
				},
				{"id": "", "type": "track", "name": "No Id"}
			]}
		}`))
	}))

	tracks, err := p.Search(context.Background(), "song", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1, "record without id must be discarded")

	track := tracks[0]
	assert.Equal(t, "t1", track.ID)
	assert.Equal(t, domain.SourceSpotify, track.Source)
	assert.Equal(t, "Alpha, Zeta", track.Artist, "artists are joined in alphabetical order")
	assert.Equal(t, 215, track.DurationSeconds)
	assert.Equal(t, "3:35", track.DurationString)
	assert.Equal(t, 215999, track.DurationMillis)
	assert.Equal(t, "https://img/640.jpg", track.CoverArtURL, "first image wins")
	assert.False(t, track.Streamable, "licensed catalog never serves streams directly")
	assert.Equal(t, "https://p.scdn.co/preview/t1", track.PreviewURL)
	assert.Equal(t, 61, track.Popularity)
}

func TestSearch_NonTrackRecordsDiscarded(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks": {"items": [
			{"id": "e1", "type": "episode", "name": "Podcast"},
			{"id": "t1", "type": "track", "name": "Song"}
		]}}`))
	}))

	tracks, err := p.Search(context.Background(), "song", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "t1", tracks[0].ID)
}

func TestTrackDetails_NotFound(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"status": 404}}`))
	}))

	_, err := p.TrackDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestNormalize_UnknownArtist(t *testing.T) {
	track := normalize(&trackData{ID: "t1", Type: "track", Name: "Anon"})
	require.NotNil(t, track)
	assert.Equal(t, domain.UnknownArtist, track.Artist)
}
