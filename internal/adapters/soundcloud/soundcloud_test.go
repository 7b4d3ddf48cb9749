package soundcloud

import (
	"context"
	"fmt"
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

	p := NewProvider("client-id", zap.NewNop())
	p.baseURL = srv.URL
	p.client = srv.Client()
	return p
}

func TestArtworkURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://i1.sndcdn.com/artworks-abc-large.jpg", "https://i1.sndcdn.com/artworks-abc-t500x500.jpg"},
		{"https://i1.sndcdn.com/artworks-abc-t300x300.png", "https://i1.sndcdn.com/artworks-abc-t500x500.png"},
		{"https://i1.sndcdn.com/artworks-abc-tiny.jpg", "https://i1.sndcdn.com/artworks-abc-t500x500.jpg"},
		{"https://i1.sndcdn.com/artworks-abc-t500x500.jpg", "https://i1.sndcdn.com/artworks-abc-t500x500.jpg"},
		{"https://i1.sndcdn.com/artworks-abc-original.jpg", "https://i1.sndcdn.com/artworks-abc-original.jpg"},
		{"https://i1.sndcdn.com/artworks-plain.jpg", "https://i1.sndcdn.com/artworks-plain.jpg"},
		{"not a url", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, artworkURL(tt.in), "input=%q", tt.in)
	}
}

func TestSearch_DropsUnstreamableRecords(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tracks", r.URL.Path)
		assert.Equal(t, "client-id", r.URL.Query().Get("client_id"))
		w.Write([]byte(`{"collection": [
			{
				"id": 101,
				"title": "Playable",
				"streamable": true,
				"duration": 185000,
				"user": {"username": "uploader"},
				"media": {"transcodings": [
					{"url": "https://api-v2.soundcloud.com/media/101/stream", "format": {"protocol": "progressive"}}
				]}
			},
			{
				"id": 102,
				"title": "Blocked",
				"streamable": false,
				"duration": 200000,
				"user": {"username": "uploader"},
				"media": {"transcodings": [
					{"url": "https://api-v2.soundcloud.com/media/102/hls", "format": {"protocol": "hls"}}
				]}
			},
			{"id": 0, "title": "Malformed"}
		]}`))
	}))

	tracks, err := p.Search(context.Background(), "query", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1, "unstreamable and malformed records are dropped silently")

	track := tracks[0]
	assert.Equal(t, "101", track.ID)
	assert.Equal(t, domain.SourceSoundCloud, track.Source)
	assert.Equal(t, "uploader", track.Artist)
	assert.Equal(t, 185, track.DurationSeconds)
	assert.Equal(t, "3:05", track.DurationString)
	assert.Equal(t, 185000, track.DurationMillis)
	assert.True(t, track.Streamable)
}

func TestNormalize_HLSOnlyButFlaggedStreamable(t *testing.T) {
	// The upstream flag keeps a record alive even without a progressive entry;
	// stream resolution for it fails later, search does not.
	track := normalize(&trackPayload{
		ID:         7,
		Title:      "HLS Only",
		Streamable: true,
		DurationMs: 60000,
		User:       userPayload{Username: "u"},
	})
	require.NotNil(t, track)
	assert.True(t, track.Streamable)
}

func TestResolveStream_TwoHops(t *testing.T) {
	var mux http.ServeMux
	var p *Provider

	mux.HandleFunc("/tracks/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": 101,
			"title": "Playable",
			"streamable": true,
			"duration": 185000,
			"user": {"username": "uploader"},
			"media": {"transcodings": [
				{"url": "%s/media/101/stream", "format": {"protocol": "progressive"}}
			]}
		}`, p.baseURL)
	})
	mux.HandleFunc("/media/101/stream", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-id", r.URL.Query().Get("client_id"), "client id is appended on the second hop")
		w.Write([]byte(`{"url": "https://cf-media.sndcdn.com/signed.mp3"}`))
	})

	p = newTestProvider(t, &mux)

	stream, err := p.ResolveStream(context.Background(), "101", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cf-media.sndcdn.com/signed.mp3", stream.URL)
	assert.Equal(t, domain.StreamAudio, stream.Type)
	assert.Equal(t, domain.SourceSoundCloud, stream.Source)
}

func TestResolveStream_PrefetchedSkipsMetadataFetch(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/tracks/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("metadata refetched despite prefetched details: %s", r.URL.Path)
	})
	mux.HandleFunc("/media/101/stream", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-id", r.URL.Query().Get("client_id"))
		w.Write([]byte(`{"url": "https://cf-media.sndcdn.com/signed.mp3"}`))
	})

	p := newTestProvider(t, &mux)

	stream, err := p.ResolveStream(context.Background(), "101", &domain.Track{
		ID:            "101",
		Source:        domain.SourceSoundCloud,
		StreamInfoURL: p.baseURL + "/media/101/stream",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cf-media.sndcdn.com/signed.mp3", stream.URL)
}

func TestResolveStream_PrefetchedForOtherTrackIgnored(t *testing.T) {
	var mux http.ServeMux
	var p *Provider

	fetched := false
	mux.HandleFunc("/tracks/101", func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		fmt.Fprintf(w, `{
			"id": 101,
			"streamable": true,
			"duration": 185000,
			"user": {"username": "uploader"},
			"media": {"transcodings": [
				{"url": "%s/media/101/stream", "format": {"protocol": "progressive"}}
			]}
		}`, p.baseURL)
	})
	mux.HandleFunc("/media/101/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url": "https://cf-media.sndcdn.com/signed.mp3"}`))
	})

	p = newTestProvider(t, &mux)

	_, err := p.ResolveStream(context.Background(), "101", &domain.Track{
		ID:            "999",
		StreamInfoURL: "https://stale/other-track",
	})
	require.NoError(t, err)
	assert.True(t, fetched, "mismatched prefetched details must not short-circuit the lookup")
}

func TestResolveStream_NoProgressiveTranscoding(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": 102,
			"title": "HLS Only",
			"streamable": true,
			"duration": 200000,
			"user": {"username": "uploader"},
			"media": {"transcodings": [
				{"url": "https://api-v2.soundcloud.com/media/102/hls", "format": {"protocol": "hls"}}
			]}
		}`))
	}))

	_, err := p.ResolveStream(context.Background(), "102", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no progressive transcoding")
}

func TestTrackDetails_NotFound(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := p.TrackDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}
