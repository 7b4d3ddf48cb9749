// Package app contains the application services wiring the catalog adapters,
// the cross-catalog resolver, and the account services together.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

const (
	// uploadCandidates is how many upload-catalog results the resolver scans.
	uploadCandidates = 5

	// earlyExitDiffMs stops the candidate scan: a match this close will not
	// be beaten by enough to matter.
	earlyExitDiffMs = 5000

	// acceptDiffMs is the widest duration gap still accepted as the same
	// recording on the upload catalog.
	acceptDiffMs = 10000

	// verifyDiffMs is the widest duration gap tolerated when a video match
	// can be verified. Verification failing open (details unavailable) still
	// accepts the match; verification failing the check rejects it.
	verifyDiffMs = 15000
)

// Resolver finds a playable stream for a licensed-catalog track by matching
// it against the catalogs that do host audio. Strategies run in order and the
// first hit wins: upload-catalog duration match, video-catalog search, then
// the track's own preview clip.
type Resolver struct {
	upload ports.StreamSource
	video  ports.QueryStreamSource
	log    *zap.Logger
}

// NewResolver creates a resolver over the two stream-capable catalogs.
func NewResolver(upload ports.StreamSource, video ports.QueryStreamSource, log *zap.Logger) *Resolver {
	return &Resolver{upload: upload, video: video, log: log}
}

// Resolve runs the fallback chain for a licensed track. It returns
// domain.ErrNoStream when every strategy comes up empty.
func (r *Resolver) Resolve(ctx context.Context, track *domain.Track) (*domain.StreamResult, error) {
	if track == nil {
		return nil, domain.ErrNoStream
	}

	strategies := []func(context.Context, *domain.Track) *domain.StreamResult{
		r.uploadMatch,
		r.videoMatch,
		r.previewClip,
	}
	for _, strategy := range strategies {
		if result := strategy(ctx, track); result != nil {
			return result, nil
		}
	}

	r.log.Info("no stream found for track",
		zap.String("trackId", track.ID),
		zap.String("artist", track.Artist),
		zap.String("title", track.Title))
	return nil, fmt.Errorf("%w: %s - %s", domain.ErrNoStream, track.Artist, track.Title)
}

// uploadMatch searches the upload catalog and picks the candidate whose
// duration is closest to the target. The scan keeps the first minimum (a
// later tie never displaces an earlier candidate) and stops as soon as a
// candidate lands within the early-exit window.
func (r *Resolver) uploadMatch(ctx context.Context, track *domain.Track) *domain.StreamResult {
	query := fmt.Sprintf("%s %s", primaryArtist(track.Artist), track.Title)

	candidates, err := r.upload.Search(ctx, query, uploadCandidates)
	if err != nil {
		r.log.Warn("upload catalog search failed during resolution",
			zap.String("query", query), zap.Error(err))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	targetMs := durationMs(track)

	var best *domain.Track
	minDiff := int(^uint(0) >> 1)
	for i := range candidates {
		diff := targetMs - durationMs(&candidates[i])
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			best = &candidates[i]
		}
		if diff <= earlyExitDiffMs {
			break
		}
	}

	if best == nil || minDiff > acceptDiffMs {
		r.log.Debug("no upload candidate within acceptance window",
			zap.String("query", query), zap.Int("minDiffMs", minDiff))
		return nil
	}

	stream, err := r.upload.ResolveStream(ctx, best.ID, best)
	if err != nil {
		r.log.Warn("upload candidate matched but stream resolution failed",
			zap.String("candidateId", best.ID), zap.Error(err))
		return nil
	}

	stream.MatchedVia = &domain.MatchRef{TrackID: best.ID, Source: best.Source}
	return stream
}

// videoMatch resolves a stream through the video catalog's query path and
// verifies the match by duration when details are obtainable. An unverifiable
// match is accepted; a verified mismatch is not.
func (r *Resolver) videoMatch(ctx context.Context, track *domain.Track) *domain.StreamResult {
	query := fmt.Sprintf("%s - %s", primaryArtist(track.Artist), track.Title)

	stream, videoID, err := r.video.ResolveStreamByQuery(ctx, query)
	if err != nil {
		r.log.Debug("video catalog resolution failed",
			zap.String("query", query), zap.Error(err))
		return nil
	}

	if videoID != "" {
		if details, err := r.video.TrackDetails(ctx, videoID); err == nil && details != nil {
			diff := durationMs(track) - durationMs(details)
			if diff < 0 {
				diff = -diff
			}
			if diff > verifyDiffMs {
				r.log.Debug("video match rejected by duration verification",
					zap.String("videoId", videoID), zap.Int("diffMs", diff))
				return nil
			}
		}
		stream.MatchedVia = &domain.MatchRef{TrackID: videoID, Source: domain.SourceYouTube}
	}

	return stream
}

// previewClip serves the licensed catalog's short preview, clearly typed so
// clients can tell it apart from a full stream.
func (r *Resolver) previewClip(_ context.Context, track *domain.Track) *domain.StreamResult {
	if track.PreviewURL == "" {
		return nil
	}
	return &domain.StreamResult{
		URL:    track.PreviewURL,
		Type:   domain.StreamAudioPreview,
		Source: track.Source,
	}
}

// primaryArtist reduces a joined artist list to its first name for
// cross-catalog search queries; the full join depresses match rates on
// multi-artist tracks.
func primaryArtist(artist string) string {
	if i := strings.Index(artist, ", "); i > 0 {
		return artist[:i]
	}
	return artist
}

// durationMs prefers the exact millisecond figure when the catalog supplied
// one and falls back to whole seconds.
func durationMs(track *domain.Track) int {
	if track.DurationMillis > 0 {
		return track.DurationMillis
	}
	return track.DurationSeconds * 1000
}
