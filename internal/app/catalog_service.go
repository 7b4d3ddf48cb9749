package app

import (
	"context"

	"go.uber.org/zap"

	"kaleidoscope/internal/adapters"
	"kaleidoscope/internal/domain"
	"kaleidoscope/internal/ports"
)

// CatalogService dispatches aggregation requests to the catalog named in the
// request. Stream requests for catalogs that host no audio go through the
// cross-catalog resolver.
type CatalogService struct {
	registry *adapters.CatalogRegistry
	resolver *Resolver
	log      *zap.Logger
}

// NewCatalogService creates the aggregation service.
func NewCatalogService(registry *adapters.CatalogRegistry, resolver *Resolver, log *zap.Logger) *CatalogService {
	return &CatalogService{
		registry: registry,
		resolver: resolver,
		log:      log,
	}
}

// Search runs a catalog search. Upstream failures degrade to an empty result
// set; only an unsupported catalog name is an error, because that is caller
// input, not upstream weather.
func (s *CatalogService) Search(ctx context.Context, catalog, query string, limit int) ([]domain.Track, error) {
	provider, err := s.registry.Get(catalog)
	if err != nil {
		return nil, err
	}

	tracks, err := provider.Search(ctx, query, limit)
	if err != nil {
		s.log.Warn("catalog search failed",
			zap.String("catalog", catalog),
			zap.String("query", query),
			zap.Error(err))
		return []domain.Track{}, nil
	}
	if tracks == nil {
		tracks = []domain.Track{}
	}
	return tracks, nil
}

// TrackDetails returns the normalized track for a catalog id. Every upstream
// failure collapses to domain.ErrTrackNotFound; the underlying cause is
// logged, not surfaced.
func (s *CatalogService) TrackDetails(ctx context.Context, catalog, id string) (*domain.Track, error) {
	provider, err := s.registry.Get(catalog)
	if err != nil {
		return nil, err
	}

	track, err := provider.TrackDetails(ctx, id)
	if err != nil {
		s.log.Warn("track details lookup failed",
			zap.String("catalog", catalog),
			zap.String("trackId", id),
			zap.Error(err))
		return nil, domain.ErrTrackNotFound
	}
	return track, nil
}

// ResolveStream returns a playable URL for a track. Catalogs that host audio
// resolve directly; the licensed catalog goes through the resolver's fallback
// chain using the track's details as the matching target.
func (s *CatalogService) ResolveStream(ctx context.Context, catalog, id string) (*domain.StreamResult, error) {
	provider, err := s.registry.Get(catalog)
	if err != nil {
		return nil, err
	}

	if source, ok := provider.(ports.StreamSource); ok {
		return source.ResolveStream(ctx, id, nil)
	}

	track, err := provider.TrackDetails(ctx, id)
	if err != nil {
		s.log.Warn("details lookup before cross-catalog resolution failed",
			zap.String("catalog", catalog),
			zap.String("trackId", id),
			zap.Error(err))
		return nil, domain.ErrTrackNotFound
	}
	return s.resolver.Resolve(ctx, track)
}
