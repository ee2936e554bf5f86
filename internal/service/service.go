package service

import (
	"context"

	"go.uber.org/zap"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/fburl"
	"fbvideodl/internal/metrics"
	"fbvideodl/pkg/models"
)

const msgInvalidURL = "Invalid Facebook URL provided"

// Resolver expands short links
type Resolver interface {
	Resolve(ctx context.Context, shortURL string) string
}

// Extractor fetches metadata and formats for a normalized URL
type Extractor interface {
	Extract(ctx context.Context, url string, quality models.Quality) (*models.ExtractionResult, error)
}

// VideoService runs the lookup pipeline: validate, normalize, resolve short
// links, then extract
type VideoService struct {
	resolver  Resolver
	extractor Extractor
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewVideoService creates a new video service
func NewVideoService(resolver Resolver, extractor Extractor, m *metrics.Metrics, logger *zap.Logger) *VideoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{
		resolver:  resolver,
		extractor: extractor,
		metrics:   m,
		logger:    logger.Named("service"),
	}
}

// Prepare validates and normalizes a URL, resolving it when it is a short
// link. No network activity happens for an invalid URL.
func (s *VideoService) Prepare(ctx context.Context, raw string) (string, error) {
	if !fburl.Validate(raw) {
		return "", apperrors.InvalidURL(msgInvalidURL)
	}

	url := fburl.Normalize(raw)
	if !fburl.IsShortLink(url) {
		return url, nil
	}

	resolved := s.resolver.Resolve(ctx, url)
	if resolved == url {
		s.metrics.IncRedirect("unchanged")
		return url, nil
	}

	s.metrics.IncRedirect("resolved")
	s.logger.Debug("short link resolved", zap.String("from", url), zap.String("to", resolved))
	return fburl.Normalize(resolved), nil
}

// Lookup runs the full pipeline for a request
func (s *VideoService) Lookup(ctx context.Context, req models.VideoRequest) (*models.ExtractionResult, error) {
	url, err := s.Prepare(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	quality := req.Quality
	if quality == "" {
		quality = models.QualityBest
	}

	return s.extractor.Extract(ctx, url, quality)
}
