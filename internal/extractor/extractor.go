package extractor

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/metrics"
	"fbvideodl/pkg/models"
)

const unknownTitle = "Unknown Title"

// Runner executes an engine call, typically through a Pool
type Runner interface {
	Do(ctx context.Context, url, selector string) (*RawInfo, error)
}

// Extractor adapts the engine to the application's result and error types
type Extractor struct {
	runner  Runner
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewExtractor creates an extractor. A zero timeout leaves the deadline to
// the caller's context.
func NewExtractor(runner Runner, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		runner:  runner,
		timeout: timeout,
		metrics: m,
		logger:  logger.Named("extractor"),
	}
}

// Extract fetches metadata and ranked formats for a normalized URL
func (e *Extractor) Extract(ctx context.Context, url string, quality models.Quality) (*models.ExtractionResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.runner.Do(ctx, url, Selector(quality))
	elapsed := time.Since(start)

	if err != nil {
		appErr := Classify(err, url)
		e.metrics.ObserveExtraction(appErr.Code, elapsed)

		fields := []zap.Field{
			zap.String("url", url),
			zap.String("code", appErr.Code),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		}
		if appErr.Status >= http.StatusInternalServerError {
			e.logger.Error("extraction failed", fields...)
		} else {
			e.logger.Info("extraction rejected", fields...)
		}
		return nil, appErr
	}

	if raw == nil {
		e.metrics.ObserveExtraction(apperrors.CodeNoVideoFound, elapsed)
		return nil, apperrors.NoVideoFound()
	}

	e.metrics.ObserveExtraction("success", elapsed)
	return BuildResult(raw), nil
}

// BuildResult shapes the engine's output into an ExtractionResult
func BuildResult(raw *RawInfo) *models.ExtractionResult {
	title := unknownTitle
	if raw.Title != nil && *raw.Title != "" {
		title = *raw.Title
	}

	downloadURL := raw.URL
	if downloadURL == "" {
		for _, f := range raw.RequestedFormats {
			if f.URL != "" {
				downloadURL = f.URL
				break
			}
		}
	}

	return &models.ExtractionResult{
		Info: models.VideoInfo{
			Title:      title,
			Duration:   raw.Duration,
			Thumbnail:  raw.Thumbnail,
			Uploader:   raw.Uploader,
			ViewCount:  raw.ViewCount,
			UploadDate: raw.UploadDate,
		},
		DownloadURL: downloadURL,
		Formats:     Rank(raw.Formats),
	}
}
