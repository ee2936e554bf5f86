package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fbvideodl/internal/extractor"
	"fbvideodl/internal/metrics"
	"fbvideodl/internal/ratelimit"
	"fbvideodl/internal/resolver"
	"fbvideodl/internal/service"
	"fbvideodl/pkg/models"
)

// stubLookup returns a canned result or error
type stubLookup struct {
	result *models.ExtractionResult
	err    error
	calls  atomic.Int32
	last   models.VideoRequest
}

func (s *stubLookup) Lookup(_ context.Context, req models.VideoRequest) (*models.ExtractionResult, error) {
	s.calls.Add(1)
	s.last = req
	return s.result, s.err
}

// stubEngine returns the same info for every URL
type stubEngine struct {
	info *extractor.RawInfo
	err  error
}

func (e *stubEngine) Extract(context.Context, string, string) (*extractor.RawInfo, error) {
	return e.info, e.err
}

func testConfig() *models.Config {
	cfg := models.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *models.Config, lookup VideoLookup) *Server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryLedger(), cfg.RateLimitRequests, cfg.RateLimitWindowDuration(), logger)

	return NewServer(cfg, Options{
		Service: lookup,
		Limiter: limiter,
		Metrics: metrics.New(),
		Logger:  logger,
	})
}

// newPipelineServer wires the real service, extractor and pool around engine
func newPipelineServer(t *testing.T, engine extractor.Engine) *Server {
	t.Helper()

	cfg := testConfig()
	logger := zaptest.NewLogger(t)
	m := metrics.New()

	pool := extractor.NewPool(engine, 2, 4, m, logger)
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Stop() })

	ext := extractor.NewExtractor(pool, 5*time.Second, m, logger)
	svc := service.NewVideoService(resolver.NewResolver(time.Second, logger), ext, m, logger)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryLedger(), cfg.RateLimitRequests, cfg.RateLimitWindowDuration(), logger)

	return NewServer(cfg, Options{
		Service: svc,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
	})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }
