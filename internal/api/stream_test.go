package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/metrics"
	"fbvideodl/pkg/models"
)

var videoBytes = bytes.Repeat([]byte("0123456789"), 1000)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("INTERNAL-SECRET"))
	}))
	t.Cleanup(internal.Close)
	// same listener under a host name that is not on the allow-list
	internalURL := strings.Replace(internal.URL, "127.0.0.1", "localhost", 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/moved.mp4", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/video.mp4", http.StatusFound)
	})
	mux.HandleFunc("/escape.mp4", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internalURL+"/secret", http.StatusFound)
	})
	mux.HandleFunc("/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeContent(w, r, "video.mp4", time.Time{}, bytes.NewReader(videoBytes))
	})
	mux.HandleFunc("/missing.mp4", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/huge.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", strconv.Itoa(2<<20))
		w.Write(bytes.Repeat([]byte{0}, 2<<20))
	})

	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	return upstream
}

func newStreamServer(t *testing.T, upstream *httptest.Server) (*Server, *metrics.Metrics) {
	t.Helper()

	cfg := testConfig()
	cfg.StreamAllowedHosts = "127.0.0.1"
	cfg.MaxVideoSizeMB = 1

	m := metrics.New()
	server := NewServer(cfg, Options{
		Service:      &stubLookup{},
		StreamClient: upstream.Client(),
		Metrics:      m,
		Logger:       zaptest.NewLogger(t),
	})
	return server, m
}

func streamRequest(id, target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/stream/"+id+"?url="+url.QueryEscape(target), nil)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStreamProxiesBody(t *testing.T) {
	upstream := newUpstream(t)
	server, m := newStreamServer(t, upstream)

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, streamRequest("abc123", upstream.URL+"/video.mp4"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, videoBytes, w.Body.Bytes())
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="abc123.mp4"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "10000", w.Header().Get("Content-Length"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	m.Handler().ServeHTTP(mw, req)
	assert.Contains(t, mw.Body.String(), "fbvideodl_streamed_bytes_total 10000")
}

func TestStreamFollowsAllowedRedirect(t *testing.T) {
	upstream := newUpstream(t)
	server, _ := newStreamServer(t, upstream)

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, streamRequest("abc", upstream.URL+"/moved.mp4"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, videoBytes, w.Body.Bytes())
}

func TestStreamForwardsRange(t *testing.T) {
	upstream := newUpstream(t)
	server, _ := newStreamServer(t, upstream)

	req := streamRequest("abc", upstream.URL+"/video.mp4")
	req.Header.Set("Range", "bytes=0-9")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "0123456789", w.Body.String())
	assert.Equal(t, "bytes 0-9/10000", w.Header().Get("Content-Range"))
}

func TestStreamSanitizesFilename(t *testing.T) {
	upstream := newUpstream(t)
	server, _ := newStreamServer(t, upstream)

	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, streamRequest("a%22b", upstream.URL+"/video.mp4"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, strings.TrimSuffix(strings.TrimPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="`), `"`), `"`)
}

func TestStreamErrors(t *testing.T) {
	upstream := newUpstream(t)
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"missing url", "", http.StatusBadRequest, apperrors.CodeInvalidRequest},
		{"disallowed host", "https://example.com/video.mp4", http.StatusBadRequest, apperrors.CodeInvalidRequest},
		{"non http scheme", "file:///etc/passwd", http.StatusBadRequest, apperrors.CodeInvalidRequest},
		{"upstream not found", upstream.URL + "/missing.mp4", http.StatusBadGateway, apperrors.CodeUpstreamFetchFailed},
		{"upstream unreachable", closedURL + "/video.mp4", http.StatusBadGateway, apperrors.CodeUpstreamFetchFailed},
		{"too large", upstream.URL + "/huge.mp4", http.StatusRequestEntityTooLarge, apperrors.CodeVideoTooLarge},
		{"redirect off the allow-list", upstream.URL + "/escape.mp4", http.StatusBadGateway, apperrors.CodeUpstreamFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newStreamServer(t, upstream)

			req := httptest.NewRequest(http.MethodGet, "/stream/abc", nil)
			if tt.target != "" {
				req = streamRequest("abc", tt.target)
			}
			w := httptest.NewRecorder()
			server.router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "INTERNAL-SECRET")
			resp := decodeError(t, w)
			assert.Equal(t, models.StatusError, resp.Status)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
		})
	}
}

func TestTotalSize(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		want int64
	}{
		{"full body", &http.Response{StatusCode: 200, ContentLength: 42, Header: http.Header{}}, 42},
		{"unknown length", &http.Response{StatusCode: 200, ContentLength: -1, Header: http.Header{}}, -1},
		{
			"partial content",
			&http.Response{StatusCode: 206, ContentLength: 10, Header: http.Header{"Content-Range": {"bytes 0-9/5000"}}},
			5000,
		},
		{
			"partial content unknown total",
			&http.Response{StatusCode: 206, ContentLength: 10, Header: http.Header{"Content-Range": {"bytes 0-9/*"}}},
			10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, totalSize(tt.resp))
		})
	}
}
