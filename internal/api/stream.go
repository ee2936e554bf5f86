package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/httputil"
)

const streamBufferSize = 32 * 1024

// handleStream proxies a media URL back to the caller as a download
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	target := r.URL.Query().Get("url")
	if target == "" {
		apperrors.Write(w, s.logger, apperrors.InvalidRequest("Missing url query parameter"))
		return
	}

	if err := httputil.ValidateMediaURL(target, s.config.AllowedStreamHosts()); err != nil {
		apperrors.Write(w, s.logger, apperrors.InvalidRequest("Stream URL is not allowed").WithCause(err))
		return
	}

	timeout := s.config.StreamTimeout()
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		apperrors.Write(w, s.logger, apperrors.InvalidRequest("Stream URL is not allowed").WithCause(err))
		return
	}
	httputil.SetBrowserHeaders(req)
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.streamClient.Do(req)
	if err != nil {
		apperrors.Write(w, s.logger, apperrors.UpstreamFetchFailed("Failed to fetch video from source").WithCause(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		msg := fmt.Sprintf("Source returned status %d", resp.StatusCode)
		apperrors.Write(w, s.logger, apperrors.UpstreamFetchFailed(msg))
		return
	}

	limit := s.config.MaxVideoSizeBytes()
	if limit > 0 && totalSize(resp) > limit {
		apperrors.Write(w, s.logger, apperrors.VideoTooLarge(s.config.MaxVideoSizeMB))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)
	if resp.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	for _, h := range []string{"Accept-Ranges", "Content-Range"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mp4"`, httputil.SanitizeFilename(id)))

	// the server-wide write timeout is sized for JSON routes
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(timeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug("failed to extend write deadline", zap.Error(err))
	}

	w.WriteHeader(resp.StatusCode)

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit)
	}

	n, err := io.CopyBuffer(w, body, make([]byte, streamBufferSize))
	s.metrics.AddStreamedBytes(n)
	if err != nil {
		// headers are gone, nothing left to report to the caller
		s.logger.Info("stream interrupted",
			zap.String("id", id),
			zap.Int64("bytes", n),
			zap.Error(err),
		)
	}
}

// totalSize returns the full size of the upstream resource, or -1 when unknown
func totalSize(resp *http.Response) int64 {
	if resp.StatusCode == http.StatusPartialContent {
		// bytes start-end/total
		if _, total, ok := strings.Cut(resp.Header.Get("Content-Range"), "/"); ok && total != "*" {
			if n, err := strconv.ParseInt(total, 10, 64); err == nil {
				return n
			}
		}
	}
	return resp.ContentLength
}
