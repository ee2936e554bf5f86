package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/ratelimit"
)

// requestLogger logs each request through zap and records HTTP metrics
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			duration := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			s.metrics.ObserveRequest(r.Method, route, status, duration)
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", duration),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("client", ratelimit.ClientID(r)),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// rateLimit rejects clients that exceeded the sliding-window limit
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientID := ratelimit.ClientID(r)
		if !s.limiter.Admit(r.Context(), clientID) {
			window := int(s.limiter.Window().Seconds())

			s.metrics.IncRateLimited()
			s.logger.Info("rate limit exceeded", zap.String("client", clientID))

			w.Header().Set("Retry-After", strconv.Itoa(window))
			apperrors.Write(w, s.logger, apperrors.RateLimitExceeded(s.limiter.Max(), window))
			return
		}

		next.ServeHTTP(w, r)
	})
}
