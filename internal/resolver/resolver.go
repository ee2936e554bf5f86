package resolver

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"fbvideodl/internal/fburl"
	"fbvideodl/internal/httputil"
)

const (
	DefaultMaxHops = 5
	DefaultTimeout = 15 * time.Second
)

// HTTPClient interface for mocking
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver follows short-link redirects hop by hop until it reaches the
// canonical host
type Resolver struct {
	client  HTTPClient
	maxHops int
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver creates a resolver with a client that does not follow redirects
func NewResolver(timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewResolverWithClient(httputil.NewNoRedirectClient(0), DefaultMaxHops, timeout, logger)
}

// NewResolverWithClient creates a resolver with a custom HTTP client. The
// client must not follow redirects itself.
func NewResolverWithClient(client HTTPClient, maxHops int, timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:  client,
		maxHops: maxHops,
		timeout: timeout,
		logger:  logger.Named("resolver"),
	}
}

// Resolve returns the canonical URL shortURL redirects to. It never fails:
// when the chain cannot be followed to a usable URL the input is returned.
func (r *Resolver) Resolve(ctx context.Context, shortURL string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	current := shortURL
	for hop := 0; hop < r.maxHops; hop++ {
		next, redirected, err := r.hop(ctx, current)
		if err != nil {
			r.logger.Warn("redirect resolution failed",
				zap.String("url", shortURL),
				zap.Int("hop", hop+1),
				zap.Error(err),
			)
			return shortURL
		}

		if !redirected {
			if isCanonical(current) {
				return current
			}
			return shortURL
		}
		if next == "" {
			// redirect status without a Location header
			return current
		}
		if isCanonical(next) {
			return next
		}
		current = next
	}

	r.logger.Warn("redirect hop limit reached",
		zap.String("url", shortURL),
		zap.Int("max_hops", r.maxHops),
	)
	return shortURL
}

// hop issues one GET and reports the absolute redirect target, if any
func (r *Resolver) hop(ctx context.Context, current string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
	if err != nil {
		return "", false, err
	}
	httputil.SetBrowserHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", false, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", true, nil
	}

	base, err := url.Parse(current)
	if err != nil {
		return "", false, err
	}
	target, err := base.Parse(location)
	if err != nil {
		return "", false, err
	}
	return target.String(), true, nil
}

func isCanonical(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return fburl.IsCanonicalHost(u.Host)
}
