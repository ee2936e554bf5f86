package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

const canonicalTarget = "https://www.facebook.com/watch/?v=123"

// clientFunc adapts a function to HTTPClient
type clientFunc func(req *http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestResolver(t *testing.T, srv *httptest.Server) *Resolver {
	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return NewResolverWithClient(client, DefaultMaxHops, 5*time.Second, zaptest.NewLogger(t))
}

func TestResolveFollowsChainToCanonicalHost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, canonicalTarget, http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got := newTestResolver(t, srv).Resolve(context.Background(), srv.URL+"/a")
	assert.Equal(t, canonicalTarget, got)
}

func TestResolveEndlessChainReturnsOriginal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	original := srv.URL + "/start"
	got := newTestResolver(t, srv).Resolve(context.Background(), original)

	assert.Equal(t, original, got)
	assert.Equal(t, int32(DefaultMaxHops), hits.Load())
}

func TestResolveTransportErrorReturnsOriginal(t *testing.T) {
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	r := NewResolverWithClient(client, DefaultMaxHops, time.Second, zaptest.NewLogger(t))

	original := "https://fb.watch/abc/"
	assert.Equal(t, original, r.Resolve(context.Background(), original))
}

func TestResolveMissingLocationReturnsPreHopURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got := newTestResolver(t, srv).Resolve(context.Background(), srv.URL+"/a")
	assert.Equal(t, srv.URL+"/b", got)
}

func TestResolveNonRedirectOffCanonicalHostReturnsOriginal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	original := srv.URL + "/a"
	got := newTestResolver(t, srv).Resolve(context.Background(), original)
	assert.Equal(t, original, got)
}

func TestResolveCanonicalInputWithoutRedirect(t *testing.T) {
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("ok")),
			Request:    req,
		}, nil
	})
	r := NewResolverWithClient(client, DefaultMaxHops, time.Second, zaptest.NewLogger(t))

	assert.Equal(t, canonicalTarget, r.Resolve(context.Background(), canonicalTarget))
}

func TestResolveSendsBrowserHeaders(t *testing.T) {
	var userAgent string
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		userAgent = req.Header.Get("User-Agent")
		header := http.Header{}
		header.Set("Location", canonicalTarget)
		return &http.Response{
			StatusCode: http.StatusFound,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader("")),
			Request:    req,
		}, nil
	})
	r := NewResolverWithClient(client, DefaultMaxHops, time.Second, zaptest.NewLogger(t))

	assert.Equal(t, canonicalTarget, r.Resolve(context.Background(), "https://fb.watch/abc/"))
	assert.Contains(t, userAgent, "Mozilla/5.0")
}

func TestResolveRespectsTimeout(t *testing.T) {
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	r := NewResolverWithClient(client, DefaultMaxHops, 50*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	original := "https://fb.watch/slow/"
	assert.Equal(t, original, r.Resolve(context.Background(), original))
	assert.Less(t, time.Since(start), 2*time.Second)
}
