package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient identifies requests with no usable address
const UnknownClient = "unknown"

// ClientID identifies the caller by the first X-Forwarded-For entry, then by
// the peer address
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if r.RemoteAddr == "" {
		return UnknownClient
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return UnknownClient
	}
	return host
}
