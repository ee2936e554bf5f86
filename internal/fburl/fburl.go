package fburl

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// CanonicalHost is the host every facebook.com variant is rewritten to
	CanonicalHost = "www.facebook.com"
	// ShortLinkHost serves redirecting short links
	ShortLinkHost = "fb.watch"
)

const fbHost = `(?i)^https?://(?:www\.|web\.|m\.)?facebook\.com`

// videoParam matches a numeric v parameter anywhere in the query
const videoParam = `\?(?:[^#]*&)?v=\d+`

// allowList holds every URL shape accepted as a Facebook video
var allowList = []*regexp.Regexp{
	regexp.MustCompile(fbHost + `/watch/?` + videoParam),
	regexp.MustCompile(fbHost + `/watch/live/?` + videoParam),
	regexp.MustCompile(fbHost + `/video\.php` + videoParam),
	regexp.MustCompile(fbHost + `/[^?#]+?/videos/(?:[^/?#]+/)?\d+`),
	regexp.MustCompile(`(?i)^https?://fb\.watch/[a-zA-Z0-9_-]+/?`),
	regexp.MustCompile(fbHost + `/reel/\d+`),
	regexp.MustCompile(fbHost + `/[^?#]+?/posts/(?:\d+|pfbid[a-zA-Z0-9]+)`),
	regexp.MustCompile(fbHost + `/share/[vr]/[a-zA-Z0-9_-]+/?`),
}

var (
	trackingParams = regexp.MustCompile(`(?i)[&?](?:fbclid|ref|source|__tn__|__cft__(?:\[\d+\]|%5B\d+%5D)?|hash|mibextid)=[^&]*`)
	alternateHosts = regexp.MustCompile(`(?i)^(https?://)(?:web|m)\.facebook\.com`)
)

// Validate reports whether raw is a Facebook video URL of a known shape
func Validate(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}

	for _, re := range allowList {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// Normalize strips tracking parameters from the query and rewrites mobile
// and legacy web hosts to the canonical one. The path and fragment are left
// untouched. Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)

	u, fragment, hasFragment := strings.Cut(u, "#")
	base, query, hasQuery := strings.Cut(u, "?")

	u = base
	if hasQuery {
		// the leading '?' lets the first parameter match like the others
		query = trackingParams.ReplaceAllString("?"+query, "")
		query = strings.TrimRight(strings.TrimLeft(query, "?&"), "&")
		if query != "" {
			u += "?" + query
		}
	}
	if hasFragment {
		u += "#" + fragment
	}

	return alternateHosts.ReplaceAllString(u, "${1}"+CanonicalHost)
}

// IsShortLink reports whether raw points at the short-link host
func IsShortLink(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), ShortLinkHost)
}

// IsCanonicalHost reports whether host is facebook.com or one of its subdomains
func IsCanonicalHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "facebook.com" || strings.HasSuffix(host, ".facebook.com")
}
