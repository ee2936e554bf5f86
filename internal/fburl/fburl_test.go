package fburl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"watch with slash", "https://www.facebook.com/watch/?v=123456789", true},
		{"watch without slash", "https://facebook.com/watch?v=1", true},
		{"watch live", "https://www.facebook.com/watch/live/?v=42", true},
		{"mobile watch", "https://m.facebook.com/watch/?v=1", true},
		{"web host", "https://web.facebook.com/watch/?v=1", true},
		{"upper case host", "HTTPS://WWW.FACEBOOK.COM/watch/?v=7", true},
		{"page video", "https://www.facebook.com/somepage/videos/123456789", true},
		{"page video with slug", "https://www.facebook.com/somepage/videos/my-clip/123456", true},
		{"video.php", "http://www.facebook.com/video.php?v=10153231379946729", true},
		{"short link", "https://fb.watch/abcDEF_12/", true},
		{"short link no slash", "https://fb.watch/x-Y", true},
		{"reel", "https://www.facebook.com/reel/987654321", true},
		{"post", "https://www.facebook.com/someone/posts/123", true},
		{"pfbid post", "https://www.facebook.com/someone/posts/pfbid02abcXYZ", true},
		{"share video", "https://www.facebook.com/share/v/1AbC2dE/", true},
		{"share reel", "https://www.facebook.com/share/r/xyz", true},
		{"watch with leading tracking param", "https://www.facebook.com/watch/?fbclid=abc&v=123", true},
		{"live with leading param", "https://m.facebook.com/watch/live/?ref=feed&v=9", true},
		{"video.php with later v", "https://www.facebook.com/video.php?t=3&v=42", true},
		{"ampersand in page path", "https://www.facebook.com/a&b/videos/123", true},

		{"empty", "", false},
		{"whitespace", "   ", false},
		{"not a url", "not a url", false},
		{"missing scheme", "www.facebook.com/watch/?v=1", false},
		{"other site", "https://www.youtube.com/watch?v=abc", false},
		{"profile page", "https://www.facebook.com/profile.php?id=1", false},
		{"non numeric id", "https://www.facebook.com/watch/?v=abc", false},
		{"v suffix of another param", "https://www.facebook.com/watch/?xv=1", false},
		{"v only in fragment", "https://www.facebook.com/watch/?t=1#&v=2", false},
		{"lookalike host", "https://evilfacebook.com/watch/?v=1", false},
		{"suffix host", "https://facebook.com.evil.com/watch/?v=1", false},
		{"ftp scheme", "ftp://www.facebook.com/watch/?v=1", false},
		{"bare home page", "https://www.facebook.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.url))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trailing tracking param",
			in:   "https://www.facebook.com/watch/?v=123&fbclid=abc",
			want: "https://www.facebook.com/watch/?v=123",
		},
		{
			name: "leading tracking param",
			in:   "https://www.facebook.com/watch/?fbclid=abc&v=123",
			want: "https://www.facebook.com/watch/?v=123",
		},
		{
			name: "middle tracking param",
			in:   "https://www.facebook.com/watch/?v=123&ref=sharing&t=10",
			want: "https://www.facebook.com/watch/?v=123&t=10",
		},
		{
			name: "only tracking params",
			in:   "https://web.facebook.com/reel/1?ref=sharing&mibextid=xyz",
			want: "https://www.facebook.com/reel/1",
		},
		{
			name: "indexed cft and tn",
			in:   "https://www.facebook.com/page/videos/1/?__cft__[0]=AZX&__tn__=-R",
			want: "https://www.facebook.com/page/videos/1/",
		},
		{
			name: "mobile host",
			in:   "https://m.facebook.com/watch/?v=123",
			want: "https://www.facebook.com/watch/?v=123",
		},
		{
			name: "short link untouched",
			in:   "https://fb.watch/abc/",
			want: "https://fb.watch/abc/",
		},
		{
			name: "surrounding whitespace",
			in:   "  https://www.facebook.com/reel/5?hash=q  ",
			want: "https://www.facebook.com/reel/5",
		},
		{
			name: "ampersand in path untouched",
			in:   "https://www.facebook.com/a&b/videos/123",
			want: "https://www.facebook.com/a&b/videos/123",
		},
		{
			name: "ampersand in path with tracking param",
			in:   "https://www.facebook.com/a&b/videos/123?fbclid=x&t=5",
			want: "https://www.facebook.com/a&b/videos/123?t=5",
		},
		{
			name: "fragment kept",
			in:   "https://www.facebook.com/watch/?v=1&ref=share#c",
			want: "https://www.facebook.com/watch/?v=1#c",
		},
		{
			name: "dangling ampersand",
			in:   "https://www.facebook.com/watch/?v=1&",
			want: "https://www.facebook.com/watch/?v=1",
		},
		{
			name: "dangling separator",
			in:   "https://www.facebook.com/reel/5?",
			want: "https://www.facebook.com/reel/5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestNormalizeKeepsValidity(t *testing.T) {
	urls := []string{
		"https://m.facebook.com/watch/?v=1&fbclid=x",
		"https://web.facebook.com/user/videos/55?source=feed",
		"https://www.facebook.com/share/v/abc/?mibextid=1",
		"https://www.facebook.com/watch/?fbclid=abc&v=123",
		"https://www.facebook.com/a&b/videos/123",
	}

	for _, u := range urls {
		assert.True(t, Validate(Normalize(u)), u)
	}
}

func TestIsShortLink(t *testing.T) {
	assert.True(t, IsShortLink("https://fb.watch/abc/"))
	assert.True(t, IsShortLink("https://FB.WATCH/abc"))
	assert.False(t, IsShortLink("https://www.facebook.com/watch/?v=1"))
	assert.False(t, IsShortLink("://bad"))
}

func TestIsCanonicalHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"facebook.com", true},
		{"www.facebook.com", true},
		{"M.Facebook.com", true},
		{"www.facebook.com:443", true},
		{"fb.watch", false},
		{"evilfacebook.com", false},
		{"facebook.com.evil.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCanonicalHost(tt.host))
		})
	}
}
