package models

import (
	"errors"
	"strings"
)

var ErrUnknownQuality = errors.New("unknown quality")

// Quality is the caller's resolution preference
type Quality string

const (
	QualityBest  Quality = "best"
	QualityWorst Quality = "worst"
	Quality360p  Quality = "360p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
)

// Qualities returns all supported qualities in display order
func Qualities() []Quality {
	return []Quality{QualityBest, QualityWorst, Quality360p, Quality720p, Quality1080p}
}

// ParseQuality parses a quality hint. An empty string means best.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return QualityBest, nil
	}
	for _, q := range Qualities() {
		if string(q) == s {
			return q, nil
		}
	}
	return "", ErrUnknownQuality
}

// MaxHeight returns the resolution cap for the quality, or 0 when uncapped
func (q Quality) MaxHeight() int {
	switch q {
	case Quality360p:
		return 360
	case Quality720p:
		return 720
	case Quality1080p:
		return 1080
	default:
		return 0
	}
}

// Description returns a human readable description of the quality
func (q Quality) Description() string {
	switch q {
	case QualityBest:
		return "Best available quality"
	case QualityWorst:
		return "Worst available quality"
	case Quality360p:
		return "360p resolution"
	case Quality720p:
		return "720p resolution"
	case Quality1080p:
		return "1080p resolution"
	default:
		return "unknown"
	}
}

// VideoRequest is a validated lookup request
type VideoRequest struct {
	URL     string
	Quality Quality
}

// VideoInfo represents video metadata. Optional fields stay nil when the
// engine did not report them.
type VideoInfo struct {
	Title      string   `json:"title"`
	Duration   *float64 `json:"duration"`
	Thumbnail  *string  `json:"thumbnail"`
	Uploader   *string  `json:"uploader"`
	ViewCount  *int64   `json:"view_count"`
	UploadDate *string  `json:"upload_date"`
}

// FormatDescriptor is one downloadable media variant
type FormatDescriptor struct {
	Quality  string `json:"quality"`
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	FileSize *int64 `json:"filesize"`
	URL      string `json:"url"`
}

// ExtractionResult is the outcome of a single extraction
type ExtractionResult struct {
	Info        VideoInfo
	DownloadURL string
	Formats     []FormatDescriptor
}
