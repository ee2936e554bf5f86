package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// Engine runs the external extractor for one URL
type Engine interface {
	// Extract returns the engine's metadata for url using the format
	// selector. A nil info with a nil error means the engine found nothing.
	Extract(ctx context.Context, url, selector string) (*RawInfo, error)
}

// EngineError is a diagnostic reported by the engine itself, as opposed to a
// failure to run it
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// RawInfo is the subset of the engine's JSON output the service reads
type RawInfo struct {
	Title            *string     `json:"title"`
	Duration         *float64    `json:"duration"`
	Thumbnail        *string     `json:"thumbnail"`
	Uploader         *string     `json:"uploader"`
	ViewCount        *int64      `json:"view_count"`
	UploadDate       *string     `json:"upload_date"`
	URL              string      `json:"url"`
	Formats          []RawFormat `json:"formats"`
	RequestedFormats []RawFormat `json:"requested_formats"`
}

// RawFormat is one entry of the engine's formats list
type RawFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   *Height `json:"height"`
	FileSize *int64  `json:"filesize"`
	URL      string  `json:"url"`
}

// Height is a format height that the engine reports as a number or, for
// some formats, as an arbitrary string
type Height struct {
	Value int
	Label string
}

func (h *Height) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if n, err := strconv.Atoi(s); err == nil {
			h.Value = n
			return nil
		}
		h.Label = s
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	h.Value = int(f)
	return nil
}

// Present reports whether the height carries any information
func (h *Height) Present() bool {
	return h != nil && (h.Value > 0 || h.Label != "")
}

// Numeric reports whether the height is a number
func (h *Height) Numeric() bool {
	return h != nil && h.Label == "" && h.Value > 0
}

// ParseRawInfo decodes the engine's JSON output. A literal null yields nil.
func ParseRawInfo(data []byte) (*RawInfo, error) {
	var info *RawInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return info, nil
}
