package extractor

import (
	"sort"
	"strconv"

	"fbvideodl/pkg/models"
)

const (
	// MaxFormats caps the number of formats returned to callers
	MaxFormats = 10

	defaultExt   = "mp4"
	unknownLabel = "unknown"
)

// Rank turns the engine's formats into descriptors ordered by height,
// highest first. Formats without a URL or a height are dropped. Formats
// of equal height keep the engine's order.
func Rank(raw []RawFormat) []models.FormatDescriptor {
	type ranked struct {
		height int
		desc   models.FormatDescriptor
	}

	eligible := make([]ranked, 0, len(raw))
	for _, f := range raw {
		if f.URL == "" || !f.Height.Present() {
			continue
		}

		quality := unknownLabel
		height := 0
		if f.Height.Numeric() {
			height = f.Height.Value
			quality = strconv.Itoa(height) + "p"
		}

		ext := f.Ext
		if ext == "" {
			ext = defaultExt
		}

		eligible = append(eligible, ranked{
			height: height,
			desc: models.FormatDescriptor{
				Quality:  quality,
				FormatID: f.FormatID,
				Ext:      ext,
				FileSize: f.FileSize,
				URL:      f.URL,
			},
		})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].height > eligible[j].height
	})

	if len(eligible) > MaxFormats {
		eligible = eligible[:MaxFormats]
	}

	formats := make([]models.FormatDescriptor, len(eligible))
	for i, r := range eligible {
		formats[i] = r.desc
	}
	return formats
}
