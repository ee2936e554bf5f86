package extractor

import (
	"fmt"

	"fbvideodl/pkg/models"
)

// Selector returns the engine format selector for a quality hint. Each
// selector prefers mp4 video merged with m4a audio and degrades to any
// single file.
func Selector(q models.Quality) string {
	switch q {
	case models.QualityWorst:
		return "worst[ext=mp4]+bestaudio[ext=m4a]/worst[ext=mp4]/worst"
	case models.Quality360p, models.Quality720p, models.Quality1080p:
		h := q.MaxHeight()
		return fmt.Sprintf("best[height<=%d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%d][ext=mp4]/best[height<=%d]", h, h, h)
	default:
		return "best[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
}
