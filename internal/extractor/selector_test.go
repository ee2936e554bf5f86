package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fbvideodl/pkg/models"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		quality models.Quality
		want    string
	}{
		{models.QualityBest, "best[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"},
		{models.QualityWorst, "worst[ext=mp4]+bestaudio[ext=m4a]/worst[ext=mp4]/worst"},
		{models.Quality360p, "best[height<=360][ext=mp4]+bestaudio[ext=m4a]/best[height<=360][ext=mp4]/best[height<=360]"},
		{models.Quality720p, "best[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best[height<=720]"},
		{models.Quality1080p, "best[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/best[height<=1080]"},
	}

	for _, tt := range tests {
		t.Run(string(tt.quality), func(t *testing.T) {
			assert.Equal(t, tt.want, Selector(tt.quality))
		})
	}
}

func TestSelectorsAreDistinct(t *testing.T) {
	seen := make(map[string]models.Quality)
	for _, q := range models.Qualities() {
		sel := Selector(q)
		if prev, ok := seen[sel]; ok {
			t.Fatalf("%s and %s share selector %q", prev, q, sel)
		}
		seen[sel] = q
	}
}
