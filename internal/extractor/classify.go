package extractor

import (
	"errors"
	"net/http"
	"strings"

	"fbvideodl/internal/apperrors"
	"fbvideodl/internal/fburl"
)

const (
	msgShortLinkRedirect = "fb.watch URL couldn't be processed. Please try: 1) Open the video on Facebook, 2) Copy the full facebook.com URL from the address bar, 3) Use that URL instead."
	msgRedirect          = "Video URL has redirect issues. Try copying the direct Facebook video URL."
	msgUnavailable       = "This video is private or not available for download."
	msgRestricted        = "This video has age restrictions and cannot be downloaded."
	msgProcessing        = "An error occurred while processing the video"
)

// matcher maps engine diagnostics containing any of patterns to an error
type matcher struct {
	kind     apperrors.Kind
	code     string
	patterns []string
	message  func(url string) string
}

func constMessage(msg string) func(string) string {
	return func(string) string { return msg }
}

// matchers are evaluated in order; the first hit wins
var matchers = []matcher{
	{
		kind:     apperrors.KindRedirectUnresolved,
		code:     apperrors.CodeRedirectUnresolved,
		patterns: []string{"redirect loop", "redirect", "302"},
		message: func(url string) string {
			if strings.Contains(strings.ToLower(url), fburl.ShortLinkHost) {
				return msgShortLinkRedirect
			}
			return msgRedirect
		},
	},
	{
		kind:     apperrors.KindContentUnavailable,
		code:     apperrors.CodeContentUnavailable,
		patterns: []string{"private", "not available", "unavailable"},
		message:  constMessage(msgUnavailable),
	},
	{
		kind:     apperrors.KindContentUnavailable,
		code:     apperrors.CodeRestrictedContent,
		patterns: []string{"age-restricted", "age restricted", "age limit", "confirm your age", "inappropriate for some users"},
		message:  constMessage(msgRestricted),
	},
}

// Classify maps an extraction failure for url onto the error taxonomy
func Classify(err error, url string) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		return apperrors.New(apperrors.KindExtractionFailed, apperrors.CodeProcessingError,
			msgProcessing, http.StatusInternalServerError).WithCause(err)
	}

	text := strings.ToLower(engineErr.Message)
	for _, m := range matchers {
		for _, p := range m.patterns {
			if strings.Contains(text, p) {
				return apperrors.New(m.kind, m.code, m.message(url), http.StatusBadRequest).WithCause(err)
			}
		}
	}

	return apperrors.New(apperrors.KindExtractionFailed, apperrors.CodeExtractionFailed,
		"Could not extract video: "+engineErr.Message, http.StatusBadRequest).WithCause(err)
}
