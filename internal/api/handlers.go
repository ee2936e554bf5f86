package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fbvideodl/internal/apperrors"
	"fbvideodl/pkg/models"
)

const maxBodyBytes = 64 << 10

// decodeVideoRequest reads and validates a /download or /info body
func decodeVideoRequest(w http.ResponseWriter, r *http.Request) (models.VideoRequest, error) {
	var body models.VideoRequestBody

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.VideoRequest{}, apperrors.InvalidRequest("Invalid request body").WithCause(err)
	}

	if strings.TrimSpace(body.URL) == "" {
		return models.VideoRequest{}, apperrors.InvalidURL("Invalid Facebook URL provided")
	}

	quality, err := models.ParseQuality(body.Quality)
	if err != nil {
		return models.VideoRequest{}, apperrors.InvalidRequest("Unsupported quality: " + body.Quality).WithCause(err)
	}

	return models.VideoRequest{URL: body.URL, Quality: quality}, nil
}

// lookup runs the pipeline and writes the error envelope on failure
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.ExtractionResult, bool) {
	req, err := decodeVideoRequest(w, r)
	if err != nil {
		apperrors.Write(w, s.logger, err)
		return nil, false
	}

	result, err := s.service.Lookup(r.Context(), req)
	if err != nil {
		appErr := apperrors.As(err)
		if appErr.Status < http.StatusInternalServerError {
			s.logger.Info("lookup rejected",
				zap.String("url", req.URL),
				zap.String("code", appErr.Code),
				zap.Error(appErr.Cause),
			)
		}
		apperrors.Write(w, s.logger, appErr)
		return nil, false
	}

	return result, true
}

// handleDownload handles video download URL requests
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	result, ok := s.lookup(w, r)
	if !ok {
		return
	}

	info := result.Info
	apperrors.WriteJSON(w, http.StatusOK, models.VideoResponse{
		Status:           models.StatusSuccess,
		Message:          "Video information retrieved successfully",
		VideoInfo:        &info,
		DownloadURL:      result.DownloadURL,
		AvailableFormats: result.Formats,
	})
}

// handleInfo handles metadata-only requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	result, ok := s.lookup(w, r)
	if !ok {
		return
	}

	info := result.Info
	apperrors.WriteJSON(w, http.StatusOK, models.VideoResponse{
		Status:           models.StatusSuccess,
		Message:          "Video information retrieved successfully",
		VideoInfo:        &info,
		AvailableFormats: result.Formats,
	})
}

// handleQualities lists the supported quality hints
func (s *Server) handleQualities(w http.ResponseWriter, r *http.Request) {
	qualities := models.Qualities()
	descriptions := make(map[models.Quality]string, len(qualities))
	for _, q := range qualities {
		descriptions[q] = q.Description()
	}

	apperrors.WriteJSON(w, http.StatusOK, models.QualitiesResponse{
		Status:       models.StatusSuccess,
		Qualities:    qualities,
		Descriptions: descriptions,
	})
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:  models.StatusSuccess,
		Health:  "healthy",
		Version: Version,
		Service: ServiceName,
	})
}
