package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// VideoRequestBody is the JSON body accepted by /download and /info
type VideoRequestBody struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
}

// VideoResponse is the success body of /download and /info
type VideoResponse struct {
	Status           string             `json:"status"`
	Message          string             `json:"message,omitempty"`
	VideoInfo        *VideoInfo         `json:"video_info,omitempty"`
	DownloadURL      string             `json:"download_url,omitempty"`
	AvailableFormats []FormatDescriptor `json:"available_formats"`
}

// ErrorResponse is the envelope returned on every failure
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

// QualitiesResponse lists the supported quality hints
type QualitiesResponse struct {
	Status       string             `json:"status"`
	Qualities    []Quality          `json:"qualities"`
	Descriptions map[Quality]string `json:"descriptions"`
}

// HealthResponse is returned by the liveness probe
type HealthResponse struct {
	Status  string `json:"status"`
	Health  string `json:"health"`
	Version string `json:"version"`
	Service string `json:"service"`
}
