package types

import (
	"encoding/json"
	"strings"
)

// SearchResponse matches the JSON body returned by the detection API on success.
// Pointer fields distinguish "absent" from zero.
type SearchResponse struct {
	Message        string   `json:"message"`
	FirstFrame     *int     `json:"first_frame"`
	LastFrame      *int     `json:"last_frame"`
	FPS            *float64 `json:"fps"`
	FirstTimestamp *float64 `json:"first_timestamp,omitempty"`
	LastTimestamp  *float64 `json:"last_timestamp,omitempty"`
	Duration       *float64 `json:"duration,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	VideoURL       string   `json:"video_url,omitempty"`
	TotalFrames    *int     `json:"total_frames,omitempty"`
}

// ErrorResponse captures the error object returned by the API on non-2xx.
// Detail is either a plain string or {"error": "..."}.
type ErrorResponse struct {
	Detail  json.RawMessage `json:"detail,omitempty"`
	Message string          `json:"message,omitempty"`
}

// DetailText extracts a human readable string from Detail, or "" if none.
func (e ErrorResponse) DetailText() string {
	if len(e.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Detail, &obj); err == nil {
		return strings.TrimSpace(obj.Error)
	}
	return ""
}
