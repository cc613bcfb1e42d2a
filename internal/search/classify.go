package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresmejia3/vidspot/internal/types"
)

// Messages shown for local validation failures.
const (
	MsgNoVideo  = "Please upload a video file first."
	MsgNoTarget = "Please enter an object to search for."
)

// legacyErrorMarkers flag a negative result in 2xx bodies, whatever their
// detection fields.
var legacyErrorMarkers = []string{"Error", "could not connect", "FATAL"}

// UnreachableMessage is the fixed message for requests that never produced a
// usable response.
func UnreachableMessage(baseURL string) string {
	return fmt.Sprintf("Could not connect to the backend server. Please ensure the backend is running at %s.", baseURL)
}

// Classify maps the result of one request to an Outcome. err is a transport
// error (the request never completed); otherwise status and body are the
// HTTP response.
func Classify(baseURL string, status int, body []byte, err error) Outcome {
	if err != nil {
		return TransportError(UnreachableMessage(baseURL))
	}

	if status < 200 || status > 299 {
		var er types.ErrorResponse
		if json.Unmarshal(body, &er) == nil {
			if d := er.DetailText(); d != "" {
				return TransportError(d)
			}
			if m := strings.TrimSpace(er.Message); m != "" {
				return TransportError(m)
			}
		}
		return TransportError(fmt.Sprintf("Server returned an error (Status %d).", status))
	}

	var resp types.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return TransportError(UnreachableMessage(baseURL))
	}

	if resp.FirstFrame == nil || *resp.FirstFrame <= NotFoundFrame {
		return NotFound(notFoundMessage(resp.Message))
	}

	if hasErrorMarker(resp.Message) {
		return NotFound(resp.Message)
	}

	first := *resp.FirstFrame
	last := first
	if resp.LastFrame != nil {
		last = *resp.LastFrame
	}
	if last < first {
		return TransportError(fmt.Sprintf("Server returned an invalid frame range (first %d, last %d).", first, last))
	}

	if resp.FPS == nil || *resp.FPS <= 0 {
		return TransportError("Server returned a detection without a valid frame rate.")
	}
	fps := *resp.FPS

	msg := resp.Message
	if msg == "" {
		msg = "Operation completed."
	}
	return Outcome{
		Kind:    KindSuccess,
		Message: msg,
		Detection: &Detection{
			FirstFrame:     first,
			LastFrame:      last,
			FPS:            fps,
			FirstTimestamp: resp.FirstTimestamp,
			LastTimestamp:  resp.LastTimestamp,
			Duration:       resp.Duration,
			Confidence:     resp.Confidence,
			VideoURL:       resp.VideoURL,
			TotalFrames:    resp.TotalFrames,
		},
	}
}

func notFoundMessage(msg string) string {
	if msg == "" {
		return "Object not found in the video."
	}
	return msg
}

func hasErrorMarker(msg string) bool {
	for _, m := range legacyErrorMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
