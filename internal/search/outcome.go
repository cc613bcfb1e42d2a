package search

import (
	"fmt"
	"strconv"
)

// Kind discriminates the variants of an Outcome.
type Kind string

const (
	KindSuccess         Kind = "success"
	KindNotFound        Kind = "not_found"
	KindValidationError Kind = "validation_error"
	KindTransportError  Kind = "transport_error"
)

// NotFoundFrame is the sentinel the API uses in first_frame for "no detection".
// Any lower value is treated the same.
const NotFoundFrame = -1

// Outcome is the result of the most recent submission. Detection is only set
// for KindSuccess.
type Outcome struct {
	Kind      Kind       `json:"kind"`
	Message   string     `json:"message"`
	Detection *Detection `json:"detection,omitempty"`
}

// Detection carries the numeric fields of a successful response unchanged.
type Detection struct {
	FirstFrame     int      `json:"first_frame"`
	LastFrame      int      `json:"last_frame"`
	FPS            float64  `json:"fps"`
	FirstTimestamp *float64 `json:"first_timestamp,omitempty"`
	LastTimestamp  *float64 `json:"last_timestamp,omitempty"`
	Duration       *float64 `json:"duration,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	VideoURL       string   `json:"video_url,omitempty"`
	TotalFrames    *int     `json:"total_frames,omitempty"`
}

func ValidationError(msg string) Outcome { return Outcome{Kind: KindValidationError, Message: msg} }
func TransportError(msg string) Outcome  { return Outcome{Kind: KindTransportError, Message: msg} }
func NotFound(msg string) Outcome        { return Outcome{Kind: KindNotFound, Message: msg} }

// OK reports whether the outcome should be shown with the success affordance.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Title is the headline shown above the message in result panels.
func (o Outcome) Title() string {
	switch o.Kind {
	case KindSuccess:
		return "Object Detected Successfully!"
	case KindNotFound:
		return "Search Failed or Object Not Found"
	case KindValidationError:
		return "Check Your Input"
	default:
		return "Search Failed"
	}
}

// FirstSeconds returns the first detection time in seconds. A server supplied
// timestamp wins; otherwise it is derived from frame/fps. ok is false when
// neither is available.
func (d *Detection) FirstSeconds() (float64, bool) {
	if d.FirstTimestamp != nil {
		return *d.FirstTimestamp, true
	}
	return frameSeconds(d.FirstFrame, d.FPS)
}

// LastSeconds is FirstSeconds for the last detection.
func (d *Detection) LastSeconds() (float64, bool) {
	if d.LastTimestamp != nil {
		return *d.LastTimestamp, true
	}
	return frameSeconds(d.LastFrame, d.FPS)
}

// Span returns the detection duration, preferring the server value.
func (d *Detection) Span() (float64, bool) {
	if d.Duration != nil {
		return *d.Duration, true
	}
	first, ok1 := d.FirstSeconds()
	last, ok2 := d.LastSeconds()
	if !ok1 || !ok2 {
		return 0, false
	}
	return last - first, true
}

func frameSeconds(frame int, fps float64) (float64, bool) {
	if fps <= 0 || frame < 0 {
		return 0, false
	}
	return float64(frame) / fps, true
}

// FormatSeconds renders seconds with two decimals, or "N/A".
func FormatSeconds(sec float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(sec, 'f', 2, 64)
}

// FormatConfidence renders a 0..1 confidence as a percentage. Values above 1
// are assumed to already be percentages.
func FormatConfidence(c *float64) string {
	if c == nil {
		return "N/A"
	}
	v := *c
	if v <= 1 {
		v *= 100
	}
	return fmt.Sprintf("%.1f%%", v)
}
