package search

import "strconv"

// Summary is an Outcome rendered to display strings. Detail fields are empty
// unless the outcome is a success.
type Summary struct {
	Kind        Kind   `json:"kind"`
	OK          bool   `json:"ok"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	FirstFrame  string `json:"first_frame,omitempty"`
	LastFrame   string `json:"last_frame,omitempty"`
	FirstTime   string `json:"first_time,omitempty"`
	LastTime    string `json:"last_time,omitempty"`
	Duration    string `json:"duration,omitempty"`
	FPS         string `json:"fps,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	TotalFrames string `json:"total_frames,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

// Summarize formats o for display. resolve, when set, makes the detection's
// video URL absolute.
func Summarize(o Outcome, resolve func(string) string) Summary {
	s := Summary{Kind: o.Kind, OK: o.OK(), Title: o.Title(), Message: o.Message}
	d := o.Detection
	if d == nil {
		return s
	}
	s.FirstFrame = strconv.Itoa(d.FirstFrame)
	s.LastFrame = strconv.Itoa(d.LastFrame)
	s.FirstTime = FormatSeconds(d.FirstSeconds())
	s.LastTime = FormatSeconds(d.LastSeconds())
	s.Duration = FormatSeconds(d.Span())
	s.FPS = FormatSeconds(d.FPS, d.FPS > 0)
	if d.Confidence != nil {
		s.Confidence = FormatConfidence(d.Confidence)
	}
	if d.TotalFrames != nil {
		s.TotalFrames = strconv.Itoa(*d.TotalFrames)
	}
	s.VideoURL = d.VideoURL
	if resolve != nil {
		s.VideoURL = resolve(d.VideoURL)
	}
	return s
}
