package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/vidspot/internal/search"
)

// renderOutcome prints the result panel for one search.
func renderOutcome(w io.Writer, out search.Outcome, resolve func(string) string) {
	s := search.Summarize(out, resolve)

	icon := "❌"
	if s.OK {
		icon = "✅"
	}
	fmt.Fprintf(w, "%s %s\n", icon, s.Title)
	if s.Message != "" {
		fmt.Fprintf(w, "   %s\n", s.Message)
	}
	if !s.OK {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "   First detection\tframe %s (%s)\n", s.FirstFrame, secs(s.FirstTime))
	fmt.Fprintf(tw, "   Last detection\tframe %s (%s)\n", s.LastFrame, secs(s.LastTime))
	fmt.Fprintf(tw, "   Duration\t%s\n", secs(s.Duration))
	fmt.Fprintf(tw, "   Video FPS\t%s\n", s.FPS)
	if s.Confidence != "" {
		fmt.Fprintf(tw, "   Confidence\t%s\n", s.Confidence)
	}
	if s.TotalFrames != "" {
		fmt.Fprintf(tw, "   Total frames\t%s\n", s.TotalFrames)
	}
	if s.VideoURL != "" {
		fmt.Fprintf(tw, "   Processed video\t%s\n", s.VideoURL)
	}
	tw.Flush()
}

// fmtSpan renders a detection's first and last time as "0.40s - 11.33s".
func fmtSpan(d *search.Detection) string {
	if d == nil {
		return "-"
	}
	return secs(search.FormatSeconds(d.FirstSeconds())) + " - " + secs(search.FormatSeconds(d.LastSeconds()))
}

func secs(v string) string {
	if v == "N/A" {
		return v
	}
	return v + "s"
}
