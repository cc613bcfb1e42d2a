package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var searchOpts Options

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search one video for an object",
	Example: `  vidspot search -i clip.mp4 -t dog
  vidspot search -i clip.mp4 -t car --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSearch(cmd.Context(), searchOpts)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchOpts.VideoPath, "video", "i", "", "Path to video")
	searchCmd.Flags().StringVarP(&searchOpts.Target, "target", "t", "person", "Object to search for (COCO class name)")
	searchCmd.Flags().BoolVar(&searchOpts.JSON, "json", false, "Print the outcome as JSON on stdout")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the --json document.
type searchResult struct {
	Video   string         `json:"video,omitempty"`
	Target  string         `json:"target"`
	Outcome search.Outcome `json:"outcome"`
	Summary search.Summary `json:"summary"`
}

// runSearch drives a single controller through select, label and submit. A
// missing video or blank target resolves as a validation outcome, exactly as
// in the web front.
func runSearch(ctx context.Context, opts Options) error {
	client := newClient()
	ctrl := search.NewController(client, opts.Target, logger)

	var video *search.Video
	if opts.VideoPath != "" {
		v, err := search.OpenVideo(opts.VideoPath)
		if err != nil {
			return fail("Unable to access input video", err, "Pass an existing video file with --video.")
		}
		video = v
		ctrl.SelectFile(v)
	}

	if err := openHistory(ctx, false); err != nil {
		return fail("Failed to open search history", err, "Pass --no-history to skip recording.")
	}
	recordHistory(ctx, ctrl)

	if !opts.JSON {
		checkLabel(opts.Target)
		if video != nil {
			bar := progressbar.NewOptions64(video.Size,
				progressbar.OptionSetDescription(fmt.Sprintf("📤 Uploading %s", video.Name)),
				progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)
			client.Progress = bar
			defer bar.Close()
			fmt.Fprintf(os.Stderr, "🔍 Searching for %q via %s\n", opts.Target, client.Endpoint())
		}
	}

	out, _ := ctrl.Submit(ctx)

	if opts.JSON {
		res := searchResult{Target: opts.Target, Outcome: out, Summary: search.Summarize(out, client.ResolveURL)}
		if video != nil {
			res.Video = video.Name
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		renderOutcome(os.Stdout, out, client.ResolveURL)
	}

	if !out.OK() {
		return exitError{code: 1}
	}
	return nil
}
