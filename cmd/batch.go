package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/andresmejia3/vidspot/internal/utils"
	"github.com/andresmejia3/vidspot/internal/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var batchOpts Options

var batchCmd = &cobra.Command{
	Use:   "batch <video|dir>...",
	Short: "Search many videos for the same object with parallel requests",
	Long:  "Searches every given video, and every video file directly inside a given directory, for one object. Exits 1 if any request failed at transport or server level.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBatch(cmd.Context(), args, batchOpts)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOpts.Target, "target", "t", "person", "Object to search for (COCO class name)")
	batchCmd.Flags().IntVarP(&batchOpts.NumEngines, "engines", "e", 2, "Number of parallel requests")
	rootCmd.AddCommand(batchCmd)
}

type batchRow struct {
	Path    string
	Outcome search.Outcome
}

func runBatch(ctx context.Context, args []string, opts Options) error {
	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}

	paths, err := collectVideos(args)
	if err != nil {
		return fail("Unable to read input", err, "")
	}
	if len(paths) == 0 {
		return fail("No video files found", fmt.Errorf("looked in %v", args), "Supported extensions: .mp4 .mov .avi .mkv .webm .m4v")
	}

	if err := openHistory(ctx, false); err != nil {
		return fail("Failed to open search history", err, "Pass --no-history to skip recording.")
	}
	checkLabel(opts.Target)

	client := newClient()
	fmt.Fprintf(os.Stderr, "⚙️  Searching %d videos for %q with %d parallel requests...\n", len(paths), opts.Target, opts.NumEngines)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("🔍 VidSpot Searching"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	// Each video gets its own controller: the single-request-in-flight rule
	// is per selection, not per process.
	searchOne := func(ctx context.Context, path string) batchRow {
		ctrl := search.NewController(client, opts.Target, logger)
		recordHistory(ctx, ctrl)
		v, err := search.OpenVideo(path)
		if err != nil {
			return batchRow{Path: path, Outcome: search.TransportError(err.Error())}
		}
		ctrl.SelectFile(v)
		out, _ := ctrl.Submit(ctx)
		return batchRow{Path: path, Outcome: out}
	}

	rows := worker.Run(ctx, opts.NumEngines, paths, searchOne, func(worker.Result[batchRow]) {
		bar.Add(1)
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	// Jobs skipped by Ctrl+C come back empty.
	var done []batchRow
	for _, r := range rows {
		if r.Path != "" {
			done = append(done, r)
		}
	}
	failed := printBatch(os.Stdout, done)

	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "🛑 Interrupted after %d of %d videos.\n", len(done), len(paths))
		return exitError{code: 130}
	}
	if failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

// collectVideos expands directories one level deep and keeps argument order.
func collectVideos(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && utils.IsVideoFile(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// printBatch writes the summary table and returns how many rows failed at
// transport or server level.
func printBatch(w io.Writer, rows []batchRow) int {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "VIDEO\tRESULT\tFRAMES\tTIME RANGE\tMESSAGE")
	fmt.Fprintln(tw, "-----\t------\t------\t----------\t-------")

	failed := 0
	for _, r := range rows {
		frames := "-"
		if d := r.Outcome.Detection; d != nil {
			frames = fmt.Sprintf("%d-%d", d.FirstFrame, d.LastFrame)
		}
		if r.Outcome.Kind == search.KindTransportError {
			failed++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			filepath.Base(r.Path),
			resultLabel(r.Outcome.Kind),
			frames,
			fmtSpan(r.Outcome.Detection),
			utils.Truncate(r.Outcome.Message, 60),
		)
	}
	tw.Flush()
	return failed
}

func resultLabel(k search.Kind) string {
	switch k {
	case search.KindSuccess:
		return "✅ found"
	case search.KindNotFound:
		return "❌ not found"
	case search.KindValidationError:
		return "⚠️  invalid"
	default:
		return "🚨 error"
	}
}
