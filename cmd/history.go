package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/vidspot/internal/store"
	"github.com/andresmejia3/vidspot/internal/utils"
	"github.com/spf13/cobra"
)

var historyOpts Options

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := openHistory(cmd.Context(), true); err != nil {
			return fail("Failed to open search history", err, "")
		}
		entries, err := History.List(cmd.Context(), historyOpts.Limit)
		if err != nil {
			return fail("Failed to list searches", err, "")
		}
		printHistory(os.Stdout, entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyOpts.Limit, "limit", "n", 20, "Maximum number of searches to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(w io.Writer, entries []store.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No searches recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tVIDEO\tTARGET\tRESULT\tFRAMES\tMESSAGE")
	fmt.Fprintln(tw, "----\t-----\t------\t------\t------\t-------")

	for _, e := range entries {
		frames := "-"
		if e.FirstFrame != nil && e.LastFrame != nil {
			frames = fmt.Sprintf("%d-%d", *e.FirstFrame, *e.LastFrame)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.VideoName,
			e.Target,
			resultLabel(e.Kind),
			frames,
			utils.Truncate(e.Message, 50),
		)
	}
	tw.Flush()
}
