package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels [name]",
	Short: "List the object names the detector knows, or check one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if len(args) == 0 {
			printLabels(os.Stdout, 4)
			return nil
		}
		if search.IsKnownLabel(args[0]) {
			fmt.Printf("✅ %q is a known object name\n", args[0])
			return nil
		}
		fmt.Printf("❌ %q is not a known object name\n", args[0])
		if s := search.SuggestLabels(args[0], 5); len(s) > 0 {
			fmt.Printf("   Did you mean: %v?\n", s)
		}
		return exitError{code: 1}
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}

func printLabels(w io.Writer, cols int) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for i, l := range search.CocoLabels {
		sep := "\t"
		if (i+1)%cols == 0 || i == len(search.CocoLabels)-1 {
			sep = "\n"
		}
		fmt.Fprint(tw, l+sep)
	}
	tw.Flush()
}
