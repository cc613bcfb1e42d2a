package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/vidspot/internal/web"
	"github.com/spf13/cobra"
)

var (
	resetHistory bool
	resetUploads bool
	resetYes     bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset local state (search history, leftover web uploads)",
	Long:  "Clears local data. By default, it resets everything. Use flags to clear specific components.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		// If no flags are set, default to clearing EVERYTHING
		if !resetHistory && !resetUploads {
			resetHistory = true
			resetUploads = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetHistory {
			if err := openHistory(cmd.Context(), true); err != nil {
				return fail("Failed to open search history", err, "")
			}
			if resetYes || confirm(os.Stdout, reader, "⚠️  Are you sure you want to DELETE all search history?") {
				fmt.Println("🗑️  Clearing search history...")
				if err := History.Reset(cmd.Context()); err != nil {
					return fail("Failed to reset history", err, "")
				}
			}
		}

		if resetUploads {
			dir := web.LoadConfig().UploadDir
			if resetYes || confirm(os.Stdout, reader, fmt.Sprintf("⚠️  Are you sure you want to delete leftover uploads in %s?", dir)) {
				fmt.Println("🗑️  Clearing uploads...")
				removeDir(dir)
			}
		}

		fmt.Println("✨ Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetHistory, "history", false, "Clear search history")
	resetCmd.Flags().BoolVar(&resetUploads, "uploads", false, "Clear videos left behind by the web interface")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(w io.Writer, r *bufio.Reader, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}
