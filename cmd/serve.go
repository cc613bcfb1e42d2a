package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/andresmejia3/vidspot/internal/metrics"
	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/andresmejia3/vidspot/internal/web"
	"github.com/spf13/cobra"
)

var serveOpts Options

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runServe(cmd.Context(), serveOpts)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "", "Listen address (env VIDSPOT_ADDR, default :8080)")
	serveCmd.Flags().StringVarP(&serveOpts.Target, "target", "t", "person", "Initial object name shown in the form")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, opts Options) error {
	cfg := web.LoadConfig()
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	client := newClient()
	cfg.APIURL = client.BaseURL
	ctrl := search.NewController(client, opts.Target, logger)

	if err := openHistory(ctx, false); err != nil {
		return fail("Failed to open search history", err, "Pass --no-history to skip recording.")
	}
	recordHistory(ctx, ctrl)

	srv := web.NewServer(ctx, cfg, ctrl, metrics.New(), client.ResolveURL, logger)
	fmt.Fprintf(os.Stderr, "🌐 VidSpot web interface on %s (detection API %s)\n", displayAddr(cfg.Addr), client.BaseURL)

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fail("Web server stopped", err, "Is another process using "+cfg.Addr+"? Try --addr.")
	}
	fmt.Fprintln(os.Stderr, "👋 Web interface stopped.")
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
