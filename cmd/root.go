package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresmejia3/vidspot/internal/logging"
	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/andresmejia3/vidspot/internal/store"
	"github.com/andresmejia3/vidspot/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Options holds configuration for the search, batch, and serve commands
type Options struct {
	VideoPath  string
	Target     string
	NumEngines int
	JSON       bool
	Addr       string
	Limit      int
	Yes        bool
}

var (
	// History is the search history store shared by subcommands. It stays
	// nil until a command asks for it, and when --no-history is set.
	History store.Store
	// dbURL is the history connection string or SQLite path
	dbURL string

	apiURL    string
	logLevel  string
	timeout   time.Duration
	noHistory bool

	logger = slog.Default()
)

// Version is the application version.
const Version = "0.1.0"

// exitError ends the process with code without printing anything more; the
// command already reported the problem.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// fail shows the error box and returns an error that exits with status 1.
func fail(context string, err error, hint string) error {
	utils.ShowError(os.Stderr, context, err, hint)
	return exitError{code: 1}
}

var rootCmd = &cobra.Command{
	Use:           "vidspot",
	Short:         "Find when an object appears in a video",
	Long:          "VidSpot uploads a video to a detection API together with an object name (e.g. person, dog, car) and reports the first and last frame it was seen.",
	Version:       Version, // This enables the --version flag
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; a broken one is not.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if logLevel == "" {
			logLevel = os.Getenv("VIDSPOT_LOG_LEVEL")
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, level)
		slog.SetDefault(logger)

		if apiURL == "" {
			apiURL = os.Getenv("VIDSPOT_API_URL")
		}
		if apiURL == "" {
			apiURL = search.DefaultBaseURL
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeHistory()
	},
}

// closeHistory releases History. cobra skips PersistentPostRun when RunE
// fails, so Execute calls it too.
func closeHistory() {
	if History != nil {
		History.Close()
		History = nil
	}
}

// resolveDBURL picks the history location: --db, then VIDSPOT_DB, then a
// Postgres URL built from POSTGRES_* variables, then the local SQLite file.
func resolveDBURL() string {
	if dbURL != "" {
		return dbURL
	}
	if v := os.Getenv("VIDSPOT_DB"); v != "" {
		return v
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		name := os.Getenv("POSTGRES_DB")
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		if name == "" {
			name = "vidspot"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}
	return store.DefaultPath()
}

// openHistory connects History on first use. When required is false, a
// disabled or unreachable history is logged and searches go on without it.
func openHistory(ctx context.Context, required bool) error {
	if History != nil {
		return nil
	}
	if noHistory {
		if required {
			return errors.New("history is disabled by --no-history")
		}
		return nil
	}

	dsn := resolveDBURL()
	s, err := store.Open(ctx, dsn)
	if err != nil {
		if required {
			return err
		}
		logger.Warn("history unavailable, results will not be recorded", "err", err)
		return nil
	}
	History = s
	return nil
}

// recordHistory stores every submission ctrl sends to the API. Failures are
// logged and never change the outcome.
func recordHistory(ctx context.Context, ctrl *search.Controller) {
	if History == nil {
		return
	}
	h := History
	ctrl.OnResolve(func(sub search.Submission) {
		if !sub.Sent || sub.Stale {
			return
		}
		// The command context may already be cancelled by Ctrl+C; the record
		// of a finished search is still worth keeping.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.Record(recCtx, store.NewEntry(sub)); err != nil {
			logger.Warn("failed to record search", "video", sub.Video.Name, "err", err)
		}
	})
}

func newClient() *search.Client {
	return search.NewClient(apiURL, timeout, logger)
}

// checkLabel warns about targets outside the COCO classes. They are still sent.
func checkLabel(target string) {
	if target == "" || search.IsKnownLabel(target) {
		return
	}
	msg := fmt.Sprintf("⚠️  %q is not a COCO class; the detector may not recognize it.", target)
	if s := search.SuggestLabels(target, 3); len(s) > 0 {
		msg += fmt.Sprintf(" Did you mean: %v?", s)
	}
	fmt.Fprintln(os.Stderr, msg)
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	err := rootCmd.ExecuteContext(ctx)
	closeHistory()
	if err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			stop()
			os.Exit(exit.code)
		}
		stop()
		utils.Die("Command failed", err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api", "", "Detection API base URL (env VIDSPOT_API_URL, default "+search.DefaultBaseURL+")")
	pf.StringVar(&dbURL, "db", "", "History database: postgres:// URL or SQLite file path (env VIDSPOT_DB)")
	pf.BoolVar(&noHistory, "no-history", false, "Do not record or read search history")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env VIDSPOT_LOG_LEVEL)")
	pf.DurationVar(&timeout, "timeout", 0, "Overall request timeout, e.g. 2m (0 waits indefinitely)")
}
