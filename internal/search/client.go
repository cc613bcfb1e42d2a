package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultBaseURL is where the detection API listens in a local setup.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Video is an opaque handle to a selected video file.
type Video struct {
	Name string
	Size int64
	Path string
}

// OpenVideo stats path and returns a handle for it. Directories are rejected.
func OpenVideo(path string) (*Video, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a video file", path)
	}
	return &Video{Name: info.Name(), Size: info.Size(), Path: path}, nil
}

// Searcher performs one search request and classifies its result.
type Searcher interface {
	Search(ctx context.Context, v *Video, target string) Outcome
}

// Client talks to the detection API's /search endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Progress, when set, receives a copy of every uploaded video byte.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewClient returns a client for baseURL. timeout <= 0 leaves the transport
// default (no overall timeout).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

// Endpoint is the full URL of the search endpoint.
func (c *Client) Endpoint() string {
	return c.BaseURL + "/search"
}

// ResolveURL makes a server-relative path such as a detection's video_url
// absolute against the base URL. Absolute URLs and "" pass through.
func (c *Client) ResolveURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return c.BaseURL + "/" + strings.TrimLeft(u, "/")
}

// Search uploads the video with the target label and classifies the response.
func (c *Client) Search(ctx context.Context, v *Video, target string) Outcome {
	start := time.Now()
	status, body, err := c.Do(ctx, v, target)
	out := Classify(c.BaseURL, status, body, err)

	attrs := []any{"video", v.Name, "target", target, "kind", out.Kind, "elapsed", time.Since(start).Round(time.Millisecond)}
	if err != nil {
		c.Logger.Warn("search request failed", append(attrs, "err", err)...)
	} else {
		c.Logger.Debug("search request finished", append(attrs, "status", status)...)
	}
	return out
}

// Do sends the multipart request and returns the raw status and body. The
// file is streamed, not buffered.
func (c *Client) Do(ctx context.Context, v *Video, target string) (int, []byte, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return 0, nil, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if c.Progress != nil {
		src = io.TeeReader(f, c.Progress)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, v.Name, src, target))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), pr)
	if err != nil {
		pr.Close()
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func writeForm(mw *multipart.Writer, filename string, video io.Reader, target string) error {
	part, err := mw.CreateFormFile("video", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, video); err != nil {
		return fmt.Errorf("stream video: %w", err)
	}
	if err := mw.WriteField("target_class", target); err != nil {
		return err
	}
	return mw.Close()
}
