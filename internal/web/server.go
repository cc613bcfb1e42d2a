package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/andresmejia3/vidspot/internal/metrics"
	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/andresmejia3/vidspot/internal/utils"
	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket. The UI is served from the
// same origin, so the default origin check applies.
var Upgrader = websocket.Upgrader{}

// StateMessage is the JSON document served by /api/state and pushed over /ws.
type StateMessage struct {
	search.State
	Summary *search.Summary `json:"summary,omitempty"`
}

// Server drives one search.Controller from the browser.
type Server struct {
	cfg     Config
	ctrl    *search.Controller
	hub     *Hub
	metrics *metrics.Metrics
	logger  *slog.Logger
	resolve func(string) string
	page    *template.Template

	// ctx outlives individual requests; searches run under it.
	ctx context.Context

	mu     sync.Mutex
	upload string // temp file backing the current selection
}

// NewServer returns a server bound to ctrl and starts its WebSocket hub. The
// hub and any running search stop when ctx is cancelled. resolve makes
// server-relative video URLs absolute and may be nil.
func NewServer(ctx context.Context, cfg Config, ctrl *search.Controller, m *metrics.Metrics, resolve func(string) string, logger *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.UploadDir == "" {
		cfg.UploadDir = def.UploadDir
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		metrics: m,
		logger:  logger,
		resolve: resolve,
		page:    template.Must(template.New("index").Parse(indexHTML)),
		ctx:     ctx,
	}
	s.hub = NewHub(logger, cfg.WriteTimeout, func() []byte { return s.encode(ctrl.State()) })
	go s.hub.Run(ctx)

	m.Attach(ctrl)
	ctrl.Subscribe(func(st search.State) {
		if b := s.encode(st); b != nil {
			s.hub.Broadcast(b)
		}
	})
	return s
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/video", s.handleVideo)
	mux.HandleFunc("POST /api/label", s.handleLabel)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and removes the uploaded temp file.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("web front listening", "addr", s.cfg.Addr)

	defer s.removeUpload()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		APIURL string
		Label  string
	}{s.cfg.APIURL, s.ctrl.State().Label}
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.message(s.ctrl.State()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "clients": s.hub.ClientCount()})
}

// handleVideo stores the uploaded file and selects it.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, hdr, err := r.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("video exceeds %s", utils.HumanBytes(s.cfg.MaxUploadBytes)))
			return
		}
		writeError(w, http.StatusBadRequest, "missing video file")
		return
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	if name == "." || name == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "missing file name")
		return
	}

	path, size, err := s.saveUpload(file, name)
	if err != nil {
		s.logger.Error("save upload", "file", name, "err", err)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	s.ctrl.SelectFile(&search.Video{Name: name, Size: size, Path: path})
	s.logger.Info("video selected", "file", name, "size", utils.HumanBytes(size))
	writeJSON(w, s.message(s.ctrl.State()))
}

func (s *Server) saveUpload(src io.Reader, name string) (string, int64, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		return "", 0, err
	}
	dst, err := os.CreateTemp(s.cfg.UploadDir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", 0, err
	}

	// The previous upload is no longer selectable. A search still reading
	// it keeps its open descriptor.
	s.mu.Lock()
	prev := s.upload
	s.upload = dst.Name()
	s.mu.Unlock()
	if prev != "" {
		os.Remove(prev)
	}
	return dst.Name(), size, nil
}

func (s *Server) removeUpload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload != "" {
		os.Remove(s.upload)
		s.upload = ""
	}
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	label, err := readLabel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.UpdateLabel(label)
	writeJSON(w, s.message(s.ctrl.State()))
}

// readLabel accepts target_class as a form field or in a JSON body.
func readLabel(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			TargetClass *string `json:"target_class"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
			return "", fmt.Errorf("invalid JSON: %w", err)
		}
		if body.TargetClass == nil {
			return "", errors.New("missing target_class")
		}
		return *body.TargetClass, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	if _, ok := r.PostForm["target_class"]; !ok {
		return "", errors.New("missing target_class")
	}
	return r.PostForm.Get("target_class"), nil
}

// handleSearch starts a submission and returns immediately; the outcome
// arrives over /ws or /api/state.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.State().Pending {
		s.metrics.Rejected.Add(1)
		writeError(w, http.StatusConflict, "a search is already in progress")
		return
	}

	started := make(chan struct{})
	var once sync.Once
	unsubscribe := s.ctrl.Subscribe(func(search.State) { once.Do(func() { close(started) }) })
	defer unsubscribe()

	go func() {
		if _, accepted := s.ctrl.Submit(s.ctx); !accepted {
			s.metrics.Rejected.Add(1)
		}
		once.Do(func() { close(started) })
	}()

	// Validation failures resolve synchronously; wait for the first state
	// change so the response reflects pending or the validation outcome.
	select {
	case <-started:
	case <-time.After(2 * time.Second):
	}
	writeJSONWithStatus(w, s.message(s.ctrl.State()), http.StatusAccepted)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	s.hub.Register(conn)
	defer s.hub.Unregister(conn)

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "err", err)
			}
			return
		}
	}
}

func (s *Server) message(st search.State) StateMessage {
	msg := StateMessage{State: st}
	if st.Outcome != nil {
		sum := search.Summarize(*st.Outcome, s.resolve)
		msg.Summary = &sum
	}
	return msg
}

func (s *Server) encode(st search.State) []byte {
	b, err := json.Marshal(s.message(st))
	if err != nil {
		s.logger.Error("encode state", "err", err)
		return nil
	}
	return b
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONWithStatus(w, map[string]string{"error": msg}, status)
}
