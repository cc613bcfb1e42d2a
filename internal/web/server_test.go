package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresmejia3/vidspot/internal/metrics"
	"github.com/andresmejia3/vidspot/internal/search"
	"github.com/gorilla/websocket"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type blockingSearcher struct {
	started chan struct{}
	release chan struct{}
	out     search.Outcome
}

func (b *blockingSearcher) Search(ctx context.Context, v *search.Video, target string) search.Outcome {
	b.started <- struct{}{}
	<-b.release
	return b.out
}

func newTestServer(t *testing.T, s search.Searcher, label string) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := DefaultConfig()
	cfg.UploadDir = t.TempDir()
	cfg.APIURL = "http://detector.local:8000"

	ctrl := search.NewController(s, label, quietLogger)
	srv := NewServer(ctx, cfg, ctrl, metrics.New(), nil, quietLogger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func uploadVideo(t *testing.T, base, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	resp, err := http.Post(base+"/api/video", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return resp
}

func postLabel(t *testing.T, base, label string) *http.Response {
	t.Helper()
	resp, err := http.PostForm(base+"/api/label", url.Values{"target_class": {label}})
	if err != nil {
		t.Fatalf("label failed: %v", err)
	}
	return resp
}

func decodeState(t *testing.T, resp *http.Response) StateMessage {
	t.Helper()
	defer resp.Body.Close()
	var msg StateMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return msg
}

func getState(t *testing.T, base string) StateMessage {
	t.Helper()
	resp, err := http.Get(base + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	return decodeState(t, resp)
}

func waitFor(t *testing.T, base string, cond func(StateMessage) bool) StateMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := getState(t, base)
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met, last state %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIndexPage(t *testing.T) {
	_, ts := newTestServer(t, nil, "person")

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"VidSpot", `value="person"`, "detector.local:8000"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", resp.StatusCode)
	}
}

func TestSearchFlow(t *testing.T) {
	var (
		mu                 sync.Mutex
		gotTarget, gotName string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		mu.Lock()
		gotTarget = r.FormValue("target_class")
		if _, hdr, err := r.FormFile("video"); err == nil {
			gotName = hdr.Filename
		}
		mu.Unlock()
		io.WriteString(w, `{"message":"Dog found","first_frame":12,"last_frame":340,"fps":30,"video_url":"/videos/out.mp4"}`)
	}))
	defer api.Close()

	client := search.NewClient(api.URL, 5*time.Second, quietLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := DefaultConfig()
	cfg.UploadDir = t.TempDir()
	ctrl := search.NewController(client, "", quietLogger)
	srv := NewServer(ctx, cfg, ctrl, nil, client.ResolveURL, quietLogger)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	st := decodeState(t, uploadVideo(t, ts.URL, "cat.mp4", []byte("fake video content")))
	if st.File == nil || st.File.Name != "cat.mp4" || st.File.Size != int64(len("fake video content")) {
		t.Fatalf("File = %+v", st.File)
	}

	st = decodeState(t, postLabel(t, ts.URL, " dog "))
	if st.Label != " dog " {
		t.Errorf("Label = %q, want stored verbatim", st.Label)
	}

	resp, err := http.Post(ts.URL+"/api/search", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("search status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	st = waitFor(t, ts.URL, func(m StateMessage) bool { return !m.Pending && m.Outcome != nil })
	if st.Outcome.Kind != search.KindSuccess {
		t.Fatalf("Kind = %q (%s)", st.Outcome.Kind, st.Outcome.Message)
	}
	if st.Summary == nil || st.Summary.FirstTime != "0.40" || st.Summary.LastTime != "11.33" {
		t.Errorf("Summary = %+v", st.Summary)
	}
	if st.Summary.VideoURL != api.URL+"/videos/out.mp4" {
		t.Errorf("VideoURL = %q", st.Summary.VideoURL)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotTarget != "dog" || gotName != "cat.mp4" {
		t.Errorf("backend saw target %q file %q", gotTarget, gotName)
	}
}

func TestSearchValidationResolvesInline(t *testing.T) {
	_, ts := newTestServer(t, nil, "dog")

	resp, err := http.Post(ts.URL+"/api/search", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
	st := decodeState(t, resp)
	if st.Outcome == nil || st.Outcome.Kind != search.KindValidationError || st.Outcome.Message != search.MsgNoVideo {
		t.Errorf("Outcome = %+v, want no-video validation error", st.Outcome)
	}
	if st.Pending {
		t.Error("pending after validation failure")
	}
}

func TestSearchWhilePendingConflicts(t *testing.T) {
	s := &blockingSearcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		out:     search.NotFound("No dog detected"),
	}
	srv, ts := newTestServer(t, s, "dog")
	uploadVideo(t, ts.URL, "a.mp4", []byte("x")).Body.Close()

	resp, err := http.Post(ts.URL+"/api/search", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	st := decodeState(t, resp)
	<-s.started
	if !st.Pending {
		t.Error("first search response not pending")
	}

	resp, err = http.Post(ts.URL+"/api/search", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second search status = %d, want 409", resp.StatusCode)
	}
	if srv.metrics.Rejected.Load() != 1 {
		t.Errorf("rejected = %d, want 1", srv.metrics.Rejected.Load())
	}

	close(s.release)
	st = waitFor(t, ts.URL, func(m StateMessage) bool { return !m.Pending })
	if st.Outcome == nil || st.Outcome.Kind != search.KindNotFound {
		t.Errorf("Outcome = %+v, want not found", st.Outcome)
	}
	if st.Summary == nil || st.Summary.OK {
		t.Errorf("Summary = %+v", st.Summary)
	}
}

func TestLabelRequests(t *testing.T) {
	_, ts := newTestServer(t, nil, "")

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		label       string
	}{
		{"Form", "application/x-www-form-urlencoded", "target_class=car", http.StatusOK, "car"},
		{"JSON", "application/json", `{"target_class":"bus"}`, http.StatusOK, "bus"},
		{"Empty is allowed", "application/x-www-form-urlencoded", "target_class=", http.StatusOK, ""},
		{"Missing field", "application/x-www-form-urlencoded", "other=1", http.StatusBadRequest, ""},
		{"Bad JSON", "application/json", `{`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/label", tt.contentType, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				resp.Body.Close()
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				resp.Body.Close()
				return
			}
			if st := decodeState(t, resp); st.Label != tt.label {
				t.Errorf("Label = %q, want %q", st.Label, tt.label)
			}
		})
	}
}

func TestVideoRequiresFile(t *testing.T) {
	_, ts := newTestServer(t, nil, "")

	resp, err := http.Post(ts.URL+"/api/video", "text/plain", strings.NewReader("nope"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebsocketPushesState(t *testing.T) {
	_, ts := newTestServer(t, nil, "person")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() StateMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg StateMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := read()
	if first.Label != "person" {
		t.Errorf("snapshot label = %q, want person", first.Label)
	}

	postLabel(t, ts.URL, "cat").Body.Close()
	next := read()
	if next.Label != "cat" || next.Version <= first.Version {
		t.Errorf("pushed state = %+v, want label cat with newer version", next.State)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil, "")

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]any
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "vidspot_submissions_total") {
		t.Error("metrics endpoint missing vidspot_submissions_total")
	}
}
