package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// FileInfo is the public view of a selected video.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// State is a snapshot of the controller. Version increases on every change so
// observers can drop out-of-order snapshots.
type State struct {
	Version uint64    `json:"version"`
	File    *FileInfo `json:"file,omitempty"`
	Label   string    `json:"label"`
	Pending bool      `json:"pending"`
	Outcome *Outcome  `json:"outcome,omitempty"`
}

// Submission describes one resolved Submit call.
type Submission struct {
	Video   *Video
	Target  string
	Outcome Outcome
	// Sent is false for validation failures, which never reach the network.
	Sent    bool
	Elapsed time.Duration
	// Stale is set when a newer selection or request superseded this one and
	// its outcome was not applied.
	Stale bool
}

// Controller owns the selection, the pending flag and the last outcome, and
// runs the submit state transition. It is safe for concurrent use, but at most
// one request is in flight at a time.
type Controller struct {
	mu       sync.Mutex
	searcher Searcher
	logger   *slog.Logger

	video   *Video
	label   string
	pending bool
	outcome *Outcome
	gen     uint64
	version uint64

	subs     map[uint64]func(State)
	nextSub  uint64
	resolved []func(Submission)
}

// NewController returns a controller with label as the initial target text.
func NewController(s Searcher, label string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{searcher: s, label: label, logger: logger}
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. Callbacks run on the goroutine that
// made the change, outside the lock.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	if c.subs == nil {
		c.subs = make(map[uint64]func(State))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// OnResolve registers fn to be called once per accepted Submit.
func (c *Controller) OnResolve(fn func(Submission)) {
	c.mu.Lock()
	c.resolved = append(c.resolved, fn)
	c.mu.Unlock()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SelectFile replaces the selected video and clears any previous outcome. A
// request still in flight for the old selection will not overwrite state.
func (c *Controller) SelectFile(v *Video) {
	c.mu.Lock()
	c.video = v
	c.outcome = nil
	c.gen++
	st := c.changedLocked()
	c.mu.Unlock()

	c.notify(st)
}

// UpdateLabel stores text verbatim. Trimming happens at submit time.
func (c *Controller) UpdateLabel(text string) {
	c.mu.Lock()
	if c.label == text {
		c.mu.Unlock()
		return
	}
	c.label = text
	st := c.changedLocked()
	c.mu.Unlock()

	c.notify(st)
}

// Submit validates the selection, performs at most one request and records
// the outcome. accepted is false when a request is already pending; in that
// case nothing changes and no request is made.
func (c *Controller) Submit(ctx context.Context) (out Outcome, accepted bool) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		c.logger.Debug("submit ignored, search already pending")
		return Outcome{}, false
	}

	video := c.video
	target := strings.TrimSpace(c.label)
	switch {
	case video == nil:
		out = ValidationError(MsgNoVideo)
	case target == "":
		out = ValidationError(MsgNoTarget)
	}
	if out.Kind != "" {
		c.outcome = &out
		st := c.changedLocked()
		c.mu.Unlock()

		c.notify(st)
		c.resolve(Submission{Video: video, Target: target, Outcome: out})
		return out, true
	}

	c.pending = true
	c.outcome = nil
	c.gen++
	gen := c.gen
	st := c.changedLocked()
	c.mu.Unlock()
	c.notify(st)

	start := time.Now()
	out = c.search(ctx, video, target)
	elapsed := time.Since(start)

	c.mu.Lock()
	c.pending = false
	stale := gen != c.gen
	if !stale {
		c.outcome = &out
	}
	st = c.changedLocked()
	c.mu.Unlock()

	if stale {
		c.logger.Info("discarding stale search result", "video", video.Name, "target", target)
	}
	c.notify(st)
	c.resolve(Submission{Video: video, Target: target, Outcome: out, Sent: true, Elapsed: elapsed, Stale: stale})
	return out, true
}

// search runs the request and turns a panic into a transport error so the
// pending flag is always released.
func (c *Controller) search(ctx context.Context, v *Video, target string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("search panicked", "panic", r)
			out = TransportError(fmt.Sprintf("Unexpected client failure: %v", r))
		}
	}()
	return c.searcher.Search(ctx, v, target)
}

func (c *Controller) changedLocked() State {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{Version: c.version, Label: c.label, Pending: c.pending}
	if c.video != nil {
		st.File = &FileInfo{Name: c.video.Name, Size: c.video.Size}
	}
	if c.outcome != nil {
		o := *c.outcome
		st.Outcome = &o
	}
	return st
}

func (c *Controller) notify(st State) {
	c.mu.Lock()
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]func(State), len(ids))
	for i, id := range ids {
		subs[i] = c.subs[id]
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (c *Controller) resolve(s Submission) {
	c.mu.Lock()
	fns := slices.Clone(c.resolved)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
