// Package daemon provides the long-running spool watcher service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/rurhook/internal/pipeline"
	"github.com/theirongolddev/rurhook/internal/store"
)

// Event types.
const (
	EventSnapshot        = "snapshot"
	EventReportProcessed = "report_processed"
	EventReportFailed    = "report_failed"
)

// Config controls the daemon runtime behavior.
type Config struct {
	SpoolDir     string
	Pattern      string
	StorePath    string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Options      pipeline.Options
}

// Snapshot is a compact spool state for status/event payloads.
type Snapshot struct {
	At         time.Time `json:"at"`
	Files      int       `json:"files"`
	Jobs       int       `json:"jobs"`
	Recorded   int       `json:"recorded"`
	FileErrors int       `json:"file_errors"`
}

// Event is emitted for the first snapshot and for every report the daemon
// processes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	File      string    `json:"file,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	Resources int       `json:"resources,omitempty"`
	Warnings  string    `json:"warnings,omitempty"`
	Error     string    `json:"error,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	SpoolDir        string    `json:"spool_dir"`
	Pattern         string    `json:"pattern"`
	StorePath       string    `json:"store_path"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	logger *zap.Logger
	store  *store.Store

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	logger := cfg.Options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		logger:    logger.Named("daemon"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

func (s *Service) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleJob)
	return mux
}

// Run opens the store, starts HTTP endpoints and polls the spool directory
// until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	st, err := store.Open(s.cfg.StorePath)
	if err != nil {
		return err
	}
	s.store = st
	defer func() { _ = st.Close() }()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	res, err := pipeline.LoadDirWithStore(ctx, s.cfg.SpoolDir, s.cfg.Pattern, s.store, s.cfg.Options, nil)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.logger.Error("poll failed", zap.String("dir", s.cfg.SpoolDir), zap.Error(err))
		return
	}

	jobs, err := s.store.JobCount(ctx)
	if err != nil {
		s.logger.Warn("counting jobs", zap.Error(err))
	}

	now := time.Now()
	var pending []Event

	s.mu.Lock()
	snap := s.snapshot
	snap.At = now
	snap.Files = res.TotalFiles
	snap.Jobs = jobs
	snap.Recorded += res.Recorded
	snap.FileErrors += res.FileErrors

	if !s.hasSnapshot {
		s.nextEventID++
		pending = append(pending, Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		})
	}
	for _, fr := range res.Files {
		ev := Event{Timestamp: now, File: fr.File.Path, Snapshot: snap}
		switch {
		case fr.Err != nil:
			ev.Type = EventReportFailed
			ev.Error = fr.Err.Error()
		case fr.Result.JobID == "":
			continue
		default:
			ev.Type = EventReportProcessed
			ev.JobID = fr.Result.JobID
			ev.Resources = len(fr.Result.Mapping)
			if fr.Result.Warnings != nil {
				ev.Warnings = fr.Result.Warnings.Error()
			}
		}
		s.nextEventID++
		ev.ID = s.nextEventID
		pending = append(pending, ev)
	}

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.mu.Unlock()

	if res.Reparsed > 0 {
		s.logger.Info("poll complete",
			zap.Int("files", res.TotalFiles),
			zap.Int("reparsed", res.Reparsed),
			zap.Int("recorded", res.Recorded),
			zap.Int("errors", res.FileErrors),
		)
	}

	for _, ev := range pending {
		s.publishEvent(ev)
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		SpoolDir:        s.cfg.SpoolDir,
		Pattern:         s.cfg.Pattern,
		StorePath:       s.cfg.StorePath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.LoadJob(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		s.logger.Error("loading job", zap.String("job_id", r.PathValue("id")), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
