// Package web provides a read-only HTTP server over a book snapshot.
//
// The server exposes a small JSON API for querying balances and vouchers.
// When watching is enabled it reloads the snapshot file on change and
// notifies connected clients over Server-Sent Events.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zhanghe-dev/accountant/session"
	"github.com/zhanghe-dev/accountant/storage/snapshot"
	"github.com/zhanghe-dev/accountant/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool

	mu      sync.RWMutex
	session *session.Session

	// snapshotFile is the file path passed to New(); the served book is
	// reloaded from it whenever the watcher fires.
	snapshotFile string

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, snapshotFile string) *Server {
	return NewWithVersion(port, snapshotFile, "", "")
}

func NewWithVersion(port int, snapshotFile, version, commitSHA string) *Server {
	return &Server{
		Port:         port,
		Host:         "127.0.0.1",
		Version:      version,
		CommitSHA:    commitSHA,
		snapshotFile: snapshotFile,
	}
}

func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if s.snapshotFile == "" {
		return fmt.Errorf("snapshot file is required")
	}

	s.sseClients = make(map[chan string]struct{})

	loadTimer := timer.Child(fmt.Sprintf("web.load_snapshot %s", filepath.Base(s.snapshotFile)))
	if err := s.reloadSnapshot(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	mux := s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/balances", s.handleGetBalances)
	mux.HandleFunc("GET /api/vouchers", s.handleGetVouchers)
	mux.HandleFunc("GET /api/vouchers/{id}", s.handleGetVoucher)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// reloadSnapshot loads or reloads the book from disk.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reloadSnapshot(ctx context.Context) error {
	store, err := snapshot.Load(ctx, s.snapshotFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = session.New(store)
	s.mu.Unlock()

	return nil
}

// startWatcher starts a file watcher for the snapshot file. It reloads the
// book and broadcasts SSE events when the file changes.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the containing directory rather than the file itself so that
	// atomic-save renames keep being delivered.
	if err := watcher.Add(filepath.Dir(s.snapshotFile)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.snapshotFile, err)
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Debounce timer - editors often write files in multiple steps
	const debounceDelay = 100 * time.Millisecond

	target, _ := filepath.Abs(s.snapshotFile)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}

			// React to write/create/remove/rename events
			// (Remove/Rename are common in atomic saves)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

// handleFileChange reloads the book and notifies SSE clients.
func (s *Server) handleFileChange(ctx context.Context) {
	if err := s.reloadSnapshot(ctx); err != nil {
		log.Printf("Failed to reload snapshot: %v", err)
		return
	}
	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
		close(clientChan)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
