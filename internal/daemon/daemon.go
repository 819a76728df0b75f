// Package daemon provides the watch daemon that keeps an in-memory
// store in sync with the persisted snapshot file.
//
// The snapshot lives in an embedded SQLite file that several processes
// may write (a CLI invocation mutates it, a dashboard process reads
// it). The daemon:
// 1. Watches the snapshot database file for changes
// 2. Debounces bursts of writes (SQLite touches db/-wal repeatedly)
// 3. Rehydrates the store from durable storage after each burst
// 4. Handles graceful shutdown
//
// The daemon never refreshes from the remote API on its own: the cache
// has no TTL, and cache-or-fetch decisions belong to the sync
// orchestrator.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/userdeck/userdeck/internal/store"
)

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long to wait after the last file event
	// before rehydrating. This batches rapid writes together.
	DebounceInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 200 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching and store rehydration.
type Daemon struct {
	store  *store.Store
	dbPath string
	config *Config

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   time.Time

	// OnRehydrate, when set, is invoked after every rehydration, once
	// store subscribers have been notified.
	OnRehydrate func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires:
//   - st: the store to rehydrate
//   - dbPath: path of the snapshot database file to watch
//
// Use Start() to begin watching.
func New(st *store.Store, dbPath string) (*Daemon, error) {
	return NewWithConfig(st, dbPath, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(st *store.Store, dbPath string, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:   st,
		dbPath:  dbPath,
		config:  config,
		watcher: watcher,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon rehydrates once on startup, then watches the snapshot
// file's directory for writes and rehydrates after each debounced
// burst. This blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting watch daemon")

	// Pick up whatever state another process left behind
	d.store.Rehydrate()

	// Watch the directory rather than the file: SQLite replaces the
	// -wal sibling, and some editors/filesystems replace files on
	// write, which drops a file-level watch.
	dir := filepath.Dir(d.dbPath)
	if err := d.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	d.config.Logger.Printf("Watching: %s", d.dbPath)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processPending()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping watch daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Watch daemon stopped")
	return nil
}

// relevant reports whether a filesystem event concerns the snapshot
// database file or one of its SQLite siblings (-wal, -shm, -journal).
func (d *Daemon) relevant(name string) bool {
	return strings.HasPrefix(filepath.Clean(name), filepath.Clean(d.dbPath))
}

// watchFileEvents monitors filesystem events and records the pending
// rehydration deadline.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			d.pendingMu.Lock()
			d.pending = time.Now().Add(d.config.DebounceInterval)
			d.pendingMu.Unlock()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processPending polls the pending deadline and rehydrates once a
// burst of writes has settled.
func (d *Daemon) processPending() {
	defer d.wg.Done()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.pendingMu.Lock()
			due := !d.pending.IsZero() && time.Now().After(d.pending)
			if due {
				d.pending = time.Time{}
			}
			d.pendingMu.Unlock()

			if !due {
				continue
			}

			d.config.Logger.Println("Snapshot file changed, rehydrating")
			d.store.Rehydrate()
			if d.OnRehydrate != nil {
				d.OnRehydrate()
			}
		}
	}
}
