package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/ils/bimport"
)

// Runner performs one batch load.
type Runner interface {
	Run(ctx context.Context) Report
}

// SchedulerOptions controls when runs start.
type SchedulerOptions struct {
	Interval time.Duration
	// WatchDir, when set, starts a run shortly after a staged record appears in it.
	WatchDir string
	Debounce time.Duration
}

// Scheduler runs the loader on an interval and, optionally, when new records
// are staged. Runs started by one Scheduler never overlap.
type Scheduler struct {
	runner  Runner
	opts    SchedulerOptions
	logger  *zap.Logger
	trigger chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(r Runner, opts SchedulerOptions, logger *zap.Logger) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	return &Scheduler{
		runner:  r,
		opts:    opts,
		logger:  logger.Named("scheduler"),
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the scheduling loop. It returns once the loop is running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil
	}
	if s.opts.Interval <= 0 && s.opts.WatchDir == "" {
		return fmt.Errorf("scheduler needs an interval or a watch dir")
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if s.opts.WatchDir != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Add(s.opts.WatchDir); err != nil {
			_ = w.Close()
			return fmt.Errorf("watch %s: %w", s.opts.WatchDir, err)
		}
		s.watcher = w
		events, errs = w.Events, w.Errors
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done, events, errs)

	s.logger.Info("scheduler started",
		zap.Duration("interval", s.opts.Interval),
		zap.String("watch_dir", s.opts.WatchDir),
	)
	return nil
}

// Trigger requests a run as soon as the current one, if any, finishes.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done, w := s.cancel, s.done, s.watcher
	s.cancel, s.done, s.watcher = nil, nil, nil
	s.mu.Unlock()
	if done == nil {
		return
	}

	cancel()
	<-done
	if w != nil {
		if err := w.Close(); err != nil {
			s.logger.Warn("close watcher", zap.Error(err))
		}
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}, events <-chan fsnotify.Event, errs <-chan error) {
	defer close(done)

	var tick <-chan time.Time
	if s.opts.Interval > 0 {
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(s.opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && bimport.IsStaged(filepath.Base(ev.Name)) {
				debounce.Reset(s.opts.Debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.runner.Run(ctx)
}
