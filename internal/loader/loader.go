// Package loader drains staged bimport records into the ILS in one locked batch run.
//
// A run acquires the lock file, combines every staged record into a single
// data file, runs the bimport tool once, writes a failure marker for each
// customer the tool rejected and removes the consumed records. A run that
// finds the lock held defers without touching anything.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain"
	"github.com/metro-mecard/mecard/internal/domain/failure"
	"github.com/metro-mecard/mecard/internal/ils/bimport"
)

// CommandFactory builds the bimport tool invocation.
type CommandFactory func(cfg command.Config) (command.Command, error)

// FailureRecorder publishes rejected customers beyond the marker files.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f failure.Failure) error
}

// Observer receives every finished report.
type Observer interface {
	ObserveRun(r Report)
}

// Option configures a Loader.
type Option func(*Loader)

// WithCommandFactory replaces process execution, mainly for tests.
func WithCommandFactory(f CommandFactory) Option {
	return func(l *Loader) { l.newCommand = f }
}

// WithRecorder publishes failures to r as well as to marker files.
func WithRecorder(r FailureRecorder) Option {
	return func(l *Loader) { l.recorder = r }
}

// WithObserver reports every run to o.
func WithObserver(o Observer) Option {
	return func(l *Loader) { l.observer = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// Loader runs batch loads. Runs may be started concurrently; the lock file
// lets at most one of them load.
type Loader struct {
	cfg        Config
	logger     *zap.Logger
	newCommand CommandFactory
	recorder   FailureRecorder
	observer   Observer
	now        func() time.Time

	mu   sync.Mutex
	last *Report
}

// New creates a Loader.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		cfg:    cfg,
		logger: logger.Named("loader"),
		newCommand: func(c command.Config) (command.Command, error) {
			return command.New(c)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the loader settings.
func (l *Loader) Config() Config { return l.cfg }

// Run performs one batch load and reports its outcome.
func (l *Loader) Run(ctx context.Context) Report {
	rep := l.run(ctx)
	rep.Duration = l.now().Sub(rep.Started)
	if rep.Err != nil {
		rep.Reason = rep.Err.Error()
	}

	l.mu.Lock()
	last := rep
	l.last = &last
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.ObserveRun(rep)
	}
	l.logReport(rep)
	return rep
}

func (l *Loader) run(ctx context.Context) (rep Report) {
	rep = Report{RunID: uuid.NewString(), Started: l.now()}
	log := l.logger.With(zap.String("run_id", rep.RunID))

	m := newMachine(log)
	defer func() { rep.Path = m.path }()

	if err := m.fire(ctx, eventAcquire); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	if err := ctx.Err(); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	lock := lockFile{path: l.cfg.LockPath}
	if err := lock.acquire(rep.RunID, rep.Started); err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			_ = m.fire(ctx, eventDefer)
			rep.Result = ResultDeferred
			rep.LockAge, _ = lock.age(l.now())
			rep.StaleLock = l.cfg.StaleAfter > 0 && rep.LockAge > l.cfg.StaleAfter
			return rep
		}
		return l.abort(ctx, m, rep, err)
	}
	defer func() {
		if rep.LockRetained {
			log.Error("bimport may still be running, lock kept until it is removed", zap.String("lock", l.cfg.LockPath))
			return
		}
		if err := lock.release(); err != nil {
			log.Error("failed to release lock, later loads will defer until it is removed", zap.Error(err))
		}
	}()

	files, err := stagedFiles(l.cfg.LoadDir)
	if err != nil {
		return l.abort(ctx, m, rep, err)
	}
	if len(files) == 0 {
		return l.finish(ctx, m, rep, ResultEmpty, nil)
	}

	header := bimport.HeaderPath(l.cfg.LoadDir)
	if _, err := os.Stat(header); err != nil {
		return l.abort(ctx, m, rep, fmt.Errorf("%s: %w", header, domain.ErrHeaderMissing))
	}

	lines, consumed, skipped := readRecords(files, log)
	rep.Skipped = skipped
	rep.Staged = len(consumed)
	if len(consumed) == 0 {
		return l.finish(ctx, m, rep, ResultEmpty, nil)
	}

	combined, err := writeCombined(l.cfg.LoadDir, lines, l.cfg.Encoding, l.now())
	if err != nil {
		return l.abort(ctx, m, rep, err)
	}
	rep.CombinedFile = combined
	if err := m.fire(ctx, eventLoad); err != nil {
		l.removeCombined(log, combined)
		return l.abort(ctx, m, rep, err)
	}

	if !l.cfg.Upload {
		return l.finish(ctx, m, rep, ResultNotUploaded, func() { l.cleanup(log, consumed, combined) })
	}

	st := l.execute(ctx, log, header, combined)
	rep.ExitCode = st.ExitCode
	rep.LockRetained = st.Orphaned
	if !st.Completed() {
		// Outcome unknown: keep the staged records and mark nobody failed.
		l.removeCombined(log, combined)
		return l.abort(ctx, m, rep, fmt.Errorf("bimport did not complete (exit %d): %s", st.ExitCode, oneLine(st.Stderr)))
	}

	if err := m.fire(ctx, eventParse); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	rep.Failed = failedCustomers(st.Stdout, l.cfg.FailedPattern)

	if err := m.fire(ctx, eventReconcile); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	l.reconcile(ctx, log, rep.RunID, rep.Failed, st)

	result := ResultSuccess
	if len(rep.Failed) > 0 {
		result = ResultFailed
	}
	return l.finish(ctx, m, rep, result, func() { l.cleanup(log, consumed, combined) })
}

// finish walks the machine through cleaning back to idle, running clean in between.
func (l *Loader) finish(ctx context.Context, m *machine, rep Report, result Result, clean func()) Report {
	if err := m.fire(ctx, eventClean); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	if clean != nil {
		clean()
	}
	if err := m.fire(ctx, eventFinish); err != nil {
		return l.abort(ctx, m, rep, err)
	}
	rep.Result = result
	return rep
}

func (l *Loader) abort(ctx context.Context, m *machine, rep Report, err error) Report {
	_ = m.fire(ctx, eventAbort)
	rep.Result = ResultAborted
	rep.Err = err
	return rep
}

func (l *Loader) execute(ctx context.Context, log *zap.Logger, header, data string) command.Status {
	cmd, err := l.newCommand(command.Config{
		Args:    toolArgs(l.cfg.Tool, header, data),
		Dir:     l.cfg.Tool.BImportDir,
		Timeout: l.cfg.Timeout,
		Secrets: []string{l.cfg.Tool.Password},
	})
	if err != nil {
		return command.Status{ExitCode: command.ExitLaunchFailed, Stderr: err.Error()}
	}
	log.Info("running bimport", zap.Stringer("command", cmd))
	return cmd.Execute(ctx)
}

func (l *Loader) reconcile(ctx context.Context, log *zap.Logger, runID string, failed []string, st command.Status) {
	if len(failed) == 0 {
		return
	}
	if err := os.MkdirAll(l.cfg.FailureDir, 0o750); err != nil {
		log.Error("failed to create failure dir", zap.String("dir", l.cfg.FailureDir), zap.Error(err))
	}
	at := l.now()
	for _, id := range failed {
		f := failure.Failure{CustomerID: id, RunID: runID, Stdout: st.Stdout, Stderr: st.Stderr, At: at}
		path, err := writeFailureMarker(l.cfg.FailureDir, f)
		if err != nil {
			log.Error("failed to write failure marker", zap.String("customer_id", id), zap.Error(err))
		} else {
			log.Warn("customer failed to load", zap.String("customer_id", id), zap.String("marker", path))
		}
		if l.recorder != nil {
			if err := l.recorder.RecordFailure(ctx, f); err != nil {
				log.Warn("failed to record outcome", zap.String("customer_id", id), zap.Error(err))
			}
		}
	}
}

// cleanup removes consumed staged records and, unless retained, the combined file.
func (l *Loader) cleanup(log *zap.Logger, consumed []string, combined string) {
	for _, path := range consumed {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("failed to remove staged record", zap.String("file", path), zap.Error(err))
		}
	}
	l.removeCombined(log, combined)
}

func (l *Loader) removeCombined(log *zap.Logger, combined string) {
	if l.cfg.RetainCombined || combined == "" {
		return
	}
	if err := os.Remove(combined); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove combined file", zap.String("file", combined), zap.Error(err))
	}
}

func (l *Loader) logReport(rep Report) {
	fields := []zap.Field{
		zap.String("run_id", rep.RunID),
		zap.String("result", string(rep.Result)),
		zap.Int("staged", rep.Staged),
		zap.Int("failed", len(rep.Failed)),
		zap.Int("skipped", len(rep.Skipped)),
		zap.Duration("duration", rep.Duration),
	}
	switch {
	case rep.Result == ResultAborted:
		l.logger.Error("batch load aborted", append(fields, zap.Error(rep.Err))...)
	case rep.StaleLock:
		l.logger.Error("batch load lock looks stuck", append(fields,
			zap.String("lock", l.cfg.LockPath), zap.Duration("lock_age", rep.LockAge))...)
	case rep.Result == ResultFailed:
		l.logger.Warn("batch load finished: "+rep.Summary(), fields...)
	default:
		l.logger.Info("batch load finished: "+rep.Summary(), fields...)
	}
}

// LastReport returns the most recent run's report.
func (l *Loader) LastReport() (Report, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Report{}, false
	}
	return *l.last, true
}

// LockAge returns how long the lock file has existed, and false when no load is running.
func (l *Loader) LockAge() (time.Duration, bool) {
	return lockFile{path: l.cfg.LockPath}.age(l.now())
}

// LockStale reports whether a held lock is older than the stale threshold.
func (l *Loader) LockStale() bool {
	age, held := l.LockAge()
	return held && l.cfg.StaleAfter > 0 && age > l.cfg.StaleAfter
}

// toolArgs builds the bimport command line. Each flag is concatenated with its value.
func toolArgs(t config.BImportConfig, header, data string) []string {
	exe := t.Executable
	if t.BImportDir != "" && !filepath.IsAbs(exe) {
		exe = filepath.Join(t.BImportDir, exe)
	}
	f := t.Flags
	args := []string{
		exe,
		f.Server + t.Server,
		f.User + t.User,
		f.Password + t.Password,
		f.Database + t.Database,
	}
	if t.ServerAlias != "" {
		args = append(args, f.Alias+t.ServerAlias)
	}
	args = append(args,
		f.Header+header,
		f.Data+data,
		f.Key+t.UniqueKey,
		f.Format+t.Version,
		f.BType+t.BType,
		f.MailType+t.MailType,
		f.Location+t.Location,
	)
	if t.Indexed {
		args = append(args, f.Indexed)
	}
	return args
}
