package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
)

// Submitter runs a pipeline job. *pipeline.Runner implements it.
type Submitter interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Job, error)
}

// Watcher feeds video files dropped into an inbox directory to the pipeline.
// A file is submitted once no write has touched it for Config.SettleDelay.
type Watcher struct {
	cfg    Config
	runner Submitter
	log    *logger.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	loopEnd chan struct{}
	jobs    sync.WaitGroup
}

var (
	_ component.Component   = (*Watcher)(nil)
	_ component.Describable = (*Watcher)(nil)
)

// New creates a Watcher.
func New(cfg Config, runner Submitter, log *logger.Logger) (*Watcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("intake: runner is required")
	}
	if log == nil {
		log = logger.Get("intake")
	}
	return &Watcher{
		cfg:    cfg,
		runner: runner,
		log:    log,
		timers: make(map[string]*time.Timer),
	}, nil
}

// Name returns "intake".
func (w *Watcher) Name() string { return "intake" }

// Start begins watching the inbox directory.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("intake: create inbox: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("intake: create watcher: %w", err)
	}
	if err := fsw.Add(w.cfg.Dir); err != nil {
		fsw.Close()
		return fmt.Errorf("intake: watch %s: %w", w.cfg.Dir, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.mu.Lock()
	w.fsw = fsw
	w.cancel = cancel
	w.stopped = false
	w.loopEnd = make(chan struct{})
	w.mu.Unlock()

	go w.loop(runCtx, fsw)

	if w.cfg.ScanExisting {
		w.scan(runCtx)
	}
	w.log.Info("watching inbox", logger.Fields(logger.FieldPath, w.cfg.Dir))
	return nil
}

// Stop stops watching, cancels pending submissions and waits for running
// jobs until ctx expires.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.fsw == nil || w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	fsw, cancel, loopEnd := w.fsw, w.cancel, w.loopEnd
	w.mu.Unlock()

	err := fsw.Close()
	<-loopEnd

	finished := make(chan struct{})
	go func() {
		w.jobs.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		cancel()
		<-finished
	}
	cancel()
	return err
}

// Health reports whether the watcher is running.
func (w *Watcher) Health(context.Context) component.Health {
	w.mu.Lock()
	running := w.fsw != nil && !w.stopped
	w.mu.Unlock()
	if !running {
		return component.Health{Name: w.Name(), Status: component.StatusUnhealthy, Message: "not watching"}
	}
	return component.Health{Name: w.Name(), Status: component.StatusHealthy}
}

// Describe returns the inbox directory and accepted extensions.
func (w *Watcher) Describe() component.Description {
	return component.Description{
		Type:    "intake",
		Details: fmt.Sprintf("dir=%s ext=%s settle=%s", w.cfg.Dir, strings.Join(w.cfg.Extensions, ","), w.cfg.SettleDelay),
	}
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.loopEnd)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if w.accepts(event.Name) {
					w.schedule(ctx, event.Name)
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.forget(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("inbox watcher error", logger.ErrorFields("watch", err))
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.log.Warn("inbox scan failed", logger.ErrorFields("scan", err))
		return
	}
	for _, e := range entries {
		path := filepath.Join(w.cfg.Dir, e.Name())
		if e.Type().IsRegular() && w.accepts(path) {
			w.schedule(ctx, path)
		}
	}
}

func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(w.cfg.Extensions, strings.ToLower(filepath.Ext(base)))
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.cfg.SettleDelay)
		return
	}
	w.timers[path] = time.AfterFunc(w.cfg.SettleDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.jobs.Add(1)
		w.mu.Unlock()

		defer w.jobs.Done()
		w.submit(ctx, path)
	})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) submit(ctx context.Context, path string) {
	fields := logger.Fields(logger.FieldPath, path)

	f, err := os.Open(path)
	if err != nil {
		w.log.Warn("cannot open inbox file", logger.MergeWithError(fields, err))
		return
	}
	defer f.Close()

	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	job, err := w.runner.Run(ctx, pipeline.Request{Name: NameFor(path), Video: f})
	if job != nil {
		fields["job_id"] = job.ID
		fields["state"] = string(job.State)
	}
	if err != nil {
		w.log.Error("inbox job failed", logger.MergeWithError(fields, err))
		return
	}
	fields["url"] = job.TranscriptURL
	w.log.Info("inbox job done", fields)
}

// NameFor derives a transcript name from a file path: the base name without
// extension, with characters outside [A-Za-z0-9._-] replaced by '-' and
// truncated to 128 bytes. An unusable result yields "" so the pipeline falls
// back to the content hash.
func NameFor(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := b.String()
	if len(name) > 128 {
		name = name[:128]
	}
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}
