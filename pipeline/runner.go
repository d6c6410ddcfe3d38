package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/media"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/provider"
	"github.com/kbukum/vidscribe/resilience"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/util"
	"github.com/kbukum/vidscribe/validation"
)

// Stages holds the collaborators a Runner drives.
type Stages struct {
	Transcoder  provider.RequestResponse[media.TranscodeRequest, *media.TranscodeResult]
	Transcriber provider.RequestResponse[transcription.TranscriptionRequest, *transcription.TranscriptionResponse]
	Uploader    provider.RequestResponse[storage.UploadRequest, *storage.UploadResult]
}

// Request is one video to transcribe.
type Request struct {
	// Name is the transcript name. Empty uses the first 16 hex characters
	// of the video's content hash.
	Name string
	// Video is read to EOF once.
	Video io.Reader
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records job and stage metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock overrides the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner drives jobs through the pipeline. It is safe for concurrent use;
// at most Config.MaxConcurrent jobs run at once.
type Runner struct {
	cfg      Config
	store    Store
	log      *logger.Logger
	metrics  *observability.Metrics
	now      func() time.Time
	bulkhead *resilience.Bulkhead

	transcoder  provider.RequestResponse[media.TranscodeRequest, *media.TranscodeResult]
	transcriber provider.RequestResponse[transcription.TranscriptionRequest, *transcription.TranscriptionResponse]
	uploader    provider.RequestResponse[storage.UploadRequest, *storage.UploadResult]
}

// NewRunner validates cfg and wraps every stage with logging, tracing,
// metrics and the stage's resilience policy.
func NewRunner(cfg Config, stages Stages, store Store, log *logger.Logger, opts ...Option) (*Runner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stages.Transcoder == nil || stages.Transcriber == nil || stages.Uploader == nil {
		return nil, errors.New("pipeline: transcoder, transcriber and uploader are required")
	}
	if store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	if log == nil {
		log = logger.Get("pipeline")
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:   cfg,
		store: store,
		log:   log,
		now:   time.Now,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "pipeline",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.QueueWait,
		}),
	}
	for _, o := range opts {
		o(r)
	}

	r.transcoder = wrapStage(stages.Transcoder, "transcode", cfg.Transcode, log, r.metrics)
	r.transcriber = wrapStage(stages.Transcriber, "transcribe", cfg.Transcribe, log, r.metrics)
	r.uploader = wrapStage(stages.Uploader, "upload", cfg.Upload, log, r.metrics)
	return r, nil
}

func wrapStage[I, O any](p provider.RequestResponse[I, O], stage string, sc StageConfig, log *logger.Logger, m *observability.Metrics) provider.RequestResponse[I, O] {
	p = provider.Chain(
		provider.WithLogging[I, O](log.WithFields(logger.Fields(logger.FieldStage, stage))),
		provider.WithTracing[I, O]("pipeline."+stage),
		provider.WithMetrics[I, O](m, "pipeline."+stage),
	)(p)
	return provider.WithResilience(p, sc.resilience(stage+"."+p.Name()))
}

// Config returns a copy of the runner's configuration.
func (r *Runner) Config() Config { return r.cfg }

// Store returns the job store.
func (r *Runner) Store() Store { return r.store }

// Available reports which stage providers are currently usable.
func (r *Runner) Available(ctx context.Context) map[string]bool {
	return map[string]bool{
		"transcode":  r.transcoder.IsAvailable(ctx),
		"transcribe": r.transcriber.IsAvailable(ctx),
		"upload":     r.uploader.IsAvailable(ctx),
	}
}

// Get returns a stored job.
func (r *Runner) Get(ctx context.Context, id string) (*Job, error) {
	return r.store.Get(ctx, id)
}

// Run processes one video to completion.
//
// Invalid requests and a full pipeline are rejected with (nil, error) before
// any job exists. Once a job is created it is always returned: on success
// with a nil error, on failure in state failed together with a *StageError.
// An identical video already transcribed under the same name returns the
// earlier job without doing any work.
func (r *Runner) Run(ctx context.Context, req Request) (*Job, error) {
	if req.Video == nil {
		return nil, apperrors.MissingField("video")
	}
	if req.Name != "" && !validation.IsTranscriptName(req.Name) {
		return nil, apperrors.InvalidInput("name", "must match "+validation.TranscriptNamePattern.String())
	}

	var job *Job
	err := r.bulkhead.Execute(ctx, func() error {
		var runErr error
		job, runErr = r.run(ctx, req)
		return runErr
	})
	if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
		return nil, apperrors.ServiceUnavailable("pipeline").WithCause(err)
	}
	if job == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, apperrors.Timeout("pipeline").WithCause(err)
	}
	return job, err
}

func (r *Runner) run(ctx context.Context, req Request) (*Job, error) {
	job := newJob(r.now())
	ctx = logger.ContextWithJobID(ctx, job.ID)
	log := r.log.WithContext(ctx)

	dir, err := os.MkdirTemp(r.cfg.WorkDir, "job-")
	if err != nil {
		return nil, apperrors.StorageError("create work dir", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("failed to remove work dir", logger.MergeWithError(logger.Fields(logger.FieldPath, dir), err))
		}
	}()

	videoPath := filepath.Join(dir, "video")
	hash, size, err := spool(req.Video, videoPath)
	if err != nil {
		return nil, apperrors.InvalidInput("video", "could not read upload").WithCause(err)
	}
	if size == 0 {
		return nil, apperrors.InvalidInput("video", "empty upload")
	}

	name := util.Coalesce(req.Name, defaultName(hash))
	job.Name = name
	job.ContentHash = hash

	if prev := r.findDuplicate(ctx, hash, name); prev != nil {
		log.Info("video already transcribed", logger.Fields("existing_job", prev.ID, "name", name))
		return prev, nil
	}

	if err := r.store.Save(ctx, job); err != nil {
		return nil, err
	}
	log.Info("job received", logger.Fields("name", name, "hash", hash, "bytes", size))

	r.metrics.JobStarted(ctx)
	defer func() {
		r.metrics.JobFinished(context.WithoutCancel(ctx), string(job.State), string(job.FailureReason))
	}()

	if err := r.advance(ctx, job, StateTranscoding); err != nil {
		return job, err
	}
	audio, err := execStage(ctx, r.cfg.Transcode.Timeout, r.transcoder, media.TranscodeRequest{
		Input:  videoPath,
		Output: filepath.Join(dir, "audio.wav"),
	})
	if err != nil {
		return r.fail(ctx, job, StateTranscoding, ReasonTranscodeFailed, err)
	}

	if err := r.advance(ctx, job, StateTranscribing); err != nil {
		return job, err
	}
	transcript, err := execStage(ctx, r.cfg.Transcribe.Timeout, r.transcriber, transcription.TranscriptionRequest{
		AudioPath: audio.Output,
		Language:  r.cfg.Language,
	})
	if err != nil {
		return r.fail(ctx, job, StateTranscribing, reasonFor(StateTranscribing, err), err)
	}
	job.Utterances = transcript.Utterances
	if job.Utterances == nil {
		job.Utterances = []transcription.Utterance{}
	}

	if err := r.advance(ctx, job, StateUploading); err != nil {
		return job, err
	}
	data, err := transcription.EncodeTranscript(job.Utterances)
	if err != nil {
		return r.fail(ctx, job, StateUploading, ReasonEncodeFailed, err)
	}
	uploaded, err := execStage(ctx, r.cfg.Upload.Timeout, r.uploader, storage.UploadRequest{
		Key:    transcription.ArtifactName(name),
		Folder: r.cfg.Folder,
		Data:   data,
	})
	if err != nil {
		return r.fail(ctx, job, StateUploading, ReasonUploadFailed, err)
	}
	job.TranscriptURL = uploaded.URL

	if err := r.advance(ctx, job, StateDone); err != nil {
		return job, err
	}
	log.Info("job done", logger.Fields("name", name, "utterances", len(job.Utterances), "url", job.TranscriptURL))
	return job, nil
}

func (r *Runner) findDuplicate(ctx context.Context, hash, name string) *Job {
	if r.cfg.DisableDedup {
		return nil
	}
	prev, err := r.store.FindByHash(ctx, hash, name)
	if err != nil {
		r.log.WithContext(ctx).Warn("dedup lookup failed", logger.MergeWithError(logger.Fields("hash", hash, "name", name), err))
		return nil
	}
	if prev == nil || prev.State != StateDone || prev.Name != name {
		return nil
	}
	return prev
}

// advance moves the job to next and persists it. A failed save rolls the
// transition back and fails the job from the state it was in.
func (r *Runner) advance(ctx context.Context, job *Job, next State) error {
	prev, prevAt := job.State, job.UpdatedAt
	if err := job.advance(next, r.now()); err != nil {
		return err
	}
	r.log.WithContext(ctx).Debug("job transition", logger.Fields(logger.FieldStage, string(next)))
	if err := r.store.Save(ctx, job); err != nil {
		job.State, job.UpdatedAt = prev, prevAt
		_, ferr := r.fail(ctx, job, prev, ReasonStoreFailed, err)
		return ferr
	}
	return nil
}

// fail records the failure on the job and persists it even when ctx is
// already canceled.
func (r *Runner) fail(ctx context.Context, job *Job, stage State, reason Reason, err error) (*Job, error) {
	if ctx.Err() != nil {
		reason = ReasonCanceled
	}
	se := &StageError{Stage: stage, Reason: reason, Err: err}
	if ferr := job.fail(se, r.now()); ferr != nil {
		return job, ferr
	}

	saveCtx := context.WithoutCancel(ctx)
	log := r.log.WithContext(saveCtx)
	if serr := r.store.Save(saveCtx, job); serr != nil {
		log.Error("failed to persist failed job", logger.ErrorFields("save", serr))
	}
	log.Error("job failed", logger.MergeWithError(logger.Fields(
		logger.FieldStage, string(stage),
		"reason", string(reason),
	), err))
	return job, se
}

func execStage[I, O any](ctx context.Context, timeout time.Duration, p provider.RequestResponse[I, O], in I) (O, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Execute(ctx, in)
}
