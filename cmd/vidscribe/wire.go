package main

import (
	"context"
	"fmt"

	"github.com/kbukum/vidscribe/api"
	"github.com/kbukum/vidscribe/bootstrap"
	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/intake"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/media"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/provider"
	"github.com/kbukum/vidscribe/redis"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/transcription/whisper"
	"github.com/kbukum/vidscribe/transcription/whispercpp"

	_ "github.com/kbukum/vidscribe/storage/local"
	_ "github.com/kbukum/vidscribe/storage/s3"
)

// service holds what the components built at configure time share.
type service struct {
	app     *bootstrap.App[*AppConfig]
	storage *storage.Component
	redis   *redis.Component
	metrics *observability.Metrics
	runner  *pipeline.Runner
}

// newService registers the infrastructure components and defers building
// the pipeline until they have started. With serve set the HTTP server and
// the inbox watcher are added as well.
func newService(app *bootstrap.App[*AppConfig], serve bool) (*service, error) {
	cfg := app.Cfg
	s := &service{app: app, storage: storage.NewComponent(cfg.Storage, app.Logger)}

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	s.metrics = metrics

	if err := app.RegisterComponent(s.storage); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		s.redis = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(s.redis); err != nil {
			return nil, err
		}
	}

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
		runner, err := s.buildRunner(ctx)
		if err != nil {
			return err
		}
		s.runner = runner
		if err := a.RegisterComponent(pipeline.NewComponent(runner, a.Logger)); err != nil {
			return err
		}
		if !serve {
			return nil
		}
		if cfg.Intake.Enabled {
			w, err := intake.New(cfg.Intake, runner, a.Logger)
			if err != nil {
				return err
			}
			if err := a.RegisterComponent(w); err != nil {
				return err
			}
		}
		if cfg.Server.Enabled {
			if err := a.RegisterComponent(server.NewComponent(s.buildServer())); err != nil {
				return err
			}
		}
		if !cfg.Intake.Enabled && !cfg.Server.Enabled {
			a.Logger.Warn("neither server nor intake is enabled; nothing will submit jobs")
		}
		return nil
	})
	return s, nil
}

func (s *service) buildRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg := s.app.Cfg
	log := s.app.Logger

	transcoder, err := media.NewTranscoder(cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	transcriber, err := newTranscriber(ctx, cfg.Transcription, log)
	if err != nil {
		return nil, err
	}

	var store pipeline.Store = pipeline.NewMemoryStore()
	if s.redis != nil {
		store = pipeline.NewRedisStore(s.redis.Client())
	}

	return pipeline.NewRunner(cfg.Pipeline, pipeline.Stages{
		Transcoder:  transcoder,
		Transcriber: transcriber,
		Uploader:    storage.NewUploadProvider(cfg.Storage.Provider, s.storage.Uploader()),
	}, store, log, pipeline.WithMetrics(s.metrics))
}

// newTranscriber initializes the configured backend through the provider
// manager. With a priority list every listed backend is initialized and the
// first available one wins; otherwise Backend is pinned.
func newTranscriber(ctx context.Context, cfg TranscriptionConfig, log *logger.Logger) (provider.RequestResponse[transcription.TranscriptionRequest, *transcription.TranscriptionResponse], error) {
	if log == nil {
		log = logger.Get("transcription")
	}
	opts := []transcription.ManagerOption{transcription.WithLogger(log.WithComponent("transcription"))}
	if len(cfg.Priority) > 0 {
		opts = append(opts, transcription.WithSelector(&provider.PrioritySelector[transcription.Provider]{Priority: cfg.Priority}))
	}
	mgr := transcription.NewManager(opts...)
	mgr.Register(whispercpp.ProviderName, whispercpp.Factory())
	mgr.Register(whisper.ProviderName, whisper.Factory())

	if len(cfg.Priority) == 0 {
		if err := mgr.Initialize(cfg.Backend, cfg.Providers[cfg.Backend]); err != nil {
			return nil, fmt.Errorf("transcription: %w", err)
		}
		if err := mgr.SetDefault(cfg.Backend); err != nil {
			return nil, fmt.Errorf("transcription: %w", err)
		}
	} else {
		for _, name := range cfg.Priority {
			if err := mgr.Initialize(name, cfg.Providers[name]); err != nil {
				return nil, fmt.Errorf("transcription: %w", err)
			}
		}
	}

	p, err := mgr.Get(ctx)
	if err != nil {
		// Nothing is reachable yet; keep the top choice so startup proceeds
		// and the pipeline component reports it as unavailable.
		if p, err = mgr.GetByName(cfg.Priority[0]); err != nil {
			return nil, fmt.Errorf("transcription: %w", err)
		}
	}
	if !p.IsAvailable(ctx) {
		log.Warn("transcription backend not available yet", logger.Fields("backend", p.Name()))
	}
	return transcription.AsRequestResponse(p), nil
}

func (s *service) buildServer() *server.Server {
	cfg := s.app.Cfg
	srv := server.New(cfg.Server, s.app.Logger,
		server.WithTracing(cfg.Name),
		server.WithMetrics(s.metrics),
	)
	srv.RegisterDefaultEndpoints(cfg.Name, func(ctx context.Context) []component.Health {
		return s.app.Components.HealthAll(ctx)
	})

	h := api.NewTranscriptHandler(s.runner, s.storage.Uploader(), api.Options{
		Folder:          s.runner.Config().Folder,
		UploadRateLimit: cfg.Server.UploadRateLimit,
	}, s.app.Logger)
	h.Register(srv.Engine().Group("/api/v1"))
	return srv
}
