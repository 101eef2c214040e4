package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appsvc "cadgen/internal/app"
	"cadgen/internal/assistant"
	"cadgen/internal/cache"
	"cadgen/internal/config"
	"cadgen/internal/metrics"
	"cadgen/internal/model"
	"cadgen/internal/pkg/logger"
	rabbitmqClient "cadgen/internal/platform/rabbitmq"
	redisClient "cadgen/internal/platform/redis"
	"cadgen/internal/render"
	"cadgen/internal/storage"
	"cadgen/internal/worker"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Storage  *storage.Paths
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Sessions  *appsvc.SessionService
	Uploads   *appsvc.UploadService
	Generator *appsvc.GenerationService
	Preview   *appsvc.PreviewService

	AuditWorker *worker.GenerationAuditWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.Log, cfg.IsProd())
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithConfig(ctx, cfg, log, reg)
}

// NewWithConfig wires the App from an already loaded config.
func NewWithConfig(ctx context.Context, cfg *config.Config, log *zap.Logger, reg *prometheus.Registry) (*App, error) {
	defaultFormat, err := model.ParseFormat(cfg.Generation.DefaultFormat)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		Storage:   storage.New(cfg.Storage.UploadDir, cfg.Storage.OutputDir),
		Registry:  reg,
		StartedAt: time.Now(),
	}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewCollector(cfg.Metrics.Namespace, reg, log)
	}

	previewAsset := cfg.Viewer.PreviewAsset
	if previewAsset != "" {
		if previewAsset, err = a.Storage.ResolveAsset(previewAsset); err != nil {
			return nil, err
		}
	}

	var store appsvc.SessionStore
	switch cfg.Session.Store {
	case "redis":
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = cache.NewRedisSessionStore(a.Redis, cfg.Session.TTL.Duration)
	default:
		store = cache.NewMemorySessionStore(cfg.Session.TTL.Duration)
	}

	renderer := render.New(render.Config{
		Width:       cfg.Viewer.Width,
		Height:      cfg.Viewer.Height,
		Supersample: cfg.Viewer.Supersample,
		PreScale:    cfg.Viewer.PreScale,
	}, log)

	a.Sessions = appsvc.NewSessionService(store, cfg.Session.Secret, cfg.Session.TTL.Duration, defaultFormat, log)
	a.Uploads = appsvc.NewUploadService(a.Storage, a.Metrics, log)
	a.Generator = appsvc.NewGenerationService(a.Storage, newAssistant(cfg.Assistant), appsvc.GenerationConfig{
		Delay:        cfg.Generation.Delay.Duration,
		ModeSuffix:   cfg.Generation.ModeSuffix,
		PreviewAsset: previewAsset,
	}, a.Metrics, log)
	a.Preview = appsvc.NewPreviewService(renderer, a.Storage, a.Metrics, log)

	if cfg.Events.Enabled {
		if err := a.startEvents(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	log.Info("app initialized",
		zap.String("session_store", store.Name()),
		zap.String("assistant", cfg.Assistant.Provider),
		zap.Bool("events", cfg.Events.Enabled),
		zap.String("upload_dir", a.Storage.UploadDir()),
		zap.String("output_dir", a.Storage.OutputDir()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return a, nil
}

func newAssistant(cfg config.AssistantConfig) assistant.Assistant {
	if cfg.Provider == "openai" {
		return assistant.NewOpenAICompatible(assistant.ChatConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout.Duration,
		})
	}
	return assistant.NewStub()
}

func (a *App) startEvents(ctx context.Context) error {
	conn, err := rabbitmqClient.New(ctx, a.Config.Events.URL)
	if err != nil {
		return err
	}
	a.MQConn = conn
	a.Generator.SetPublisher(rabbitmqClient.NewEventPublisher(conn, a.Config.Events.Queue))

	if a.Config.Events.Audit {
		a.AuditWorker = worker.NewGenerationAuditWorker(conn, a.Config.Events.Queue, worker.LogHandler(a.Logger), a.Logger)
		if err := a.AuditWorker.Start(ctx); err != nil {
			return fmt.Errorf("start audit worker failed: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
