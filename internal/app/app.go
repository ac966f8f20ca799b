package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/internal/config"
	"github.com/focusloop/attention-budget/internal/server"
	"github.com/focusloop/attention-budget/pkg/behavior"
	"github.com/focusloop/attention-budget/pkg/classify"
	"github.com/focusloop/attention-budget/pkg/engine"
	"github.com/focusloop/attention-budget/pkg/nudge"
	nudgeBuiltin "github.com/focusloop/attention-budget/pkg/nudge/builtin"
	"github.com/focusloop/attention-budget/pkg/spiral"
	"github.com/focusloop/attention-budget/pkg/state"
	"github.com/focusloop/attention-budget/pkg/storage"
)

// App holds all application dependencies and manages the lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components are
// initialized in dependency order: Redis, storage, engine config, analytics
// components, the engine itself, servers, telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	redisClient, err := storage.InitRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	app.redisClient = redisClient

	kv := storage.NewCachedKV(
		storage.NewRedisKV(redisClient, storage.RedisKVConfig{}),
		time.Duration(cfg.CacheTTLMinutes)*time.Minute,
	)
	store := state.NewStore(kv)

	fileConfig, err := engine.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config from %s: %w", cfg.ConfigPath, err)
	}
	logrus.Infof("loaded engine configuration from %s", cfg.ConfigPath)

	nudgeBuiltin.RegisterSinkTypes()
	sinkRegistry := nudge.NewRegistry()
	if err := nudge.RegisterSinks(sinkRegistry, fileConfig.Sinks); err != nil {
		return nil, fmt.Errorf("failed to register sinks: %w", err)
	}
	dispatcher := nudge.NewDispatcher(sinkRegistry)

	detector := spiral.NewDetector(store, spiral.DefaultConfig())
	tracker := behavior.NewTracker(store, behavior.DefaultConfig())
	classifier := app.initClassifier()

	eng := engine.New(store, fileConfig.PlanTable(), detector, tracker, classifier, dispatcher)

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, eng)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup API server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")
	return app, nil
}

// initClassifier builds the classifier client, or a neutral stand-in when
// no endpoint is configured.
func (a *App) initClassifier() classify.Classifier {
	if a.cfg.ClassifierURL == "" {
		logrus.Warn("no CLASSIFIER_URL configured, all videos classified neutral")
		return classify.Static{Category: state.CategoryNeutral, Confidence: 0}
	}
	return classify.NewHTTPClient(classify.HTTPClientConfig{
		Endpoint:   a.cfg.ClassifierURL,
		Timeout:    time.Duration(a.cfg.ClassifierTimeoutMs) * time.Millisecond,
		MaxRetries: uint64(a.cfg.ClassifierRetries),
	})
}
