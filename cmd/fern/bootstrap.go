package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/rowsource"
	"github.com/Ramsey-B/fern/pkg/emitter"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/exporter"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/validator"
)

// app holds the wired service graph for a single process
type app struct {
	cfg      *config.Config
	logger   ectologger.Logger
	reg      *registry.Registry
	exporter *exporter.Exporter
	loader   *rowsource.Loader
	health   *health.Checker
	producer *kafka.Producer
	shutdown func(context.Context) error
}

// bootstrap loads configuration, builds the service graph and registers the
// injectable services
func bootstrap(ctx context.Context) (*app, error) {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	shutdown := tracing.Init(cfg.AppName)

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry %s: %w", cfg.RegistryPath, err)
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
	}

	exp := exporter.New(
		reg,
		validator.New(reg, logger),
		emitter.New(cfg.OutputDir, logger),
		events.NewEmitter(producer, logger),
		cfg.OutputDir,
		logger,
	)
	loader := rowsource.NewLoader(cfg.RowSourceDir, logger)
	checker := health.NewChecker(reg, cfg.OutputDir, Version)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return nil, fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := ectoinject.RegisterInstance[*registry.Registry](container, reg); err != nil {
		return nil, fmt.Errorf("failed to register registry: %w", err)
	}
	if err := ectoinject.RegisterInstance[*exporter.Exporter](container, exp); err != nil {
		return nil, fmt.Errorf("failed to register exporter: %w", err)
	}
	if err := ectoinject.RegisterInstance[*rowsource.Loader](container, loader); err != nil {
		return nil, fmt.Errorf("failed to register row source loader: %w", err)
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"app":      cfg.AppName,
		"registry": cfg.RegistryPath,
		"entities": len(reg.Order()),
		"kafka":    cfg.KafkaEnabled,
	}).Info("service configured")

	return &app{
		cfg:      cfg,
		logger:   logger,
		reg:      reg,
		exporter: exp,
		loader:   loader,
		health:   checker,
		producer: producer,
		shutdown: shutdown,
	}, nil
}

// close releases the producer and flushes tracing
func (a *app) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.WithContext(ctx).WithError(err).Warn("failed to close kafka producer")
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.logger.WithContext(ctx).WithError(err).Warn("failed to shut down tracing")
		}
	}
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
