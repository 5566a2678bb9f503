package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Ramsey-B/laurel/config"
	"github.com/Ramsey-B/laurel/pkg/collapse"
	"github.com/Ramsey-B/laurel/pkg/ingest"
	laurelkafka "github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/matching"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/middleware"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/policy"
	"github.com/Ramsey-B/laurel/pkg/processor"
	"github.com/Ramsey-B/laurel/pkg/routes/deaths"
	"github.com/Ramsey-B/laurel/pkg/routes/health"
	"github.com/Ramsey-B/laurel/pkg/staging"
	"github.com/Ramsey-B/laurel/pkg/startup"
	"github.com/Ramsey-B/laurel/pkg/store"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/trust"
)

var version = "dev"

const startupMaxAttempts = 5

func main() {
	var (
		dryRun = flag.Bool("dry-run", false, "run the aggregation without writing outputs")
		serve  = flag.Bool("serve", false, "serve the read API after the run")
		outDir = flag.String("out", "", "override the dataset output directory")
	)
	flag.Parse()

	// Load .env if present
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := validator.New().Struct(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}

	logger := newLogger(cfg)

	// Tracing is a no-op unless an exporter is configured by deployment.
	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	tracing.SetTracer(tracerProvider.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *dryRun, *serve); err != nil {
		logger.WithError(err).Error("laurel exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger, dryRun, serve bool) error {
	sourcePolicy := policy.Default()
	scorer := trust.NewScorer(sourcePolicy)
	normalizer := staging.NewNormalizer(logger, scorer)
	merger := merging.NewEngine(logger, scorer)
	collapser := collapse.NewCollapser(logger, merger)
	repo := store.NewRepository(logger, cfg.OutDir)

	matchConfig := matching.DefaultConfig()
	matchConfig.NameVariantWindowDays = cfg.NameVariantWindowDays

	var publisher processor.DiffPublisher
	if cfg.KafkaProducerEnabled {
		producer := laurelkafka.NewProducer(laurelkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaDiffTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		publisher = producer
	}

	proc := processor.New(logger, normalizer, merger, collapser, repo, matchConfig, publisher)

	var tripletDB *sqlx.DB
	if cfg.TripletFeedEnabled {
		db, err := sqlx.Open("sqlite", cfg.TripletDBPath)
		if err != nil {
			logger.WithError(err).Warn("Failed to open triplet index, feed disabled")
		} else {
			tripletDB = db
			defer db.Close()
		}
	}

	candidates := collectCandidates(ctx, cfg, logger, repo, sourcePolicy, tripletDB)

	summary, err := proc.Run(ctx, candidates, processor.Options{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("aggregation run failed: %w", err)
	}
	logger.WithFields(map[string]any{
		"processed":     summary.Processed,
		"added":         summary.Added,
		"updated":       summary.Updated,
		"collapsed":     summary.Collapsed,
		"dropped":       summary.Dropped,
		"manual_review": summary.ManualReview,
		"total":         summary.Total,
	}).Info("Aggregation run complete")

	if !cfg.KafkaConsumerEnabled && !serve {
		return nil
	}

	// Long-running mode: bring up the consumer and API server through the
	// startup sequencer and wait for a signal.
	boot := startup.NewStartup(logger, startupMaxAttempts)
	if cfg.KafkaConsumerEnabled {
		intake := newCandidateIntake(proc, logger)
		boot.AddDependency(&consumerDependency{
			consumer: laurelkafka.NewConsumer(cfg, logger, intake.Handle),
		})
	}
	if serve {
		boot.AddDependency(newServerDependency(cfg, logger, repo, tripletDB))
	}

	if err := boot.Start(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return boot.Stop(shutdownCtx)
}

// candidateIntake buffers candidates arriving over Kafka and runs the
// aggregation when a flush message lands.
type candidateIntake struct {
	mu         sync.Mutex
	proc       *processor.Processor
	logger     ectologger.Logger
	candidates []models.RawRecord
}

func newCandidateIntake(proc *processor.Processor, logger ectologger.Logger) *candidateIntake {
	return &candidateIntake{
		proc:   proc,
		logger: logger,
	}
}

func (i *candidateIntake) Handle(ctx context.Context, msg *laurelkafka.IncomingMessage) error {
	if !msg.IsFlushMessage() {
		i.mu.Lock()
		i.candidates = append(i.candidates, msg.Candidate)
		i.mu.Unlock()
		return nil
	}

	i.mu.Lock()
	batch := i.candidates
	i.candidates = nil
	i.mu.Unlock()

	summary, err := i.proc.Run(ctx, batch, processor.Options{})
	if err != nil {
		// Put the batch back so the retried flush still covers it.
		i.mu.Lock()
		i.candidates = append(batch, i.candidates...)
		i.mu.Unlock()
		return err
	}
	i.logger.WithFields(map[string]any{
		"processed": summary.Processed,
		"added":     summary.Added,
		"updated":   summary.Updated,
	}).Info("Flushed buffered candidates")
	return nil
}

// collectCandidates gathers candidates from every enabled feed. A failing
// feed is logged and skipped so one bad source never blocks the run.
func collectCandidates(
	ctx context.Context,
	cfg config.Config,
	logger ectologger.Logger,
	repo *store.Repository,
	sourcePolicy *policy.SourcePolicy,
	tripletDB *sqlx.DB,
) []models.RawRecord {
	accessDate := time.Now().UTC().Format("2006-01-02")
	var candidates []models.RawRecord

	if tripletDB != nil {
		feed := ingest.NewTripletFeed(tripletDB, logger, sourcePolicy)
		records, err := feed.Collect(ctx, cfg.TripletWindowDays, accessDate)
		if err != nil {
			logger.WithError(err).Warn("Triplet feed failed, continuing without it")
		} else {
			candidates = append(candidates, records...)
		}
	}

	if cfg.ReportFeedEnabled {
		feed := ingest.NewReportFeed(cfg.ReportFeedPath, cfg.FeedMinYear, logger)
		records, err := feed.Collect(ctx, accessDate)
		if err != nil {
			logger.WithError(err).Warn("Death report feed failed, continuing without it")
		} else {
			candidates = append(candidates, records...)
		}
	}

	if cfg.NewsroomFeedEnabled {
		existing, _, err := repo.LoadRecords()
		if err != nil {
			logger.WithError(err).Warn("Failed to load existing records for stop keys")
			existing = map[string]*models.DeathRecord{}
		}
		feed := ingest.NewNewsroomFeed(cfg.NewsroomFeedPath, cfg.FeedMinYear, logger)
		records, err := feed.Collect(ctx, accessDate, ingest.StopKeys(existing))
		if err != nil {
			logger.WithError(err).Warn("Press release feed failed, continuing without it")
		} else {
			candidates = append(candidates, records...)
		}
	}

	return candidates
}

// consumerDependency runs the Kafka candidate consumer under the startup
// sequencer.
type consumerDependency struct {
	consumer *laurelkafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "candidate-consumer" }
func (d *consumerDependency) DependsOn() []string { return nil }

func (d *consumerDependency) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}

func (d *consumerDependency) Stop(_ context.Context) error {
	return d.consumer.Stop()
}

// serverDependency runs the read API under the startup sequencer.
type serverDependency struct {
	cfg     config.Config
	logger  ectologger.Logger
	echo    *echo.Echo
	checker *health.Checker
}

func newServerDependency(cfg config.Config, logger ectologger.Logger, repo *store.Repository, tripletDB *sqlx.DB) *serverDependency {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(repo, tripletDB, version)
	checker.RegisterRoutes(e)

	handler := deaths.NewHandler(repo, logger)
	handler.Register(e.Group("/api/v1/deaths"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	return &serverDependency{
		cfg:     cfg,
		logger:  logger,
		echo:    e,
		checker: checker,
	}
}

func (d *serverDependency) GetName() string     { return "api-server" }
func (d *serverDependency) DependsOn() []string { return nil }

func (d *serverDependency) Start(_ context.Context) error {
	go func() {
		if err := d.echo.Start(fmt.Sprintf(":%d", d.cfg.Port)); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("API server exited")
		}
	}()
	d.checker.SetReady(true)
	d.logger.WithField("port", d.cfg.Port).Info("API server started")
	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	d.checker.SetReady(false)
	return d.echo.Shutdown(ctx)
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapConfig zap.Config
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapConfig.Level = level
	}
	zapLogger, err := zapConfig.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}
