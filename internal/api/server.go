package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/feishu-notifier/internal/actions"
	"github.com/dhima/feishu-notifier/internal/api/handlers"
	"github.com/dhima/feishu-notifier/internal/api/middleware"
	"github.com/dhima/feishu-notifier/internal/dispatch"
	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/scheduler"
	"github.com/dhima/feishu-notifier/internal/storage"
	"github.com/dhima/feishu-notifier/internal/tasks"
	platformEvents "github.com/dhima/feishu-notifier/platform/events"
	"github.com/dhima/feishu-notifier/platform/feishu"
	"github.com/dhima/feishu-notifier/platform/llm"
	"github.com/dhima/feishu-notifier/platform/news"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/dhima/feishu-notifier/pkg/config"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server orchestrates HTTP routing, the calendar registry and dispatch workers.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine
	db     *sql.DB

	store      *storage.Client
	publisher  *platformEvents.Publisher
	dispatcher *dispatch.Dispatcher
	registry   *scheduler.Registry
}

// NewServer opens the configured database, applies the schema and wires the API dependencies.
func NewServer(ctx context.Context, cfg config.App, logger logging.Logger) (*Server, error) {
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	server, err := newServer(cfg, logger, db, prometheus.NewRegistry(), true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := server.store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return server, nil
}

// newServer builds the dependency graph over an open database. reg receives the notifier
// collectors; withRuntime adds the Go and process collectors.
func newServer(cfg config.App, logger logging.Logger, db *sql.DB, reg *prometheus.Registry, withRuntime bool) (*Server, error) {
	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	loc, err := clock.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.SchedulerTimezone, err)
	}
	clk := clock.NewZoned(loc)

	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	store := storage.NewClient(db, cfg.DatabaseDriver)

	newsClient, err := news.NewClient(cfg.OutboundTimeout, cfg.NewsFeedURL)
	if err != nil {
		return nil, err
	}
	llmClient := llm.NewClient(cfg.OutboundTimeout, cfg.LLMDefaultModel)
	sender := feishu.NewClient(cfg.DeliveryTimeout, cfg.DeliveryRatePerSecond, logger)
	resolver := actions.NewResolver(newsClient, llmClient, events.NewRenderer(clk), clk, logger)

	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		store:  store,
	}

	var publisher events.EventPublisher
	if cfg.KafkaEnabled {
		s.publisher = platformEvents.NewPublisher(cfg.Brokers(), cfg.KafkaTopic, logging.Zap(logger))
		publisher = s.publisher
		logger.Info("execution log streaming enabled",
			zap.Strings("brokers", cfg.Brokers()),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	recorder := events.NewRecorder(store, publisher, logger, clk)

	s.dispatcher = dispatch.New(dispatch.Config{
		Resolver: resolver,
		Sender:   sender,
		Recorder: recorder,
		Tasks:    store,
		Clock:    clk,
		Metrics:  m,
		Logger:   logger,
	})
	s.registry = scheduler.NewRegistry(store, s.dispatcher, loc, m, logger)

	dedup, err := events.NewDeliveryDedup(cfg.WebhookDedupTTL, clk)
	if err != nil {
		return nil, err
	}

	taskService := tasks.NewService(store, s.registry, s.dispatcher, clk, loc, logger)

	s.setupRouter(routeDeps{
		tasks:    taskService,
		logs:     recorder,
		events:   s.dispatcher,
		dedup:    dedup,
		metrics:  m,
		gatherer: reg,
		sender:   sender,
		news:     newsClient,
	})
	return s, nil
}

type routeDeps struct {
	tasks    handlers.TaskService
	logs     handlers.LogService
	events   handlers.EventDispatcher
	dedup    handlers.DeliveryFilter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	sender   handlers.MessageSender
	news     handlers.NewsFetcher
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter(deps routeDeps) {
	router := gin.New()
	zapLogger := logging.Zap(s.logger)

	// Global middleware (order matters!)
	// 1. Recovery - must be first to catch panics from other middleware
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))

	// 2. Request ID - inject unique ID for tracing
	router.Use(middleware.RequestID())

	// 3. Logging - log all requests with structured fields
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	// 4. CORS - handle cross-origin requests
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/health", handlers.NewHealthHandler(s.logger, s.store).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, deps.gatherer).Metrics)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		taskHandler := handlers.NewTaskHandler(s.logger, deps.tasks)
		taskRoutes := v1.Group("/tasks")
		{
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("", taskHandler.ListTasks)
			taskRoutes.GET("/stats", taskHandler.Stats)
			taskRoutes.GET("/:id", taskHandler.GetTask)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
			taskRoutes.POST("/:id/execute", taskHandler.ExecuteTask)
		}

		logHandler := handlers.NewLogHandler(s.logger, deps.logs)
		v1.GET("/logs", logHandler.ListLogs)
		v1.DELETE("/logs", logHandler.ClearLogs)

		webhookHandler := handlers.NewWebhookHandler(deps.events, deps.dedup, deps.metrics, s.logger)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/github", webhookHandler.GitHub)
			webhooks.POST("/gitlab", webhookHandler.GitLab)
		}

		toolsHandler := handlers.NewToolsHandler(deps.sender, deps.news, s.logger)
		tools := v1.Group("/tools")
		{
			tools.POST("/test-webhook", toolsHandler.TestWebhook)
			tools.GET("/news", toolsHandler.News)
		}
	}

	s.router = router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve runs the server until SIGINT or SIGTERM.
func (s *Server) Serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run starts the calendar registry and the HTTP listener, and shuts both down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	// Startup must finish even if ctx is cancelled meanwhile; shutdown then runs as usual.
	if err := s.registry.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
			zap.String("database", s.store.Driver()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown(srv)
	})
	return g.Wait()
}

// shutdown stops intake first, then drains: HTTP, calendar timers, dispatch workers,
// the Kafka writer and finally the database.
func (s *Server) shutdown(srv *http.Server) error {
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		errs = append(errs, err)
	}

	select {
	case <-s.registry.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler jobs still running at shutdown deadline")
	}

	if err := s.dispatcher.Wait(ctx); err != nil {
		s.logger.Warn("dispatch workers still running at shutdown deadline", zap.Error(err))
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("failed to close kafka publisher", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Info("server stopped")

	// Flush logger before exit
	if err := s.logger.Sync(); err != nil {
		// Ignore sync errors on stdout/stderr
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Migrate opens the configured database and creates missing tables.
func Migrate(ctx context.Context, cfg config.App, logger logging.Logger) error {
	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.NewClient(db, cfg.DatabaseDriver).Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database schema is up to date", zap.String("driver", cfg.DatabaseDriver))
	return nil
}
