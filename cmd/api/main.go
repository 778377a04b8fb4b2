package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/johnquangdev/silent-contributor/docs"
	"github.com/johnquangdev/silent-contributor/internal/adapter/handler"
	"github.com/johnquangdev/silent-contributor/internal/adapter/repository"
	"github.com/johnquangdev/silent-contributor/internal/adapter/web"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/cache"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/database"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/oauth"
	httpmw "github.com/johnquangdev/silent-contributor/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/storage"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
	"github.com/johnquangdev/silent-contributor/internal/usecase/engagement"
	"github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
	"github.com/johnquangdev/silent-contributor/internal/usecase/report"
	"github.com/johnquangdev/silent-contributor/internal/usecase/transcript"
	"github.com/johnquangdev/silent-contributor/pkg/config"
	"github.com/johnquangdev/silent-contributor/pkg/jwt"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
	ownermw "github.com/johnquangdev/silent-contributor/pkg/middleware"
	pkgvalidator "github.com/johnquangdev/silent-contributor/pkg/validator"
)

// @title           Silent Contributor Detector API
// @version         1.0
// @description     Meeting engagement tracking and silent contributor detection

// @contact.name   API Support

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const memoryCacheSweep = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server.exit", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	zlog.Info("database.connect", zap.String("host", cfg.Database.Host))
	db, err := database.NewPostgresDB(cfg, zlog)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.CloseDB(db)

	// AutoMigrate is for development; production schemas come from cmd/migrate
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, zlog); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	// Cache: Redis when reachable, in-process otherwise
	var store cache.Store
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			zlog.Warn("redis.unavailable.using_memory", zap.Error(err))
		} else {
			store = cache.NewRedisStore(redisClient)
		}
	}
	if store == nil {
		store = cache.NewMemoryStore(memoryCacheSweep)
	}
	defer store.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Auth
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	var (
		googleProvider oauth.Provider
		stateManager   *oauth.StateManager
	)
	if cfg.OAuth.Google.Enabled() {
		googleProvider = oauth.NewGoogleProvider(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURL,
		)
		stateManager = oauth.NewStateManager(store)
	}
	authService := auth.NewService(userRepo, sessionRepo, jwtManager, googleProvider, stateManager, zlog)

	// Meetings
	var livekitClient livekit.Client
	switch {
	case cfg.LiveKit.UseMock:
		zlog.Warn("livekit.mock_mode")
		livekitClient = livekit.NewClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, true)
	case cfg.LiveKit.Enabled():
		livekitClient = livekit.NewClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, false)
	default:
		zlog.Warn("livekit.disabled")
	}
	meetingService := meeting.NewMeetingService(meetingRepo, participantRepo, activityRepo, userRepo, livekitClient, zlog)

	// Dashboard
	var source dashboard.Source = dashboard.NewServiceSource(meetingService)
	if cfg.Dashboard.Demo {
		zlog.Warn("dashboard.demo_mode", zap.Duration("delay", cfg.Dashboard.DemoDelay))
		source = dashboard.NewDemoSource(cfg.Dashboard.DemoDelay)
	}
	dashboardService := dashboard.NewService(
		source,
		dashboard.NewRecordCache(store, cfg.Dashboard.CacheTTL),
		cfg.Dashboard.LoadTimeout,
		zlog,
	)
	meetingService.SetInvalidator(dashboardService)

	// Engagement recalculation workers
	recalculator := engagement.NewRecalculator(meetingService, dashboardService, engagement.Options{
		Workers:    cfg.Engagement.Workers,
		QueueSize:  cfg.Engagement.QueueSize,
		MaxRetries: cfg.Engagement.MaxRetries,
		Timeout:    cfg.Engagement.JobTimeout,
		BaseDelay:  cfg.Engagement.RetryDelay,
	}, zlog)
	meetingService.SetRecalculator(recalculator)

	// Transcript import
	var transcriptClient assemblyai.Client
	if cfg.Assembly.Enabled() {
		transcriptClient = assemblyai.NewClient(cfg.Assembly.APIKey, cfg.Assembly.Timeout)
	}
	transcriptService := transcript.NewService(transcriptClient, meetingService, transcript.Options{
		MaxRetries: cfg.Assembly.MaxRetries,
	}, zlog)

	// Report export
	var reportStorage report.Storage
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			return fmt.Errorf("connect storage: %w", err)
		}
		reportStorage = minioClient
	}
	reportService := report.NewService(reportStorage, meetingService, dashboardService, cfg.Storage.PresignExpiry, zlog)

	// HTTP server
	e, err := newServer(cfg, zlog)
	if err != nil {
		return err
	}

	router := handler.NewRouter(cfg, handler.Handlers{
		Auth:       handler.NewAuth(authService, cfg.Server.SecureCookies, zlog),
		Meeting:    handler.NewMeetingHandler(meetingService, zlog),
		Report:     handler.NewReportHandler(dashboardService, reportService, zlog),
		Transcript: handler.NewTranscriptHandler(transcriptService, zlog),
		Webhook: handler.NewWebhookHandler(
			meetingService,
			cfg.LiveKit.APIKey,
			cfg.LiveKit.APISecret,
			cfg.LiveKit.AllowUnsignedWebhooks,
			zlog,
		),
		Pages: handler.NewPages(authService, meetingService, dashboardService, cfg.Dashboard.Demo, cfg.Server.SecureCookies, zlog),
	}, handler.Middlewares{
		Auth:         httpmw.EchoAuth(authService),
		Session:      httpmw.EchoSession(authService, "/auth"),
		MeetingOwner: ownermw.RequireMeetingOwner(meetingService),
	}, zlog)
	router.Setup(e)

	g, gctx := errgroup.WithContext(ctx)

	if err := recalculator.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		zlog.Info("server.start",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("server.shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		err := e.Shutdown(shutdownCtx)
		if stopErr := recalculator.Stop(); stopErr != nil {
			zlog.Warn("engagement.recalculator.stop_failed", zap.Error(stopErr))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zlog.Info("server.stopped")
	return nil
}

func newServer(cfg *config.Config, zlog *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	e.Renderer = renderer

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	zlog.Debug("server.configured", zap.Strings("allowed_origins", cfg.Server.AllowedOrigins))
	return e, nil
}
