package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/controller"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/internal/service"
	"school_quiz_backend/pkg/configwatcher"
	"school_quiz_backend/pkg/database"
	"school_quiz_backend/pkg/logger"
	"school_quiz_backend/pkg/monitoring"
	"school_quiz_backend/pkg/security"
	"school_quiz_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	test        *repository.TestRepository
	attempt     *repository.AttemptRepository
	certificate *repository.CertificateRepository
}

type services struct {
	cache       *service.Cache
	storage     *service.StorageService
	auth        *service.AuthService
	test        *service.TestService
	attempt     *service.AttemptService
	importer    *service.ImportService
	export      *service.ExportService
	certificate *service.CertificateService
}

type controllers struct {
	auth    *controller.AuthController
	test    *controller.TestController
	attempt *controller.AttemptController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		test:        repository.NewTestRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.cache = service.NewCache(rdb, time.Duration(cfg.Redis.CacheTTLMinutes)*time.Minute)
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.test = service.NewTestService(repos.test, s.cache, cfg)
	s.importer = service.NewImportService(repos.test, s.cache, cfg)

	bank := service.NewCachedQuestionBank(repos.test, s.cache)
	s.attempt = service.NewAttemptService(bank, repos.attempt, s.cache, cfg)
	s.export = service.NewExportService(bank, repos.attempt)
	s.certificate = service.NewCertificateService(repos.attempt, repos.certificate, s.storage, cfg)

	// 计分策略与计时规则支持热更新，只影响之后的操作
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.attempt.SetQuizConfig(newCfg.Quiz)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		test:    controller.NewTestController(s.test, s.importer, s.export, s.attempt),
		attempt: controller.NewAttemptController(s.attempt, s.certificate),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化依赖；MigrateOnly 时只完成迁移，Router 为空
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	if err := services.auth.EnsureAdmin(context.Background()); err != nil {
		logger.Log.Fatal("Failed to create admin account", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	router.MaxMultipartMemory = cfg.Quiz.MaxImportSizeMB << 20
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configFile := filepath.Join(a.ConfigDir, "config.yaml")
	if err := configwatcher.WatchConfig(ctx, configFile, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	}); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
