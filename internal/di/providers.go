package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agora-forum/agora/internal/app"
	"github.com/agora-forum/agora/internal/config"
	"github.com/agora-forum/agora/internal/database"
	"github.com/agora-forum/agora/internal/health"
	"github.com/agora-forum/agora/internal/http/handler"
	"github.com/agora-forum/agora/internal/http/middleware"
	"github.com/agora-forum/agora/internal/http/router"
	"github.com/agora-forum/agora/internal/observability"
	"github.com/agora-forum/agora/internal/repository"
	"github.com/agora-forum/agora/internal/security"
	"github.com/agora-forum/agora/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewRefreshTokenRepository,
	repository.NewPostRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideTokenService,
	service.NewAuthService,
	service.NewActiveUserValidator,
	service.NewUserService,
	providePostService,
	provideObjectStorage,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(service.PostServiceInterface), new(*service.PostService)),
	wire.Bind(new(service.CredentialValidator), new(*service.ActiveUserValidator)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewPostHandler,
	provideClientIPResolver,
	provideCSRFGuard,
	provideLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner is the injectable behind cmd/seed: migrate, then seed.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideTokenService(cfg *config.Config, jwtMgr *security.JWTManager, db *gorm.DB, tokenRepo repository.RefreshTokenRepository) *service.TokenService {
	return service.NewTokenService(jwtMgr, db, tokenRepo, cfg.RefreshTokenPepper, cfg.JWTAccessTTL, cfg.RefreshTTL)
}

func providePostService(db *gorm.DB, postRepo repository.PostRepository) *service.PostService {
	return service.NewPostService(db, postRepo)
}

func provideObjectStorage(cfg *config.Config) (service.ObjectStorage, error) {
	return service.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, resolver *middleware.ClientIPResolver, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, resolver, cfg.JWTAccessTTL, cfg.RefreshTTL)
}

func provideClientIPResolver(cfg *config.Config) *middleware.ClientIPResolver {
	return middleware.NewClientIPResolver(cfg.TrustedProxies)
}

func provideCSRFGuard(cfg *config.Config, cookieMgr *security.CookieManager) *middleware.CSRFGuard {
	// The csrf cookie outlives access tokens but not the refresh window.
	return middleware.NewCSRFGuard(cookieMgr, cfg.RefreshTTL, router.CSRFExemptPaths)
}

func provideLimiter(cfg *config.Config, redisClient redis.UniversalClient) (middleware.Limiter, error) {
	if cfg.RedisEnabled && redisClient != nil {
		return middleware.NewRedisLimiter(redisClient, "ratelimit"), nil
	}
	return middleware.NewLRULimiter(cfg.RateLimitMaxKeys)
}

func provideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	validator service.CredentialValidator,
	csrfGuard *middleware.CSRFGuard,
	limiter middleware.Limiter,
	resolver *middleware.ClientIPResolver,
	readiness *health.ProbeRunner,
) router.Dependencies {
	return router.Dependencies{
		Config:         cfg,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		PostHandler:    postHandler,
		Validator:      validator,
		CSRFGuard:      csrfGuard,
		Limiter:        limiter,
		Resolver:       resolver,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}
