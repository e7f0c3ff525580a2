package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LimiterClass is one row of the per-endpoint-group rate limit table.
type LimiterClass struct {
	Window      time.Duration
	MaxRequests int
}

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTIssuer          string
	JWTAudience        string
	JWTAccessSecret    string
	JWTAccessTTL       time.Duration
	RefreshTTL         time.Duration
	RefreshTokenPepper string

	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     string
	CORSAllowedOrigins []string

	PasswordMinLength int
	PasswordMaxLength int

	// Rate limit classes keyed by endpoint group. The defaults mirror the
	// production traffic policy: auth endpoints are strict, content writes
	// moderate, everything else generous.
	RateLimitClasses map[string]LimiterClass
	RateLimitMaxKeys int
	TrustedProxies   []string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

// Limiter class names used by the router and middleware.
const (
	LimitClassLogin    = "login"
	LimitClassRegister = "register"
	LimitClassPassword = "password"
	LimitClassWithdraw = "withdraw"
	LimitClassWrite    = "write"
	LimitClassAPI      = "api"
)

func Load() (*Config, error) {
	// Best effort: a missing .env is the normal case in production.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:         env,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTIssuer:          getEnv("JWT_ISSUER", "agora"),
		JWTAudience:        getEnv("JWT_AUDIENCE", "agora-api"),
		JWTAccessSecret:    os.Getenv("JWT_ACCESS_SECRET"),
		RefreshTokenPepper: os.Getenv("REFRESH_TOKEN_PEPPER"),

		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:     strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 8),
		PasswordMaxLength: getEnvInt("PASSWORD_MAX_LENGTH", 72),

		RateLimitMaxKeys: getEnvInt("RATE_LIMIT_MAX_KEYS", 10000),
		TrustedProxies:   splitCSV(os.Getenv("TRUSTED_PROXIES")),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "agora-avatars"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "agora"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	accessTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_ACCESS_TTL: %w", err)
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := time.ParseDuration(getEnv("REFRESH_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("parse REFRESH_TTL: %w", err)
	}
	cfg.RefreshTTL = refreshTTL

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 20*time.Second)
	cfg.ShutdownHTTPDrainTimeout = getEnvDuration("SHUTDOWN_HTTP_DRAIN_TIMEOUT", 10*time.Second)
	cfg.ShutdownObservabilityTimeout = getEnvDuration("SHUTDOWN_OBSERVABILITY_TIMEOUT", 8*time.Second)

	cfg.ReadinessProbeTimeout = getEnvDuration("READINESS_PROBE_TIMEOUT", 2*time.Second)
	cfg.ServerStartGracePeriod = getEnvDuration("SERVER_START_GRACE_PERIOD", 10*time.Second)

	cfg.RateLimitClasses = map[string]LimiterClass{
		LimitClassLogin:    {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_LOGIN_PER_MIN", 5)},
		LimitClassRegister: {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_REGISTER_PER_MIN", 3)},
		LimitClassPassword: {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_PASSWORD_PER_MIN", 3)},
		LimitClassWithdraw: {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_WITHDRAW_PER_MIN", 2)},
		LimitClassWrite:    {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_WRITE_PER_MIN", 10)},
		LimitClassAPI:      {Window: time.Minute, MaxRequests: getEnvInt("RATE_LIMIT_API_PER_MIN", 100)},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if len(c.RefreshTokenPepper) < 16 {
		errs = append(errs, "REFRESH_TOKEN_PEPPER must be at least 16 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 1h")
	}
	if c.RefreshTTL <= 0 || c.RefreshTTL > (30*24*time.Hour) {
		errs = append(errs, "REFRESH_TTL must be between 1s and 30d")
	}
	if c.PasswordMinLength < 8 {
		errs = append(errs, "PASSWORD_MIN_LENGTH must be at least 8")
	}
	if c.PasswordMaxLength < c.PasswordMinLength {
		errs = append(errs, "PASSWORD_MAX_LENGTH must be >= PASSWORD_MIN_LENGTH")
	}
	if c.RateLimitMaxKeys <= 0 {
		errs = append(errs, "RATE_LIMIT_MAX_KEYS must be > 0")
	}
	for name, class := range c.RateLimitClasses {
		if class.MaxRequests <= 0 || class.Window <= 0 {
			errs = append(errs, fmt.Sprintf("rate limit class %q must have positive window and max", name))
		}
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// LimiterFor returns the class config, falling back to the api default.
func (c *Config) LimiterFor(class string) LimiterClass {
	if lc, ok := c.RateLimitClasses[class]; ok {
		return lc
	}
	return c.RateLimitClasses[LimitClassAPI]
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
