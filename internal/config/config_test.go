package config

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		Env:                "development",
		DatabaseURL:        "postgres://x",
		JWTAccessSecret:    "abcdefghijklmnopqrstuvwxyz123456",
		RefreshTokenPepper: "pepper-1234567890",
		JWTAccessTTL:       30 * time.Minute,
		RefreshTTL:         168 * time.Hour,
		PasswordMinLength:  8,
		PasswordMaxLength:  72,
		RateLimitMaxKeys:   10000,
		RateLimitClasses: map[string]LimiterClass{
			LimitClassLogin: {Window: time.Minute, MaxRequests: 5},
			LimitClassAPI:   {Window: time.Minute, MaxRequests: 100},
		},
		OTELExporterOTLPEndpoint:  "localhost:4317",
		OTELMetricsEnabled:        true,
		OTELTraceSamplingRatio:    1.0,
		OTELMetricsExportInterval: 10 * time.Second,
		OTELLogLevel:              "info",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestValidateRejectsShortSecrets(t *testing.T) {
	cfg := validTestConfig()
	cfg.JWTAccessSecret = "short"
	cfg.RefreshTokenPepper = "short"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "JWT_ACCESS_SECRET") {
		t.Fatalf("missing access secret error: %v", err)
	}
	if !strings.Contains(err.Error(), "REFRESH_TOKEN_PEPPER") {
		t.Fatalf("missing pepper error: %v", err)
	}
}

func TestValidateRejectsOutOfRangeTTLs(t *testing.T) {
	cfg := validTestConfig()
	cfg.JWTAccessTTL = 2 * time.Hour
	cfg.RefreshTTL = 60 * 24 * time.Hour

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "JWT_ACCESS_TTL") || !strings.Contains(err.Error(), "REFRESH_TTL") {
		t.Fatalf("missing TTL errors: %v", err)
	}
}

func TestValidateRejectsNonPositiveLimiterClass(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimitClasses[LimitClassLogin] = LimiterClass{Window: time.Minute, MaxRequests: 0}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), `rate limit class "login"`) {
		t.Fatalf("expected limiter class error, got %v", err)
	}
}

func TestValidateRequiresRedisAddrWhenEnabled(t *testing.T) {
	cfg := validTestConfig()
	cfg.RedisEnabled = true
	cfg.RedisAddr = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("expected redis addr error, got %v", err)
	}
}

func TestLimiterForFallsBackToAPIClass(t *testing.T) {
	cfg := validTestConfig()

	got := cfg.LimiterFor("nonexistent")
	if got.MaxRequests != 100 {
		t.Fatalf("expected api fallback, got %+v", got)
	}
	login := cfg.LimiterFor(LimitClassLogin)
	if login.MaxRequests != 5 {
		t.Fatalf("expected login class, got %+v", login)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("REFRESH_TOKEN_PEPPER", "pepper-1234567890")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected port %q", cfg.HTTPPort)
	}
	if cfg.JWTAccessTTL != 30*time.Minute {
		t.Fatalf("unexpected access TTL %v", cfg.JWTAccessTTL)
	}
	if cfg.RateLimitClasses[LimitClassLogin].MaxRequests != 5 {
		t.Fatalf("unexpected login limit %+v", cfg.RateLimitClasses[LimitClassLogin])
	}
	if cfg.ReadinessProbeTimeout != 2*time.Second {
		t.Fatalf("unexpected probe timeout %v", cfg.ReadinessProbeTimeout)
	}
}
