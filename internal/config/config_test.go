package config

import (
	"testing"
	"time"
)

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "change-this-secret-in-production")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for default secret")
	}
}

func TestFromEnvDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("STREAK_CACHE_TTL", "90")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("REDIS_ENABLED", "yes")
	t.Setenv("CALENDAR_TIMEZONE", "UTC")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Redis.StreakTTL != 90*time.Second || !cfg.Redis.Enabled {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Auth.AccessTokenExpiry != 30*time.Minute {
		t.Errorf("access expiry = %s", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Calendar.WeekStart != "sunday" || cfg.S3.Enabled() {
		t.Errorf("calendar = %+v, s3 enabled = %v", cfg.Calendar, cfg.S3.Enabled())
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	t.Setenv("DB_DRIVER", "mysql")
	if _, err := FromEnv(); err == nil {
		t.Error("mysql driver accepted")
	}

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CALENDAR_TIMEZONE", "Mars/Olympus")
	if _, err := FromEnv(); err == nil {
		t.Error("bogus timezone accepted")
	}
}

func TestDatabaseFromEnvWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	for _, key := range []string{"DB_DRIVER", "DB_PORT", "DB_USER", "DB_NAME", "DB_SSLMODE", "DB_TIMEZONE"} {
		t.Setenv(key, "")
	}
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "pw")

	db := DatabaseFromEnv()
	want := "host=db.internal port=5432 user=postgres password=pw dbname=journal sslmode=disable TimeZone=UTC"
	if got := db.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
	if db.Driver != "postgres" {
		t.Errorf("driver = %q", db.Driver)
	}
}
