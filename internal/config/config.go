package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	Calendar  CalendarConfig
}

// DatabaseConfig 데이터베이스 설정
type DatabaseConfig struct {
	Driver   string // postgres, memory
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// DSN PostgreSQL 접속 문자열
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode, d.TimeZone,
	)
}

// RedisConfig Redis 설정 (스트릭 캐시)
type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	StreakTTL time.Duration
}

// S3Config AWS S3 설정
type S3Config struct {
	Region          string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration
}

// Enabled S3 버킷이 설정되었는지 여부
func (s S3Config) Enabled() bool {
	return s.BucketName != ""
}

// CalendarConfig 날짜 계산 기본값
type CalendarConfig struct {
	Timezone  string // IANA 이름, 빈 값이면 서버 로컬
	WeekStart string
}

// AuthConfig 인증 설정
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	GoogleClientID     string
	SecureCookie       bool
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimit    int
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins     string
	AllowHeaders     string
	AllowCredentials bool
}

var errDefaultSecret = errors.New("JWT_SECRET must be changed from default value in production")

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("🚨 CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv builds the config from the process environment without touching
// .env files.
func FromEnv() (*Config, error) {
	// 필수 환경 변수 검증
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("required environment variable JWT_SECRET is not set")
	}
	if jwtSecret == "change-this-secret-in-production" {
		return nil, errDefaultSecret
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
			BodyLimit:    getInt("BODY_LIMIT", 4*1024*1024),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:   getInt("WS_READ_BUFFER_SIZE", 4*1024),
			WriteBufferSize:  getInt("WS_WRITE_BUFFER_SIZE", 4*1024),
			HandshakeTimeout: getDuration("WS_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
			AllowHeaders:     getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization, X-Timezone"),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			RefreshTokenExpiry: getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			SecureCookie:       getBool("SECURE_COOKIE", false),
		},
		Database: DatabaseFromEnv(),
		Redis: RedisConfig{
			Enabled:   getBool("REDIS_ENABLED", false),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getInt("REDIS_DB", 0),
			StreakTTL: getDuration("STREAK_CACHE_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			BucketName:      getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpiry:   getDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
		},
		Calendar: CalendarConfig{
			Timezone:  getEnv("CALENDAR_TIMEZONE", ""),
			WeekStart: getEnv("CALENDAR_WEEK_START", "sunday"),
		},
	}

	switch cfg.Database.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if _, err := time.LoadLocation(cfg.Calendar.Timezone); err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// DatabaseFromEnv DB 설정만 로드 (JWT_SECRET 불필요, 관리 명령용)
func DatabaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "journal"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		TimeZone: getEnv("DB_TIMEZONE", "UTC"),
	}
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
