package main

import (
	"context"
	"log"
	"time"

	"journal-backend/internal/config"
	"journal-backend/internal/database"
	"journal-backend/internal/handler"
	"journal-backend/internal/media"
	"journal-backend/internal/server"
	"journal-backend/internal/store"
	"journal-backend/internal/streak"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	deps := server.Deps{}

	// 저장소 선택
	switch cfg.Database.Driver {
	case "memory":
		log.Println("⚠️ Using in-memory store (data is lost on restart)")
		deps.Store = store.NewMemoryStore()
	default:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("❌ Database connection failed: %v", err)
		}
		defer database.Close(db)

		// Ping 테스트
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = database.Ping(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("❌ Database ping failed: %v", err)
		}
		log.Printf("✅ Database connected successfully")

		// DB 버전 확인
		var version string
		db.Raw("SELECT version()").Scan(&version)
		if len(version) > 50 {
			version = version[:50] + "..."
		}
		log.Printf("📦 PostgreSQL: %s", version)

		if err := database.Migrate(db); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		deps.Store = store.NewGormStore(db)
	}

	// 스트릭 캐시 (Redis 실패 시 메모리 캐시로 대체)
	if cfg.Redis.Enabled {
		rc, err := streak.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StreakTTL)
		if err != nil {
			log.Printf("⚠️ Redis connection failed: %v (falling back to in-memory streak cache)", err)
			deps.Cache = streak.NewMemoryCache()
		} else {
			defer rc.Close()
			log.Printf("✅ Redis connected (%s)", cfg.Redis.Addr)
			deps.Cache = rc
			deps.Redis = handler.PingFunc(rc.Health)
		}
	} else {
		deps.Cache = streak.NewMemoryCache()
	}

	// S3 서비스 초기화 (선택적)
	if cfg.S3.Enabled() {
		s3Service, err := media.NewS3Service(context.Background(), cfg.S3)
		if err != nil {
			log.Printf("⚠️ S3 service initialization failed: %v (image upload will be disabled)", err)
		} else {
			log.Printf("✅ S3 service initialized (bucket: %s)", cfg.S3.BucketName)
			deps.Uploader = s3Service
		}
	} else {
		log.Println("ℹ️ S3 service not configured (image upload will be disabled)")
	}

	// 서버 생성 및 설정
	srv, err := server.New(cfg, deps)
	if err != nil {
		log.Fatalf("❌ Server setup failed: %v", err)
	}
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
