package server

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"journal-backend/internal/auth"
	"journal-backend/internal/config"
	"journal-backend/internal/datekey"
	"journal-backend/internal/handler"
	"journal-backend/internal/realtime"
	"journal-backend/internal/service"
	"journal-backend/internal/store"
	"journal-backend/internal/streak"
)

// Deps 외부 리소스 (main에서 주입)
type Deps struct {
	Store store.Store
	// Cache may be nil; streaks are then always recomputed.
	Cache streak.Cache
	// Redis is probed by /health when set.
	Redis handler.Pinger
	// Uploader may be nil; upload routes then answer 503.
	Uploader handler.Uploader
}

// Server Fiber 서버 래퍼
type Server struct {
	app             *fiber.App
	cfg             *config.Config
	jwtManager      *auth.JWTManager
	hub             *realtime.Hub
	authHandler     *handler.AuthHandler
	userHandler     *handler.UserHandler
	habitHandler    *handler.HabitHandler
	calendarHandler *handler.CalendarHandler
	journalHandler  *handler.JournalHandler
	uploadHandler   *handler.UploadHandler
	syncHandler     *handler.SyncHandler
	healthHandler   *handler.HealthHandler
	changesHandler  *handler.ChangesWSHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}

	loc, err := datekey.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar timezone: %w", err)
	}
	weekStart, err := datekey.ParseWeekday(cfg.Calendar.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("calendar week start: %w", err)
	}
	defaults := handler.Calendar{Location: loc, WeekStart: weekStart}

	app := fiber.New(fiber.Config{
		AppName:               "Journal API",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384, // 16KB - 큰 헤더 허용
		WriteBufferSize:       16384,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)

	// 변경 알림 허브 = 서비스 Notifier
	hub := realtime.NewHub()
	habits := service.NewHabitService(deps.Store, deps.Cache, hub)
	calendar := service.NewCalendarService(deps.Store, hub)
	journal := service.NewJournalService(deps.Store, hub)

	return &Server{
		app:             app,
		cfg:             cfg,
		jwtManager:      jwtManager,
		hub:             hub,
		authHandler:     handler.NewAuthHandler(deps.Store, jwtManager, googleAuth, cfg.Auth.SecureCookie),
		userHandler:     handler.NewUserHandler(deps.Store),
		habitHandler:    handler.NewHabitHandler(habits, defaults),
		calendarHandler: handler.NewCalendarHandler(calendar, defaults),
		journalHandler:  handler.NewJournalHandler(journal),
		uploadHandler:   handler.NewUploadHandler(deps.Uploader),
		syncHandler:     handler.NewSyncHandler(),
		healthHandler:   handler.NewHealthHandler(deps.Store, deps.Redis),
		changesHandler:  handler.NewChangesWSHandler(hub),
	}, nil
}

// App exposes the fiber app (tests use app.Test).
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	tz := s.cfg.Calendar.Timezone
	if tz == "" {
		tz = "Local"
	}
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   tz,
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: s.cfg.CORS.AllowCredentials,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,              // 최대 10회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})
	requireAuth := auth.AuthMiddleware(s.jwtManager)

	api := s.app.Group("/api/v1")

	// Auth 라우트 그룹
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimiter, s.authHandler.Register)
	authGroup.Post("/login", authLimiter, s.authHandler.Login)
	authGroup.Post("/login-json", authLimiter, s.authHandler.LoginJSON)
	authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
	authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
	authGroup.Post("/logout", requireAuth, s.authHandler.Logout) // 인증된 사용자만
	authGroup.Get("/me", requireAuth, s.authHandler.GetMe)
	authGroup.Put("/me", requireAuth, s.userHandler.UpdateMe)

	// Habit 라우트 그룹 (정적 경로를 :id 보다 먼저 등록)
	habitGroup := api.Group("/habits/habits", requireAuth)
	habitGroup.Get("", s.habitHandler.ListHabits)
	habitGroup.Post("", s.habitHandler.CreateHabit)
	habitGroup.Post("/checks", s.habitHandler.SaveCheck)
	habitGroup.Post("/checks/toggle", s.habitHandler.ToggleCheck)
	habitGroup.Get("/checks/date/:date", s.habitHandler.ChecksForDate)
	habitGroup.Get("/streaks", s.habitHandler.ListStreaks)
	habitGroup.Get("/:id", s.habitHandler.GetHabit)
	habitGroup.Put("/:id", s.habitHandler.UpdateHabit)
	habitGroup.Delete("/:id", s.habitHandler.DeleteHabit)
	habitGroup.Get("/:id/checks", s.habitHandler.ChecksForHabit)
	habitGroup.Get("/:id/streak", s.habitHandler.GetStreak)

	// Calendar 라우트 그룹
	calendarGroup := api.Group("/calendar", requireAuth)
	calendarGroup.Get("/events", s.calendarHandler.ListEvents)
	calendarGroup.Post("/events", s.calendarHandler.CreateEvent)
	calendarGroup.Get("/events/date/:date", s.calendarHandler.EventsForDate)
	calendarGroup.Get("/events/:id", s.calendarHandler.GetEvent)
	calendarGroup.Put("/events/:id", s.calendarHandler.UpdateEvent)
	calendarGroup.Delete("/events/:id", s.calendarHandler.DeleteEvent)
	calendarGroup.Get("/day/:date", s.calendarHandler.GetDay)
	calendarGroup.Get("/week/:date", s.calendarHandler.GetWeek)
	calendarGroup.Get("/month/:year/:month", s.calendarHandler.GetMonth)
	calendarGroup.Get("/range", s.calendarHandler.GetRange)

	// Journal 라우트 그룹
	journalGroup := api.Group("/journal", requireAuth)
	journalGroup.Get("/entries", s.journalHandler.ListEntries)
	journalGroup.Post("/entries", s.journalHandler.CreateEntry)
	journalGroup.Get("/entries/:date", s.journalHandler.GetEntry)
	journalGroup.Put("/entries/:date", s.journalHandler.UpdateEntry)
	journalGroup.Delete("/entries/:date", s.journalHandler.DeleteEntry)
	journalGroup.Put("/entries/:date/save", s.journalHandler.SaveEntry)
	journalGroup.Post("/entries/:date/daily-log", s.journalHandler.UpdateDailyLog)
	journalGroup.Post("/entries/:date/layers", s.journalHandler.AddLayer)
	journalGroup.Delete("/entries/:date/layers", s.journalHandler.ClearCanvas)
	journalGroup.Put("/entries/:date/layers/order", s.journalHandler.ReorderLayers)
	journalGroup.Put("/entries/:date/layers/:layerId", s.journalHandler.UpdateLayer)
	journalGroup.Delete("/entries/:date/layers/:layerId", s.journalHandler.DeleteLayer)

	// Upload (S3 Presigned URL)
	journalGroup.Post("/uploads/presign", s.uploadHandler.Presign)
	journalGroup.Get("/uploads/url", s.uploadHandler.GetFileURL)
	journalGroup.Delete("/uploads", s.uploadHandler.DeleteFile)

	// Sync 자리표시자
	syncGroup := api.Group("/sync", requireAuth)
	syncGroup.Get("/status", s.syncHandler.Status)
	syncGroup.Post("/notion", s.syncHandler.NotImplemented)
	syncGroup.Post("/google-calendar", s.syncHandler.NotImplemented)
	syncGroup.Post("/apple-calendar", s.syncHandler.NotImplemented)

	// WebSocket 변경 알림 엔드포인트 (쿠키 또는 ?token=)
	s.app.Get("/ws/changes",
		auth.WebSocketAuthMiddleware(s.jwtManager),
		s.changesHandler.Upgrade,
		websocket.New(s.changesHandler.HandleWebSocket, websocket.Config{
			HandshakeTimeout: s.cfg.WebSocket.HandshakeTimeout,
			ReadBufferSize:   s.cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:  s.cfg.WebSocket.WriteBufferSize,
		}),
	)
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.Shutdown(); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Journal API starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/changes", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
