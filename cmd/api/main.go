package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"hrdesk/internal/chat"
	"hrdesk/internal/config"
	"hrdesk/internal/db"
	"hrdesk/internal/email"
	apihttp "hrdesk/internal/http"
	"hrdesk/internal/repository"
	"hrdesk/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.Ping(pingCtx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	pingCancel()

	employeeRepo := repository.NewPgEmployeeRepository(pool)
	departmentRepo := repository.NewPgDepartmentRepository(pool)
	leaveRepo := repository.NewPgLeaveRepository(pool)
	chatRepo := repository.NewPgChatMessageRepository(pool)
	dashboardRepo := repository.NewPgDashboardRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, 10*time.Minute, 5)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	authSvc := service.NewAuthService(logger, employeeRepo, loginLimiter)
	leaveSvc := service.NewLeaveService(logger, leaveRepo, employeeRepo, emailSender)

	registry := chat.NewRegistry()
	relay := chat.NewRelay(logger, registry, chatRepo, cfg.ChatMaxMessageBytes)
	connOpts := chat.ConnOptions{
		SendBuffer: cfg.ChatSendBuffer,
		// Margen para el sobre JSON además del cuerpo.
		MaxFrameBytes: int64(cfg.ChatMaxMessageBytes) + 1024,
		RateBurst:     cfg.ChatRateBurst,
		RateRefill:    cfg.ChatRateRefill,
	}

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	employeeHandler := apihttp.NewEmployeeHandler(logger, employeeRepo)
	departmentHandler := apihttp.NewDepartmentHandler(logger, departmentRepo)
	leaveHandler := apihttp.NewLeaveHandler(logger, leaveSvc)
	dashboardHandler := apihttp.NewDashboardHandler(logger, dashboardRepo)
	chatHandler := apihttp.NewChatHandler(logger, relay, chatRepo, jwtSvc, connOpts, cfg.ChatHandshakeTimeout)

	router := apihttp.NewRouter(logger, jwtSvc, authHandler, employeeHandler, departmentHandler, leaveHandler, dashboardHandler, chatHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
