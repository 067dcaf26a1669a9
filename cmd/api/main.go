package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/optica/backend/internal/config"
	"github.com/optica/backend/internal/email"
	authHandler "github.com/optica/backend/internal/handler/auth"
	consultationHandler "github.com/optica/backend/internal/handler/consultation"
	"github.com/optica/backend/internal/handler/health"
	patientHandler "github.com/optica/backend/internal/handler/patient"
	saleHandler "github.com/optica/backend/internal/handler/sale"
	tenantHandler "github.com/optica/backend/internal/handler/tenant"
	userHandler "github.com/optica/backend/internal/handler/user"
	"github.com/optica/backend/internal/middleware"
	"github.com/optica/backend/internal/repository/postgres"
	redisrepo "github.com/optica/backend/internal/repository/redis"
	"github.com/optica/backend/internal/router"
	authService "github.com/optica/backend/internal/service/auth"
	consultationService "github.com/optica/backend/internal/service/consultation"
	patientService "github.com/optica/backend/internal/service/patient"
	saleService "github.com/optica/backend/internal/service/sale"
	"github.com/optica/backend/internal/service/tenantadmin"
	userService "github.com/optica/backend/internal/service/user"
	"github.com/optica/backend/internal/tenant"
	"github.com/optica/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	gateway := postgres.NewGateway(db, cfg.Tenancy.DefaultSchema, log)

	patientRepo := postgres.NewPatientRepository(gateway)
	consultationRepo := postgres.NewConsultationRepository(gateway)
	saleRepo := postgres.NewSaleRepository(gateway)
	userRepo := postgres.NewUserRepository(gateway)
	tenantRepo := postgres.NewTenantRepository(gateway)

	tokenRepo, err := redisrepo.NewTokenRepository(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	resolver := tenant.NewResolver(cfg.Tenancy.DefaultSchema, log)

	var receipts email.ReceiptSender
	if cfg.SMTP.Enabled {
		receipts = email.NewService(cfg.SMTP, log)
	}

	authSvc := authService.NewService(userRepo, tokenRepo, cfg.JWT, log)
	patientSvc := patientService.NewService(patientRepo, log)
	consultationSvc := consultationService.NewService(consultationRepo, patientRepo, log)
	saleSvc := saleService.NewService(saleRepo, patientRepo, receipts, log)
	userSvc := userService.NewService(userRepo, tenantRepo, resolver, log)
	tenantSvc := tenantadmin.NewService(tenantRepo, log)

	authMW := middleware.NewAuthMiddleware(authSvc)
	tenantMW := middleware.NewTenantMiddleware(resolver, cfg.Tenancy.DefaultSchema, cfg.Tenancy.OverrideHeader)

	healthH := health.NewHandler(db)
	r := router.New(log, authMW, tenantMW, router.Handlers{
		Auth:          authHandler.NewHandler(authSvc),
		Patient:       patientHandler.NewHandler(patientSvc, consultationSvc, saleSvc),
		Consultation:  consultationHandler.NewHandler(consultationSvc),
		Sale:          saleHandler.NewHandler(saleSvc),
		User:          userHandler.NewHandler(userSvc),
		Tenant:        tenantHandler.NewHandler(tenantSvc),
		RegisterExtra: func(e *gin.Engine) { healthH.RegisterRoutes(e) },
	}, router.DefaultConfig())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
