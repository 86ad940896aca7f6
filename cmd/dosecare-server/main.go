package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dosecare/dosecare/internal/config"
	"github.com/dosecare/dosecare/internal/domain/clinic"
	"github.com/dosecare/dosecare/internal/domain/dosing"
	"github.com/dosecare/dosecare/internal/domain/inventory"
	"github.com/dosecare/dosecare/internal/domain/medication"
	"github.com/dosecare/dosecare/internal/domain/patient"
	"github.com/dosecare/dosecare/internal/domain/seedimport"
	"github.com/dosecare/dosecare/internal/platform/auth"
	"github.com/dosecare/dosecare/internal/platform/db"
	"github.com/dosecare/dosecare/internal/platform/middleware"
)

func main() {
	root := &cobra.Command{
		Use:   "dosecare-server",
		Short: "Medication adherence backend",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate("up")
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate("status")
		},
	})

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting dosecare-server")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// Repositories
	clinicRepo := clinic.NewRepoPG(pool)
	medicationRepo := medication.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	caregiverRepo := patient.NewCaregiverRepoPG(pool)
	lotRepo := inventory.NewLotRepoPG(pool)
	txnRepo := inventory.NewTxnRepoPG(pool)
	scheduleRepo := dosing.NewScheduleRepoPG(pool)
	planRepo := dosing.NewDosePlanRepoPG(pool)
	intakeRepo := dosing.NewIntakeRepoPG(pool)
	tokenRepo := dosing.NewTokenRepoPG(pool)

	// Services
	clinicSvc := clinic.NewService(clinicRepo, cfg.DefaultTimezone)
	medicationSvc := medication.NewService(medicationRepo)
	patientSvc := patient.NewService(patientRepo, caregiverRepo, cfg.DefaultTimezone)
	inventorySvc := inventory.NewService(lotRepo, txnRepo, pool)
	dosingSvc := dosing.NewService(scheduleRepo, planRepo, intakeRepo, tokenRepo, cfg.ActionTokenTTL, logger)
	importer := seedimport.NewImporter(clinicSvc, medicationSvc, patientSvc, inventorySvc, cfg.ImportTimeout, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(middleware.Timeout(cfg.RequestTimeout))
	e.Use(echomw.BodyLimit("2M"))

	auditRecorder := middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
		_, err := pool.Exec(context.Background(), `
			INSERT INTO audit_logs (id, request_id, user_id, user_roles, resource, action, method, path, ip_address, status_code)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			uuid.New(), entry.RequestID, entry.UserID, entry.UserRoles, entry.Resource,
			entry.Action, entry.Method, entry.Path, entry.IPAddress, entry.StatusCode)
		return err
	})
	e.Use(middleware.Audit(logger, auditRecorder))

	e.GET("/health", db.HealthHandler(pool))

	// The action endpoint is public. The single-use token carried in
	// the body is the credential.
	dosingHandler := dosing.NewHandler(dosingSvc)
	dosingHandler.RegisterActionRoute(e)

	var authMW echo.MiddlewareFunc
	if cfg.AuthSigningKey == "" && cfg.IsDev() {
		logger.Warn().Msg("no signing key configured, using dev auth")
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
		})
	}

	// Admin-only batch import.
	importGroup := e.Group("", authMW)
	seedimport.NewHandler(importer).RegisterRoutes(importGroup)

	api := e.Group("/api/v1", authMW)
	clinic.NewHandler(clinicSvc).RegisterRoutes(api)
	medication.NewHandler(medicationSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	inventory.NewHandler(inventorySvc).RegisterRoutes(api)
	dosingHandler.RegisterRoutes(api)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.Port)
	}()
	logger.Info().Str("port", cfg.Port).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func runMigrate(action string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrator := db.NewMigrator(pool, "migrations")

	switch action {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.Info().Int("applied", applied).Msg("migrations applied")
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%03d %-30s %s\n", s.Version, s.Name, state)
		}
	}
	return nil
}
