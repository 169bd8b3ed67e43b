package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"payadmin/internal/config"
	handler "payadmin/internal/handler/http"
	"payadmin/internal/logging"
	"payadmin/internal/repository/migration"
	"payadmin/internal/repository/postgresql"
	"payadmin/internal/service"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Logger.LoggerLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := sql.Open("postgres", cfg.DB.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to open database", "error", err)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConnection)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConnection)
	db.SetConnMaxLifetime(cfg.DB.ConnectionLifetime)

	if err := db.Ping(); err != nil {
		logger.Fatalw("failed to ping database", "error", err)
	}
	defer db.Close()

	if err := migration.RunMigrations(db); err != nil {
		logger.Fatalw("failed to run migrations", "error", err)
	}

	store := postgresql.NewStore(db)
	decisions := service.NewDecisionService(
		postgresql.NewWithdrawalRepository(store),
		postgresql.NewWalletRepository(store),
		postgresql.NewNotificationRepository(store),
		postgresql.NewProfileRepository(store),
		store,
		cfg.DB.CallTimeout,
		logger,
	)

	h := handler.NewWithdrawalHandler(decisions, logger)
	router := handler.NewRouter(h, cfg.Token.JWTSecret, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server starting", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorw("shutdown error", "error", err)
		}
	case err := <-errCh:
		logger.Fatalw("server failed", "error", err)
	}
}
