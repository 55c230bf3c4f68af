package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/taskvault/taskvault/internal/api"
	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/dao"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/migrate"
	"github.com/taskvault/taskvault/internal/service"
	"github.com/taskvault/taskvault/internal/telemetry"
)

var (
	Version = "v0.1.0"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	migrateFlag := flag.Bool("migrate", true, "run SQL migrations on startup")
	migrationsDir := flag.String("migrations", "migrations", "directory containing *.sql migration files")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logging.SetGlobalLogger(logger)
	defer logger.Sync()

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}

	gdb, err := dao.OpenMySQL(cfg.MySQL)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("unwrap sql db: %v", err)
	}
	defer sqlDB.Close()

	if err := dao.Ping(gdb, 5, time.Second*2); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}

	if *migrateFlag {
		abs, _ := filepath.Abs(*migrationsDir)
		if err := migrate.Run(ctx, sqlDB, abs); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		logging.Infof(ctx, "migrations applied from %s", abs)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)
	userSvc := service.NewUserService(dao.NewUserDao(gdb), tokens)
	taskSvc := service.NewTaskService(dao.NewTaskDao(gdb))
	reqMetrics := metrics.New("taskvault")

	router := api.NewRouter(api.Dependencies{
		Users:          userSvc,
		Tasks:          taskSvc,
		Guard:          api.NewAccessGuard(tokens, userSvc),
		Metrics:        reqMetrics,
		ServiceName:    cfg.Telemetry.ServiceName,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{Addr: cfg.Server.Address(), Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Infof(ctx, "taskvault server %s listening on %s", Version, cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logging.Info(ctx, "shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(ctx, "graceful shutdown failed: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Errorf(ctx, "telemetry shutdown failed: %v", err)
	}
	logging.Info(ctx, "server exited")
}
