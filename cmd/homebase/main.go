package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ellisbray/homebase/internal/balance"
	"github.com/ellisbray/homebase/internal/config"
	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/jobs"
	"github.com/ellisbray/homebase/internal/logging"
	"github.com/ellisbray/homebase/internal/notify"
	"github.com/ellisbray/homebase/internal/server"
	"github.com/ellisbray/homebase/internal/upload"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "vapid-keys" {
		public, private, err := notify.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("HOMEBASE_VAPID_PUBLIC_KEY=%s\nHOMEBASE_VAPID_PRIVATE_KEY=%s\n", public, private)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Env)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var notifySvc *notify.Service
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		notifySvc = notify.NewService(notify.Config{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.PushSubscriber,
		})
	} else {
		logger.Warn("push notifications disabled: VAPID keys not configured")
	}

	uploads := upload.NewStore(upload.Config{
		Endpoint:  cfg.S3Endpoint,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if !uploads.Enabled() {
		logger.Warn("photo storage disabled: S3 credentials not configured")
	}

	srv := server.New(db, notifySvc, uploads, balance.Config{
		RequirePriorBalanceCleared: cfg.RequirePriorBalanceCleared,
	}, logger)

	runner := jobs.NewRunner(logger.With("component", "jobs"))
	runner.Register(jobs.NewCarryOver(srv.PeriodStore(), logger.With("job", "carry_over")), cfg.CarryOverInterval)
	runner.Register(jobs.NewCleanup(srv.SessionStore(), srv.RateLimiter(), logger.With("job", "cleanup")), time.Hour)
	if notifySvc != nil {
		runner.Register(jobs.NewWeeklyReport(
			srv.UserStore(), srv.PeriodStore(), srv.PushStore(), notifySvc,
			cfg.ReportWeekday, cfg.ReportHour,
			logger.With("job", "weekly_report"),
		), time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("homebase listening", "port", cfg.Port, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	runner.Stop()
}
