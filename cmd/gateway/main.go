package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-clubs/internal/api/http"
	"github.com/mind-engage/mindengage-clubs/internal/attempt"
	auth "github.com/mind-engage/mindengage-clubs/internal/auth/middleware"
	"github.com/mind-engage/mindengage-clubs/internal/config"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/delivery"
	"github.com/mind-engage/mindengage-clubs/internal/intake"
	"github.com/mind-engage/mindengage-clubs/internal/logging"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
	"github.com/mind-engage/mindengage-clubs/internal/reports"
	"github.com/mind-engage/mindengage-clubs/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	drv, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}
	dbh, err := db.Open(ctx, drv, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	h := api.NewRouter(api.Deps{
		Log:                    log,
		DB:                     dbh,
		Auth:                   auth.NewAuthService(cfg.AuthHMACSecret),
		CSRF:                   auth.NewCSRF(cfg.CSRFSecret, 2*time.Hour),
		CORSOrigins:            cfg.CORSOrigins(),
		AllowClaimRoleFallback: cfg.AllowClaimRoleFallback,
		Moderation:             moderation.NewService(dbh, log),
		Delivery:               delivery.NewService(dbh, loc, log),
		Attempts:               attempt.NewService(dbh, loc, log),
		Intake:                 intake.NewService(dbh, loc, log),
		Reports:                reports.NewService(dbh, log),
		Users:                  users.NewService(dbh, log),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		sctx, scancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()

	log.WithFields(logrus.Fields{
		"addr": cfg.HTTPAddr, "mode": cfg.Mode, "db": cfg.DBDriver, "timezone": loc.String(),
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Info("stopped")
}
