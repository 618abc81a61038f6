// Command createadmin creates an admin user, or promotes an existing user
// to admin and resets their password.
//
//	createadmin -roll admin -name "Club Admin" -password s3cret
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/config"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/logging"
	"github.com/mind-engage/mindengage-clubs/internal/users"
)

func main() {
	roll := flag.String("roll", "", "admin roll number (login)")
	name := flag.String("name", "Administrator", "full name")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password (or ADMIN_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if *roll == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	if err := users.NewService(dbh, log).EnsureAdmin(ctx, *roll, *name, *password); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.WithField("roll", *roll).Info("admin ready")
}
