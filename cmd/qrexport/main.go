// Command qrexport writes every stored participant QR code to a PNG file
// named <id>_<name>.png, for printing badges.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/iliyamo/event-checkin/internal/config"
	"github.com/iliyamo/event-checkin/internal/database"
	"github.com/iliyamo/event-checkin/internal/logging"
	"github.com/iliyamo/event-checkin/internal/repository"
)

func main() {
	out := flag.String("out", "qr_exports", "output directory")
	flag.Parse()

	logger := logging.Setup(true)

	cfg, err := config.LoadDB()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	res, err := export(ctx, repository.NewParticipantRepo(db), *out, logger)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("done", "exported", res.Exported, "skipped", res.Skipped, "dir", *out)
}
