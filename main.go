package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/darts/apps/go-server/internal/config"
	"github.com/robalobadob/darts/apps/go-server/internal/httpserver"
	"github.com/robalobadob/darts/apps/go-server/internal/live"
	"github.com/robalobadob/darts/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	var st store.Store
	switch cfg.Store {
	case "sqlite":
		db, err := store.OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", cfg.SQLiteDSN).Msg("failed to open sqlite store")
		}
		defer db.Close()
		st = db
	default:
		st = store.NewMemoryStore()
	}

	hub := live.NewHub(cfg.ClientOrigin)
	defer hub.Close()

	srv := httpserver.New(st, hub, cfg)
	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
}
