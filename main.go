package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/config"
	"github.com/robalobadob/codebreaker/internal/database"
	"github.com/robalobadob/codebreaker/internal/httpserver"
	"github.com/robalobadob/codebreaker/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Server.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.OpenAndMigrate(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	srv := httpserver.New(store.NewMemoryStore(), db, cfg)
	log.Info().Str("port", cfg.Server.Port).Interface("rules", cfg.Game).Msg("starting codebreaker server")
	if err := srv.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
