package main

import (
	"context"
	"os"

	"wallsweep/internal/archive"
	"wallsweep/internal/config"
	"wallsweep/internal/console"
	"wallsweep/internal/vk"
	"wallsweep/internal/wall"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	// Logs go to stderr so the interactive session owns stdout.
	zlog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	store, err := archive.Open(ctx, cfg.Archive.DSN, zlog.Logger)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize archive")
	}
	defer store.Close()

	client := vk.NewClient(cfg.API.BaseURL, cfg.API.Version, cfg.API.Timeout)

	sweeper := wall.NewService(client, zlog.Logger)
	sweeper.PageSize = cfg.Sweep.PageSize
	sweeper.PagePause = cfg.Sweep.PagePause
	sweeper.DeletePause = cfg.Sweep.DeletePause

	if err := console.New(cfg, client, sweeper, store, zlog.Logger).Run(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("session failed")
	}
}
