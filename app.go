package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/shivendrra/synapse/config"
	"github.com/shivendrra/synapse/convert"
	"github.com/shivendrra/synapse/db"
	apperrors "github.com/shivendrra/synapse/errors"
	"github.com/shivendrra/synapse/logger"
	"github.com/shivendrra/synapse/media"
	"github.com/shivendrra/synapse/search"
	"github.com/shivendrra/synapse/storage"
	"github.com/shivendrra/synapse/youtube"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *db.Store
	spaces *storage.SpacesClient
}

// loadConfig reads and validates the configuration without opening anything.
func loadConfig(opts rootOptions) (*config.Config, error) {
	cfg := config.LoadConfig()
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, apperrors.Config("main.loadConfig", err, "invalid configuration")
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts rootOptions) (*app, error) {
	const op = "main.newApp"

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(logger.Config{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		return nil, apperrors.Config(op, err, "failed to set up logging")
	}
	logrus.SetLevel(log.GetLevel())
	logrus.SetOutput(log.Out)

	a := &app{cfg: cfg, log: log}

	if cfg.DBPath != "" {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			log.WithError(err).WithField("path", cfg.DBPath).Warn("History ledger unavailable")
		} else {
			a.store = store
		}
	}

	if cfg.Spaces.Enabled() {
		spaces, err := storage.NewSpacesClient(ctx, storage.SpacesConfig{
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
			Region:    cfg.Spaces.Region,
			Endpoint:  cfg.Spaces.Endpoint,
			Bucket:    cfg.Spaces.Bucket,
			Prefix:    cfg.Spaces.Prefix,
		})
		if err != nil {
			log.WithError(err).Warn("Publishing disabled")
		} else {
			a.spaces = spaces
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Error("Database shutdown error")
		}
	}
}

func (a *app) searchPipeline() (*search.Pipeline, error) {
	const op = "main.searchPipeline"

	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, apperrors.Config(op, err, "YouTube API key missing, set YT_API_KEY")
	}

	opts := []search.Option{search.WithLogger(a.log)}
	if a.store != nil {
		opts = append(opts, search.WithRecorder(a.store))
	}
	if a.spaces != nil {
		opts = append(opts, search.WithPublisher(a.spaces))
	}

	client := youtube.NewClient(a.cfg.APIKey, a.cfg.APIEndpoint)
	return search.NewPipeline(client, search.Config{
		WatchHost:  a.cfg.WatchHost,
		OutputPath: a.cfg.SearchOutputPath,
		Timeout:    a.cfg.SearchTimeout,
	}, opts...), nil
}

func (a *app) convertPipeline() *convert.Pipeline {
	extractor := media.NewExtractor(media.Config{
		FFmpegPath: a.cfg.FFmpegPath,
		YtDlpPath:  a.cfg.YtDlpPath,
		OutputDir:  a.cfg.AudioDir,
		Format:     a.cfg.AudioFormat,
	}, media.NewExecRunner(a.log), a.log)

	opts := []convert.Option{convert.WithLogger(a.log)}
	if a.store != nil {
		opts = append(opts, convert.WithRecorder(a.store))
	}
	if a.spaces != nil {
		opts = append(opts, convert.WithPublisher(a.spaces))
	}

	return convert.NewPipeline(extractor, convert.Config{
		OutputPath: a.cfg.ConvertOutputPath,
		Timeout:    a.cfg.ConvertTimeout,
	}, opts...)
}
