package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/ai"
	"github.com/dianehq/diane/internal/config"
	"github.com/dianehq/diane/internal/db"
	"github.com/dianehq/diane/internal/embedcache"
	"github.com/dianehq/diane/internal/filestore"
	"github.com/dianehq/diane/internal/repo"
	"github.com/dianehq/diane/internal/service"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:   "diane",
		Short: "diane is a personal memory assistant over your audio recordings",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to config.json")

	rootCmd.AddCommand(
		newProcessCmd(&configPath),
		newQueryCmd(&configPath),
		newInteractiveCmd(&configPath),
		newServeCmd(&configPath),
		newTokenCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// app holds everything a command needs, wired once.
type app struct {
	cfg     *config.Config
	db      *sql.DB
	manager *ai.Manager
	store   filestore.Store

	transcripts *repo.TranscriptRepo
	keywords    *repo.KeywordRepo
	chunks      *repo.ChunkRepo
	cache       *repo.EmbeddingCacheRepo

	ingest *service.IngestService
	search *service.SearchService
}

func setup(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	a := &app{
		cfg:         cfg,
		db:          conn,
		transcripts: repo.NewTranscriptRepo(conn),
		keywords:    repo.NewKeywordRepo(conn),
		chunks:      repo.NewChunkRepo(conn),
		cache:       repo.NewEmbeddingCacheRepo(conn),
	}

	if a.manager, err = buildManager(cfg, a.cache); err != nil {
		return nil, err
	}
	if a.store, err = filestore.New(cfg.FileStore); err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	a.ingest = service.NewIngestService(a.transcripts, a.keywords, a.chunks, a.manager, a.store, service.IngestConfig{
		AudioExtensions: cfg.Audio.Extensions,
	})
	a.search = service.NewSearchService(a.transcripts, a.keywords, a.chunks, a.manager, service.SearchConfig{
		TopK:            cfg.Search.TopK,
		MaxContextChars: cfg.Search.MaxContextChars,
	})
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func buildManager(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (*ai.Manager, error) {
	genProvider, err := ai.NewGenerateProvider(cfg.AI.Generate.Provider, cfg.AI.Generate.Data)
	if err != nil {
		return nil, fmt.Errorf("init generate provider: %w", err)
	}
	gen := ai.NewGenerator(genProvider, cfg.AI.Generate.Model, cfg.AI.Temperature)

	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Embed.Provider, cfg.AI.Embed.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.Embed.Model)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.AI.EmbedCache.LRUSize,
		time.Duration(cfg.AI.EmbedCache.LRUTTLMinutes)*time.Minute,
	)

	transcribeProvider, err := ai.NewTranscribeProvider(cfg.AI.Transcribe.Provider, cfg.AI.Transcribe.Data)
	if err != nil {
		return nil, fmt.Errorf("init transcribe provider: %w", err)
	}
	transcriber := ai.NewTranscriber(transcribeProvider,
		cfg.AI.Transcribe.Model,
		cfg.AI.Transcribe.Language,
		cfg.AI.Transcribe.BeamSize,
	)

	var speaker ai.ISpeaker
	if cfg.AI.Speech.Provider != "" {
		speechProvider, err := ai.NewSpeechProvider(cfg.AI.Speech.Provider, cfg.AI.Speech.Data)
		if err != nil {
			return nil, fmt.Errorf("init speech provider: %w", err)
		}
		speaker = ai.NewSpeaker(speechProvider, cfg.AI.Speech.Model, cfg.AI.Speech.Voice)
	}

	return ai.NewManager(gen, embedder, transcriber, speaker, ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	}), nil
}
