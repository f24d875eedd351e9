package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/dianehq/diane/internal/handler"
	"github.com/dianehq/diane/internal/job"
	"github.com/dianehq/diane/internal/middleware"
	"github.com/dianehq/diane/internal/schedule"
)

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the http api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return runServer(app)
		},
	}
	return cmd
}

func runServer(app *app) error {
	cfg := app.cfg
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	logutil.GetLogger(context.Background()).Info("starting server",
		zap.Int("port", cfg.Server.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	deps := handler.RouterDeps{
		Auth: handler.NewAuthHandler(
			[]byte(cfg.Server.JWTSecret),
			cfg.Server.APIPasswordHash,
			time.Duration(cfg.Server.JWTTTLHours)*time.Hour,
		),
		Transcripts: handler.NewTranscriptHandler(app.ingest),
		Query:       handler.NewQueryHandler(app.search),
		Files:       handler.NewFileHandler(app.store),
		JWTSecret:   []byte(cfg.Server.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.Server.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(app.chunks, app.manager, cfg.Jobs.BackfillBatchSize), cfg.Jobs.EmbeddingBackfillSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(app.cache, cfg.AI.EmbedCache.DBTTLDays), cfg.Jobs.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
