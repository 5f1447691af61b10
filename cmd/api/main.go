package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/config"
	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/handlers"
	"github.com/formaflow/converter_api/internal/pool"
	"github.com/formaflow/converter_api/internal/services"
	"github.com/formaflow/converter_api/internal/tempfile"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	tmp, err := tempfile.NewManager(cfg.TempDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("temp dir setup failed")
	}

	workers := pool.NewWorkerPool(cfg.MaxWorkers, cfg.QueueSize)
	if err := workers.Start(); err != nil {
		log.Fatal().Err(err).Msg("worker pool start failed")
	}

	jobManager := services.NewJobManager(cfg.JobTTL, log)
	jobManager.StartSweeper(cfg.SweepInterval)

	uploads, err := services.NewUploadStore(cfg.UploadDir, cfg.JobTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir setup failed")
	}

	dispatcher := convert.NewDispatcher(tmp, log, cfg.ConvertTimeout)
	service, err := services.NewConversionService(dispatcher, jobManager, uploads, workers, cfg.OutputDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("output dir setup failed")
	}

	// Residual uploads and temp files from abandoned jobs go with the same
	// TTL as the jobs themselves.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			uploads.Sweep()
			tmp.Sweep(cfg.JobTTL)
		}
	}()

	handler := handlers.NewConversionHandler(service, jobManager, uploads, services.NewPackager(), log)
	router := setupRouter(handler, workers, jobManager, cfg.MaxUploadSize)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		workers.Stop()
		jobManager.Close()
	}()

	log.Info().Str("port", cfg.Port).Int("workers", cfg.MaxWorkers).Msg("starting server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func setupRouter(handler *handlers.ConversionHandler, workers *pool.WorkerPool, jobManager *services.JobManager, maxUploadSize int64) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxUploadSize

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"workers": workers.GetStats(),
				"jobs":    jobManager.Count(),
			})
		})

		api.POST("/upload", handler.UploadFiles)
		api.GET("/presets", handler.ListPresets)
		api.POST("/convert", handler.StartConversion)
		api.GET("/jobs/:jobId", handler.GetJobStatus)
		api.GET("/jobs/:jobId/download", handler.DownloadResult)
		api.GET("/jobs/:jobId/download/zip", handler.DownloadZip)
	}

	return router
}
