package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/internal/infrastructure/config"
	"hbpr-validation-service/internal/infrastructure/persistence"
	"hbpr-validation-service/internal/infrastructure/router"
	"hbpr-validation-service/internal/interface/httpapi"
	"hbpr-validation-service/internal/interface/inbox"
	storeRepo "hbpr-validation-service/internal/interface/repository"
	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/metrics"
	"hbpr-validation-service/templates"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	defer log.Sync()
	log.Info("Starting HBPR Validation Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	db := persistence.GetDatabase(mongoClient, cfg.MongoDB)

	dumpRepo := storeRepo.NewMongoDumpRepository(db, log)
	recordRepo := storeRepo.NewMongoRecordRepository(db, log)
	resultRepo := storeRepo.NewMongoResultRepository(db, log)

	rules := cfg.Rules()

	// Postgres master tables are optional
	var flightRepo repository.FlightRepository
	gormDB, err := persistence.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	if gormDB != nil {
		if err := storeRepo.AutoMigrate(gormDB); err != nil {
			log.Fatal("Failed to migrate master tables", "error", err)
		}
		flightRepo = storeRepo.NewGormFlightRepository(gormDB)

		classes, err := storeRepo.NewGormCabinClassRepository(gormDB).ListAll(ctx)
		if err != nil {
			log.Error("Failed to load cabin classes, using defaults", "error", err)
		} else if table := entity.CabinTable(classes); len(table) > 0 {
			rules.Cabins = table
			log.Info("Loaded cabin class table", "classes", len(table))
		}
	}

	// Redis report cache is optional
	var cache repository.ReportCache
	redisClient, err := persistence.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	if redisClient != nil {
		cache = storeRepo.NewRedisReportCache(redisClient, cfg.ReportCacheTTL)
	}

	m := metrics.NewMetrics("hbpr")

	validator := hbpr.NewValidator(rules, log)
	batch := usecase.NewBatchValidator(validator, cfg.WorkerCount, cfg.BatchSize, m, log)
	dumpProcessor := usecase.NewDumpProcessor(dumpRepo, recordRepo, resultRepo, flightRepo, cache,
		hbpr.NewSegmenter(log), batch, m, log)
	reportService := usecase.NewReportService(recordRepo, resultRepo, cache, batch, m, log)

	// correction commands must be matched before plain HBPR dumps
	headerRouter := router.NewHeaderRouter(log)
	headerRouter.Register(templates.NewCorrectionCommandHandler(dumpProcessor, log))
	headerRouter.Register(templates.NewHBPRDumpHandler(dumpProcessor, log))

	orchestrator := usecase.NewDumpOrchestrator(dumpRepo, headerRouter, log)

	if cfg.InboxDir != "" {
		dirInbox, err := inbox.NewDirInbox(cfg.InboxDir, dumpRepo, log, cfg.InboxPollInterval)
		if err != nil {
			log.Fatal("Failed to open inbox", "error", err)
		}
		go dirInbox.StartPolling(ctx)
	}

	// Process pending dumps in a goroutine
	go func() {
		processTicker := time.NewTicker(cfg.ProcessInterval)
		defer processTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Dump processor stopped")
				return
			case <-processTicker.C:
				if err := orchestrator.ProcessPendingDumps(ctx); err != nil {
					log.Error("Error processing dumps", "error", err)
				}
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	httpapi.NewHandler(orchestrator, reportService, log).Register(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Redis close error", "error", err)
		}
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("HBPR Validation Service stopped")
}
