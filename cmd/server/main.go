package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"briefdraft-backend/caselaw"
	"briefdraft-backend/config"
	"briefdraft-backend/embeddings"
	"briefdraft-backend/formatter"
	"briefdraft-backend/handlers"
	"briefdraft-backend/llm"
	"briefdraft-backend/logger"
	"briefdraft-backend/repository"
	"briefdraft-backend/service"
	"briefdraft-backend/storage"
	"briefdraft-backend/vectorstore"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	roots, err := storage.NewRoots(cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	log.WithField("type", cfg.Storage.Type).Info("Storage initialized")

	// Postgres backs the vector store and the chat memory when selected
	var db *pgxpool.Pool
	memoryBackend := cfg.ResolvedMemoryBackend()
	if cfg.VectorBackend == vectorstore.BackendPostgres || memoryBackend == "postgres" {
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL is required (or set MONGO_URI for mongo chat memory)")
		}
		db, err = repository.NewPostgresPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Postgres")
		}
		defer db.Close()
	}

	memoryStore, closeMemory := initMemoryStore(ctx, cfg, memoryBackend, db, log)
	defer closeMemory()

	store, backend := initVectorStore(ctx, cfg, db, log)
	defer backend.Close()

	generator, err := llm.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize generation client")
	}
	searcher := caselaw.New(cfg)

	// Initialize services
	briefService := service.NewBriefService(
		service.BriefWithStore(store),
		service.BriefWithSearcher(searcher),
		service.BriefWithGenerator(generator),
		service.BriefWithFormatter(formatter.NewDocxFormatter(roots.Documents, log)),
		service.BriefWithLogger(log),
	)
	memoryService := service.NewMemoryService(service.WithMemoryStore(memoryStore))

	generation, search := briefService.DemoMode()
	log.WithFields(logrus.Fields{
		"model":       generator.Model(),
		"demo_llm":    generation,
		"demo_search": search,
	}).Info("Drafting pipeline ready")

	// Initialize handlers
	router := handlers.NewRouter(
		handlers.NewBriefHandler(briefService, memoryService, log),
		handlers.NewMemoryHandler(memoryService, log),
		handlers.NewFileHandler(roots, briefService, cfg.MaxUploadBytes, log),
		log,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown did not complete")
	}
	// Let in-flight indexing finish before the stores close
	briefService.Wait()
}

func initMemoryStore(ctx context.Context, cfg *config.Config, backend string, db *pgxpool.Pool, log logrus.FieldLogger) (repository.MemoryStore, func()) {
	switch backend {
	case "sqlite":
		repo, err := repository.NewSQLiteMemoryRepository(cfg.MemoryDBPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to open SQLite chat memory")
		}
		log.WithField("path", cfg.MemoryDBPath).Info("Chat memory stored in SQLite")
		return repo, func() { _ = repo.Close() }

	case "postgres":
		log.Info("Chat memory stored in Postgres")
		return repository.NewPostgresMemoryRepository(db), func() {}

	case "mongo":
		if cfg.MongoURI == "" {
			log.Fatal("MONGO_URI is required for mongo chat memory")
		}
		client, database, err := repository.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize MongoDB")
		}
		repo := repository.NewMongoMemoryRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create chat memory indexes")
		}
		log.WithField("database", cfg.MongoDatabase).Info("Chat memory stored in MongoDB")
		return repo, func() { _ = client.Disconnect(context.Background()) }

	default:
		log.WithField("backend", backend).Fatal("Unknown MEMORY_BACKEND")
		return nil, nil
	}
}

// initVectorStore never fails: without an embedder the store answers every
// query with no results and drafting runs without internal context.
func initVectorStore(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, log logrus.FieldLogger) (*vectorstore.Store, vectorstore.Backend) {
	backend, err := vectorstore.NewBackend(cfg, db)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize vector backend")
	}

	opts := []vectorstore.StoreOption{vectorstore.WithLogger(log)}
	embedder, err := embeddings.New(ctx, cfg)
	switch {
	case errors.Is(err, embeddings.ErrNoProvider):
		log.Warn("No embedding provider configured; retrieval disabled")
	case err != nil:
		log.WithError(err).Warn("Failed to initialize embeddings; retrieval disabled")
	default:
		opts = append(opts, vectorstore.WithEmbedder(embedder))
	}

	log.WithFields(logrus.Fields{
		"backend":     cfg.VectorBackend,
		"persist_dir": cfg.VectorPersistDir,
	}).Info("Vector store initialized")
	return vectorstore.NewStore(backend, opts...), backend
}
