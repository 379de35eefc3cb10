// Package main provides the ragctl CLI for loading and inspecting the retrieval collections.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"briefdraft-backend/config"
	"briefdraft-backend/embeddings"
	"briefdraft-backend/logger"
	"briefdraft-backend/repository"
	"briefdraft-backend/service"
	"briefdraft-backend/vectorstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const previewRunes = 200

var (
	ingestDir   string
	sampleCount int
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Retrieval collection management tool",
	Long:  "CLI tool for loading office documents into the vector store and inspecting its collections",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index every PDF, DOCX and TXT file of a directory",
	Long: `Extracts the text of each supported file directly inside --dir, classifies it
by file name (template, case-law, client document or brief) and by practice area,
and adds it to the matching collection.

The directory is created when missing so files can be dropped into it.

Environment variables:
  VECTOR_BACKEND      memory, postgres or qdrant
  VECTOR_PERSIST_DIR  directory of the embedded memory backend (default ./storage/vectors)
  DATABASE_URL        Postgres connection for the postgres backend
  QDRANT_HOST/PORT    Qdrant gRPC endpoint for the qdrant backend
  OPENAI_API_KEY      or GEMINI_API_KEY / EMBEDDING_PROVIDER=ollama for embeddings`,
	RunE: runIngest,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show document counts and samples per collection",
	RunE:  runInspect,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "./storage/ingest", "directory to ingest")
	inspectCmd.Flags().IntVar(&sampleCount, "sample", 5, "samples to show per collection")
	rootCmd.AddCommand(ingestCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	if _, err := os.Stat(ingestDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(ingestDir, 0o755); err != nil {
			return fmt.Errorf("Failed to create %s: %w", ingestDir, err)
		}
		fmt.Printf("Created %s; add PDF, DOCX or TXT files and run again.\n", ingestDir)
		return nil
	}

	store, log, cleanup, err := openStore(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Indexing %s...\n", ingestDir)
	results, err := service.NewIngestService(store, log).IngestDir(ctx, ingestDir)
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}

	fmt.Println()
	printIngestSummary(os.Stdout, results)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, _, cleanup, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := store.Stats(ctx, sampleCount)
	if err != nil {
		return fmt.Errorf("Failed to read collections: %w", err)
	}
	printStats(os.Stdout, stats)
	return nil
}

// openStore builds the configured vector store. Ingestion needs an
// embedder; inspection only reads stored rows.
func openStore(ctx context.Context, needEmbedder bool) (*vectorstore.Store, logrus.FieldLogger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.LogLevel)
	inProcess := cfg.VectorBackend == vectorstore.BackendMemory || cfg.VectorBackend == ""
	if inProcess && cfg.VectorPersistDir == "" {
		log.Warn("VECTOR_PERSIST_DIR is empty; collections are discarded when ragctl exits")
	}

	var db *pgxpool.Pool
	cleanup := func() {}
	if cfg.VectorBackend == vectorstore.BackendPostgres && cfg.DatabaseURL != "" {
		db, err = repository.NewPostgresPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = db.Close
	}

	backend, err := vectorstore.NewBackend(cfg, db)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	closeDB := cleanup
	cleanup = func() {
		_ = backend.Close()
		closeDB()
	}

	opts := []vectorstore.StoreOption{vectorstore.WithLogger(log)}
	embedder, err := embeddings.New(ctx, cfg)
	switch {
	case err == nil:
		opts = append(opts, vectorstore.WithEmbedder(embedder))
	case needEmbedder:
		cleanup()
		return nil, nil, nil, fmt.Errorf("Failed to create embedder: %w", err)
	}

	return vectorstore.NewStore(backend, opts...), log, cleanup, nil
}

func printIngestSummary(w io.Writer, results []service.IngestResult) {
	perKind := map[string]int{}
	for _, r := range results {
		perKind[string(r.Kind)]++
	}
	kinds := make([]string, 0, len(perKind))
	for k := range perKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintln(w, "Ingestion complete!")
	fmt.Fprintf(w, "  Files: %d\n", len(results))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, perKind[k])
	}
}

func printStats(w io.Writer, stats []vectorstore.CategoryStats) {
	for _, st := range stats {
		fmt.Fprintf(w, "== %s (%s): %d documents\n", st.Category, st.Category.CollectionName(), st.Count)
		for _, s := range st.Samples {
			fmt.Fprintf(w, "  - %s %v\n", s.ID, s.Metadata)
			fmt.Fprintf(w, "    %s\n", preview(s.Text))
		}
	}
}

// preview returns the first runes of text on a single line
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "…"
}
