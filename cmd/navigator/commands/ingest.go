package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nelfund/navigator-go/internal/embedder"
	"github.com/nelfund/navigator-go/internal/ingestion"
	"github.com/nelfund/navigator-go/internal/logging"
)

// NewIngestCmd constructs the `navigator ingest` command, which runs the
// document ingestion pipeline to populate the vector store.
func NewIngestCmd() *cobra.Command {
	var dir string
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest NELFUND documents into the vector store",
		Long: `Extract, chunk, embed, and index NELFUND documents into Qdrant.

Supported formats are PDF (one citation locator per page), plain text, and
Markdown. Document titles are derived from filenames and shown verbatim in
answer citations, so name files the way they should be cited:

  nelfund-application-guidelines.pdf  →  NELFUND Application Guidelines

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: nelfund-docs)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  navigator ingest --dir ./documents
  navigator ingest --dir ./documents --chunk-size 800 --chunk-overlap 150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if dir == "" {
				return fmt.Errorf("ingest: --dir is required")
			}

			if err := embedder.ValidateForRetrieval(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("backend", embedder.ResolveBackend()))

			store, err := buildQdrantStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, store, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			if err := pipeline.IngestDir(ctx, dir); err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory of documents to ingest (required)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum characters per chunk (default: 1000)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "Characters of overlap between chunks (default: 200)")

	return cmd
}
