// Package ingestion implements the document ingestion pipeline.
// It walks a directory of NELFUND documents (PDF, plain text, Markdown),
// extracts and chunks the content, embeds each chunk, and upserts the
// results into the vector store.
// This pipeline is invoked by the `navigator ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nelfund/navigator-go/internal/logging"
	"github.com/nelfund/navigator-go/internal/rag"
)

// Document describes a single source document discovered on disk.
type Document struct {
	// Path is the filesystem path of the document.
	Path string

	// Title is the human-readable document title used in citations.
	Title string
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive chunks.
	// Defaults to 200 if zero.
	ChunkOverlap int

	// EmbedBatchSize is the maximum number of chunks sent to the embedder
	// in one request. Defaults to 32 if zero.
	EmbedBatchSize int
}

// Pipeline orchestrates the extract → chunk → embed → upsert flow for a
// directory of documents.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}, nil
}

// Discover walks dir and returns every supported document found, sorted by
// path. Supported extensions are .pdf, .txt, and .md.
func Discover(dir string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt", ".md":
			docs = append(docs, Document{Path: path, Title: TitleFromPath(path)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingestion: walking %s: %w", dir, err)
	}

	return docs, nil
}

// IngestDir discovers all supported documents under dir and ingests them.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) error {
	docs, err := Discover(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("ingestion: no documents found in %s", dir)
	}
	return p.Ingest(ctx, docs)
}

// Ingest extracts, chunks, embeds, and stores all provided documents.
// It processes documents sequentially and returns the first error encountered.
func (p *Pipeline) Ingest(ctx context.Context, docs []Document) error {
	log := logging.FromContext(ctx)

	total := 0
	start := time.Now()

	for _, doc := range docs {
		n, err := p.ingestOne(ctx, doc)
		if err != nil {
			return err
		}
		total += n
	}

	log.Info("ingestion complete",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", total),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// ingestOne ingests a single document and returns how many chunks were stored.
func (p *Pipeline) ingestOne(ctx context.Context, doc Document) (int, error) {
	log := logging.FromContext(ctx)
	log.Info("ingesting document",
		slog.String("path", doc.Path),
		slog.String("title", doc.Title),
	)

	sections, err := p.extract(doc.Path)
	if err != nil {
		return 0, fmt.Errorf("ingestion: extracting %s: %w", doc.Path, err)
	}

	var chunks []rag.DocumentChunk
	for _, sec := range sections {
		for i, text := range p.chunk(sec.text) {
			chunks = append(chunks, rag.DocumentChunk{
				ID:            chunkID(doc.Title, sec.locator, i),
				Text:          text,
				SourceTitle:   doc.Title,
				SourceLocator: sec.locator,
			})
		}
	}

	if len(chunks) == 0 {
		log.Warn("document produced no chunks", slog.String("path", doc.Path))
		return 0, nil
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += p.cfg.EmbedBatchSize {
		batchEnd := batchStart + p.cfg.EmbedBatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("ingestion: embedding %s: %w", doc.Path, err)
		}

		if err := p.store.Upsert(ctx, batch, vectors); err != nil {
			return 0, fmt.Errorf("ingestion: upserting %s: %w", doc.Path, err)
		}
	}

	log.Info("document ingested",
		slog.String("title", doc.Title),
		slog.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// section is one extractable unit of a document with its citation locator.
type section struct {
	// text is the raw extracted content.
	text string
	// locator pinpoints the section within the document (e.g. "page 3").
	locator string
}

// extract reads the file at path and returns its content as locatable
// sections. PDFs yield one section per page; text and Markdown files yield
// a single section covering the whole file.
func (p *Pipeline) extract(path string) ([]section, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		return []section{{text: string(data), locator: filepath.Base(path)}}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
func (p *Pipeline) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// chunkID generates a deterministic UUID for a chunk from its document title,
// section locator, and chunk index. Re-ingesting the same document overwrites
// the existing points instead of duplicating them.
func chunkID(title, locator string, index int) string {
	name := fmt.Sprintf("%s#%s#%d", title, locator, index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
