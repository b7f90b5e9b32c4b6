package rag

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"go.uber.org/zap"
)

// Indexer builds the RAG corpus offline from markdown annotation files.
type Indexer struct {
	Repo           repo.RAGDocumentRepo
	Embedder       Embedder
	BatchSize      int
	HNSWM          int
	EfConstruction int
	Log            *zap.Logger
}

type IndexStats struct {
	Files     int `json:"files"`
	Documents int `json:"documents"`
	Skipped   int `json:"skipped"`
}

// IndexFS walks fsys for *.md files, embeds every item and upserts the rows,
// then ensures the HNSW index exists.
func (ix *Indexer) IndexFS(ctx context.Context, fsys fs.FS) (IndexStats, error) {
	var stats IndexStats
	batch := ix.BatchSize
	if batch <= 0 {
		batch = 32
	}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		document, err := DocumentFromFilename(path)
		if err != nil {
			ix.Log.Warn("skip corpus file", zap.String("path", path), zap.Error(err))
			stats.Skipped++
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		docs := ToDocuments(path, document, ParseMarkdown(string(raw)))
		if len(docs) == 0 {
			stats.Skipped++
			return nil
		}

		for start := 0; start < len(docs); start += batch {
			end := min(start+batch, len(docs))
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = docs[start+i].Text
			}
			vecs, err := ix.Embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed %s: %w", path, err)
			}
			for i, v := range vecs {
				docs[start+i].Embedding = model.Vector(v)
			}
		}
		if err := ix.Repo.Upsert(ctx, docs); err != nil {
			return fmt.Errorf("upsert %s: %w", path, err)
		}

		stats.Files++
		stats.Documents += len(docs)
		ix.Log.Info("indexed corpus file", zap.String("path", path), zap.String("document", document), zap.Int("items", len(docs)))
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := ix.Repo.EnsureHNSWIndex(ctx, ix.HNSWM, ix.EfConstruction); err != nil {
		return stats, fmt.Errorf("ensure hnsw index: %w", err)
	}
	return stats, nil
}
