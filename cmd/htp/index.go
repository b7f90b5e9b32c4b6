package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/rag"
)

var corpusDir string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the RAG annotation corpus",
	Long: `index walks a directory of markdown annotation files, embeds every item
and upserts it into the vector table, then ensures the HNSW index exists.
Re-running replaces rows by (document, element, item).`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&corpusDir, "dir", "d", "", "corpus directory (defaults to rag.corpus_dir)")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	inj := newContainer()
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	dir := corpusDir
	if dir == "" {
		dir = cfg.RAG.CorpusDir
	}
	if dir == "" {
		return errors.New("no corpus directory: pass --dir or set rag.corpus_dir")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("corpus directory: %w", err)
	}

	ix := &rag.Indexer{
		Repo:           do.MustInvoke[repo.RAGDocumentRepo](inj),
		Embedder:       do.MustInvoke[rag.Embedder](inj),
		BatchSize:      cfg.Embedding.BatchSize,
		HNSWM:          cfg.RAG.HNSWM,
		EfConstruction: cfg.RAG.EfConstruction,
		Log:            log,
	}
	stats, err := ix.IndexFS(cmd.Context(), os.DirFS(dir))
	if err != nil {
		return err
	}
	log.Info("corpus indexed", zap.Int("files", stats.Files), zap.Int("documents", stats.Documents), zap.Int("skipped", stats.Skipped))
	return nil
}
