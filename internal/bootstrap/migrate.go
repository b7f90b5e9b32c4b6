package bootstrap

import (
	"context"
	"fmt"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/db"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates the schema and the embedding index. The vector extension
// must exist before rag_documents can be migrated.
func Migrate(ctx context.Context, d *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if err := db.EnsureVectorExtension(ctx, d); err != nil {
		return err
	}
	if err := d.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.Persona{},
		&model.DrawingTest{},
		&model.DrawingTestResult{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.RAGDocument{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := repo.NewRAGDocumentRepo(d).EnsureHNSWIndex(ctx, cfg.RAG.HNSWM, cfg.RAG.EfConstruction); err != nil {
		return fmt.Errorf("ensure hnsw index: %w", err)
	}
	log.Sugar().Infow("schema migrated", "hnsw_m", cfg.RAG.HNSWM, "ef_construction", cfg.RAG.EfConstruction)
	return nil
}

// EnsurePersonasSeeded aligns the persona table with the prompt catalog when
// the service starts.
func EnsurePersonasSeeded(ctx context.Context, personas service.PersonaService, cat *chatchain.Catalog, log *zap.Logger) error {
	if err := personas.Seed(ctx, cat); err != nil {
		return fmt.Errorf("seed personas: %w", err)
	}
	log.Sugar().Infow("personas seeded", "count", len(service.CanonicalPersonas(cat)))
	return nil
}
