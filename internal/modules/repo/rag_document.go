package repo

import (
	"context"
	"fmt"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoredDocument is a RAG row with its cosine similarity to the query.
type ScoredDocument struct {
	model.RAGDocument
	Score float64 `gorm:"column:score" json:"score"`
}

type VectorQuery struct {
	Embedding model.Vector
	K         int
	Document  string
	Element   string
	EfSearch  int
}

type RAGDocumentRepo interface {
	Upsert(ctx context.Context, docs []model.RAGDocument) error
	ListAll(ctx context.Context) ([]model.RAGDocument, error)
	Count(ctx context.Context) (int64, error)
	VectorSearch(ctx context.Context, q VectorQuery) ([]ScoredDocument, error)
	EnsureHNSWIndex(ctx context.Context, m, efConstruction int) error
}

type ragDocumentRepo struct{ db *gorm.DB }

func NewRAGDocumentRepo(db *gorm.DB) RAGDocumentRepo {
	return &ragDocumentRepo{db: db}
}

func (r *ragDocumentRepo) Upsert(ctx context.Context, docs []model.RAGDocument) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "element", "text", "metadata", "embedding", "source", "updated_at"}),
	}).CreateInBatches(&docs, 100).Error
}

func (r *ragDocumentRepo) ListAll(ctx context.Context) ([]model.RAGDocument, error) {
	var docs []model.RAGDocument
	return docs, r.db.WithContext(ctx).
		Omit("embedding").
		Order("doc_id ASC").
		Find(&docs).Error
}

func (r *ragDocumentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.RAGDocument{}).Count(&n).Error
}

// VectorSearch runs an HNSW cosine search. ef_search is scoped to the
// transaction so pooled connections keep their defaults.
func (r *ragDocumentRepo) VectorSearch(ctx context.Context, q VectorQuery) ([]ScoredDocument, error) {
	if len(q.Embedding) == 0 {
		return nil, fmt.Errorf("vector search: empty embedding")
	}
	if q.K <= 0 {
		q.K = 5
	}
	literal := q.Embedding.Literal()

	var out []ScoredDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if q.EfSearch > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", q.EfSearch)).Error; err != nil {
				return err
			}
		}
		stmt := tx.Model(&model.RAGDocument{}).
			Select("doc_id, document, element, text, metadata, source, created_at, updated_at, 1 - (embedding <=> ?::vector) AS score", literal)
		if q.Document != "" {
			stmt = stmt.Where("document = ?", q.Document)
		}
		if q.Element != "" {
			stmt = stmt.Where("element = ?", q.Element)
		}
		return stmt.
			Order(clause.Expr{SQL: "embedding <=> ?::vector", Vars: []interface{}{literal}}).
			Limit(q.K).
			Scan(&out).Error
	})
	return out, err
}

func (r *ragDocumentRepo) EnsureHNSWIndex(ctx context.Context, m, efConstruction int) error {
	sql := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_rag_documents_embedding_hnsw ON rag_documents USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d)",
		m, efConstruction,
	)
	return r.db.WithContext(ctx).Exec(sql).Error
}
