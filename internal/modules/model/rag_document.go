package model

import (
	"time"

	"gorm.io/datatypes"
)

type DocumentType = string

const (
	DocumentHouse  DocumentType = "house"
	DocumentTree   DocumentType = "tree"
	DocumentPerson DocumentType = "person"
)

type RAGMetadata struct {
	Keywords     []string `json:"keywords"`
	Conditions   []string `json:"conditions"`
	Explanations []string `json:"explanations"`
}

// RAGDocument is one annotated interpretation snippet. Rows are produced by
// the offline indexer and read-only while serving.
type RAGDocument struct {
	ID        string                          `gorm:"column:doc_id;type:varchar(128);primaryKey" json:"doc_id"`
	Document  DocumentType                    `gorm:"type:varchar(16);not null;index" json:"document"`
	Element   string                          `gorm:"type:varchar(255);not null;index" json:"element"`
	Text      string                          `gorm:"type:text;not null" json:"text"`
	Metadata  datatypes.JSONType[RAGMetadata] `gorm:"type:jsonb;not null" swaggertype:"object" json:"metadata"`
	Embedding Vector                          `json:"-"`
	Source    string                          `gorm:"type:varchar(255);not null;default:''" json:"source"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RAGDocument) TableName() string { return "rag_documents" }
