package model

import (
	"time"
)

type Persona struct {
	ID          uint   `gorm:"column:persona_id;primaryKey" json:"persona_id"`
	Name        string `gorm:"type:varchar(32);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Persona) TableName() string { return "personas" }
