package repo

import (
	"context"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PersonaRepo interface {
	List(ctx context.Context, activeOnly bool) ([]model.Persona, error)
	Get(ctx context.Context, personaID uint) (*model.Persona, error)
	Seed(ctx context.Context, personas []model.Persona) error
}

type personaRepo struct{ db *gorm.DB }

func NewPersonaRepo(db *gorm.DB) PersonaRepo {
	return &personaRepo{db: db}
}

func (r *personaRepo) List(ctx context.Context, activeOnly bool) ([]model.Persona, error) {
	q := r.db.WithContext(ctx).Order("persona_id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var personas []model.Persona
	return personas, q.Find(&personas).Error
}

func (r *personaRepo) Get(ctx context.Context, personaID uint) (*model.Persona, error) {
	var p model.Persona
	if err := r.db.WithContext(ctx).Where("persona_id = ?", personaID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Seed upserts the catalog by id. is_active is left alone on existing rows.
func (r *personaRepo) Seed(ctx context.Context, personas []model.Persona) error {
	if len(personas) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "persona_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
	}).Create(&personas).Error
}
