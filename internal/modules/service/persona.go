package service

import (
	"context"
	"fmt"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/model"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/repo"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/variant"
)

type PersonaService interface {
	List(ctx context.Context) ([]model.Persona, error)
	// Seed writes the canonical five personas. Descriptions come from the
	// prompt catalog when it has an entry for the id.
	Seed(ctx context.Context, cat *chatchain.Catalog) error
}

type personaService struct {
	r repo.PersonaRepo
}

func NewPersonaService(r repo.PersonaRepo) PersonaService {
	return &personaService{r: r}
}

func (s *personaService) List(ctx context.Context) ([]model.Persona, error) {
	return s.r.List(ctx, true)
}

func (s *personaService) Seed(ctx context.Context, cat *chatchain.Catalog) error {
	return s.r.Seed(ctx, CanonicalPersonas(cat))
}

// CanonicalPersonas derives the persona rows from variant.All.
func CanonicalPersonas(cat *chatchain.Catalog) []model.Persona {
	out := make([]model.Persona, 0, variant.Count)
	for _, v := range variant.All {
		desc := fmt.Sprintf("%s (%s)", v.Name, v.English)
		if cat != nil {
			if p, ok := cat.Persona(v.ID); ok && p.Greeting != "" {
				desc = p.Greeting
			}
		}
		out = append(out, model.Persona{ID: uint(v.ID), Name: v.Name, Description: desc, IsActive: true})
	}
	return out
}
