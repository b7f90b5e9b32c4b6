package chatchain

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/variant"
	"gopkg.in/yaml.v3"
)

//go:embed prompts
var promptFS embed.FS

const (
	commonRulesFile = "common_rules.md"
	manifestFile    = "manifest.yaml"
)

type Persona struct {
	ID       int    `yaml:"id"`
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Greeting string `yaml:"greeting"`
	Prompt   string `yaml:"-"`
}

type manifest struct {
	Personas []Persona `yaml:"personas"`
}

// Catalog holds the prompt texts loaded once at startup.
type Catalog struct {
	CommonRules string
	personas    map[int]Persona
}

// LoadCatalog reads prompts from dir, or from the embedded defaults when dir
// is empty.
func LoadCatalog(dir string) (*Catalog, error) {
	if dir == "" {
		sub, err := fs.Sub(promptFS, "prompts")
		if err != nil {
			return nil, err
		}
		return LoadCatalogFS(sub)
	}
	return LoadCatalogFS(os.DirFS(dir))
}

// LoadCatalogFS requires one persona per variant with the variant's prompt key.
func LoadCatalogFS(fsys fs.FS) (*Catalog, error) {
	rules, err := fs.ReadFile(fsys, commonRulesFile)
	if err != nil {
		return nil, fmt.Errorf("read common rules: %w", err)
	}
	raw, err := fs.ReadFile(fsys, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse prompt manifest: %w", err)
	}

	cat := &Catalog{CommonRules: strings.TrimSpace(string(rules)), personas: make(map[int]Persona, len(m.Personas))}
	for _, p := range m.Personas {
		v, ok := variant.ByID(p.ID)
		if !ok {
			return nil, fmt.Errorf("persona id %d is not a known variant", p.ID)
		}
		if p.Key != v.PromptKey {
			return nil, fmt.Errorf("persona %d: key %q, want %q", p.ID, p.Key, v.PromptKey)
		}
		body, err := fs.ReadFile(fsys, p.File)
		if err != nil {
			return nil, fmt.Errorf("read persona %s: %w", p.Key, err)
		}
		p.Prompt = strings.TrimSpace(string(body))
		if p.Name == "" {
			p.Name = v.Name
		}
		cat.personas[p.ID] = p
	}
	for _, v := range variant.All {
		if _, ok := cat.personas[v.ID]; !ok {
			return nil, fmt.Errorf("persona prompt missing for %s (%d)", v.Name, v.ID)
		}
	}
	return cat, nil
}

func (c *Catalog) Persona(id int) (Persona, bool) {
	p, ok := c.personas[id]
	return p, ok
}
