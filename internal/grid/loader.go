package grid

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pulseboard/contribeval/internal/domain"
)

// gridFile is the YAML document shape for externally defined grid sets.
type gridFile struct {
	Grids []gridDoc `yaml:"grids"`
}

type gridDoc struct {
	Type         string         `yaml:"type"`
	Scale        float64        `yaml:"scale"`
	Instructions string         `yaml:"instructions"`
	Criteria     []criterionDoc `yaml:"criteria"`
}

type criterionDoc struct {
	Criterion string  `yaml:"criterion"`
	Weight    float64 `yaml:"weight"`
}

// Load decodes a YAML grid set from r and validates each grid, including
// the weight sum and scale invariants.
func Load(r io.Reader) ([]domain.EvaluationGridTemplate, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file gridFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode grid file: %w", err)
	}

	grids := make([]domain.EvaluationGridTemplate, 0, len(file.Grids))
	for _, doc := range file.Grids {
		criteria := make([]domain.CriterionTemplate, len(doc.Criteria))
		for i, c := range doc.Criteria {
			criteria[i] = domain.CriterionTemplate{Criterion: c.Criterion, Weight: c.Weight}
		}
		g := domain.EvaluationGridTemplate{
			Type:         doc.Type,
			Scale:        domain.ScoreScale(doc.Scale),
			Criteria:     criteria,
			Instructions: doc.Instructions,
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("grid %q: %w", doc.Type, err)
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// LoadFile reads a YAML grid set from disk.
func LoadFile(path string) ([]domain.EvaluationGridTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// RegisterFromFile loads a YAML grid set and registers every grid.
// Grids from the file overwrite built-ins of the same type.
func RegisterFromFile(r *Registry, path string) error {
	grids, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, g := range grids {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}
