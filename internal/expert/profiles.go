// Package expert holds the catalog of named training philosophies used to
// condition plan generation.
package expert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProfiles is the built-in catalog of 20 trusted sources.
var DefaultProfiles = []string{
	"Bret Contreras (The Glute Guy)",
	"Dr. Brad Schoenfeld (Hypertrophy Expert)",
	"Jeff Nippard (Science-Based Training)",
	"NASM (National Academy of Sports Medicine)",
	"NSCA (National Strength and Conditioning Association)",
	"Precision Nutrition Coaches",
	"Stronger by Science",
	"Biomechanics Institute (Kelly Starrett / Jill Miller)",
	"Mass Research Review (Menno Henselmans, Greg Nuckols)",
	"Girls Gone Strong (Women's Strength Org)",
	"OPEX Fitness",
	"Athlean-X (Jeff Cavaliere)",
	"N1 Training (Kassem Hanson)",
	"Physique Development Coaches",
	"TrainHeroic Coaches' Network",
	"Glute Lab (San Diego)",
	"Dr. Layne Norton (Biolayne)",
	"Myolean Fitness (Research-based coaching)",
	"Stronger U Fitness",
	"Body by Bret Academy",
}

// Catalog resolves expert names for plan generation.
type Catalog struct {
	profiles []string
	index    map[string]struct{}
}

// NewCatalog builds a catalog from the default profile list.
func NewCatalog() *Catalog {
	return newCatalog(DefaultProfiles)
}

// LoadCatalog reads a YAML override file of the form:
//
//	profiles:
//	  - Name One
//	  - Name Two
//
// An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile catalog: %w", err)
	}
	var doc struct {
		Profiles []string `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse profile catalog: %w", err)
	}
	if len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("profile catalog %s lists no profiles", path)
	}
	return newCatalog(doc.Profiles), nil
}

func newCatalog(profiles []string) *Catalog {
	index := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		index[p] = struct{}{}
	}
	return &Catalog{profiles: profiles, index: index}
}

// Profiles returns the catalog in declaration order.
func (c *Catalog) Profiles() []string {
	out := make([]string, len(c.profiles))
	copy(out, c.profiles)
	return out
}

func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Resolve returns name when it is a catalog member, else the fallback.
func (c *Catalog) Resolve(name, fallback string) string {
	if c.Contains(name) {
		return name
	}
	return fallback
}
