package analysis

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"fitdash/internal/store"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	Key          string  `yaml:"key"`
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	Icon         string  `yaml:"icon"`
	Category     string  `yaml:"category"`
	Threshold    float64 `yaml:"threshold"`
	ActivityType string  `yaml:"activity_type"`
}

// DefaultCatalog returns the built-in achievement definitions
func DefaultCatalog() ([]store.Achievement, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a YAML list of achievement definitions
func ParseCatalog(data []byte) ([]store.Achievement, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing achievement catalog: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	defs := make([]store.Achievement, 0, len(entries))
	for _, e := range entries {
		category := store.AchievementCategory(e.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("achievement %q: unknown category %q", e.Key, e.Category)
		}
		if e.Key == "" {
			return nil, fmt.Errorf("achievement %q: missing key", e.Name)
		}
		if seen[e.Key] {
			return nil, fmt.Errorf("achievement %q: duplicate key", e.Key)
		}
		seen[e.Key] = true

		defs = append(defs, store.Achievement{
			Key:          e.Key,
			Name:         e.Name,
			Description:  e.Description,
			Icon:         e.Icon,
			Category:     category,
			Threshold:    e.Threshold,
			ActivityType: e.ActivityType,
		})
	}
	return defs, nil
}
