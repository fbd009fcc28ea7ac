package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yourusername/vgm-archiver/internal/domain"
)

// LoadCatalog reads the flat catalog of download targets produced by the
// scraper. A missing or malformed catalog is fatal: without it there is
// nothing to do.
func LoadCatalog(path string) ([]domain.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var targets []domain.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	return targets, nil
}

// SaveCatalog writes the catalog produced by the scraper.
func SaveCatalog(path string, targets []domain.Target) error {
	data, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

// GroupByCategory buckets targets under a case-folded category key,
// preserving catalog order within each bucket.
func GroupByCategory(targets []domain.Target) map[string][]domain.Target {
	groups := make(map[string][]domain.Target)
	for _, t := range targets {
		key := strings.ToLower(t.Category)
		groups[key] = append(groups[key], t)
	}
	return groups
}
