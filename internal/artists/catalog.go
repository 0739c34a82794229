// Package artists lists the performers bookable for comparison. Event rows
// repeat artist names with inconsistent casing and accents, so the catalog
// folds names before deduplicating.
package artists

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Repository provides the raw artist names attached to a bar's events.
type Repository interface {
	ArtistNames(ctx context.Context, barID int64) ([]string, error)
}

// Catalog resolves the distinct artist list for a bar.
type Catalog struct {
	repo Repository
}

// NewCatalog constructs a Catalog.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName strips diacritics and lowercases for duplicate detection, so
// "João" and "joao" collapse into one entry.
func foldName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// List returns the distinct artist names for the bar, sorted by their folded
// form. The first spelling seen wins for each folded key.
func (c *Catalog) List(ctx context.Context, barID int64) ([]string, error) {
	raw, err := c.repo.ArtistNames(ctx, barID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(raw))
	keys := make([]string, 0, len(raw))
	for _, name := range raw {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := foldName(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = trimmed
		keys = append(keys, key)
	}
	sort.Strings(keys)
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, seen[key])
	}
	return names, nil
}
