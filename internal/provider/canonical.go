// Package provider defines canonical data types that the Steam sources
// normalize into. These structs are the contract between the source clients,
// the enrichment pipeline, and the output collaborators. Sources output
// these, the pipeline merges them, the table and db packages persist them.
package provider

import (
	"errors"
	"strings"
)

// Sentinel values substituted when real data is unavailable.
const (
	Unknown = "Unknown"
	Free    = "Free"
)

// Failure classes shared by every source. Sources wrap these with context;
// callers test with errors.Is.
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrMetadataUnparseable = errors.New("metadata unparseable")
)

// OwnedItem is one entry of the account's library as returned by the
// ownership endpoint.
type OwnedItem struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeMinutes int    `json:"playtime_forever"`
}

// CatalogMetadata is the best-effort storefront data for one item. Every field
// defaults to a sentinel independently of the others.
type CatalogMetadata struct {
	Price       string   `json:"price"`
	ReleaseDate string   `json:"release_date"`
	Developer   string   `json:"developer"`
	Publisher   string   `json:"publisher"`
	Genres      []string `json:"genres"`
}

// UnknownCatalog is the value used when the storefront page could not be
// fetched or parsed at all.
func UnknownCatalog() CatalogMetadata {
	return CatalogMetadata{
		Price:       Unknown,
		ReleaseDate: Unknown,
		Developer:   Unknown,
		Publisher:   Unknown,
	}
}

// GenresField renders the genre list as stored in the output table.
func (m CatalogMetadata) GenresField() string {
	if len(m.Genres) == 0 {
		return Unknown
	}
	return strings.Join(m.Genres, ", ")
}

// AchievementProgress is the achievement completion for one item.
// Total == 0 means the item has no achievements or data was unavailable.
type AchievementProgress struct {
	Achieved int `json:"achieved"`
	Total    int `json:"total"`
}

// Percent returns the completion percentage. ok is false when Total is zero.
func (p AchievementProgress) Percent() (pct float64, ok bool) {
	if p.Total <= 0 {
		return 0, false
	}
	return float64(p.Achieved) / float64(p.Total) * 100, true
}

// EnrichedRecord is the flat, normalized row produced once per owned item.
// Field order is the output column order.
type EnrichedRecord struct {
	Name               string  `json:"name"`
	ItemID             int     `json:"item_id"`
	PlaytimeHours      float64 `json:"playtime_hours"`
	Price              string  `json:"price"`
	ReleaseDate        string  `json:"release_date"`
	Developer          string  `json:"developer"`
	Publisher          string  `json:"publisher"`
	Genres             string  `json:"genres"`
	AchievementsGained int     `json:"achievements_gained"`
	AchievementsTotal  int     `json:"achievements_total"`
}

// Merge builds the record for one item. Sentinel strings pass through
// unchanged; no further validation is applied.
func Merge(item OwnedItem, meta CatalogMetadata, progress AchievementProgress) EnrichedRecord {
	return EnrichedRecord{
		Name:               item.Name,
		ItemID:             item.AppID,
		PlaytimeHours:      float64(item.PlaytimeMinutes) / 60,
		Price:              meta.Price,
		ReleaseDate:        meta.ReleaseDate,
		Developer:          meta.Developer,
		Publisher:          meta.Publisher,
		Genres:             meta.GenresField(),
		AchievementsGained: progress.Achieved,
		AchievementsTotal:  progress.Total,
	}
}
