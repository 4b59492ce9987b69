// Package stats computes descriptive statistics over a collected library.
//
// Prices and release dates are coerced from their display strings: sentinels
// and free markers become zero (price) or are skipped (dates). Completion
// percentage is only defined for items with at least one achievement.
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/albapepper/steam-ledger/internal/provider"
)

// ErrNoRecords is returned when there is nothing to summarize.
var ErrNoRecords = errors.New("no records")

// Completion is the item with the best achievement completion.
type Completion struct {
	Name    string  `json:"name"`
	ItemID  int     `json:"item_id"`
	Gained  int     `json:"achievements_gained"`
	Total   int     `json:"achievements_total"`
	Percent float64 `json:"percent"`
}

// Dated is the item with the oldest parseable release date.
type Dated struct {
	Name   string    `json:"name"`
	ItemID int       `json:"item_id"`
	Date   time.Time `json:"release_date"`
}

// Played is the item with the most playtime.
type Played struct {
	Name   string  `json:"name"`
	ItemID int     `json:"item_id"`
	Hours  float64 `json:"playtime_hours"`
}

// Summary holds the five library statistics.
type Summary struct {
	MostPlayed     Played      `json:"most_played"`
	TotalSpent     float64     `json:"total_spent"`
	BestCompletion *Completion `json:"best_completion,omitempty"`
	Oldest         *Dated      `json:"oldest,omitempty"`
	TotalPlaytime  float64     `json:"total_playtime_hours"`
	Items          int         `json:"items"`
}

// Compute summarizes records. Ties resolve to the earliest record.
func Compute(records []provider.EnrichedRecord) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoRecords
	}

	s := Summary{Items: len(records)}
	most := -1

	for i, r := range records {
		s.TotalPlaytime += r.PlaytimeHours
		if most < 0 || r.PlaytimeHours > records[most].PlaytimeHours {
			most = i
		}

		if price, ok := ParsePrice(r.Price); ok {
			s.TotalSpent += price
		}

		progress := provider.AchievementProgress{Achieved: r.AchievementsGained, Total: r.AchievementsTotal}
		if pct, ok := progress.Percent(); ok {
			if s.BestCompletion == nil || pct > s.BestCompletion.Percent {
				s.BestCompletion = &Completion{
					Name:    r.Name,
					ItemID:  r.ItemID,
					Gained:  r.AchievementsGained,
					Total:   r.AchievementsTotal,
					Percent: pct,
				}
			}
		}

		if date, ok := ParseReleaseDate(r.ReleaseDate); ok {
			if s.Oldest == nil || date.Before(s.Oldest.Date) {
				s.Oldest = &Dated{Name: r.Name, ItemID: r.ItemID, Date: date}
			}
		}
	}

	s.MostPlayed = Played{
		Name:   records[most].Name,
		ItemID: records[most].ItemID,
		Hours:  records[most].PlaytimeHours,
	}
	return s, nil
}

// Lines renders the summary as the five report lines.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Game with the most playtime: %s (%.2f hours)", s.MostPlayed.Name, s.MostPlayed.Hours),
		fmt.Sprintf("Total amount of money spent on library: $%.2f", s.TotalSpent),
	}

	if c := s.BestCompletion; c != nil {
		lines = append(lines, fmt.Sprintf("Game with the highest achievement percentage: %s (%d/%d achievements, %.2f%%)",
			c.Name, c.Gained, c.Total, c.Percent))
	} else {
		lines = append(lines, "Game with the highest achievement percentage: none (no achievement data)")
	}

	if o := s.Oldest; o != nil {
		lines = append(lines, fmt.Sprintf("Oldest published game: %s (Published on %s)", o.Name, o.Date.Format("2006-01-02")))
	} else {
		lines = append(lines, "Oldest published game: none (no readable release dates)")
	}

	lines = append(lines, fmt.Sprintf("Total playtime across all games: %.2f hours", s.TotalPlaytime))
	return lines
}
