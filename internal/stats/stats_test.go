package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/steam-ledger/internal/provider"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		in    string
		want  float64
		valid bool
	}{
		{in: "$9.99", want: 9.99, valid: true},
		{in: "  $19.99 ", want: 19.99, valid: true},
		{in: "Free", want: 0, valid: true},
		{in: "Free To Play", want: 0, valid: true},
		{in: "Free to Play", want: 0, valid: true},
		{in: "9,99€", want: 9.99, valid: true},
		{in: "1,299.99", want: 1299.99, valid: true},
		{in: "1.299,99 €", want: 1299.99, valid: true},
		{in: "¥ 1,980", want: 1980, valid: true},
		{in: "CDN$ 12.99", want: 12.99, valid: true},
		{in: "Rp 1.299.000", want: 1299000, valid: true},
		{in: "Unknown", valid: false},
		{in: "", valid: false},
		{in: "Play Game", valid: false},
	}

	for _, test := range testCases {
		t.Run(test.in, func(t *testing.T) {
			got, ok := ParsePrice(test.in)
			require.Equal(t, test.valid, ok)
			if test.valid {
				require.InDelta(t, test.want, got, 1e-9)
			}
		})
	}
}

func TestParseReleaseDate(t *testing.T) {
	testCases := []struct {
		in    string
		want  time.Time
		valid bool
	}{
		{in: "21 Aug, 2012", want: time.Date(2012, 8, 21, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "Aug 21, 2012", want: time.Date(2012, 8, 21, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "1 Nov, 2004", want: time.Date(2004, 11, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "November 1, 2004", want: time.Date(2004, 11, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "2019-02-28", want: time.Date(2019, 2, 28, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "Mar 2021", want: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "1998", want: time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "\n\t21   Aug, 2012 ", want: time.Date(2012, 8, 21, 0, 0, 0, 0, time.UTC), valid: true},
		{in: "Unknown", valid: false},
		{in: "Coming soon", valid: false},
		{in: "Q3 2025", valid: false},
	}

	for _, test := range testCases {
		t.Run(test.in, func(t *testing.T) {
			got, ok := ParseReleaseDate(test.in)
			require.Equal(t, test.valid, ok)
			if test.valid {
				require.True(t, test.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	records := []provider.EnrichedRecord{
		{Name: "Foo", ItemID: 10, PlaytimeHours: 2, Price: "$9.99", ReleaseDate: "Unknown", AchievementsGained: 3, AchievementsTotal: 10},
		{Name: "Half-Life", ItemID: 70, PlaytimeHours: 40.5, Price: "$9.99", ReleaseDate: "8 Nov, 1998", AchievementsGained: 0, AchievementsTotal: 0},
		{Name: "Portal", ItemID: 400, PlaytimeHours: 6.25, Price: "Free", ReleaseDate: "10 Oct, 2007", AchievementsGained: 15, AchievementsTotal: 15},
		{Name: "Dota 2", ItemID: 570, PlaytimeHours: 40.5, Price: "Free To Play", ReleaseDate: "Jul 9, 2013", AchievementsGained: 0, AchievementsTotal: 0},
		{Name: "Mystery", ItemID: 1, PlaytimeHours: 0, Price: "Unknown", ReleaseDate: "Coming soon", AchievementsGained: 5, AchievementsTotal: 5},
	}

	s, err := Compute(records)
	require.NoError(t, err)

	require.Equal(t, 5, s.Items)
	require.Equal(t, "Half-Life", s.MostPlayed.Name, "ties resolve to the earliest record")
	require.InDelta(t, 40.5, s.MostPlayed.Hours, 1e-9)
	require.InDelta(t, 19.98, s.TotalSpent, 1e-9)
	require.InDelta(t, 89.25, s.TotalPlaytime, 1e-9)

	require.NotNil(t, s.BestCompletion)
	require.Equal(t, "Portal", s.BestCompletion.Name)
	require.InDelta(t, 100.0, s.BestCompletion.Percent, 1e-9)

	require.NotNil(t, s.Oldest)
	require.Equal(t, "Half-Life", s.Oldest.Name)

	require.Equal(t, []string{
		"Game with the most playtime: Half-Life (40.50 hours)",
		"Total amount of money spent on library: $19.98",
		"Game with the highest achievement percentage: Portal (15/15 achievements, 100.00%)",
		"Oldest published game: Half-Life (Published on 1998-11-08)",
		"Total playtime across all games: 89.25 hours",
	}, s.Lines())
}

func TestComputeWithoutAchievementsOrDates(t *testing.T) {
	s, err := Compute([]provider.EnrichedRecord{
		{Name: "A", PlaytimeHours: 1, Price: "Unknown", ReleaseDate: "Unknown"},
		{Name: "B", PlaytimeHours: 3, Price: "Free", ReleaseDate: "To be announced"},
	})
	require.NoError(t, err)

	require.Nil(t, s.BestCompletion)
	require.Nil(t, s.Oldest)
	require.Zero(t, s.TotalSpent)
	require.Equal(t, "B", s.MostPlayed.Name)

	lines := s.Lines()
	require.Len(t, lines, 5)
	require.Contains(t, lines[2], "none")
	require.Contains(t, lines[3], "none")
}

func TestComputeEmpty(t *testing.T) {
	_, err := Compute(nil)
	require.ErrorIs(t, err, ErrNoRecords)
}
