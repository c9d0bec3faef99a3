package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	cases := map[string]Window{
		"past7days":  Past7Days,
		"Past30Days": Past30Days,
		" thisyear ": ThisYear,
		"alltime":    AllTime,
		"":           AllTime,
	}
	for raw, want := range cases {
		got, err := ParseWindow(raw)
		require.NoError(t, err, "ParseWindow(%q)", raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseWindow("fortnight")
	assert.Error(t, err)
}

func TestBuildChronologicalGrid(t *testing.T) {
	now := day(2024, time.June, 15)
	entries := []Entry{
		{Color: "#32CD32", Date: day(2024, time.June, 3)},
		{Color: "#FFD700", Date: day(2024, time.June, 1)},
		{Color: "#708090", Date: day(2024, time.June, 2)},
	}

	text, err := Build(entries, AllTime, now)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	// Header, blank line, then the grid oldest-first
	assert.Equal(t, "My Mood Journey (All Time)", lines[0])
	assert.Equal(t, "💛🩶💚", lines[2])
}

func TestBuildWrapsAtEightGlyphs(t *testing.T) {
	now := day(2024, time.June, 30)
	var entries []Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, Entry{Color: "#FFD700", Date: day(2024, time.June, 1+i)})
	}

	text, err := Build(entries, AllTime, now)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Repeat("💛", 8), lines[2])
	assert.Equal(t, strings.Repeat("💛", 2), lines[3])
}

func TestBuildWindowFiltering(t *testing.T) {
	now := day(2024, time.June, 15)
	entries := []Entry{
		{Color: "#FFD700", Date: day(2024, time.June, 14)},  // inside 7 days
		{Color: "#708090", Date: day(2024, time.May, 25)},   // inside 30 days
		{Color: "#32CD32", Date: day(2024, time.January, 5)}, // this year
		{Color: "#FF69B4", Date: day(2023, time.March, 1)},  // all time only
	}

	for _, tc := range []struct {
		window Window
		count  int
	}{
		{Past7Days, 1},
		{Past30Days, 2},
		{ThisYear, 3},
		{AllTime, 4},
	} {
		text, err := Build(entries, tc.window, now)
		require.NoError(t, err, "window %s", tc.window)
		grid := strings.Join(strings.Split(text, "\n")[2:], "")
		assert.Equal(t, tc.count, len([]rune(strings.TrimSpace(grid))), "window %s", tc.window)
	}
}

func TestBuildUnknownColorUsesFallbackGlyph(t *testing.T) {
	now := day(2024, time.June, 15)
	text, err := Build([]Entry{{Color: "#BADA55", Date: day(2024, time.June, 1)}}, AllTime, now)
	require.NoError(t, err)
	assert.Contains(t, text, "⬜")
}

func TestBuildEmptyWindowReportsNoData(t *testing.T) {
	now := day(2024, time.June, 15)

	_, err := Build(nil, AllTime, now)
	assert.ErrorIs(t, err, ErrNoData)

	// Entries exist but all fall outside the window
	entries := []Entry{{Color: "#FFD700", Date: day(2020, time.June, 1)}}
	_, err = Build(entries, Past7Days, now)
	assert.ErrorIs(t, err, ErrNoData)
}
