// Package export renders mood history as a shareable emoji grid: one glyph
// per entry, eight per line, chronological within a selected time window.
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"huebook/api/internal/catalog"
)

// Window selects the slice of history to export.
type Window string

const (
	Past7Days  Window = "past7days"
	Past30Days Window = "past30days"
	ThisYear   Window = "thisyear"
	AllTime    Window = "alltime"
)

const glyphsPerLine = 8

// ErrNoData is returned when no entries fall inside the window; the share
// target must not be invoked in that case.
var ErrNoData = errors.New("no entries in the selected window")

// Entry is the minimal shape the exporter needs.
type Entry struct {
	Color string
	Date  time.Time
}

// ShareTarget receives a rendered export and returns a shareable link.
type ShareTarget interface {
	Share(ctx context.Context, name, text string) (string, error)
}

// ParseWindow maps a wire token to a Window.
func ParseWindow(raw string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(raw))) {
	case Past7Days:
		return Past7Days, nil
	case Past30Days:
		return Past30Days, nil
	case ThisYear:
		return ThisYear, nil
	case AllTime, Window(""):
		return AllTime, nil
	}
	return "", fmt.Errorf("unknown export window: %q", raw)
}

// Label returns the window's display name.
func (w Window) Label() string {
	switch w {
	case Past7Days:
		return "Past 7 Days"
	case Past30Days:
		return "Past 30 Days"
	case ThisYear:
		return "This Year"
	default:
		return "All Time"
	}
}

// cutoff returns the inclusive lower bound for the window; zero for AllTime.
func (w Window) cutoff(now time.Time) time.Time {
	switch w {
	case Past7Days:
		return now.AddDate(0, 0, -7)
	case Past30Days:
		return now.AddDate(0, 0, -30)
	case ThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// Build renders the glyph grid for entries inside the window, oldest first.
// Returns ErrNoData when the window is empty.
func Build(entries []Entry, window Window, now time.Time) (string, error) {
	cutoff := window.cutoff(now)

	selected := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date.IsZero() {
			continue
		}
		if !cutoff.IsZero() && entry.Date.Before(cutoff) {
			continue
		}
		selected = append(selected, entry)
	}
	if len(selected) == 0 {
		return "", ErrNoData
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "My Mood Journey (%s)\n\n", window.Label())
	for i, entry := range selected {
		b.WriteString(catalog.Glyph(entry.Color))
		if (i+1)%glyphsPerLine == 0 && i != len(selected)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String(), nil
}
