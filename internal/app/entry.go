package app

import (
	"fmt"
	"strings"
	"time"

	"huebook/api/internal/catalog"
	"huebook/api/internal/docstore"
	"huebook/api/internal/identity"
)

const moodsCollection = "moods"

// dayKey normalizes a date to its calendar day in local time, zero-padded.
// One mood entry exists per user per day key.
func dayKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// moodDocID derives the deterministic document id for (user, day): the
// email local-part with dots replaced by underscores, the day key, and the
// trailing six characters of the uid. Anonymous users have no email and get
// the literal "anon" prefix.
func moodDocID(user identity.User, key string) string {
	local := "anon"
	if user.Email != "" {
		local = strings.SplitN(user.Email, "@", 2)[0]
		local = strings.ReplaceAll(local, ".", "_")
	}
	suffix := user.UID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return local + "_" + key + "_" + suffix
}

// entryFromDocument maps a stored document back to view state, normalizing
// every field to a plain string and backfilling ColorName for records
// written before the catalog existed.
func entryFromDocument(doc docstore.Document) MoodEntry {
	entry := MoodEntry{
		ID:        doc.ID,
		Color:     stringField(doc.Fields, "color"),
		ColorName: stringField(doc.Fields, "colorName"),
		Notes:     stringField(doc.Fields, "notes"),
		Date:      stringField(doc.Fields, "date"),
		DateKey:   stringField(doc.Fields, "dateKey"),
		UserID:    stringField(doc.Fields, "userId"),
		UserEmail: stringField(doc.Fields, "userEmail"),
		Timestamp: stringField(doc.Fields, "timestamp"),
	}
	if entry.Color != "" && entry.ColorName == "" {
		entry.ColorName = catalog.Name(entry.Color)
	}
	return entry
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// effectiveDate is the ordering axis for history: the entry date, falling
// back to the server timestamp when the date is absent.
func effectiveDate(entry MoodEntry) time.Time {
	for _, raw := range []string{entry.Date, entry.Timestamp} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MonthGroup is one month's worth of history, newest month first when built
// from a sorted history.
type MonthGroup struct {
	Month   string      `json:"month"` // YYYY-MM
	Label   string      `json:"label"` // e.g. "June 2024"
	Entries []MoodEntry `json:"entries"`
}

// GroupByMonth buckets entries by calendar month, preserving their order
// and the order in which months first appear.
func GroupByMonth(entries []MoodEntry) []MonthGroup {
	var groups []MonthGroup
	index := map[string]int{}
	for _, entry := range entries {
		date := effectiveDate(entry)
		if date.IsZero() {
			continue
		}
		month := date.Format("2006-01")
		i, ok := index[month]
		if !ok {
			i = len(groups)
			index[month] = i
			groups = append(groups, MonthGroup{
				Month: month,
				Label: date.Format("January 2006"),
			})
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}
	return groups
}
