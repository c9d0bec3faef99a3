package app

import (
	"time"

	"huebook/api/internal/identity"
)

// MoodEntry is one journal record: one user, one calendar day. Identity
// fields and Date are fixed at creation; Color and Notes may change through
// an edit session.
type MoodEntry struct {
	ID        string `json:"id"`
	Color     string `json:"color"`
	ColorName string `json:"colorName"`
	Notes     string `json:"notes"`
	Date      string `json:"date"`    // ISO timestamp of the represented day
	DateKey   string `json:"dateKey"` // YYYY-MM-DD in local time
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	Timestamp string `json:"timestamp"` // server write time, display only
}

// EditState is the transient edit session: at most one open at a time,
// holding a working copy of color/notes for its target entry.
type EditState struct {
	Open   bool   `json:"open"`
	Target string `json:"target"`
	Color  string `json:"color"`
	Notes  string `json:"notes"`
}

// State is everything the screens render from. Snapshot returns copies;
// only the service mutates it.
type State struct {
	SelectedColor string    `json:"selectedColor"`
	Notes         string    `json:"notes"`
	ShowNotes     bool      `json:"showNotes"`
	SelectedDate  time.Time `json:"selectedDate"`

	IsLoading        bool        `json:"isLoading"`
	Err              string      `json:"error,omitempty"`
	History          []MoodEntry `json:"history"`
	IsLoadingHistory bool        `json:"isLoadingHistory"`

	User            *identity.User `json:"user,omitempty"`
	Authenticated   bool           `json:"authenticated"`
	AuthLoading     bool           `json:"authLoading"`
	AuthErr         string         `json:"authError,omitempty"`
	AuthInitialized bool           `json:"authInitialized"`

	Edit      EditState `json:"edit"`
	IsEditing bool      `json:"isEditing"`
	EditErr   string    `json:"editError,omitempty"`
}

func (s State) clone() State {
	out := s
	out.History = make([]MoodEntry, len(s.History))
	copy(out.History, s.History)
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
