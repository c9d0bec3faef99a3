// Package catalog holds the fixed mood color palette: the bidirectional
// mapping between palette colors, their human-readable mood labels, and the
// glyphs used by the export grid. Pure lookups, no state.
package catalog

// UnknownColorName is returned for any color outside the palette.
const UnknownColorName = "Unknown Color"

// UnknownGlyph stands in for colors outside the palette in exports.
const UnknownGlyph = "⬜"

type entry struct {
	name  string
	glyph string
}

var colors = map[string]entry{
	// Positive moods
	"#FFD700": {"Gold - Joyful & Radiant", "💛"},
	"#FF69B4": {"Pink - Excited & Playful", "💗"},
	"#32CD32": {"Lime Green - Curious & Alive", "💚"},
	"#FF6347": {"Tomato - Energetic & Bold", "❤️"},
	"#FFA500": {"Orange - Optimistic & Warm", "🧡"},

	// Negative moods
	"#708090": {"Slate Gray - Sad & Heavy", "🩶"},
	"#4682B4": {"Steel Blue - Anxious & Restless", "💙"},
	"#8B4513": {"Saddle Brown - Frustrated & Stuck", "🤎"},
	"#483D8B": {"Dark Slate Blue - Lonely & Distant", "💜"},
	"#2F4F4F": {"Dark Slate Gray - Depressed & Drained", "🖤"},
}

// ordered keeps palette iteration stable for pickers and tests.
var ordered = []string{
	"#FFD700", "#FF69B4", "#32CD32", "#FF6347", "#FFA500",
	"#708090", "#4682B4", "#8B4513", "#483D8B", "#2F4F4F",
}

// Name returns the mood label for a palette color, or UnknownColorName for
// anything else. Total over any input.
func Name(color string) string {
	if e, ok := colors[color]; ok {
		return e.name
	}
	return UnknownColorName
}

// Glyph returns the export glyph for a palette color, or UnknownGlyph.
func Glyph(color string) string {
	if e, ok := colors[color]; ok {
		return e.glyph
	}
	return UnknownGlyph
}

// Contains reports whether color is part of the fixed palette.
func Contains(color string) bool {
	_, ok := colors[color]
	return ok
}

// Palette returns the palette colors in display order.
func Palette() []string {
	out := make([]string, len(ordered))
	copy(out, ordered)
	return out
}
