package models

import (
	"fmt"
	"strings"
)

// Mood is one of a closed set of tags attached to an entry.
type Mood string

const (
	MoodRainbow  Mood = "rainbow"
	MoodStarry   Mood = "starry"
	MoodSunny    Mood = "sunny"
	MoodFlower   Mood = "flower"
	MoodCloudy   Mood = "cloudy"
	MoodLeaf     Mood = "leaf"
	MoodRainy    Mood = "rainy"
	MoodStormy   Mood = "stormy"
	MoodThinking Mood = "thinking"
)

// DefaultMood is preselected for new entries.
const DefaultMood = MoodCloudy

var moodOrder = []Mood{
	MoodRainbow,
	MoodStarry,
	MoodSunny,
	MoodFlower,
	MoodCloudy,
	MoodLeaf,
	MoodRainy,
	MoodStormy,
	MoodThinking,
}

var moodEmoji = map[Mood]string{
	MoodRainbow:  "🌈",
	MoodStarry:   "✨",
	MoodSunny:    "☀️",
	MoodFlower:   "🌻",
	MoodCloudy:   "☁️",
	MoodLeaf:     "🍂",
	MoodRainy:    "🌧️",
	MoodStormy:   "⛈️",
	MoodThinking: "🤔",
}

// AllMoods returns the moods in display order.
func AllMoods() []Mood {
	out := make([]Mood, len(moodOrder))
	copy(out, moodOrder)
	return out
}

// Valid reports whether m is part of the closed mood set.
func (m Mood) Valid() bool {
	_, ok := moodEmoji[m]
	return ok
}

// Emoji returns the glyph of the mood, or an empty string for unknown moods.
func (m Mood) Emoji() string {
	return moodEmoji[m]
}

func (m Mood) String() string { return string(m) }

// ParseMood parses a mood name case-insensitively.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mood %q", s)
	}
	return m, nil
}
