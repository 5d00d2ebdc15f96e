// package mood defines the fixed mood vocabulary and its mapping onto
// recommendation audio targets.
package mood

import (
	"fmt"
	"strings"

	"github.com/moodplaylist/moodlist/internal/shared"
)

// Mood is one of the fixed enumerated mood labels.
type Mood string

const (
	Excited Mood = "excited"
	Chill   Mood = "chill"
	Sad     Mood = "sad"
	Pumped  Mood = "pumped"
)

// AudioTargets biases a recommendation query toward a mood. A zero tempo
// bound means the bound is not applied.
type AudioTargets struct {
	Valence      float64
	Energy       float64
	Danceability float64
	MinTempo     float64
	MaxTempo     float64
}

// targets is the fixed mood → audio-target table, defined once for the
// process lifetime.
var targets = map[Mood]AudioTargets{
	Excited: {Valence: 0.8, Energy: 0.8, Danceability: 0.7, MinTempo: 120},
	Chill:   {Valence: 0.5, Energy: 0.3, Danceability: 0.5, MaxTempo: 110},
	Sad:     {Valence: 0.2, Energy: 0.3, Danceability: 0.4, MaxTempo: 100},
	Pumped:  {Valence: 0.7, Energy: 0.9, Danceability: 0.8, MinTempo: 130},
}

// All returns the supported moods in display order.
func All() []Mood {
	return []Mood{Excited, Chill, Sad, Pumped}
}

// Parse validates a mood label. Unknown values are rejected before any
// network call is made.
func Parse(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := targets[m]; !ok {
		return "", fmt.Errorf("%w: %q (expected one of %s)", shared.ErrInvalidMood, s, joinAll())
	}
	return m, nil
}

// Targets returns the audio-target vector for the mood.
func (m Mood) Targets() AudioTargets {
	return targets[m]
}

// Title returns the mood label with its first letter upper-cased, as used
// in generated playlist names.
func (m Mood) Title() string {
	s := string(m)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m Mood) String() string {
	return string(m)
}

func joinAll() string {
	names := make([]string, 0, len(targets))
	for _, m := range All() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
