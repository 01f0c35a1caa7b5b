package optimizer

import (
	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/notes"
)

// Movement is a finger that has to move between two voicings.
type Movement struct {
	Finger   int
	From     notes.Note
	To       notes.Note
	Distance int
}

// Movements compares prev and curr position by position and reports every
// finger of curr whose note changes.
func Movements(prev, curr catalog.Voicing) []Movement {
	n := len(prev.Notes)
	if len(curr.Notes) < n {
		n = len(curr.Notes)
	}
	var out []Movement
	for i := 0; i < n; i++ {
		from, to := prev.Notes[i], curr.Notes[i]
		if from == to {
			continue
		}
		out = append(out, Movement{
			Finger:   curr.Fingering[i],
			From:     from,
			To:       to,
			Distance: notes.Semitones(from, to),
		})
	}
	return out
}

// StillFingers returns the fingers of curr that stay on the same key.
func StillFingers(prev, curr catalog.Voicing) []int {
	n := len(prev.Notes)
	if len(curr.Notes) < n {
		n = len(curr.Notes)
	}
	var out []int
	for i := 0; i < n; i++ {
		if prev.Notes[i] == curr.Notes[i] {
			out = append(out, curr.Fingering[i])
		}
	}
	return out
}
