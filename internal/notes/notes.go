package notes

import (
	"fmt"
	"strconv"
	"strings"
)

// PitchClass is a semitone within the octave, C=0 .. B=11.
type PitchClass int

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// enharmonicNames maps flat and edge-case spellings onto the sharp-based
// names used by the frequency table and the chord catalog.
var enharmonicNames = map[string]string{
	"Db": "C#", "Eb": "D#", "Gb": "F#", "Ab": "G#", "Bb": "A#",
	"E#": "F", "B#": "C", "Cb": "B", "Fb": "E",
}

const defaultOctave = 4

func (p PitchClass) String() string {
	if p < 0 || p > 11 {
		return "?"
	}
	return sharpNames[p]
}

// Note is a pitch class plus octave, e.g. F#3.
type Note struct {
	Class  PitchClass
	Octave int
}

// NormalizeName returns the sharp-based spelling of a pitch name. Names that
// are already canonical, or unknown, are returned unchanged.
func NormalizeName(name string) string {
	if n, ok := enharmonicNames[name]; ok {
		return n
	}
	return name
}

// SplitRoot splits a symbol such as "Dbm7" into its root spelling ("Db") and
// the remaining suffix ("m7"). ok is false when the symbol does not start with
// a note letter.
func SplitRoot(symbol string) (root, suffix string, ok bool) {
	if symbol == "" {
		return "", "", false
	}
	c := symbol[0]
	if c < 'A' || c > 'G' {
		return "", "", false
	}
	n := 1
	if len(symbol) > 1 && (symbol[1] == '#' || symbol[1] == 'b') {
		n = 2
	}
	return symbol[:n], symbol[n:], true
}

// Parse reads a note name like "C4", "F#3" or "Db4". The octave defaults to 4
// when omitted. Enharmonic spellings are normalized by name only; the written
// octave is kept, so "B#3" parses as C3.
func Parse(s string) (Note, error) {
	s = strings.TrimSpace(s)
	root, rest, ok := SplitRoot(s)
	if !ok {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}
	class, ok := classOf(NormalizeName(root))
	if !ok {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}
	octave := defaultOctave
	if rest != "" {
		o, err := strconv.Atoi(rest)
		if err != nil || o < 0 || o > 9 {
			return Note{}, fmt.Errorf("invalid octave in note %q", s)
		}
		octave = o
	}
	return Note{Class: class, Octave: octave}, nil
}

// MustParse is like Parse but panics on error. Intended for static tables.
func MustParse(s string) Note {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func classOf(name string) (PitchClass, bool) {
	for i, n := range sharpNames {
		if n == name {
			return PitchClass(i), true
		}
	}
	return 0, false
}

// Number is the semitone index octave*12+class used by distance calculations.
func (n Note) Number() int {
	return n.Octave*12 + int(n.Class)
}

// MIDI returns the MIDI key number (C4 = 60).
func (n Note) MIDI() int {
	return n.Number() + 12
}

func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

// Semitones returns the absolute semitone distance between two notes.
func Semitones(a, b Note) int {
	d := a.Number() - b.Number()
	if d < 0 {
		return -d
	}
	return d
}
