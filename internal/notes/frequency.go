package notes

// frequencyTable holds the tuned frequency in Hz for every note from C2 to E5,
// indexed by Number()-lowestNumber.
var frequencyTable = [...]float64{
	65.41, 69.30, 73.42, 77.78, 82.41, 87.31, 92.50, 98.00, 103.83, 110.00, 116.54, 123.47, // C2..B2
	130.81, 138.59, 146.83, 155.56, 164.81, 174.61, 185.00, 196.00, 207.65, 220.00, 233.08, 246.94, // C3..B3
	261.63, 277.18, 293.66, 311.13, 329.63, 349.23, 369.99, 392.00, 415.30, 440.00, 466.16, 493.88, // C4..B4
	523.25, 554.37, 587.33, 622.25, 659.25, // C5..E5
}

var (
	lowest  = Note{Class: 0, Octave: 2}
	highest = Note{Class: 4, Octave: 5}
)

// Frequency returns the table frequency for n. ok is false outside C2..E5.
func Frequency(n Note) (hz float64, ok bool) {
	idx := n.Number() - lowest.Number()
	if idx < 0 || idx >= len(frequencyTable) {
		return 0, false
	}
	return frequencyTable[idx], true
}

// Range returns the lowest and highest notes with a table frequency.
func Range() (Note, Note) {
	return lowest, highest
}

// FrequencyOf parses name and looks up its frequency.
func FrequencyOf(name string) (float64, bool) {
	n, err := Parse(name)
	if err != nil {
		return 0, false
	}
	return Frequency(n)
}
