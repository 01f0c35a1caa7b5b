package pianochords

import "math"

const (
	MinTempo     = 40
	MaxTempo     = 120
	DefaultTempo = 110

	// BeatsPerChord: one chord per 4/4 bar.
	BeatsPerChord = 4

	DefaultMasterVolume  = 0.6
	DefaultNoteDuration  = 1.5
	DefaultChordDuration = 1.8
	DefaultPause         = 0.2

	minChordSeconds = 1.0
	minPauseSeconds = 0.05
	pauseBeatShare  = 0.1
)

// Timing is the per-chord schedule of a progression, in seconds.
type Timing struct {
	Chord float64
	Pause float64
}

// DefaultTiming is used when no tempo is given.
var DefaultTiming = Timing{Chord: DefaultChordDuration, Pause: DefaultPause}

// TimingForTempo converts beats per minute into chord and pause lengths: one
// bar per chord (at least 1 s) and a tenth of a beat between chords (at least
// 50 ms).
func TimingForTempo(bpm float64) Timing {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	beat := 60 / bpm
	return Timing{
		Chord: math.Max(minChordSeconds, beat*BeatsPerChord),
		Pause: math.Max(minPauseSeconds, beat*pauseBeatShare),
	}
}

// ClampTempo limits bpm to MinTempo..MaxTempo.
func ClampTempo(bpm float64) float64 {
	return math.Max(MinTempo, math.Min(MaxTempo, bpm))
}

var tempoBands = []struct {
	below float64
	name  string
}{
	{60, "Very slow (Largo)"},
	{72, "Slow (Adagio)"},
	{84, "Moderately slow"},
	{108, "Moderate"},
	{math.Inf(1), "Fast (Allegro)"},
}

// TempoDescription names the tempo band bpm falls in.
func TempoDescription(bpm float64) string {
	for _, b := range tempoBands {
		if bpm < b.below {
			return b.name
		}
	}
	return tempoBands[len(tempoBands)-1].name
}

// PercentToVolume maps a 0-100 slider value to a 0-1 volume.
func PercentToVolume(percent float64) float64 {
	return clamp01(percent / 100)
}

// VolumeToPercent maps a 0-1 volume to a rounded 0-100 slider value.
func VolumeToPercent(volume float64) int {
	return int(math.Round(math.Max(0, math.Min(100, volume*100))))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
