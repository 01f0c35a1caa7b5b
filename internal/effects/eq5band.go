package effects

import (
	"math"
	"sync/atomic"
)

const EQBands = 5

// EQ5Band is the master tone control. Bands split at 200 Hz, 800 Hz,
// 2.5 kHz and 8 kHz. Gains are float32 bit patterns so the UI side can change
// them while the audio side reads without locking.
type EQ5Band struct {
	gains  [EQBands]atomic.Uint32
	alphas [EQBands - 1]float32
	lpL    [EQBands - 1]float32
	lpR    [EQBands - 1]float32
}

var crossovers = [EQBands - 1]float64{200, 800, 2500, 8000}

// BandLabel names band i for display.
func BandLabel(i int) string {
	switch i {
	case 0:
		return "low"
	case 1:
		return "low-mid"
	case 2:
		return "mid"
	case 3:
		return "high-mid"
	case 4:
		return "high"
	}
	return ""
}

func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range crossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets band (0-4) to a linear gain clamped to 0..4. It reports false
// for an unknown band.
func (eq *EQ5Band) SetGain(band int, gain float32) bool {
	if band < 0 || band >= EQBands {
		return false
	}
	eq.gains[band].Store(math.Float32bits(clamp(gain, 0, 4)))
	return true
}

// SetGainDB is SetGain with the gain in decibels.
func (eq *EQ5Band) SetGainDB(band int, db float64) bool {
	return eq.SetGain(band, float32(math.Pow(10, db/20)))
}

func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < EQBands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

// Flat reports whether every band is at unity.
func (eq *EQ5Band) Flat() bool {
	for i := range eq.gains {
		if eq.Gain(i) != 1 {
			return false
		}
	}
	return true
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	// Each crossover peels its lowpass band off the remainder.
	var bandL, bandR [EQBands]float32
	remL, remR := l, r
	for i := range eq.alphas {
		eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
		eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
		bandL[i] = eq.lpL[i]
		bandR[i] = eq.lpR[i]
		remL -= bandL[i]
		remR -= bandR[i]
	}
	bandL[EQBands-1] = remL
	bandR[EQBands-1] = remR

	var outL, outR float32
	for i := 0; i < EQBands; i++ {
		g := eq.Gain(i)
		outL += bandL[i] * g
		outR += bandR[i] * g
	}
	return outL, outR
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
