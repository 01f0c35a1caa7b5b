package effects

import "math"

// Compressor is a stereo-linked feed-forward compressor. With a high ratio
// and fast attack it serves as the master limiter that keeps dense chords
// out of the hard clip.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // one-pole coefficients
	release   float32
	makeup    float32
	env       float32
}

// NewCompressor takes the threshold and makeup gain in dB and the attack and
// release times in milliseconds.
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

// NewLimiter is the master bus limiter: -3 dB, 20:1, 1 ms attack, 120 ms
// release.
func NewLimiter(sampleRate int) *Compressor {
	return NewCompressor(sampleRate, -3, 20, 1, 120, 0)
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	level := float32(math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	if level > c.env {
		c.env += c.attack * (level - c.env)
	} else {
		c.env += c.release * (level - c.env)
	}
	g := c.gain(c.env) * c.makeup
	return l * g, r * g
}

func (c *Compressor) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

// GainReduction is the current reduction in dB (0 or negative).
func (c *Compressor) GainReduction() float64 {
	return 20 * math.Log10(float64(c.gain(c.env)))
}

func (c *Compressor) Reset() {
	c.env = 0
}
