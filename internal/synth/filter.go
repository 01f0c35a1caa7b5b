package synth

import "math"

// biquad is a lowpass filter with Web Audio BiquadFilterNode coefficients
// (Q in dB).
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) setLowpass(sampleRate, cutoff, qDB float64) {
	nyquist := sampleRate / 2
	cutoff = clamp(cutoff, 10, nyquist*0.999)
	w0 := twoPi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * math.Pow(10, qDB/20))
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	f.b0 = (1 - cosw) / 2 / a0
	f.b1 = (1 - cosw) / a0
	f.b2 = f.b0
	f.a1 = -2 * cosw / a0
	f.a2 = (1 - alpha) / a0
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}
