package effects

import (
	"math"
	"math/rand"
)

const (
	// ConvolutionBlock is the partition size of the convolution reverb and
	// therefore the latency of its wet path, in frames.
	ConvolutionBlock = 512

	impulseSeconds = 2.0
	impulseLevel   = 0.3

	gainCalibration           = 0.00125
	gainCalibrationSampleRate = 44100.0
	minPower                  = 0.000125
)

// SyntheticImpulse builds a stereo room response of the given length: white
// noise under a (1 - i/len)^2 decay, scaled by 0.3.
func SyntheticImpulse(sampleRate int, seconds float64, rng *rand.Rand) [2][]float32 {
	random := rand.Float64
	if rng != nil {
		random = rng.Float64
	}
	n := int(float64(sampleRate) * seconds)
	var ir [2][]float32
	for ch := range ir {
		ir[ch] = make([]float32, n)
		for i := range ir[ch] {
			decay := math.Pow(1-float64(i)/float64(n), 2)
			ir[ch][i] = float32((random()*2 - 1) * decay * impulseLevel)
		}
	}
	return ir
}

// normalizationScale equalizes the loudness of arbitrary impulse responses
// the same way a Web Audio ConvolverNode does with normalize enabled.
func normalizationScale(ir [2][]float32, sampleRate int) float64 {
	var power float64
	length := 0
	for _, ch := range ir {
		for _, s := range ch {
			power += float64(s) * float64(s)
		}
		length = len(ch)
	}
	if length == 0 {
		return 1
	}
	power = math.Sqrt(power / float64(len(ir)*length))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}
	scale := 1 / power * gainCalibration
	if sampleRate > 0 {
		scale *= gainCalibrationSampleRate / float64(sampleRate)
	}
	return scale
}

// ConvolutionReverb convolves the mono sum of its input with a stereo impulse
// response using uniformly partitioned FFT convolution, then mixes the wet
// signal with the dry input.
type ConvolutionReverb struct {
	plan  *fftPlan
	block int
	dry   float32
	wet   float32

	// filters[ch][p] is the spectrum of partition p of channel ch.
	filters [2][][]complex128
	// history is a ring of input block spectra, newest at head.
	history [][]complex128
	head    int

	in      []float32
	out     [2][]float32
	overlap [2][]float64
	pos     int
	scratch []complex128
	acc     []complex128
}

// NewConvolutionReverb prepares ir for block convolution. dry and wet are the
// mix gains applied to the input and the convolved signal.
func NewConvolutionReverb(sampleRate int, ir [2][]float32, dry, wet float32) *ConvolutionReverb {
	block := ConvolutionBlock
	n := block * 2
	r := &ConvolutionReverb{
		plan:    newFFTPlan(n),
		block:   block,
		dry:     clamp(dry, 0, 1),
		wet:     clamp(wet, 0, 1),
		in:      make([]float32, block),
		scratch: make([]complex128, n),
		acc:     make([]complex128, n),
	}
	scale := normalizationScale(ir, sampleRate)
	length := len(ir[0])
	if len(ir[1]) > length {
		length = len(ir[1])
	}
	parts := (length + block - 1) / block
	if parts == 0 {
		parts = 1
	}
	for ch := range ir {
		r.filters[ch] = make([][]complex128, parts)
		for p := 0; p < parts; p++ {
			spec := make([]complex128, n)
			for i := 0; i < block; i++ {
				idx := p*block + i
				if idx < len(ir[ch]) {
					spec[i] = complex(float64(ir[ch][idx])*scale, 0)
				}
			}
			r.plan.forward(spec)
			r.filters[ch][p] = spec
		}
		r.out[ch] = make([]float32, block)
		r.overlap[ch] = make([]float64, block)
	}
	r.history = make([][]complex128, parts)
	for i := range r.history {
		r.history[i] = make([]complex128, n)
	}
	return r
}

// NewRoomConvolution is the default piano room: a 2 s synthetic impulse with
// an 80/20 dry/wet mix.
func NewRoomConvolution(sampleRate int, rng *rand.Rand) *ConvolutionReverb {
	return NewConvolutionReverb(sampleRate, SyntheticImpulse(sampleRate, impulseSeconds, rng), 0.8, 0.2)
}

func (r *ConvolutionReverb) Process(l, rr float32) (float32, float32) {
	r.in[r.pos] = (l + rr) * 0.5
	wl, wr := r.out[0][r.pos], r.out[1][r.pos]
	r.pos++
	if r.pos == r.block {
		r.runBlock()
		r.pos = 0
	}
	return l*r.dry + wl*r.wet, rr*r.dry + wr*r.wet
}

func (r *ConvolutionReverb) runBlock() {
	n := r.plan.n
	r.head = (r.head + 1) % len(r.history)
	spec := r.history[r.head]
	for i := 0; i < r.block; i++ {
		spec[i] = complex(float64(r.in[i]), 0)
	}
	for i := r.block; i < n; i++ {
		spec[i] = 0
	}
	r.plan.forward(spec)

	parts := len(r.history)
	for ch := range r.filters {
		for i := range r.acc {
			r.acc[i] = 0
		}
		for p := 0; p < parts; p++ {
			x := r.history[(r.head-p+parts)%parts]
			h := r.filters[ch][p]
			for i := range r.acc {
				r.acc[i] += x[i] * h[i]
			}
		}
		r.plan.inverse(r.acc)
		out, ov := r.out[ch], r.overlap[ch]
		for i := 0; i < r.block; i++ {
			out[i] = float32(real(r.acc[i]) + ov[i])
			ov[i] = real(r.acc[i+r.block])
		}
	}
}

// Latency is the delay of the wet path in frames.
func (r *ConvolutionReverb) Latency() int { return r.block }

func (r *ConvolutionReverb) Reset() {
	for _, h := range r.history {
		for i := range h {
			h[i] = 0
		}
	}
	for ch := range r.out {
		for i := range r.out[ch] {
			r.out[ch][i] = 0
			r.overlap[ch][i] = 0
		}
	}
	for i := range r.in {
		r.in[i] = 0
	}
	r.pos = 0
	r.head = 0
}
