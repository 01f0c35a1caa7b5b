package effects

// Reverb is a Schroeder reverb: four parallel combs into two allpasses. It
// is the cheap alternative to ConvolutionReverb.
type Reverb struct {
	combs   [4]delayLine
	allpass [2]delayLine
	dry     float32
	wet     float32
}

// delayLine is a circular buffer with a feedback gain.
type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

func newDelayLine(n int, fb float32) delayLine {
	if n < 1 {
		n = 1
	}
	return delayLine{buf: make([]float32, n), fb: fb}
}

func (d *delayLine) comb(in float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.fb
	d.advance()
	return out
}

func (d *delayLine) allpass(in float32) float32 {
	held := d.buf[d.pos]
	d.buf[d.pos] = in + held*d.fb
	d.advance()
	return held - in
}

func (d *delayLine) advance() {
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) clear() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

// NewReverb creates a Schroeder reverb. roomSize (0..1) scales the delay
// lengths, feedback (0..0.95) sets the decay and dry/wet are the mix gains.
func NewReverb(sampleRate int, roomSize, feedback, dry, wet float32) *Reverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clamp(feedback, 0, 0.95)
	r := &Reverb{dry: clamp(dry, 0, 1), wet: clamp(wet, 0, 1)}
	// mutually prime-ish ratios keep the comb resonances apart
	for i, ratio := range [4]int{1000, 1117, 1271, 1437} {
		r.combs[i] = newDelayLine(base*ratio/1000, fb)
	}
	for i, ratio := range [2]int{347, 213} {
		r.allpass[i] = newDelayLine(base*ratio/1000, 0.5)
	}
	return r
}

// NewRoomReverb matches the convolution room's 80/20 mix with a decay of
// roughly two seconds.
func NewRoomReverb(sampleRate int) *Reverb {
	return NewReverb(sampleRate, 0.6, 0.82, 0.8, 0.2)
}

func (r *Reverb) Process(l, rr float32) (float32, float32) {
	mono := (l + rr) * 0.5
	var out float32
	for i := range r.combs {
		out += r.combs[i].comb(mono)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].allpass(out)
	}
	return l*r.dry + out*r.wet, rr*r.dry + out*r.wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].clear()
	}
	for i := range r.allpass {
		r.allpass[i].clear()
	}
}
