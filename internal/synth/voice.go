package synth

import (
	"math"
	"math/rand"
)

// controlBlock is how many frames the filter coefficients are held for.
const controlBlock = 128

// Harmonic is one partial of a note, a multiple of the fundamental.
type Harmonic struct {
	Multiplier float64
	Gain       float64
	Waveform   Waveform
}

type Params struct {
	Harmonics       []Harmonic
	Bass            Envelope
	Treble          Envelope
	BassThreshold   float64 // Hz; notes below use Bass
	ReleaseFraction float64 // release is capped at this share of the note
	HarmonicDecay   float64 // partial i decays with multiplier 1+HarmonicDecay*i
	DetuneCents     float64 // total random spread, centred on zero
	CutoffBase      float64
	CutoffPerHz     float64
	FilterQ         float64 // dB
	CutoffSweep     float64 // cutoff multiplier reached at SweepAt*duration
	SweepAt         float64
	SweepMin        float64 // notes must be longer than this to sweep
	Floor           float64 // gain every envelope ramps to at the stop time
}

func DefaultHarmonics() []Harmonic {
	return []Harmonic{
		{Multiplier: 1, Gain: 1.0, Waveform: Triangle},
		{Multiplier: 2, Gain: 0.4, Waveform: Sine},
		{Multiplier: 3, Gain: 0.25, Waveform: Triangle},
		{Multiplier: 4, Gain: 0.15, Waveform: Sine},
		{Multiplier: 5, Gain: 0.1, Waveform: Triangle},
		{Multiplier: 6, Gain: 0.08, Waveform: Sine},
		{Multiplier: 8, Gain: 0.05, Waveform: Triangle},
	}
}

func DefaultParams() Params {
	return Params{
		Harmonics:       DefaultHarmonics(),
		Bass:            BassEnvelope,
		Treble:          TrebleEnvelope,
		BassThreshold:   200,
		ReleaseFraction: 0.4,
		HarmonicDecay:   0.3,
		DetuneCents:     3,
		CutoffBase:      3000,
		CutoffPerHz:     2,
		FilterQ:         1,
		CutoffSweep:     0.7,
		SweepAt:         0.3,
		SweepMin:        1,
		Floor:           0.001,
	}
}

// EnvelopeFor picks the preset for a fundamental frequency.
func (p Params) EnvelopeFor(freq float64) Envelope {
	if freq < p.BassThreshold {
		return p.Bass
	}
	return p.Treble
}

// Cutoff is the initial lowpass cutoff for a fundamental frequency.
func (p Params) Cutoff(freq float64) float64 {
	return p.CutoffBase + p.CutoffPerHz*freq
}

// Strike describes one note to be sounded.
type Strike struct {
	Frequency float64
	Start     int64   // absolute frame on the mixer clock
	Duration  float64 // seconds
	Volume    float64
}

type partial struct {
	freq  float64
	phase float64
	wave  Waveform
	gain  *Param
}

// Voice renders one struck note: a bank of detuned partials with their own
// envelopes, a note envelope and a swept lowpass.
type Voice struct {
	sampleRate float64
	strike     Strike
	envelope   Envelope
	release    float64
	partials   []partial
	gain       *Param
	cutoff     *Param
	filter     biquad
	qDB        float64
	stop       int64
	next       int64 // next frame Render expects
}

// NewVoice builds a voice for s. rng supplies detune; nil uses the package
// source.
func NewVoice(sampleRate int, params Params, s Strike, rng *rand.Rand) *Voice {
	sr := float64(sampleRate)
	env := params.EnvelopeFor(s.Frequency)
	release := env.releaseFor(s.Duration, params.ReleaseFraction)
	v := &Voice{
		sampleRate: sr,
		strike:     s,
		envelope:   env,
		release:    release,
		gain:       NewParam(0),
		qDB:        params.FilterQ,
		stop:       s.Start + int64(math.Round(s.Duration*sr)),
		next:       s.Start,
	}
	env.schedule(v.gain, s.Volume, 1, s.Duration, release, params.Floor)

	random := rand.Float64
	if rng != nil {
		random = rng.Float64
	}
	nyquist := sr / 2
	for i, h := range params.Harmonics {
		cents := (random() - 0.5) * params.DetuneCents
		f := s.Frequency * h.Multiplier * math.Pow(2, cents/1200)
		if f >= nyquist {
			continue
		}
		g := NewParam(0)
		env.schedule(g, h.Gain, 1+params.HarmonicDecay*float64(i), s.Duration, release, params.Floor)
		v.partials = append(v.partials, partial{freq: f, wave: h.Waveform, gain: g})
	}

	base := params.Cutoff(s.Frequency)
	v.cutoff = NewParam(base).SetValueAtTime(base, 0)
	if s.Duration > params.SweepMin {
		v.cutoff.ExponentialRampToValueAtTime(base*params.CutoffSweep, s.Duration*params.SweepAt)
	}
	v.filter.setLowpass(sr, base, v.qDB)
	return v
}

// Render writes the voice's output for frames [frame, frame+len(dst)) into
// dst, overwriting it. Frames outside the voice's lifetime are zero.
func (v *Voice) Render(dst []float32, frame int64) {
	if frame != v.next {
		v.seek(frame)
	}
	for i := range dst {
		f := frame + int64(i)
		if f < v.strike.Start || f >= v.stop {
			dst[i] = 0
			continue
		}
		t := float64(f-v.strike.Start) / v.sampleRate
		if (f-v.strike.Start)%controlBlock == 0 {
			v.filter.setLowpass(v.sampleRate, v.cutoff.ValueAt(t), v.qDB)
		}
		var sum float64
		for j := range v.partials {
			p := &v.partials[j]
			sum += waveformSample(p.phase, p.wave) * p.gain.ValueAt(t)
			p.phase += twoPi * p.freq / v.sampleRate
			if p.phase >= twoPi {
				p.phase -= twoPi
			}
		}
		dst[i] = float32(v.filter.process(sum * v.gain.ValueAt(t)))
	}
	v.next = frame + int64(len(dst))
}

// seek moves the oscillators to frame without rendering. Only forward jumps
// keep the filter state.
func (v *Voice) seek(frame int64) {
	if frame < v.next {
		v.filter.reset()
		for j := range v.partials {
			v.partials[j].phase = 0
		}
		v.next = v.strike.Start
	}
	if frame <= v.strike.Start {
		v.next = frame
		return
	}
	from := v.next
	if from < v.strike.Start {
		from = v.strike.Start
	}
	elapsed := float64(frame - from)
	for j := range v.partials {
		p := &v.partials[j]
		p.phase = math.Mod(p.phase+twoPi*p.freq*elapsed/v.sampleRate, twoPi)
	}
	v.next = frame
}

// Stop cuts the voice off at frame if that is earlier than its scheduled end.
func (v *Voice) Stop(frame int64) {
	if frame < v.stop {
		if frame < v.strike.Start {
			frame = v.strike.Start
		}
		v.stop = frame
	}
}

// Done reports whether the voice is silent from frame on.
func (v *Voice) Done(frame int64) bool {
	return frame >= v.stop
}

func (v *Voice) StartFrame() int64 { return v.strike.Start }
func (v *Voice) StopFrame() int64  { return v.stop }

// Oscillators is the number of partials the voice runs.
func (v *Voice) Oscillators() int { return len(v.partials) }

func (v *Voice) Frequency() float64 { return v.strike.Frequency }
func (v *Voice) Envelope() Envelope { return v.envelope }

// Release is the effective release time after capping.
func (v *Voice) Release() float64 { return v.release }

// Stage reports the envelope stage at frame.
func (v *Voice) Stage(frame int64) Stage {
	if frame >= v.stop {
		return StageOff
	}
	t := float64(frame-v.strike.Start) / v.sampleRate
	return v.envelope.stageAt(t, v.strike.Duration, v.release)
}

// GainAt is the note envelope level at t seconds after the strike.
func (v *Voice) GainAt(t float64) float64 {
	return v.gain.ValueAt(t)
}

// CutoffAt is the lowpass cutoff at t seconds after the strike.
func (v *Voice) CutoffAt(t float64) float64 {
	return v.cutoff.ValueAt(t)
}
