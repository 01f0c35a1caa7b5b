package synth

// Envelope holds ADSR settings in seconds; Sustain is a level in 0..1.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

var (
	// BassEnvelope is used below Params.BassThreshold: slower attack, longer
	// ring, higher sustain.
	BassEnvelope   = Envelope{Attack: 0.02, Decay: 0.4, Sustain: 0.8, Release: 1.2}
	TrebleEnvelope = Envelope{Attack: 0.005, Decay: 0.15, Sustain: 0.6, Release: 0.4}
)

// Stage is the envelope phase a note is in at a given time.
type Stage int

const (
	StageAttack Stage = iota
	StageDecay
	StageSustain
	StageRelease
	StageOff
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "off"
}

// releaseFor caps the release so it never takes more than the given fraction
// of the note.
func (e Envelope) releaseFor(duration, fraction float64) float64 {
	r := e.Release
	if c := duration * fraction; c < r {
		r = c
	}
	return r
}

// schedule writes the attack/decay/hold/release curve of one gain stage onto
// p. peak is the level reached after the attack, decayScale stretches the
// decay and divides the sustain level.
func (e Envelope) schedule(p *Param, peak, decayScale, duration, release, floor float64) {
	if decayScale <= 0 {
		decayScale = 1
	}
	sustain := peak * e.Sustain / decayScale
	p.SetValueAtTime(0, 0)
	p.ExponentialRampToValueAtTime(peak, e.Attack)
	p.ExponentialRampToValueAtTime(sustain, e.Attack+e.Decay*decayScale)
	p.SetValueAtTime(sustain, duration-release)
	p.ExponentialRampToValueAtTime(floor, duration)
}

// stageAt reports the stage of a note shaped by e at time t.
func (e Envelope) stageAt(t, duration, release float64) Stage {
	switch {
	case t < 0 || t >= duration:
		return StageOff
	case t >= duration-release:
		return StageRelease
	case t < e.Attack:
		return StageAttack
	case t < e.Attack+e.Decay:
		return StageDecay
	}
	return StageSustain
}
