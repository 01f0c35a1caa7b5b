package synth

import (
	"math"
	"sort"
)

// expFloor replaces a zero or negative start value of an exponential ramp so
// that attacks from silence actually rise instead of holding at zero.
const expFloor = 1e-4

type eventKind int

const (
	setValue eventKind = iota
	linearRamp
	exponentialRamp
)

type event struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is an automation timeline in the style of a Web Audio AudioParam.
// Times are seconds relative to the owner's start. Events are kept sorted by
// time; events at the same time keep insertion order.
type Param struct {
	initial float64
	events  []event
	hint    int
}

func NewParam(initial float64) *Param {
	return &Param{initial: initial}
}

func (p *Param) insert(e event) *Param {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
	p.hint = 0
	return p
}

func (p *Param) SetValueAtTime(v, t float64) *Param {
	return p.insert(event{kind: setValue, time: t, value: v})
}

func (p *Param) LinearRampToValueAtTime(v, t float64) *Param {
	return p.insert(event{kind: linearRamp, time: t, value: v})
}

func (p *Param) ExponentialRampToValueAtTime(v, t float64) *Param {
	return p.insert(event{kind: exponentialRamp, time: t, value: v})
}

// CancelAfter drops every event scheduled strictly after t and pins the value
// at t.
func (p *Param) CancelAfter(t float64) {
	v := p.ValueAt(t)
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > t })
	p.events = p.events[:i]
	p.events = append(p.events, event{kind: setValue, time: t, value: v})
	p.hint = 0
}

// ValueAt returns the parameter value at time t. Successive calls with
// non-decreasing t are amortized O(1).
func (p *Param) ValueAt(t float64) float64 {
	n := len(p.events)
	if n == 0 {
		return p.initial
	}
	if p.hint >= n || (p.hint > 0 && p.events[p.hint-1].time > t) {
		p.hint = 0
	}
	// p.hint is the index of the first event after t.
	for p.hint < n && p.events[p.hint].time <= t {
		p.hint++
	}
	i := p.hint
	prevTime, prevValue := 0.0, p.initial
	if i > 0 {
		prevTime, prevValue = p.events[i-1].time, p.events[i-1].value
	}
	if i == n {
		return prevValue
	}
	next := p.events[i]
	switch next.kind {
	case linearRamp:
		span := next.time - prevTime
		if span <= 0 {
			return next.value
		}
		return prevValue + (next.value-prevValue)*(t-prevTime)/span
	case exponentialRamp:
		if next.value <= 0 {
			return prevValue
		}
		v0 := prevValue
		if v0 <= 0 {
			v0 = expFloor
		}
		span := next.time - prevTime
		if span <= 0 {
			return next.value
		}
		return v0 * math.Pow(next.value/v0, (t-prevTime)/span)
	}
	return prevValue
}

// End returns the time of the last scheduled event.
func (p *Param) End() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].time
}
