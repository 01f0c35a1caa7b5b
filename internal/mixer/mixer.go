package mixer

import (
	"container/heap"
	"math"
	"sync"

	"github.com/viterin/vek/vek32"

	"github.com/cbegin/pianochords-go/internal/effects"
	"github.com/cbegin/pianochords-go/internal/synth"
)

// Mixer sums scheduled voices into a stereo stream and owns the audio clock:
// the number of frames it has rendered. Everything that waits on "audio
// time" waits on this clock.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	clock      int64
	voices     []*entry
	waiters    waiterHeap
	bus        effects.Effector
	tap        func([]float32)
	gain       float32

	mono    []float32
	scratch []float32
	peak    float32
}

type entry struct {
	voice *synth.Voice
	group *Group
}

// Group tracks voices added together, e.g. the notes of one chord.
type Group struct {
	done      chan struct{}
	remaining int
	stopFrame int64
}

// Done is closed once every voice of the group has finished or been stopped.
func (g *Group) Done() <-chan struct{} { return g.done }

// StopFrame is the latest scheduled stop among the group's voices.
func (g *Group) StopFrame() int64 { return g.stopFrame }

type Option func(*Mixer)

// WithBus sets the master effect chain.
func WithBus(e effects.Effector) Option {
	return func(m *Mixer) { m.bus = e }
}

// WithTap receives a copy of every rendered buffer.
func WithTap(fn func([]float32)) Option {
	return func(m *Mixer) { m.tap = fn }
}

func New(sampleRate int, opts ...Option) *Mixer {
	m := &Mixer{sampleRate: sampleRate, gain: 1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Now is the current audio clock in frames.
func (m *Mixer) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// Seconds is the current audio clock in seconds.
func (m *Mixer) Seconds() float64 {
	return float64(m.Now()) / float64(m.sampleRate)
}

// Frames converts seconds to frames at the mixer's rate.
func (m *Mixer) Frames(seconds float64) int64 {
	return int64(math.Round(seconds * float64(m.sampleRate)))
}

// Add schedules voices as one group.
func (m *Mixer) Add(voices ...*synth.Voice) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(voices)
}

// Schedule calls build with the current clock and adds the voices it returns
// as one group, so they start on the very next rendered frame.
func (m *Mixer) Schedule(build func(now int64) []*synth.Voice) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(build(m.clock))
}

func (m *Mixer) add(voices []*synth.Voice) *Group {
	g := &Group{done: make(chan struct{})}
	for _, v := range voices {
		if v == nil || v.Done(m.clock) {
			continue
		}
		g.remaining++
		if v.StopFrame() > g.stopFrame {
			g.stopFrame = v.StopFrame()
		}
		m.voices = append(m.voices, &entry{voice: v, group: g})
	}
	if g.remaining == 0 {
		close(g.done)
	}
	return g
}

// StopAll cuts every voice at the current clock and empties the active set.
// It returns the number of voices removed.
func (m *Mixer) StopAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.voices)
	for _, e := range m.voices {
		e.voice.Stop(m.clock)
		m.release(e)
	}
	m.voices = m.voices[:0]
	return n
}

func (m *Mixer) release(e *entry) {
	e.group.remaining--
	if e.group.remaining == 0 {
		close(e.group.done)
	}
}

func (m *Mixer) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// ActiveOscillators counts the partials of every active voice.
func (m *Mixer) ActiveOscillators() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.voices {
		n += e.voice.Oscillators()
	}
	return n
}

// After returns a channel closed once the clock has advanced by seconds.
func (m *Mixer) After(seconds float64) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at(m.clock + m.Frames(seconds))
}

// At returns a channel closed once the clock reaches frame.
func (m *Mixer) At(frame int64) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at(frame)
}

func (m *Mixer) at(frame int64) chan struct{} {
	ch := make(chan struct{})
	if frame <= m.clock {
		close(ch)
		return ch
	}
	heap.Push(&m.waiters, waiter{frame: frame, ch: ch})
	return ch
}

// SetGain sets the bus output gain.
func (m *Mixer) SetGain(g float32) {
	m.mu.Lock()
	m.gain = g
	m.mu.Unlock()
}

// Peak is the highest absolute sample level since the last call.
func (m *Mixer) Peak() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.peak
	m.peak = 0
	return p
}

// Process renders len(dst)/2 stereo frames into dst (interleaved L/R) and
// advances the clock.
func (m *Mixer) Process(dst []float32) {
	m.mu.Lock()
	frames := len(dst) / 2
	if cap(m.mono) < frames {
		m.mono = make([]float32, frames)
		m.scratch = make([]float32, frames)
	}
	mono := vek32.Zeros_Into(m.mono, frames)
	scratch := m.scratch[:frames]
	for _, e := range m.voices {
		e.voice.Render(scratch, m.clock)
		vek32.Add_Inplace(mono, scratch)
	}
	if m.gain != 1 {
		vek32.MulNumber_Inplace(mono, m.gain)
	}
	for i := 0; i < frames; i++ {
		l, r := mono[i], mono[i]
		if m.bus != nil {
			l, r = m.bus.Process(l, r)
		}
		dst[2*i] = clamp(l)
		dst[2*i+1] = clamp(r)
	}
	if len(dst) > 0 {
		p := vek32.Max(dst)
		if n := -vek32.Min(dst); n > p {
			p = n
		}
		if p > m.peak {
			m.peak = p
		}
	}
	m.clock += int64(frames)

	live := m.voices[:0]
	for _, e := range m.voices {
		if e.voice.Done(m.clock) {
			m.release(e)
			continue
		}
		live = append(live, e)
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live

	for m.waiters.Len() > 0 && m.waiters[0].frame <= m.clock {
		w := heap.Pop(&m.waiters).(waiter)
		close(w.ch)
	}
	tap := m.tap
	m.mu.Unlock()

	if tap != nil {
		tap(append([]float32(nil), dst...))
	}
}

// Reset clears the bus state. Voices and waiters are left alone.
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bus != nil {
		m.bus.Reset()
	}
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

type waiter struct {
	frame int64
	ch    chan struct{}
}

type waiterHeap []waiter

func (h waiterHeap) Len() int            { return len(h) }
func (h waiterHeap) Less(i, j int) bool  { return h[i].frame < h[j].frame }
func (h waiterHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *waiterHeap) Push(x interface{}) { *h = append(*h, x.(waiter)) }
func (h *waiterHeap) Pop() interface{} {
	old := *h
	n := len(old)
	w := old[n-1]
	*h = old[:n-1]
	return w
}
