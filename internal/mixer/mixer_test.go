package mixer

import (
	"math/rand"
	"testing"

	"github.com/cbegin/pianochords-go/internal/effects"
	"github.com/cbegin/pianochords-go/internal/synth"
)

const rate = 8000

func newVoice(start int64, dur float64) *synth.Voice {
	return synth.NewVoice(rate, synth.DefaultParams(), synth.Strike{Frequency: 261.63, Start: start, Duration: dur, Volume: 0.6}, rand.New(rand.NewSource(1)))
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestClockAdvancesWithProcess(t *testing.T) {
	m := New(rate)
	buf := make([]float32, 256)
	m.Process(buf)
	m.Process(buf)
	if m.Now() != 256 {
		t.Fatalf("clock = %d, want 256", m.Now())
	}
	if m.Frames(0.5) != 4000 {
		t.Fatalf("Frames(0.5) = %d", m.Frames(0.5))
	}
}

func TestAfterClosesOnAudioTime(t *testing.T) {
	m := New(rate)
	ch := m.After(0.1) // 800 frames
	buf := make([]float32, 2*400)
	m.Process(buf)
	if closed(ch) {
		t.Fatalf("closed after 400 frames")
	}
	m.Process(buf)
	if !closed(ch) {
		t.Fatalf("not closed after 800 frames")
	}
	if !closed(m.After(0)) {
		t.Fatalf("zero wait should be closed immediately")
	}
	if !closed(m.At(10)) {
		t.Fatalf("past frame should be closed immediately")
	}
}

func TestGroupDoneWhenVoicesFinish(t *testing.T) {
	m := New(rate)
	g := m.Schedule(func(now int64) []*synth.Voice {
		return []*synth.Voice{newVoice(now, 0.1), newVoice(now, 0.2)}
	})
	if g.StopFrame() != 1600 {
		t.Fatalf("stop frame = %d", g.StopFrame())
	}
	if m.ActiveVoices() != 2 || m.ActiveOscillators() != 14 {
		t.Fatalf("active = %d voices %d oscillators", m.ActiveVoices(), m.ActiveOscillators())
	}
	buf := make([]float32, 2*100)
	var heard bool
	for i := 0; i < 12; i++ {
		m.Process(buf)
		for _, s := range buf {
			if s != 0 {
				heard = true
			}
		}
	}
	if !heard {
		t.Fatalf("no output from scheduled voices")
	}
	if m.ActiveVoices() != 1 || closed(g.Done()) {
		t.Fatalf("after 1200 frames: %d voices, done=%v", m.ActiveVoices(), closed(g.Done()))
	}
	for i := 0; i < 4; i++ {
		m.Process(buf)
	}
	if m.ActiveVoices() != 0 || !closed(g.Done()) {
		t.Fatalf("after 1600 frames: %d voices, done=%v", m.ActiveVoices(), closed(g.Done()))
	}
}

func TestStopAllEmptiesActiveSet(t *testing.T) {
	m := New(rate)
	g := m.Add(newVoice(0, 1.5), newVoice(0, 1.5), newVoice(0, 1.5))
	buf := make([]float32, 2*80)
	m.Process(buf)
	if n := m.StopAll(); n != 3 {
		t.Fatalf("StopAll removed %d", n)
	}
	if m.ActiveOscillators() != 0 {
		t.Fatalf("oscillators left: %d", m.ActiveOscillators())
	}
	if !closed(g.Done()) {
		t.Fatalf("group not released by StopAll")
	}
	m.Process(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d after StopAll = %v", i, s)
		}
	}
}

func TestEmptyGroupIsDone(t *testing.T) {
	m := New(rate)
	if g := m.Add(); !closed(g.Done()) {
		t.Fatalf("empty group should be done")
	}
}

type constant float32

func (c constant) Process(l, r float32) (float32, float32) { return float32(c), -float32(c) }
func (c constant) Reset()                                  {}

func TestBusOutputIsClampedAndTapped(t *testing.T) {
	var tapped []float32
	m := New(rate, WithBus(effects.NewChain(constant(3))), WithTap(func(b []float32) { tapped = b }))
	buf := make([]float32, 8)
	m.Process(buf)
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != 1 || buf[i+1] != -1 {
			t.Fatalf("frame %d = %v %v, want clamp to ±1", i/2, buf[i], buf[i+1])
		}
	}
	if len(tapped) != len(buf) || tapped[0] != 1 {
		t.Fatalf("tap got %v", tapped)
	}
	buf[0] = 0
	if tapped[0] != 1 {
		t.Fatalf("tap should receive a copy")
	}
	if p := m.Peak(); p != 1 {
		t.Fatalf("peak = %v", p)
	}
	if p := m.Peak(); p != 0 {
		t.Fatalf("peak not reset: %v", p)
	}
}
