package effects

import (
	"fmt"
	"math/rand"
	"strings"
)

// Effector processes one stereo frame of the master bus.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain runs effects in order. A nil entry is skipped.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	c := &Chain{}
	for _, e := range effects {
		c.Add(e)
	}
	return c
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	if e != nil {
		c.effects = append(c.effects, e)
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// ReverbKind selects the room simulation on the master bus.
type ReverbKind string

const (
	ReverbConvolution ReverbKind = "convolution"
	ReverbSchroeder   ReverbKind = "schroeder"
	ReverbNone        ReverbKind = "none"
)

func ParseReverbKind(s string) (ReverbKind, error) {
	switch k := ReverbKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReverbConvolution, ReverbSchroeder, ReverbNone:
		return k, nil
	case "":
		return ReverbConvolution, nil
	}
	return "", fmt.Errorf("unknown reverb kind %q", s)
}

// NewRoom builds the reverb for kind, or nil for ReverbNone.
func NewRoom(kind ReverbKind, sampleRate int, rng *rand.Rand) Effector {
	switch kind {
	case ReverbSchroeder:
		return NewRoomReverb(sampleRate)
	case ReverbNone:
		return nil
	}
	return NewRoomConvolution(sampleRate, rng)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
