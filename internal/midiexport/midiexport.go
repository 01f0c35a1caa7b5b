// Package midiexport writes voiced progressions as Standard MIDI Files and
// reads the struck note groups back.
package midiexport

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/pianochords-go/internal/optimizer"
)

const (
	TicksPerQuarter = 960
	beatsPerBar     = 4
	ticksPerBar     = TicksPerQuarter * beatsPerBar
	// gapTicks is left silent at the end of every bar, a tenth of a beat.
	gapTicks = TicksPerQuarter / 10

	channel  = 0
	velocity = 80
)

// Write encodes chords as format 1 SMF: a tempo track with a 4/4 meter and
// one piano track holding one chord per bar, each bar marked with its chord
// symbol.
func Write(w io.Writer, chords []optimizer.Resolved, bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("bpm must be positive, got %v", bpm)
	}
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(beatsPerBar, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(uint32(len(chords) * ticksPerBar))
	if err := sm.Add(tempo); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}

	var piano smf.Track
	piano.Add(0, smf.MetaTrackSequenceName("Piano"))
	var delta uint32
	for _, ch := range chords {
		piano.Add(delta, smf.MetaMarker(ch.Symbol))
		delta = 0
		keys := midiKeys(ch)
		for _, k := range keys {
			piano.Add(0, midi.NoteOn(channel, k, velocity))
		}
		held := uint32(ticksPerBar - gapTicks)
		for i, k := range keys {
			if i == 0 {
				piano.Add(held, midi.NoteOff(channel, k))
				continue
			}
			piano.Add(0, midi.NoteOff(channel, k))
		}
		if len(keys) == 0 {
			delta = ticksPerBar
		} else {
			delta = gapTicks
		}
	}
	piano.Close(delta)
	if err := sm.Add(piano); err != nil {
		return fmt.Errorf("error adding piano track: %w", err)
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI: %w", err)
	}
	return nil
}

// Bytes is Write into memory.
func Bytes(chords []optimizer.Resolved, bpm float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, chords, bpm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func midiKeys(ch optimizer.Resolved) []uint8 {
	keys := make([]uint8, 0, len(ch.Voicing.Notes))
	for _, n := range ch.Voicing.Notes {
		keys = append(keys, uint8(n.MIDI()))
	}
	return keys
}

// Strike is a group of keys pressed at the same tick.
type Strike struct {
	Tick uint64
	Keys []uint8
}

// Read decodes an SMF and returns every group of simultaneous note-ons in
// time order, along with the first tempo (120 if none).
func Read(r io.Reader) (strikes []Strike, bpm float64, err error) {
	// smf can panic on malformed input.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("error parsing MIDI: %v", rec)
		}
	}()
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing MIDI: %w", err)
	}
	bpm = 120
	if tc := s.TempoChanges(); len(tc) > 0 {
		bpm = tc[0].BPM
	}

	byTick := map[uint64][]uint8{}
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
				byTick[abs] = append(byTick[abs], key)
			}
		}
	}
	for tick, keys := range byTick {
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		strikes = append(strikes, Strike{Tick: tick, Keys: keys})
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].Tick < strikes[j].Tick })
	return strikes, bpm, nil
}
