package pianochords

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"

	intfx "github.com/cbegin/pianochords-go/internal/effects"
	"github.com/cbegin/pianochords-go/internal/mixer"
	"github.com/cbegin/pianochords-go/internal/notes"
	"github.com/cbegin/pianochords-go/internal/synth"
)

// RenderTail is the silence rendered after the last note so the reverb can
// ring out.
const RenderTail = 2.0

// offlineMixer builds a mixer with the same master bus as a live Renderer.
func offlineMixer(opts []RendererOption) (*mixer.Mixer, rendererConfig, *rand.Rand, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, cfg, nil, errors.New("sampleRate must be positive")
	}
	rng := cfg.newRand()
	bus := cfg.buildBus(intfx.NewEQ5Band(cfg.sampleRate), rng)
	return mixer.New(cfg.sampleRate, mixer.WithBus(bus), mixer.WithTap(cfg.sampleTap)), cfg, rng, nil
}

func renderFrames(m *mixer.Mixer, seconds float64) []float32 {
	frames := int(m.Frames(seconds))
	out := make([]float32, frames*2)
	const block = 1024
	for off := 0; off < len(out); off += 2 * block {
		end := off + 2*block
		if end > len(out) {
			end = len(out)
		}
		m.Process(out[off:end])
	}
	return out
}

func strikeAll(cfg rendererConfig, rng *rand.Rand, names []string, start int64, duration, volume float64) []*synth.Voice {
	voices := make([]*synth.Voice, 0, len(names))
	for _, name := range names {
		f, ok := notes.FrequencyOf(name)
		if !ok {
			cfg.logger.Warnw("unknown note, skipping", "note", name)
			continue
		}
		voices = append(voices, synth.NewVoice(cfg.sampleRate, cfg.params, synth.Strike{
			Frequency: f,
			Start:     start,
			Duration:  duration,
			Volume:    volume,
		}, rng))
	}
	return voices
}

// RenderProgression renders chords to interleaved stereo samples the way
// PlayProgression would sound them: chord i starts at i*(Chord+Pause)
// seconds. RenderTail seconds follow the last chord.
func RenderProgression(chords []ResolvedChord, timing Timing, opts ...RendererOption) ([]float32, error) {
	m, cfg, rng, err := offlineMixer(opts)
	if err != nil {
		return nil, err
	}
	if timing.Chord <= 0 {
		timing.Chord = DefaultChordDuration
	}
	if timing.Pause < 0 {
		timing.Pause = 0
	}
	step := timing.Chord + timing.Pause
	for i, chord := range chords {
		names := chord.Voicing.NoteNames()
		if len(names) == 0 {
			continue
		}
		vol := cfg.volume / math.Sqrt(float64(len(names)))
		m.Add(strikeAll(cfg, rng, names, m.Frames(float64(i)*step), timing.Chord, vol)...)
	}
	total := RenderTail
	if len(chords) > 0 {
		total += float64(len(chords)-1)*step + timing.Chord
	}
	return renderFrames(m, total), nil
}

// RenderChord renders notes struck together for duration seconds plus
// RenderTail.
func RenderChord(names []string, duration float64, opts ...RendererOption) ([]float32, error) {
	m, cfg, rng, err := offlineMixer(opts)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = 2
	}
	if len(names) > 0 {
		vol := cfg.volume / math.Sqrt(float64(len(names)))
		m.Add(strikeAll(cfg, rng, names, 0, duration, vol)...)
	}
	return renderFrames(m, duration+RenderTail), nil
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
