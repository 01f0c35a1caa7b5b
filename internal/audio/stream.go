package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills dst with interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader adapts a SampleSource to the little-endian float32 byte stream
// the device player pulls from.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	closed bool
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide device context. The device can
// only be opened once, at one sample rate.
func sharedAudioContext(sampleRate int) (ctx *ebitaudio.Context, err error) {
	audioContextOnce.Do(func() {
		defer func() {
			if p := recover(); p != nil {
				audioContextErr = fmt.Errorf("open audio device: %v", p)
			}
		}()
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// DeviceOutput plays a source on the system audio device.
type DeviceOutput struct {
	sampleRate int
	source     SampleSource
	ctx        *ebitaudio.Context
	player     *ebitaudio.Player
	reader     *StreamReader
}

// NewDeviceOutput is an OutputFactory for the system audio device.
func NewDeviceOutput(sampleRate int, source SampleSource) (Output, error) {
	return &DeviceOutput{sampleRate: sampleRate, source: source}, nil
}

func (d *DeviceOutput) Start() error {
	ctx, err := sharedAudioContext(d.sampleRate)
	if err != nil {
		return err
	}
	d.ctx = ctx
	d.reader = NewStreamReader(d.source)
	pl, err := ctx.NewPlayerF32(d.reader)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	d.player = pl
	d.player.Play()
	return nil
}

// Suspended reports whether the device is not yet producing sound, which is
// the case until the driver finishes initializing or after a pause.
func (d *DeviceOutput) Suspended() bool {
	if d.player == nil {
		return true
	}
	return !d.ctx.IsReady() || !d.player.IsPlaying()
}

// resumeWait bounds how long Resume waits for the driver to come up.
const resumeWait = 500 * time.Millisecond

func (d *DeviceOutput) Resume() error {
	if d.player == nil {
		return fmt.Errorf("device output not started")
	}
	d.player.Play()
	deadline := time.Now().Add(resumeWait)
	for !d.ctx.IsReady() {
		if time.Now().After(deadline) {
			return ErrResumeFailed
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (d *DeviceOutput) Close() error {
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	err := d.player.Close()
	if cerr := d.reader.Close(); err == nil {
		err = cerr
	}
	d.player = nil
	return err
}
