package audio

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Output drives a SampleSource in real time.
type Output interface {
	Start() error
	// Suspended reports that the output is not consuming samples.
	Suspended() bool
	Resume() error
	Close() error
}

// OutputFactory builds an Output that will pull from source.
type OutputFactory func(sampleRate int, source SampleSource) (Output, error)

var ErrResumeFailed = errors.New("audio output could not be resumed")

// ManualOutput pulls from its source without a device. By default the caller
// drives it with Advance; WithPump starts a goroutine that renders
// continuously, optionally paced to wall-clock time.
type ManualOutput struct {
	mu         sync.Mutex
	sampleRate int
	source     SampleSource
	block      int
	pump       bool
	paced      bool
	suspended  bool
	canResume  bool
	buf        []float32
	frames     int64
	started    bool
	quit       chan struct{}
	wg         sync.WaitGroup
	sink       func([]float32)
}

type ManualOption func(*ManualOutput)

// WithPump renders continuously in a goroutine. When paced, each block waits
// for its wall-clock duration.
func WithPump(paced bool) ManualOption {
	return func(o *ManualOutput) {
		o.pump = true
		o.paced = paced
	}
}

func WithBlock(frames int) ManualOption {
	return func(o *ManualOutput) {
		if frames > 0 {
			o.block = frames
		}
	}
}

// StartSuspended makes the output come up suspended, like a device that is
// still waiting for permission to play. resumable controls whether Resume
// succeeds.
func StartSuspended(resumable bool) ManualOption {
	return func(o *ManualOutput) {
		o.suspended = true
		o.canResume = resumable
	}
}

// WithSink receives every rendered block.
func WithSink(fn func([]float32)) ManualOption {
	return func(o *ManualOutput) { o.sink = fn }
}

func NewManualOutput(sampleRate int, source SampleSource, opts ...ManualOption) *ManualOutput {
	o := &ManualOutput{sampleRate: sampleRate, source: source, block: 256, canResume: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ManualFactory returns an OutputFactory producing ManualOutputs with opts.
// The most recently built output is passed to created, if set.
func ManualFactory(created func(*ManualOutput), opts ...ManualOption) OutputFactory {
	return func(sampleRate int, source SampleSource) (Output, error) {
		o := NewManualOutput(sampleRate, source, opts...)
		if created != nil {
			created(o)
		}
		return o, nil
	}
}

func (o *ManualOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}
	o.started = true
	o.quit = make(chan struct{})
	if o.pump {
		o.wg.Add(1)
		go o.run(o.quit)
	}
	return nil
}

func (o *ManualOutput) run(quit chan struct{}) {
	defer o.wg.Done()
	blockDur := time.Duration(float64(o.block) / float64(o.sampleRate) * float64(time.Second))
	next := time.Now()
	for {
		select {
		case <-quit:
			return
		default:
		}
		if !o.Advance(o.block) {
			time.Sleep(time.Millisecond)
			continue
		}
		if o.paced {
			next = next.Add(blockDur)
			if d := time.Until(next); d > 0 {
				time.Sleep(d)
			}
		} else {
			runtime.Gosched()
		}
	}
}

// Advance renders frames synchronously. It reports false and renders nothing
// while the output is suspended.
func (o *ManualOutput) Advance(frames int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.suspended {
		return false
	}
	for frames > 0 {
		n := frames
		if n > o.block {
			n = o.block
		}
		if cap(o.buf) < 2*n {
			o.buf = make([]float32, 2*o.block)
		}
		buf := o.buf[:2*n]
		o.source.Process(buf)
		if o.sink != nil {
			o.sink(buf)
		}
		o.frames += int64(n)
		frames -= n
	}
	return true
}

// AdvanceSeconds is Advance in seconds.
func (o *ManualOutput) AdvanceSeconds(s float64) bool {
	return o.Advance(int(s * float64(o.sampleRate)))
}

// Frames is the number of frames rendered so far.
func (o *ManualOutput) Frames() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

func (o *ManualOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *ManualOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.canResume {
		return ErrResumeFailed
	}
	o.suspended = false
	return nil
}

// Suspend pauses rendering until Resume.
func (o *ManualOutput) Suspend() {
	o.mu.Lock()
	o.suspended = true
	o.mu.Unlock()
}

func (o *ManualOutput) Close() error {
	o.mu.Lock()
	quit := o.quit
	o.quit = nil
	o.started = false
	o.mu.Unlock()
	if quit != nil {
		close(quit)
	}
	o.wg.Wait()
	return nil
}
