package pianochords

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	intaudio "github.com/cbegin/pianochords-go/internal/audio"
	intfx "github.com/cbegin/pianochords-go/internal/effects"
	"github.com/cbegin/pianochords-go/internal/mixer"
	"github.com/cbegin/pianochords-go/internal/notes"
	"github.com/cbegin/pianochords-go/internal/synth"
)

var (
	// ErrAudioUnavailable means no audio output could be opened. Callers
	// should check IsAudioAvailable and tell the user instead of playing.
	ErrAudioUnavailable = errors.New("audio output unavailable")
	// ErrAudioSuspended means the output stayed suspended after one resume
	// attempt.
	ErrAudioSuspended = errors.New("audio output suspended")
	ErrClosed         = errors.New("renderer closed")
)

// EventKind identifies a PlaybackEvent.
type EventKind int

const (
	EventChordStarted EventKind = iota
	EventProgressionEnded
	EventProgressionCancelled
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventChordStarted:
		return "chord-started"
	case EventProgressionEnded:
		return "progression-ended"
	case EventProgressionCancelled:
		return "progression-cancelled"
	case EventStopped:
		return "stopped"
	}
	return "unknown"
}

// PlaybackEvent is delivered on the Watch channel.
type PlaybackEvent struct {
	Kind    EventKind
	Session uuid.UUID
	Index   int // chord index for EventChordStarted, -1 otherwise
	Symbol  string
}

type RendererOption func(*rendererConfig)

type rendererConfig struct {
	sampleRate int
	output     intaudio.OutputFactory
	logger     *zap.SugaredLogger
	reverb     intfx.ReverbKind
	seed       int64
	seeded     bool
	sampleTap  func([]float32)
	limiter    bool
	params     synth.Params
	volume     float64
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		sampleRate: 48000,
		output:     intaudio.NewDeviceOutput,
		logger:     zap.NewNop().Sugar(),
		reverb:     intfx.ReverbConvolution,
		params:     synth.DefaultParams(),
		volume:     DefaultMasterVolume,
	}
}

func WithSampleRate(rate int) RendererOption {
	return func(cfg *rendererConfig) { cfg.sampleRate = rate }
}

// WithOutput replaces the system audio device. A nil factory makes audio
// unavailable.
func WithOutput(f intaudio.OutputFactory) RendererOption {
	return func(cfg *rendererConfig) { cfg.output = f }
}

func WithLogger(l *zap.SugaredLogger) RendererOption {
	return func(cfg *rendererConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func WithReverb(kind intfx.ReverbKind) RendererOption {
	return func(cfg *rendererConfig) { cfg.reverb = kind }
}

// WithSeed makes detune and the reverb impulse reproducible.
func WithSeed(seed int64) RendererOption {
	return func(cfg *rendererConfig) {
		cfg.seed = seed
		cfg.seeded = true
	}
}

// WithSampleTap installs a callback invoked with a copy of each rendered
// stereo buffer. The callback runs on the audio thread; keep it brief.
func WithSampleTap(tap func([]float32)) RendererOption {
	return func(cfg *rendererConfig) { cfg.sampleTap = tap }
}

// WithLimiter adds a limiter at the end of the master bus.
func WithLimiter(enabled bool) RendererOption {
	return func(cfg *rendererConfig) { cfg.limiter = enabled }
}

func WithSynthParams(p synth.Params) RendererOption {
	return func(cfg *rendererConfig) { cfg.params = p }
}

// WithMasterVolume sets the initial master volume (clamped to 0..1).
func WithMasterVolume(v float64) RendererOption {
	return func(cfg *rendererConfig) { cfg.volume = clamp01(v) }
}

func (cfg rendererConfig) newRand() *rand.Rand {
	seed := cfg.seed
	if !cfg.seeded {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// buildBus assembles reverb, EQ and the optional limiter.
func (cfg rendererConfig) buildBus(eq *intfx.EQ5Band, rng *rand.Rand) *intfx.Chain {
	chain := intfx.NewChain(intfx.NewRoom(cfg.reverb, cfg.sampleRate, rng))
	if eq != nil {
		chain.Add(eq)
	}
	if cfg.limiter {
		chain.Add(intfx.NewLimiter(cfg.sampleRate))
	}
	return chain
}

// Renderer turns voicings into sound. Audio is opened lazily on first use,
// or explicitly with Init, and released with Close.
type Renderer struct {
	mu       sync.Mutex
	cfg      rendererConfig
	log      *zap.SugaredLogger
	rng      *rand.Rand
	volume   float64
	masterEQ *intfx.EQ5Band
	mixer    *mixer.Mixer
	output   intaudio.Output
	initErr  error
	closed   bool
	sessions map[*Session]struct{}

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if len(cfg.params.Harmonics) == 0 {
		return nil, errors.New("synth params need at least one harmonic")
	}
	return &Renderer{
		cfg:      cfg,
		log:      cfg.logger,
		rng:      cfg.newRand(),
		volume:   cfg.volume,
		masterEQ: intfx.NewEQ5Band(cfg.sampleRate),
		sessions: make(map[*Session]struct{}),
	}, nil
}

// IsAudioAvailable reports whether playback can be attempted: an output is
// configured, opening it has not failed and the renderer is not closed.
func (r *Renderer) IsAudioAvailable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.cfg.output != nil && r.initErr == nil
}

// Init opens the audio output. It is called by every playback method and is
// a no-op once it has succeeded.
func (r *Renderer) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initLocked(ctx)
}

func (r *Renderer) initLocked(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	if r.mixer != nil {
		return nil
	}
	if r.initErr != nil {
		return r.initErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.cfg.output == nil {
		r.initErr = ErrAudioUnavailable
		return r.initErr
	}
	m := mixer.New(r.cfg.sampleRate,
		mixer.WithBus(r.cfg.buildBus(r.masterEQ, r.rng)),
		mixer.WithTap(r.cfg.sampleTap),
	)
	out, err := r.cfg.output(r.cfg.sampleRate, m)
	if err == nil {
		err = out.Start()
	}
	if err != nil {
		r.initErr = fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
		r.log.Errorw("audio init failed", "error", err)
		return r.initErr
	}
	r.mixer = m
	r.output = out
	r.log.Infow("audio initialized", "sampleRate", r.cfg.sampleRate, "reverb", string(r.cfg.reverb), "limiter", r.cfg.limiter)
	return nil
}

// ready initializes if needed and makes one attempt to resume a suspended
// output.
func (r *Renderer) ready(ctx context.Context) (*mixer.Mixer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.initLocked(ctx); err != nil {
		return nil, err
	}
	if r.output.Suspended() {
		r.log.Infow("audio output suspended, resuming")
		if err := r.output.Resume(); err != nil || r.output.Suspended() {
			r.log.Warnw("audio output still suspended", "error", err)
			return nil, ErrAudioSuspended
		}
	}
	return r.mixer, nil
}

// Close stops everything, cancels live sessions and releases the output.
// The renderer cannot be used afterwards.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cancelSessionsLocked()
	if r.mixer != nil {
		r.mixer.StopAll()
	}
	out := r.output
	r.output = nil
	r.mu.Unlock()
	if out != nil {
		return out.Close()
	}
	return nil
}

// PlayOption adjusts a single PlayNote or PlayChord call.
type PlayOption func(*playConfig)

type playConfig struct {
	volume    float64
	hasVolume bool
}

// WithVolume overrides the master volume for one call.
func WithVolume(v float64) PlayOption {
	return func(c *playConfig) {
		c.volume = clamp01(v)
		c.hasVolume = true
	}
}

func (r *Renderer) playVolume(opts []PlayOption) float64 {
	var pc playConfig
	for _, opt := range opts {
		opt(&pc)
	}
	if pc.hasVolume {
		return pc.volume
	}
	return r.MasterVolume()
}

// PlayNote sounds one note for duration seconds (DefaultNoteDuration if not
// positive) and blocks until it has been scheduled to stop, StopAll cut it,
// or ctx is done. An unknown note is logged and skipped.
func (r *Renderer) PlayNote(ctx context.Context, note string, duration float64, opts ...PlayOption) error {
	if duration <= 0 {
		duration = DefaultNoteDuration
	}
	return r.play(ctx, []string{note}, duration, r.playVolume(opts))
}

// PlayChord sounds all notes together, each attenuated by 1/sqrt(len(notes)),
// and blocks like PlayNote. Duration defaults to 2 s.
func (r *Renderer) PlayChord(ctx context.Context, names []string, duration float64, opts ...PlayOption) error {
	if len(names) == 0 {
		return nil
	}
	if duration <= 0 {
		duration = 2
	}
	vol := r.playVolume(opts) / math.Sqrt(float64(len(names)))
	return r.play(ctx, names, duration, vol)
}

func (r *Renderer) play(ctx context.Context, names []string, duration, volume float64) error {
	m, err := r.ready(ctx)
	if err != nil {
		return err
	}
	g := r.strike(m, names, duration, volume)
	select {
	case <-g.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// strike schedules names on m starting at the current clock.
func (r *Renderer) strike(m *mixer.Mixer, names []string, duration, volume float64) *mixer.Group {
	type pitch struct {
		name string
		freq float64
	}
	pitches := make([]pitch, 0, len(names))
	for _, name := range names {
		n, err := notes.Parse(name)
		if err != nil {
			r.log.Warnw("unknown note, skipping", "note", name)
			continue
		}
		f, ok := notes.Frequency(n)
		if !ok {
			r.log.Warnw("no frequency for note, skipping", "note", name)
			continue
		}
		pitches = append(pitches, pitch{name: n.String(), freq: f})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return m.Schedule(func(now int64) []*synth.Voice {
		voices := make([]*synth.Voice, 0, len(pitches))
		for _, p := range pitches {
			voices = append(voices, synth.NewVoice(r.cfg.sampleRate, r.cfg.params, synth.Strike{
				Frequency: p.freq,
				Start:     now,
				Duration:  duration,
				Volume:    volume,
			}, r.rng))
		}
		return voices
	})
}

// StartProgression plays chords in order on a new goroutine and returns its
// session. Before every chord but the first, everything still sounding is
// stopped and the pause elapses. Cancellation is checked before each chord
// and after each pause. onChordStart, if set, is called on the playback
// goroutine with each chord index and finally with -1.
func (r *Renderer) StartProgression(ctx context.Context, chords []ResolvedChord, timing Timing, onChordStart func(int)) (*Session, error) {
	m, err := r.ready(ctx)
	if err != nil {
		return nil, err
	}
	if timing.Chord <= 0 {
		timing.Chord = DefaultChordDuration
	}
	if timing.Pause < 0 {
		timing.Pause = 0
	}
	s := newSession(ctx)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.finish(OutcomeCancelled)
		return nil, ErrClosed
	}
	r.sessions[s] = struct{}{}
	r.mu.Unlock()

	r.log.Infow("progression started", "session", s.ID.String(), "chords", len(chords), "chordSeconds", timing.Chord, "pauseSeconds", timing.Pause)
	go r.runProgression(m, s, chords, timing, onChordStart)
	return s, nil
}

// PlayProgression is StartProgression that blocks until the session is
// idle again. Cancellation is not an error.
func (r *Renderer) PlayProgression(ctx context.Context, chords []ResolvedChord, timing Timing, onChordStart func(int)) error {
	s, err := r.StartProgression(ctx, chords, timing, onChordStart)
	if err != nil {
		return err
	}
	s.Wait()
	return nil
}

func (r *Renderer) runProgression(m *mixer.Mixer, s *Session, chords []ResolvedChord, timing Timing, onChordStart func(int)) {
	outcome := OutcomeCancelled
	defer func() {
		r.mu.Lock()
		delete(r.sessions, s)
		r.mu.Unlock()
		if onChordStart != nil {
			onChordStart(-1)
		}
		s.finish(outcome)
		kind := EventProgressionEnded
		if outcome == OutcomeCancelled {
			kind = EventProgressionCancelled
		}
		r.sendEvent(PlaybackEvent{Kind: kind, Session: s.ID, Index: -1})
		r.log.Infow("progression finished", "session", s.ID.String(), "outcome", outcome.String())
	}()

	// wait reports false if the session was cancelled first.
	wait := func(ch <-chan struct{}) bool {
		select {
		case <-ch:
			return !s.Cancelled()
		case <-s.ctx.Done():
			return false
		}
	}

	for i, chord := range chords {
		if s.Cancelled() {
			return
		}
		if i > 0 {
			m.StopAll()
			if !wait(m.After(timing.Pause)) {
				return
			}
		}
		s.play(i)
		if onChordStart != nil {
			onChordStart(i)
		}
		r.sendEvent(PlaybackEvent{Kind: EventChordStarted, Session: s.ID, Index: i, Symbol: chord.Symbol})
		names := chord.Voicing.NoteNames()
		if len(names) > 0 {
			r.strike(m, names, timing.Chord, r.MasterVolume()/math.Sqrt(float64(len(names))))
		}
		if !wait(m.After(timing.Chord)) {
			return
		}
	}
	outcome = OutcomeCompleted
}

// Sleep waits seconds of audio time, or until ctx is done.
func (r *Renderer) Sleep(ctx context.Context, seconds float64) error {
	m, err := r.ready(ctx)
	if err != nil {
		return err
	}
	select {
	case <-m.After(seconds):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll silences every voice at once and cancels every live progression.
func (r *Renderer) StopAll() {
	r.mu.Lock()
	r.cancelSessionsLocked()
	n := 0
	if r.mixer != nil {
		n = r.mixer.StopAll()
	}
	r.mu.Unlock()
	r.log.Debugw("stopped all voices", "voices", n)
	r.sendEvent(PlaybackEvent{Kind: EventStopped, Index: -1})
}

func (r *Renderer) cancelSessionsLocked() {
	for s := range r.sessions {
		s.Cancel()
	}
}

// ActiveOscillators counts the partial oscillators currently sounding.
func (r *Renderer) ActiveOscillators() int {
	r.mu.Lock()
	m := r.mixer
	r.mu.Unlock()
	if m == nil {
		return 0
	}
	return m.ActiveOscillators()
}

// Now is the audio clock in seconds, 0 before Init.
func (r *Renderer) Now() float64 {
	r.mu.Lock()
	m := r.mixer
	r.mu.Unlock()
	if m == nil {
		return 0
	}
	return m.Seconds()
}

func (r *Renderer) SampleRate() int { return r.cfg.sampleRate }

// SetMasterVolume sets the base volume for notes started from now on,
// clamped to 0..1. Sounding notes keep their volume.
func (r *Renderer) SetMasterVolume(volume float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = clamp01(volume)
}

func (r *Renderer) MasterVolume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (r *Renderer) SetEQBand(band int, gain float32) bool {
	return r.masterEQ.SetGain(band, gain)
}

func (r *Renderer) EQBand(band int) float32 {
	return r.masterEQ.Gain(band)
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and events are dropped when it is full; only the most
// recent Watch channel receives events.
func (r *Renderer) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	r.eventChMu.Lock()
	r.eventCh = ch
	r.eventChMu.Unlock()
	return ch
}

func (r *Renderer) sendEvent(ev PlaybackEvent) {
	r.eventChMu.Lock()
	ch := r.eventCh
	r.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}
