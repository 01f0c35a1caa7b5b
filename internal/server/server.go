// Package server exposes the voicing optimizer over HTTP for a browser UI.
// It is stateless: every request is answered from the chord table alone.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	pianochords "github.com/cbegin/pianochords-go"
	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/midiexport"
	"github.com/cbegin/pianochords-go/internal/optimizer"
)

type Server struct {
	log     *zap.SugaredLogger
	catalog *catalog.Catalog
	router  *mux.Router
	origins []string
}

type Option func(*Server)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowedOrigins restricts CORS. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

func New(c *catalog.Catalog, opts ...Option) *Server {
	if c == nil {
		c = catalog.Default()
	}
	s := &Server{log: zap.NewNop().Sugar(), catalog: c, origins: []string{"*"}}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/optimize", s.handleOptimize).Methods(http.MethodPost)
	r.HandleFunc("/midi", s.handleMIDI).Methods(http.MethodPost)
	r.HandleFunc("/chords", s.handleChords).Methods(http.MethodGet)
	r.HandleFunc("/chords/{key}", s.handleChord).Methods(http.MethodGet)
	r.HandleFunc("/timing", s.handleTiming).Methods(http.MethodGet)
	s.router = r
	return s
}

// Handler is the router wrapped in CORS.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
}

// ListenAndServe serves until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infow("listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start).String())
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnw("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "OK",
		"chords": s.catalog.Len(),
	})
}

// OptimizeRequest carries either comma separated Text or pre-split Symbols.
type OptimizeRequest struct {
	Text    string   `json:"text"`
	Symbols []string `json:"symbols"`
	BPM     float64  `json:"bpm"`
}

type VoicingJSON struct {
	Inversion string   `json:"inversion"`
	Label     string   `json:"label"`
	Notes     []string `json:"notes"`
	Fingering []int    `json:"fingering"`
}

type MovementJSON struct {
	Finger   int    `json:"finger"`
	From     string `json:"from"`
	To       string `json:"to"`
	Distance int    `json:"distance"`
}

type ResolvedJSON struct {
	Position  int            `json:"position"`
	Symbol    string         `json:"symbol"`
	Key       string         `json:"key"`
	Voicing   VoicingJSON    `json:"voicing"`
	Cost      int            `json:"cost"`
	Reused    bool           `json:"reused"`
	Movements []MovementJSON `json:"movements,omitempty"`
}

type TimingJSON struct {
	BPM          float64 `json:"bpm"`
	ChordSeconds float64 `json:"chordSeconds"`
	PauseSeconds float64 `json:"pauseSeconds"`
	Description  string  `json:"description"`
}

type OptimizeResponse struct {
	Chords    []ResolvedJSON `json:"chords"`
	TotalCost int            `json:"totalCost"`
	Timing    TimingJSON     `json:"timing"`
}

func voicingJSON(v catalog.Voicing) VoicingJSON {
	return VoicingJSON{
		Inversion: v.Inversion.String(),
		Label:     v.Label,
		Notes:     v.NoteNames(),
		Fingering: v.Fingering,
	}
}

func timingJSON(bpm float64) TimingJSON {
	if bpm <= 0 {
		bpm = pianochords.DefaultTempo
	}
	bpm = pianochords.ClampTempo(bpm)
	t := pianochords.TimingForTempo(bpm)
	return TimingJSON{
		BPM:          bpm,
		ChordSeconds: t.Chord,
		PauseSeconds: t.Pause,
		Description:  pianochords.TempoDescription(bpm),
	}
}

func (s *Server) optimize(req OptimizeRequest) []optimizer.Resolved {
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = optimizer.SplitSymbols(req.Text)
	}
	return optimizer.New(s.catalog, optimizer.WithLogger(s.log)).Optimize(symbols)
}

func (s *Server) decodeOptimize(w http.ResponseWriter, r *http.Request) (OptimizeRequest, bool) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	if req.Text == "" && len(req.Symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "text or symbols required")
		return req, false
	}
	return req, true
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeOptimize(w, r)
	if !ok {
		return
	}
	resolved := s.optimize(req)
	resp := OptimizeResponse{
		Chords:    make([]ResolvedJSON, 0, len(resolved)),
		TotalCost: optimizer.TotalCost(resolved),
		Timing:    timingJSON(req.BPM),
	}
	for i, rc := range resolved {
		out := ResolvedJSON{
			Position: rc.Position,
			Symbol:   rc.Symbol,
			Key:      string(rc.Key),
			Voicing:  voicingJSON(rc.Voicing),
			Cost:     rc.Cost,
			Reused:   rc.Reused,
		}
		if i > 0 {
			for _, m := range optimizer.Movements(resolved[i-1].Voicing, rc.Voicing) {
				out.Movements = append(out.Movements, MovementJSON{
					Finger:   m.Finger,
					From:     m.From.String(),
					To:       m.To.String(),
					Distance: m.Distance,
				})
			}
		}
		resp.Chords = append(resp.Chords, out)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMIDI(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeOptimize(w, r)
	if !ok {
		return
	}
	bpm := timingJSON(req.BPM).BPM
	data, err := midiexport.Bytes(s.optimize(req), bpm)
	if err != nil {
		s.log.Errorw("midi export failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "midi export failed")
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="progression.mid"`)
	w.Write(data)
}

type ChordSummary struct {
	Key          string `json:"key"`
	Quality      string `json:"quality"`
	Description  string `json:"description"`
	VoicingCount int    `json:"voicingCount"`
}

type ChordDetail struct {
	ChordSummary
	Voicings []VoicingJSON `json:"voicings"`
}

func summary(ch *catalog.Chord) ChordSummary {
	return ChordSummary{
		Key:          string(ch.Key),
		Quality:      ch.Quality.String(),
		Description:  ch.Description,
		VoicingCount: len(ch.Voicings()),
	}
}

func (s *Server) handleChords(w http.ResponseWriter, r *http.Request) {
	keys := s.catalog.Keys()
	out := make([]ChordSummary, 0, len(keys))
	for _, k := range keys {
		ch, _ := s.catalog.Lookup(k)
		out = append(out, summary(ch))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["key"]
	key, ok := s.catalog.Resolve(symbol)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown chord "+strconv.Quote(symbol))
		return
	}
	ch, _ := s.catalog.Lookup(key)
	detail := ChordDetail{ChordSummary: summary(ch)}
	for _, v := range ch.Voicings() {
		detail.Voicings = append(detail.Voicings, voicingJSON(v))
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTiming(w http.ResponseWriter, r *http.Request) {
	var bpm float64
	if raw := r.URL.Query().Get("bpm"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			s.writeError(w, http.StatusBadRequest, "bpm must be a positive number")
			return
		}
		bpm = v
	}
	s.writeJSON(w, http.StatusOK, timingJSON(bpm))
}
