package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/pianochords-go/internal/logger"
	"github.com/cbegin/pianochords-go/internal/midiexport"
)

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := New(nil).Handler()
	rr := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp["status"])
	assert.EqualValues(t, 33, resp["chords"])
}

func TestOptimize(t *testing.T) {
	assert := assert.New(t)
	log, logs := logger.NewTestLogger()
	h := New(nil, WithLogger(log)).Handler()

	rr := do(t, h, http.MethodPost, "/optimize", OptimizeRequest{Text: "C, G, Xyz, Am, F", BPM: 60})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Chords, 4)
	assert.Equal(9, resp.TotalCost)

	inversions := make([]string, 0, 4)
	for _, c := range resp.Chords {
		inversions = append(inversions, c.Voicing.Inversion)
	}
	assert.Equal([]string{"fundamental", "firstInv", "firstInv", "secondInv"}, inversions)
	assert.Equal([]string{"C4", "E4", "G4"}, resp.Chords[0].Voicing.Notes)
	assert.Empty(resp.Chords[0].Movements)
	assert.NotEmpty(resp.Chords[1].Movements)
	assert.Equal(3, resp.Chords[2].Position)

	assert.Equal(60.0, resp.Timing.BPM)
	assert.Equal(4.0, resp.Timing.ChordSeconds)
	assert.InDelta(0.1, resp.Timing.PauseSeconds, 1e-9)
	assert.Equal(1, logs.FilterMessage("chord not found, skipping").Len())
}

func TestOptimizeSymbols(t *testing.T) {
	h := New(nil).Handler()
	rr := do(t, h, http.MethodPost, "/optimize", OptimizeRequest{Symbols: []string{"Dbm", "C"}})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Chords, 2)
	assert.Equal(t, "C#m", resp.Chords[0].Key)
	assert.Equal(t, "Dbm", resp.Chords[0].Symbol)
	assert.Equal(t, 110.0, resp.Timing.BPM)
}

func TestOptimizeBadRequests(t *testing.T) {
	h := New(nil).Handler()
	cases := map[string]string{
		"not json": "{",
		"empty":    "{}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	rr := do(t, h, http.MethodGet, "/optimize", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestChords(t *testing.T) {
	h := New(nil).Handler()
	rr := do(t, h, http.MethodGet, "/chords", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []ChordSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 33)
	assert.Equal(t, "C", list[0].Key)
	assert.Equal(t, "major", list[0].Quality)
	assert.Equal(t, 3, list[0].VoicingCount)
}

func TestChordDetail(t *testing.T) {
	h := New(nil).Handler()
	cases := []struct {
		path     string
		status   int
		key      string
		voicings int
	}{
		{"/chords/G7", http.StatusOK, "G7", 2},
		{"/chords/Ebm", http.StatusOK, "D#m", 3},
		{"/chords/C%23m", http.StatusOK, "C#m", 3},
		{"/chords/Xyz", http.StatusNotFound, "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tc.path, nil)
			require.Equal(t, tc.status, rr.Code)
			if tc.status != http.StatusOK {
				return
			}
			var detail ChordDetail
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
			assert.Equal(t, tc.key, detail.Key)
			assert.Len(t, detail.Voicings, tc.voicings)
		})
	}
}

func TestTiming(t *testing.T) {
	h := New(nil).Handler()
	cases := []struct {
		query  string
		status int
		bpm    float64
		desc   string
	}{
		{"", http.StatusOK, 110, "Fast (Allegro)"},
		{"?bpm=70", http.StatusOK, 70, "Slow (Adagio)"},
		{"?bpm=300", http.StatusOK, 120, "Fast (Allegro)"},
		{"?bpm=10", http.StatusOK, 40, "Very slow (Largo)"},
		{"?bpm=abc", http.StatusBadRequest, 0, ""},
		{"?bpm=-5", http.StatusBadRequest, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/timing"+tc.query, nil)
			require.Equal(t, tc.status, rr.Code)
			if tc.status != http.StatusOK {
				return
			}
			var timing TimingJSON
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &timing))
			assert.Equal(t, tc.bpm, timing.BPM)
			assert.Equal(t, tc.desc, timing.Description)
		})
	}
}

func TestMIDI(t *testing.T) {
	h := New(nil).Handler()
	rr := do(t, h, http.MethodPost, "/midi", OptimizeRequest{Text: "C, F, G7", BPM: 90})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/midi", rr.Header().Get("Content-Type"))

	strikes, bpm, err := midiexport.Read(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, strikes, 3)
	assert.InDelta(t, 90, bpm, 0.01)
	assert.Len(t, strikes[2].Keys, 4)
}

func TestCORS(t *testing.T) {
	h := New(nil, WithAllowedOrigins("http://localhost:5173")).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
