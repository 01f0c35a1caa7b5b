package midiexport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/pianochords-go/internal/optimizer"
)

func TestWriteReadRoundTrip(t *testing.T) {
	assert := assert.New(t)
	chords := optimizer.New(nil).OptimizeText("C, G, Am, F")
	require.Len(t, chords, 4)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, chords, 90))
	assert.Equal("MThd", buf.String()[:4])

	strikes, bpm, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.InDelta(90, bpm, 0.01)
	require.Len(t, strikes, 4)
	for i, s := range strikes {
		assert.Equal(uint64(i*ticksPerBar), s.Tick, "chord %d tick", i)
		assert.Equal(midiKeys(chords[i]), s.Keys, "chord %d keys", i)
	}
	// C major root position.
	assert.Equal([]uint8{60, 64, 67}, strikes[0].Keys)
}

func TestWriteEmptyProgression(t *testing.T) {
	data, err := Bytes(nil, 120)
	require.NoError(t, err)
	strikes, bpm, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, strikes)
	assert.InDelta(t, 120, bpm, 0.01)
}

func TestWriteRejectsBadTempo(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, nil, 0))
}

func TestReadGarbage(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("not a midi file")))
	assert.Error(t, err)
}
