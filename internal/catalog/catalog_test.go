package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogShape(t *testing.T) {
	assert := assert.New(t)
	c := Default()
	assert.Equal(33, c.Len())

	counts := map[Quality]int{}
	for _, k := range c.Keys() {
		ch, ok := c.Lookup(k)
		require.True(t, ok, k)
		counts[ch.Quality]++
		want := 3
		if ch.Quality == Seventh {
			want = 2
		}
		assert.Len(ch.Voicings(), want, "voicings of %s", k)
		_, ok = ch.Voicing(Fundamental)
		assert.True(ok, "%s has a fundamental", k)
	}
	assert.Equal(17, counts[Major])
	assert.Equal(13, counts[Minor])
	assert.Equal(3, counts[Seventh])
}

func TestVoicingsAreOrderedAndFingered(t *testing.T) {
	c := Default()
	for _, k := range c.Keys() {
		ch, _ := c.Lookup(k)
		prev := Inversion(-1)
		for _, v := range ch.Voicings() {
			if v.Inversion <= prev {
				t.Fatalf("%s voicings out of enumeration order", k)
			}
			prev = v.Inversion
			if len(v.Notes) != len(v.Fingering) {
				t.Fatalf("%s %s: %d notes, %d fingers", k, v.Inversion, len(v.Notes), len(v.Fingering))
			}
			for i := 1; i < len(v.Notes); i++ {
				if v.Notes[i].Number() <= v.Notes[i-1].Number() {
					t.Fatalf("%s %s not ascending: %v", k, v.Inversion, v.NoteNames())
				}
			}
			if v.Label != v.Inversion.Label() {
				t.Fatalf("%s %s label %q", k, v.Inversion, v.Label)
			}
		}
	}
}

func TestLookupC(t *testing.T) {
	assert := assert.New(t)
	ch, ok := Default().Lookup("C")
	require.True(t, ok)
	v, ok := ch.Voicing(Fundamental)
	require.True(t, ok)
	assert.Equal([]string{"C4", "E4", "G4"}, v.NoteNames())
	assert.Equal([]int{1, 3, 5}, v.Fingering)

	g7, _ := Default().Lookup("G7")
	_, ok = g7.Voicing(SecondInversion)
	assert.False(ok)

	_, ok = Default().Lookup("Xyz")
	assert.False(ok)
}

func TestResolve(t *testing.T) {
	c := Default()
	cases := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"C", "C", true},
		{" Am ", "Am", true},
		{"Db", "Db", true},
		{"Dbm", "C#m", true},
		{"Ebm", "D#m", true},
		{"Gbm", "F#m", true},
		{"Abm", "G#m", true},
		{"Cb", "B", true},
		{"E#m", "Fm", true},
		{"B#", "C", true},
		{"Xyz", "", false},
		{"", "", false},
		{"Cmaj9", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := c.Resolve(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"empty":          `[]`,
		"no fundamental": "- key: X\n  quality: major\n  voicings:\n    firstInv: {notes: [C4, E4], fingering: [1, 3]}\n    secondInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"finger count":   "- key: X\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"bad finger":     "- key: X\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 6]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"descending":     "- key: X\n  quality: major\n  voicings:\n    fundamental: {notes: [E4, C4], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"out of range":   "- key: X\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, G5], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"one voicing":    "- key: X\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 3]}\n",
		"bad quality":    "- key: X\n  quality: sus4\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
		"unknown field":  "- key: X\n  quality: major\n  colour: red\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chords.yaml")
	data := "- key: Power\n  quality: major\n  description: open fifth\n  voicings:\n    fundamental: {notes: [C3, G3], fingering: [1, 5]}\n    firstInv: {notes: [G3, C4], fingering: [1, 5]}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	ch, ok := c.Lookup("Power")
	require.True(t, ok)
	assert.Equal(t, "open fifth", ch.Description)
	assert.Len(t, ch.Voicings(), 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
