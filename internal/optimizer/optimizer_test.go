package optimizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/logger"
	"github.com/cbegin/pianochords-go/internal/notes"
)

func voicingNotes(names ...string) []notes.Note {
	out := make([]notes.Note, len(names))
	for i, n := range names {
		out[i] = notes.MustParse(n)
	}
	return out
}

// bruteForce recomputes the best voicing of key against prev.
func bruteForce(t *testing.T, key catalog.Key, prev []notes.Note) catalog.Inversion {
	t.Helper()
	ch, ok := catalog.Default().Lookup(key)
	require.True(t, ok)
	best, bestCost := catalog.Inversion(-1), 0
	for _, v := range ch.Voicings() {
		d := Distance(prev, v.Notes)
		if best < 0 || d < bestCost {
			best, bestCost = v.Inversion, d
		}
	}
	return best
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"C", "G", "Am", "F"}, SplitSymbols("C, G,Am , F"))
	assert.Equal(t, []string{"C"}, SplitSymbols(" , C,,"))
	assert.Empty(t, SplitSymbols(""))
}

func TestDistanceIsPositional(t *testing.T) {
	assert := assert.New(t)
	a := voicingNotes("C4", "E4", "G4")
	assert.Equal(0, Distance(a, a))
	assert.Equal(3, Distance(a, voicingNotes("B3", "D4", "G4")))
	// Only the first min(len) positions count.
	assert.Equal(1, Distance(a, voicingNotes("C#4", "E4")))
	assert.Equal(0, Distance(nil, a))
}

func TestScenarioCGAmF(t *testing.T) {
	assert := assert.New(t)
	out := New(nil).OptimizeText("C, G, Am, F")
	require.Len(t, out, 4)

	assert.Equal(catalog.Fundamental, out[0].Inversion)
	for i := 1; i < len(out); i++ {
		want := bruteForce(t, out[i].Key, out[i-1].Voicing.Notes)
		assert.Equal(want, out[i].Inversion, "entry %d (%s)", i, out[i].Symbol)
	}
	got := []catalog.Inversion{out[0].Inversion, out[1].Inversion, out[2].Inversion, out[3].Inversion}
	assert.Equal([]catalog.Inversion{catalog.Fundamental, catalog.FirstInversion, catalog.FirstInversion, catalog.SecondInversion}, got)
	assert.Equal([]int{0, 3, 5, 1}, []int{out[0].Cost, out[1].Cost, out[2].Cost, out[3].Cost})
	assert.Equal(9, TotalCost(out))
}

func TestScenarioEnharmonicAndMemo(t *testing.T) {
	assert := assert.New(t)
	out := New(nil).Optimize([]string{"C", "Dbm", "C"})
	require.Len(t, out, 3)

	assert.Equal("Dbm", out[1].Symbol)
	assert.Equal(catalog.Key("C#m"), out[1].Key)
	assert.Equal(out[0].Inversion, out[2].Inversion)
	assert.Equal(out[0].Voicing.Notes, out[2].Voicing.Notes)
	assert.False(out[0].Reused)
	assert.True(out[2].Reused)
}

func TestScenarioUnknownDropped(t *testing.T) {
	assert := assert.New(t)
	log, logs := logger.NewTestLogger()
	out := New(nil, WithLogger(log)).OptimizeText("Xyz, C")
	require.Len(t, out, 1)
	assert.Equal(catalog.Key("C"), out[0].Key)
	assert.Equal(catalog.Fundamental, out[0].Inversion)
	assert.Equal(1, out[0].Position)

	warns := logs.FilterMessage("chord not found, skipping").All()
	require.Len(t, warns, 1)
	assert.Equal("Xyz", warns[0].ContextMap()["symbol"])
}

func TestFullyUnresolvableIsEmpty(t *testing.T) {
	out := New(nil).OptimizeText("Xyz, Q7, H")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTieGoesToEarlierInversion(t *testing.T) {
	// C fundamental and C7 fundamental share their first three notes, so
	// from C4 E4 G4 the C7 fundamental costs 0 and must win.
	out := New(nil).OptimizeText("C, C7")
	require.Len(t, out, 2)
	assert.Equal(t, catalog.Fundamental, out[1].Inversion)

	// Equal costs: a custom catalog with two identical voicings.
	data := "- key: A\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n" +
		"- key: B\n  quality: major\n  voicings:\n    fundamental: {notes: [D4, F4], fingering: [1, 3]}\n    firstInv: {notes: [D4, F4], fingering: [2, 4]}\n    secondInv: {notes: [C4, E4], fingering: [1, 3]}\n"
	c, err := catalog.Parse([]byte(data))
	require.NoError(t, err)
	out = New(c).OptimizeText("A, B")
	require.Len(t, out, 2)
	// secondInv costs 0 and beats the tied fundamental/firstInv pair.
	assert.Equal(t, catalog.SecondInversion, out[1].Inversion)
	out = New(c).OptimizeText("A, A, B")
	assert.Equal(t, catalog.SecondInversion, out[2].Inversion)

	data2 := "- key: A\n  quality: major\n  voicings:\n    fundamental: {notes: [C4, E4], fingering: [1, 3]}\n    firstInv: {notes: [E4, G4], fingering: [1, 3]}\n" +
		"- key: B\n  quality: major\n  voicings:\n    fundamental: {notes: [D4, F4], fingering: [1, 3]}\n    firstInv: {notes: [D4, F4], fingering: [2, 4]}\n"
	c2, err := catalog.Parse([]byte(data2))
	require.NoError(t, err)
	out = New(c2).OptimizeText("A, B")
	assert.Equal(t, catalog.Fundamental, out[1].Inversion)
}

func TestRandomProgressionProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cat := catalog.Default()
	keys := cat.Keys()
	pool := []string{"Xyz", "Dbm", "Ebm", "Cb", "E#", "H7"}
	for _, k := range keys {
		pool = append(pool, string(k))
	}
	opt := New(cat)

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(12)
		symbols := make([]string, n)
		for i := range symbols {
			symbols[i] = pool[rng.Intn(len(pool))]
		}
		out := opt.Optimize(symbols)
		require.LessOrEqual(t, len(out), len(symbols))

		first := map[catalog.Key]catalog.Inversion{}
		for i, r := range out {
			_, ok := cat.Lookup(r.Key)
			require.True(t, ok, "key %s", r.Key)
			if inv, seen := first[r.Key]; seen {
				require.Equal(t, inv, r.Inversion, "memoized %s in %v", r.Key, symbols)
				require.True(t, r.Reused)
				continue
			}
			first[r.Key] = r.Inversion
			if i == 0 {
				require.Equal(t, catalog.Fundamental, r.Inversion)
				continue
			}
			require.Equal(t, bruteForce(t, r.Key, out[i-1].Voicing.Notes), r.Inversion, "%v", symbols)
		}
	}
}

func TestOptimizeIsPure(t *testing.T) {
	opt := New(nil)
	a := opt.OptimizeText("C, G, Am, F, C, G")
	b := opt.OptimizeText("C, G, Am, F, C, G")
	assert.Equal(t, a, b)
}
