package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/pianochords-go/internal/notes"
)

//go:embed chords.yaml
var defaultCatalogYAML []byte

// Key identifies a chord in the catalog, e.g. "C#m" or "G7".
type Key string

type Quality int

const (
	Major Quality = iota
	Minor
	Seventh
)

func (q Quality) String() string {
	switch q {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Seventh:
		return "seventh"
	}
	return "unknown"
}

func parseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "seventh":
		return Seventh, nil
	}
	return 0, errors.Errorf("unknown chord quality %q", s)
}

// Inversion names a voicing slot. The numeric order is the enumeration order
// used when ranking candidates.
type Inversion int

const (
	Fundamental Inversion = iota
	FirstInversion
	SecondInversion
)

// Inversions lists every slot in enumeration order.
var Inversions = [...]Inversion{Fundamental, FirstInversion, SecondInversion}

func (i Inversion) String() string {
	switch i {
	case Fundamental:
		return "fundamental"
	case FirstInversion:
		return "firstInv"
	case SecondInversion:
		return "secondInv"
	}
	return "unknown"
}

// Label is the human-readable inversion name.
func (i Inversion) Label() string {
	switch i {
	case Fundamental:
		return "Root position"
	case FirstInversion:
		return "1st inversion"
	case SecondInversion:
		return "2nd inversion"
	}
	return ""
}

// Voicing is one arrangement of a chord with its fingering. Notes run from
// lowest to highest and Fingering is parallel to Notes.
type Voicing struct {
	Inversion Inversion
	Notes     []notes.Note
	Fingering []int
	Label     string
}

// NoteNames returns the canonical names of the voicing's notes.
func (v Voicing) NoteNames() []string {
	out := make([]string, len(v.Notes))
	for i, n := range v.Notes {
		out[i] = n.String()
	}
	return out
}

type Chord struct {
	Key         Key
	Name        string
	Quality     Quality
	Description string
	voicings    [len(Inversions)]*Voicing
}

// Voicing returns the voicing stored in slot inv.
func (c *Chord) Voicing(inv Inversion) (Voicing, bool) {
	if inv < 0 || int(inv) >= len(c.voicings) || c.voicings[inv] == nil {
		return Voicing{}, false
	}
	return *c.voicings[inv], true
}

// Voicings returns the chord's voicings in enumeration order.
func (c *Chord) Voicings() []Voicing {
	out := make([]Voicing, 0, len(c.voicings))
	for _, v := range c.voicings {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Catalog is an immutable key→Chord table.
type Catalog struct {
	chords map[Key]*Chord
	order  []Key
}

type rawVoicing struct {
	Notes     []string `yaml:"notes"`
	Fingering []int    `yaml:"fingering"`
}

type rawChord struct {
	Key         string `yaml:"key"`
	Quality     string `yaml:"quality"`
	Description string `yaml:"description"`
	Voicings    struct {
		Fundamental *rawVoicing `yaml:"fundamental"`
		FirstInv    *rawVoicing `yaml:"firstInv"`
		SecondInv   *rawVoicing `yaml:"secondInv"`
	} `yaml:"voicings"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded table is
// invalid, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded chord table: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw []rawChord
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode chord table")
	}
	if len(raw) == 0 {
		return nil, errors.New("chord table is empty")
	}
	c := &Catalog{chords: make(map[Key]*Chord, len(raw))}
	for i := range raw {
		ch, err := buildChord(&raw[i])
		if err != nil {
			return nil, errors.Wrapf(err, "chord #%d %q", i, raw[i].Key)
		}
		if _, dup := c.chords[ch.Key]; dup {
			return nil, errors.Errorf("duplicate chord key %q", ch.Key)
		}
		c.chords[ch.Key] = ch
		c.order = append(c.order, ch.Key)
	}
	return c, nil
}

func buildChord(r *rawChord) (*Chord, error) {
	key := strings.TrimSpace(r.Key)
	if key == "" {
		return nil, errors.New("missing key")
	}
	q, err := parseQuality(r.Quality)
	if err != nil {
		return nil, err
	}
	ch := &Chord{Key: Key(key), Name: key, Quality: q, Description: r.Description}
	if ch.Description == "" {
		ch.Description = key + " " + q.String()
	}
	slots := [len(Inversions)]*rawVoicing{r.Voicings.Fundamental, r.Voicings.FirstInv, r.Voicings.SecondInv}
	count := 0
	for i, rv := range slots {
		if rv == nil {
			continue
		}
		v, err := buildVoicing(Inversion(i), rv)
		if err != nil {
			return nil, errors.Wrap(err, Inversion(i).String())
		}
		ch.voicings[i] = v
		count++
	}
	if ch.voicings[Fundamental] == nil {
		return nil, errors.New("missing fundamental voicing")
	}
	if count < 2 {
		return nil, errors.Errorf("need at least 2 voicings, have %d", count)
	}
	return ch, nil
}

func buildVoicing(inv Inversion, r *rawVoicing) (*Voicing, error) {
	if len(r.Notes) == 0 {
		return nil, errors.New("no notes")
	}
	if len(r.Fingering) != len(r.Notes) {
		return nil, errors.Errorf("fingering has %d entries for %d notes", len(r.Fingering), len(r.Notes))
	}
	v := &Voicing{Inversion: inv, Label: inv.Label(), Fingering: append([]int(nil), r.Fingering...)}
	for i, name := range r.Notes {
		n, err := notes.Parse(name)
		if err != nil {
			return nil, err
		}
		if _, ok := notes.Frequency(n); !ok {
			return nil, errors.Errorf("note %s has no frequency", n)
		}
		if i > 0 && n.Number() <= v.Notes[i-1].Number() {
			return nil, errors.Errorf("notes must ascend: %s after %s", n, v.Notes[i-1])
		}
		v.Notes = append(v.Notes, n)
	}
	for _, f := range v.Fingering {
		if f < 1 || f > 5 {
			return nil, errors.Errorf("finger %d out of range 1..5", f)
		}
	}
	return v, nil
}

// Lookup returns the chord stored under key.
func (c *Catalog) Lookup(key Key) (*Chord, bool) {
	ch, ok := c.chords[key]
	return ch, ok
}

// Resolve maps a free-form chord symbol to a catalog key: exact match first,
// then the same symbol with its root respelled through the enharmonic table
// (Dbm → C#m, Ebm → D#m, Cb → B).
func (c *Catalog) Resolve(symbol string) (Key, bool) {
	symbol = strings.TrimSpace(symbol)
	if _, ok := c.chords[Key(symbol)]; ok {
		return Key(symbol), true
	}
	root, suffix, ok := notes.SplitRoot(symbol)
	if !ok {
		return "", false
	}
	alt := Key(notes.NormalizeName(root) + suffix)
	if _, ok := c.chords[alt]; ok {
		return alt, true
	}
	return "", false
}

// Keys returns every key in table order.
func (c *Catalog) Keys() []Key {
	return append([]Key(nil), c.order...)
}

func (c *Catalog) Len() int {
	return len(c.order)
}
