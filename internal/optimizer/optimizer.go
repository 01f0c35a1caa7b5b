package optimizer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/notes"
)

// Resolved is one entry of an optimized progression.
type Resolved struct {
	Position  int // index of the symbol in the input
	Symbol    string
	Key       catalog.Key
	Inversion catalog.Inversion
	Voicing   catalog.Voicing
	Cost      int  // transition cost from the previous entry; 0 for the first
	Reused    bool // voicing taken from an earlier occurrence of Key
}

type Optimizer struct {
	catalog *catalog.Catalog
	logger  *zap.SugaredLogger
}

type Option func(*Optimizer)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an optimizer over c, or over the embedded catalog when c is nil.
func New(c *catalog.Catalog, opts ...Option) *Optimizer {
	if c == nil {
		c = catalog.Default()
	}
	o := &Optimizer{catalog: c, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Optimizer) Catalog() *catalog.Catalog {
	return o.catalog
}

// SplitSymbols splits comma separated chord text, trimming and dropping
// empty entries.
func SplitSymbols(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Distance is the positional semitone distance between two voicings: the sum
// of |a[i]-b[i]| over the first min(len(a), len(b)) notes.
func Distance(a, b []notes.Note) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	total := 0
	for i := 0; i < n; i++ {
		total += notes.Semitones(a[i], b[i])
	}
	return total
}

// OptimizeText is Optimize over SplitSymbols(text).
func (o *Optimizer) OptimizeText(text string) []Resolved {
	return o.Optimize(SplitSymbols(text))
}

// Optimize picks a voicing for every resolvable symbol. The first resolved
// chord takes its fundamental; each later first occurrence takes the voicing
// closest to the previous entry, ties going to the earlier inversion; repeats
// of a key reuse the voicing chosen on its first occurrence. Unknown symbols
// are logged and skipped.
func (o *Optimizer) Optimize(symbols []string) []Resolved {
	out := make([]Resolved, 0, len(symbols))
	chosen := make(map[catalog.Key]catalog.Inversion)

	for pos, raw := range symbols {
		symbol := strings.TrimSpace(raw)
		key, ok := o.catalog.Resolve(symbol)
		if !ok {
			o.logger.Warnw("chord not found, skipping", "symbol", raw, "position", pos)
			continue
		}
		chord, _ := o.catalog.Lookup(key)

		entry := Resolved{Position: pos, Symbol: symbol, Key: key}
		if inv, seen := chosen[key]; seen {
			entry.Inversion = inv
			entry.Reused = true
			entry.Voicing, _ = chord.Voicing(inv)
			if len(out) > 0 {
				entry.Cost = Distance(out[len(out)-1].Voicing.Notes, entry.Voicing.Notes)
			}
			out = append(out, entry)
			continue
		}

		candidates := chord.Voicings()
		best := candidates[0]
		bestCost := 0
		if len(out) > 0 {
			prev := out[len(out)-1].Voicing.Notes
			bestCost = -1
			for _, v := range candidates {
				if d := Distance(prev, v.Notes); bestCost < 0 || d < bestCost {
					best, bestCost = v, d
				}
			}
		}
		entry.Inversion = best.Inversion
		entry.Voicing = best
		entry.Cost = bestCost
		chosen[key] = best.Inversion
		o.logger.Debugw("voicing chosen", "symbol", symbol, "key", key, "inversion", best.Inversion.String(), "cost", bestCost)
		out = append(out, entry)
	}
	return out
}

// TotalCost sums the transition costs of a progression.
func TotalCost(progression []Resolved) int {
	total := 0
	for _, r := range progression {
		total += r.Cost
	}
	return total
}
