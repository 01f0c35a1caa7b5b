// Package pianochords picks hand-friendly piano voicings for chord
// progressions and plays them through a small additive piano synthesizer.
package pianochords

import (
	"go.uber.org/zap"

	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/optimizer"
)

type (
	ResolvedChord = optimizer.Resolved
	Movement      = optimizer.Movement
	ChordKey      = catalog.Key
	Inversion     = catalog.Inversion
	Voicing       = catalog.Voicing
)

const (
	Fundamental     = catalog.Fundamental
	FirstInversion  = catalog.FirstInversion
	SecondInversion = catalog.SecondInversion
)

// Optimize resolves comma separated chord symbols against the built-in chord
// table and picks a voicing for each. Unknown symbols are dropped.
func Optimize(text string) []ResolvedChord {
	return optimizer.New(nil).OptimizeText(text)
}

// OptimizeSymbols is Optimize for pre-split symbols, logging skipped ones to
// log (nil discards).
func OptimizeSymbols(symbols []string, log *zap.SugaredLogger) []ResolvedChord {
	return optimizer.New(nil, optimizer.WithLogger(log)).Optimize(symbols)
}

// FingerMovements lists the fingers that move from prev to curr.
func FingerMovements(prev, curr ResolvedChord) []Movement {
	return optimizer.Movements(prev.Voicing, curr.Voicing)
}
