package anchor

import (
	"errors"

	"github.com/docanchor/docanchor/internal/chunker"
	"github.com/docanchor/docanchor/internal/layout"
)

// Tunable defaults. Every threshold the scoring heuristics depend on is a
// named, overridable parameter so boundary behavior can be probed directly.
const (
	// DefaultAcceptThreshold is the minimum similarity score for a line
	// run to anchor a chunk.
	DefaultAcceptThreshold = 0.55

	// DefaultTableThreshold is the minimum similarity score for a table
	// region to anchor a table chunk.
	DefaultTableThreshold = 0.5

	// DefaultPageWindow is how far from a chunk's hinted page the
	// candidate search extends, in pages.
	DefaultPageWindow = 1

	// DefaultLengthTolerance is the fractional band around the chunk's
	// normalized length within which candidate runs are considered.
	DefaultLengthTolerance = 0.35

	// DefaultMaxRunLines bounds the sliding window so pathological
	// documents cannot make the search quadratic in page size.
	DefaultMaxRunLines = 80

	// DefaultBottomMargin is how close to the page bottom an accepted
	// run must end to be considered truncated by the page break,
	// in points.
	DefaultBottomMargin = 90.0

	// DefaultTopMargin is how close to the next page's top a
	// continuation run must start, in points.
	DefaultTopMargin = 90.0
)

// Params carries the matcher's tunable thresholds.
type Params struct {
	AcceptThreshold float64
	TableThreshold  float64
	PageWindow      int
	LengthTolerance float64
	MaxRunLines     int
	BottomMargin    float64
	TopMargin       float64
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		AcceptThreshold: DefaultAcceptThreshold,
		TableThreshold:  DefaultTableThreshold,
		PageWindow:      DefaultPageWindow,
		LengthTolerance: DefaultLengthTolerance,
		MaxRunLines:     DefaultMaxRunLines,
		BottomMargin:    DefaultBottomMargin,
		TopMargin:       DefaultTopMargin,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.AcceptThreshold < 0 || p.AcceptThreshold > 1 {
		return errors.New("accept threshold must be in [0,1]")
	}
	if p.TableThreshold < 0 || p.TableThreshold > 1 {
		return errors.New("table threshold must be in [0,1]")
	}
	if p.PageWindow < 0 {
		return errors.New("page window cannot be negative")
	}
	if p.LengthTolerance < 0 || p.LengthTolerance >= 1 {
		return errors.New("length tolerance must be in [0,1)")
	}
	if p.MaxRunLines < 1 {
		return errors.New("max run lines must be positive")
	}
	if p.BottomMargin < 0 || p.TopMargin < 0 {
		return errors.New("page margins cannot be negative")
	}
	return nil
}

// AnchoredChunk is a Chunk augmented with the geometry that produced it.
// Boxes holds one box per page: a single element for a normal anchor, two
// for a chunk that continues across a page break. Lines records the
// claimed line IDs so callers can verify claim uniqueness.
type AnchoredChunk struct {
	chunker.Chunk

	Anchored   bool                 `json:"anchored"`
	Boxes      []layout.BoundingBox `json:"boxes,omitempty"`
	MatchScore float64              `json:"match_score"`
	Lines      []layout.LineID      `json:"lines,omitempty"`
}

// Box returns the single bounding box of a one-page anchor, or nil for
// unanchored or multi-page chunks.
func (a *AnchoredChunk) Box() *layout.BoundingBox {
	if !a.Anchored || len(a.Boxes) != 1 {
		return nil
	}
	return &a.Boxes[0]
}
