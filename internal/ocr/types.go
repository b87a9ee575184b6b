// Package ocr provides the text-recognition engine boundary and the per-cell
// text extractor.
package ocr

import (
	"gocv.io/x/gocv"

	"attendance-scanner/pkg/geometry"
)

// Span is one recognized text token with its confidence (0-1) and position.
type Span struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Bounds     geometry.RectInt `json:"bounds"`
}

// Observation is the ordered token sequence recognized in one cell.
// May be empty; an empty observation is a normal outcome, not an error.
type Observation struct {
	Spans []Span `json:"spans,omitempty"`
}

// Empty reports whether no tokens were recognized.
func (o Observation) Empty() bool { return len(o.Spans) == 0 }

// Texts returns the token strings in order.
func (o Observation) Texts() []string {
	out := make([]string, len(o.Spans))
	for i, s := range o.Spans {
		out[i] = s.Text
	}
	return out
}

// Recognizer is the engine boundary: given an image region, return
// recognized text spans with confidence and position. Any compliant engine
// may be substituted, including test doubles.
type Recognizer interface {
	Recognize(img gocv.Mat) ([]Span, error)
	Close() error
}
