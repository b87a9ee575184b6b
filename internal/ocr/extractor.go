package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/text/width"

	"attendance-scanner/pkg/geometry"
)

// Extractor crops cell sub-regions, invokes the recognition engine, and
// normalizes the returned tokens. Engine failures and timeouts yield an
// empty Observation: missing text in one cell must not block the table.
type Extractor struct {
	engine Recognizer

	// Tesseract clients are not reentrant; calls are serialized.
	mu sync.Mutex

	timeout       time.Duration
	minConfidence float64
}

// NewExtractor wraps a recognition engine. Tokens below minConfidence are
// discarded before field parsing; timeout bounds each engine call.
func NewExtractor(engine Recognizer, timeout time.Duration, minConfidence float64) *Extractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Extractor{
		engine:        engine,
		timeout:       timeout,
		minConfidence: minConfidence,
	}
}

// Extract recognizes text inside the given region of img. The error reports
// the degradation cause for logging; the Observation is always usable.
func (e *Extractor) Extract(ctx context.Context, img gocv.Mat, region geometry.RectInt) (Observation, error) {
	x, y, w, h := region.X, region.Y, region.Width, region.Height
	imgH, imgW := img.Rows(), img.Cols()
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > imgW {
		w = imgW - x
	}
	if y+h > imgH {
		h = imgH - y
	}
	if w < 5 || h < 5 {
		return Observation{}, fmt.Errorf("cell region too small: %dx%d", w, h)
	}

	cell := img.Region(image.Rect(x, y, x+w, y+h))
	defer cell.Close()

	spans, err := e.recognizeWithTimeout(ctx, cell)
	if err != nil {
		return Observation{}, err
	}

	var kept []Span
	for _, s := range spans {
		s.Text = NormalizeToken(s.Text)
		if s.Text == "" || s.Confidence < e.minConfidence {
			continue
		}
		// Span positions are cell-relative; shift into image coordinates.
		s.Bounds.X += x
		s.Bounds.Y += y
		kept = append(kept, s)
	}
	return Observation{Spans: kept}, nil
}

// recognizeWithTimeout runs the engine call in a goroutine so a hung engine
// degrades to an empty result instead of stalling the whole image.
func (e *Extractor) recognizeWithTimeout(ctx context.Context, cell gocv.Mat) ([]Span, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// The engine reads the mat after Extract returns on timeout, so hand it
	// an owned clone.
	owned := cell.Clone()

	type result struct {
		spans []Span
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer owned.Close()
		e.mu.Lock()
		defer e.mu.Unlock()
		spans, err := e.engine.Recognize(owned)
		done <- result{spans, err}
	}()

	select {
	case r := <-done:
		return r.spans, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("recognition timed out: %w", ctx.Err())
	}
}

// NormalizeToken collapses whitespace and folds full-width characters to
// their ASCII forms. Attendance screenshots from CJK apps routinely contain
// full-width digits and colons ("９：００").
func NormalizeToken(s string) string {
	s = width.Narrow.String(s)
	return strings.Join(strings.Fields(s), " ")
}
