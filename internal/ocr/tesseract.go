package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"attendance-scanner/pkg/geometry"
)

// Engine provides text recognition using Tesseract. It implements Recognizer
// and is an explicitly owned resource: construct at pipeline start, Close on
// completion or fatal error.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a Tesseract-backed engine. accelerated selects the LSTM
// engine mode; the legacy engine is used otherwise. languages are tried in
// priority order (e.g. "chi_sim", "eng").
func NewEngine(accelerated bool, languages ...string) (*Engine, error) {
	client := gosseract.NewClient()

	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	mode := "0" // legacy engine
	if accelerated {
		mode = "1" // LSTM
	}
	_ = client.SetVariable("tessedit_ocr_engine_mode", mode)

	// Attendance cells hold digits, times, and short date labels; dictionary
	// correction only mangles them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize performs OCR over a cell image and returns word-level spans.
func (e *Engine) Recognize(img gocv.Mat) ([]Span, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	processed := prepareForOCR(img)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	// PSM 6: a cell is a single uniform block of text.
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	var spans []Span
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		spans = append(spans, Span{
			Text:       text,
			Confidence: box.Confidence / 100.0, // Tesseract reports 0-100
			Bounds: geometry.RectInt{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
		})
	}
	return spans, nil
}

// prepareForOCR upscales small cells, equalizes contrast, and binarizes so
// the engine sees dark text on a light background.
func prepareForOCR(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	// Upscale small cells (target ~150px minimum dimension).
	var scaled gocv.Mat
	minDim := h
	if w < minDim {
		minDim = w
	}
	if minDim > 0 && minDim < 150 {
		scale := 150.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Invert light-on-dark cells; the engine expects dark text.
	whiteCount := gocv.CountNonZero(binary)
	totalPixels := binary.Rows() * binary.Cols()
	if totalPixels > 0 && float64(whiteCount)/float64(totalPixels) < 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()

	return result
}
