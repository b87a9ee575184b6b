// Package dot classifies the status marker inside a table cell by color.
package dot

import (
	"image"
	"math"

	"attendance-scanner/pkg/colorutil"
)

// Color identifies the status-marker color of a cell.
type Color int

const (
	ColorNone Color = iota
	ColorGreen
	ColorGray
)

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorGray:
		return "gray"
	default:
		return "none"
	}
}

// Observation is the classification result for one cell. Color ColorNone
// always means Present is false.
type Observation struct {
	Present    bool    `json:"present"`
	Color      Color   `json:"color"`
	Confidence float64 `json:"confidence"`
}

// Options configures marker classification.
type Options struct {
	// MinDotArea is the minimum pixel mass a marker must have. Below it the
	// cell is confidently absent, not a failure.
	MinDotArea int

	// CircularityThreshold is the minimum 4πA/P² a marker blob must reach.
	// Elongated colored blobs (highlighted text, underlines) fall well below
	// it and are rejected. Zero disables the check.
	CircularityThreshold float64
}

// DefaultOptions returns classification defaults.
func DefaultOptions() Options {
	return Options{MinDotArea: 10, CircularityThreshold: 0.7}
}

// HSV bands for the two known marker colors (OpenCV ranges: H 0-180,
// S 0-255, V 0-255). The upper V bound on gray keeps white cell background
// out of the gray band; the lower bounds keep dark text strokes out of both.
const (
	greenHueMin = 35
	greenHueMax = 85
	greenSatMin = 50
	greenValMin = 50

	graySatMax = 50
	grayValMin = 50
	grayValMax = 200
)

// Classify inspects the color pixels of one cell and determines presence,
// color, and confidence of its status marker. It operates on the original
// color image, not the binary mask, since color is the discriminant.
//
// The dominant non-background color is sampled within a circular region at
// the cell's expected marker position (the cell center), then the winning
// blob must pass a circularity check so that only dot-shaped masses count
// as markers. Confidence is the fraction of sampled marker pixels agreeing
// with the winning color.
func Classify(cell image.Image, opts Options) Observation {
	bounds := cell.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Observation{Present: false, Color: ColorNone, Confidence: 1.0}
	}

	cx := bounds.Min.X + w/2
	cy := bounds.Min.Y + h/2
	radius := minInt(w, h) * 2 / 5
	if radius < 1 {
		radius = 1
	}

	size := 2*radius + 1
	greenMask := make([]bool, size*size)
	grayMask := make([]bool, size*size)

	var green, gray int
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			hue, sat, val := colorutil.HSVAt(cell.At(x, y))
			idx := (dy+radius)*size + (dx + radius)
			switch {
			case hue >= greenHueMin && hue <= greenHueMax && sat >= greenSatMin && val >= greenValMin:
				green++
				greenMask[idx] = true
			case sat <= graySatMax && val >= grayValMin && val <= grayValMax:
				gray++
				grayMask[idx] = true
			}
		}
	}

	winner, color, mask := green, ColorGreen, greenMask
	if gray > green {
		winner, color, mask = gray, ColorGray, grayMask
	}

	if winner < opts.MinDotArea {
		// No pixel mass: confidently absent.
		return Observation{Present: false, Color: ColorNone, Confidence: 1.0}
	}
	if opts.CircularityThreshold > 0 && circularity(mask, size) < opts.CircularityThreshold {
		// Right color, wrong shape: not a marker.
		return Observation{Present: false, Color: ColorNone, Confidence: 1.0}
	}

	return Observation{
		Present:    true,
		Color:      color,
		Confidence: float64(winner) / float64(green+gray),
	}
}

// circularity measures 4πA/P² over the marker pixels, approximating the
// perimeter by the count of boundary pixels. A disc scores near 1, a thin
// bar far below.
func circularity(mask []bool, size int) float64 {
	at := func(x, y int) bool {
		return x >= 0 && x < size && y >= 0 && y < size && mask[y*size+x]
	}

	area, perimeter := 0, 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !mask[y*size+x] {
				continue
			}
			area++
			if !at(x-1, y) || !at(x+1, y) || !at(x, y-1) || !at(x, y+1) {
				perimeter++
			}
		}
	}
	if perimeter == 0 {
		return 1
	}

	c := 4 * math.Pi * float64(area) / float64(perimeter*perimeter)
	if c > 1 {
		c = 1
	}
	return c
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
