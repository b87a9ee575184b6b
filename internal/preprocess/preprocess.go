// Package preprocess normalizes a raw attendance-table photo into a binary
// mask suitable for structural detection.
package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MinStructureContours is the minimum number of line-like contours the mask
// must contain before segmentation is worth attempting. Below this the image
// carries no recognizable table structure.
const MinStructureContours = 4

// QualityError indicates the input image holds too little structure to
// segment. Fatal: the whole image is rejected rather than guessing a table.
type QualityError struct {
	Contours int
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("image unreadable: only %d line-like contours detected (need %d)",
		e.Contours, MinStructureContours)
}

// Run converts a color image to a closed binary mask:
// grayscale, Gaussian blur, Otsu threshold, morphological close.
// Structure is independent of color, so the grid is detected on intensity
// alone; status markers are classified later on the original color pixels.
// The returned mat must be closed by the caller.
func Run(img gocv.Mat) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty input image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	// Blur before thresholding so compression noise doesn't fragment the
	// grid-line contours.
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	// Otsu instead of a fixed constant: scans and screenshots vary in exposure.
	binary := gocv.NewMat()
	gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Closing bridges small thresholding gaps so grid lines form closed contours.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	if n := countLineContours(binary); n < MinStructureContours {
		binary.Close()
		return gocv.NewMat(), &QualityError{Contours: n}
	}

	return binary, nil
}

// countLineContours counts contours long enough to plausibly be grid lines
// or cell borders. Tiny specks don't count toward structure.
func countLineContours(mask gocv.Mat) int {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minSpan := mask.Cols() / 20
	if minSpan < 10 {
		minSpan = 10
	}

	n := 0
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if r.Dx() >= minSpan || r.Dy() >= minSpan {
			n++
		}
	}
	return n
}
