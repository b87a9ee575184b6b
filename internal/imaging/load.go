// Package imaging provides raster image loading and conversion to OpenCV mats.
package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Load reads an image file and returns both the decoded Go image and a BGR
// mat of the same pixels. The mat must be closed by the caller.
func Load(path string) (image.Image, gocv.Mat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, gocv.NewMat(), fmt.Errorf("image file not found: %w", err)
	}
	if info.Size() == 0 {
		return nil, gocv.NewMat(), fmt.Errorf("image file is empty: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, gocv.NewMat(), err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, gocv.NewMat(), fmt.Errorf("failed to decode %s: %w", path, err)
	}

	mat, err := ToMat(img)
	if err != nil {
		return nil, gocv.NewMat(), err
	}
	return img, mat, nil
}

// ToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("zero-sized image")
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}

// SubImage returns the part of img inside r. The original pixels are shared.
func SubImage(img image.Image, r image.Rectangle) image.Image {
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	r = r.Intersect(img.Bounds())
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	// Fallback copy for decoders without SubImage support.
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			out.Set(x, y, img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return out
}
