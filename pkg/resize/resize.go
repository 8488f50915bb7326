// Package resize implements aspect-preserving, never-upscaling resize
// math and JPEG re-encoding for photographic content.
package resize

import (
	"fmt"
	"io"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// Quality is the JPEG quality used for re-encoded output.
const Quality = 85

// FitBox returns the dimensions of src scaled uniformly to fit inside
// the box, floor-rounded. The scale is clamped to 1.0: sources smaller
// than the box come back unchanged.
func FitBox(srcW, srcH, boxW, boxH int) (int, int) {
	scale := math.Min(float64(boxW)/float64(srcW), float64(boxH)/float64(srcH))
	if scale > 1.0 {
		scale = 1.0
	}
	return int(math.Floor(float64(srcW) * scale)), int(math.Floor(float64(srcH) * scale))
}

// ScaleToArea returns src dimensions scaled uniformly so the result
// covers at most area pixels, floor-rounded. The bool reports whether
// scaling was needed at all.
func ScaleToArea(srcW, srcH, area int) (int, int, bool) {
	src := srcW * srcH
	if src <= area {
		return srcW, srcH, false
	}
	s := math.Sqrt(float64(area) / float64(src))
	return int(math.Floor(float64(srcW) * s)), int(math.Floor(float64(srcH) * s)), true
}

// File decodes the image at path, resizes it to fit the (w, h) box and
// JPEG-encodes the result to out. A decode failure is fatal for the
// request: it is reported, not retried.
func File(path string, w, h int, out io.Writer) error {
	img, err := imgio.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	b := img.Bounds()
	ow, oh := FitBox(b.Dx(), b.Dy(), w, h)

	// Gaussian keeps downscaled photos smooth.
	rimg := transform.Resize(img, ow, oh, transform.Gaussian)
	if err := imgio.JPEGEncoder(Quality)(out, rimg); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
