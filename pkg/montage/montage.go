// Package montage packs fixed-size square thumbnails into vertically
// stacked sheet images, and generates the per-video preview stills and
// downscaled serving copies.
package montage

import (
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/ffmpeg"
	"github.com/tstromberg/gallerize/pkg/gallery"
	"github.com/tstromberg/gallerize/pkg/resize"
)

const (
	// ThumbSize is the edge length of one montage thumbnail.
	ThumbSize = 100

	// maxSheetRows is the JPEG hard cap of 2^16 rows per image.
	maxSheetRows = 1 << 16

	// MaxPerSheet is how many thumbnails fit in one sheet.
	MaxPerSheet = maxSheetRows / ThumbSize

	// previewArea bounds the video preview still to roughly one screen.
	previewArea = 1920 * 1080

	// maxVideoWidth is the ceiling above which videos get a downscaled
	// serving copy.
	maxVideoWidth = 1920
)

var sheetRE = regexp.MustCompile(`^thumbnails[0-9]*\.jpg$`)

// SheetName returns the filename of sheet k: "thumbnails.jpg",
// "thumbnails1.jpg", ...
func SheetName(k int) string {
	if k == 0 {
		return "thumbnails.jpg"
	}
	return "thumbnails" + strconv.Itoa(k) + ".jpg"
}

// IsSheetName reports whether name is a montage sheet filename.
func IsSheetName(name string) bool {
	return sheetRE.MatchString(name)
}

// SheetCount returns how many sheets cover n images.
func SheetCount(n int) int {
	return (n + MaxPerSheet - 1) / MaxPerSheet
}

// Locate returns the sheet number and local offset of the image at the
// given 0-based global index.
func Locate(global int) (sheet, offset int) {
	return global / MaxPerSheet, global % MaxPerSheet
}

// Builder generates the derived assets for one gallery directory.
type Builder struct {
	dir   string
	trans ffmpeg.Transcoder
}

// NewBuilder returns a Builder writing into dir.
func NewBuilder(dir string, trans ffmpeg.Transcoder) *Builder {
	return &Builder{dir: dir, trans: trans}
}

// Build writes the montage sheets covering images in index order, plus
// a preview still per video. A failed thumbnail leaves its slot blank
// rather than aborting the sheet.
func (b *Builder) Build(images []gallery.Image) error {
	if len(images) == 0 {
		return nil
	}

	frame, err := os.CreateTemp("", "gallerize-frame-*.jpg")
	if err != nil {
		return err
	}
	frame.Close()
	defer os.Remove(frame.Name())

	for k := 0; k < SheetCount(len(images)); k++ {
		if err := b.buildSheet(images, k, frame.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildSheet(images []gallery.Image, k int, framePath string) error {
	start := k * MaxPerSheet
	end := start + MaxPerSheet
	if end > len(images) {
		end = len(images)
	}

	sheet := image.NewRGBA(image.Rect(0, 0, ThumbSize, ThumbSize*(end-start)))
	for i := start; i < end; i++ {
		img := &images[i]
		klog.Infof("making thumbnail for %s", img.Path)

		src, err := b.thumbSource(img, framePath)
		if err != nil {
			klog.Errorf("thumbnail for %s: %v", img.Path, err)
			continue
		}

		tn := imaging.Fill(src, ThumbSize, ThumbSize, imaging.Center, imaging.Lanczos)
		y := (i - start) * ThumbSize
		draw.Draw(sheet, image.Rect(0, y, ThumbSize, y+ThumbSize), tn, image.Point{}, draw.Src)
	}

	return imgio.Save(filepath.Join(b.dir, SheetName(k)), sheet, imgio.JPEGEncoder(resize.Quality))
}

// thumbSource decodes the thumbnail source for one image: the file
// itself for stills, an extracted frame for videos. Extracting a video
// frame also writes that video's preview still as a side effect.
func (b *Builder) thumbSource(img *gallery.Image, framePath string) (image.Image, error) {
	p := filepath.Join(b.dir, img.Path)
	if !img.IsVideo() {
		return imgio.Open(p)
	}

	if err := b.trans.ExtractFrame(p, framePath); err != nil {
		return nil, err
	}
	src, err := imgio.Open(framePath)
	if err != nil {
		return nil, err
	}

	if err := b.writePreview(img, framePath); err != nil {
		klog.Errorf("preview for %s: %v", img.Path, err)
	}
	return src, nil
}

// writePreview stores the extracted frame as the video's preview still,
// downscaled when the source exceeds the preview area bound.
func (b *Builder) writePreview(img *gallery.Image, framePath string) error {
	dst := filepath.Join(b.dir, gallery.AsPreview(img.Path))

	w, h, needed := resize.ScaleToArea(img.Width, img.Height, previewArea)
	if !needed {
		return copy.Copy(framePath, dst)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	return resize.File(framePath, w, h, f)
}

// DownscaleVideos produces a capped-width serving copy for videos that
// browsers handle poorly. VideoScaled is only set once the copy exists,
// so a failed transcode leaves the video serving its original rather
// than redirecting to a file that was never written. The failure is
// logged and the next video proceeds.
func (b *Builder) DownscaleVideos(images []gallery.Image) {
	for i := range images {
		img := &images[i]
		if !img.IsVideo() || !b.needsScaling(img) {
			continue
		}

		klog.Infof("downscaling %s", img.Path)
		src := filepath.Join(b.dir, img.Path)
		if err := b.trans.Downscale(src, filepath.Join(b.dir, gallery.AsScaled(img.Path))); err != nil {
			klog.Errorf("downscale %s: %v", img.Path, err)
			continue
		}
		img.VideoScaled = true
	}
}

// needsScaling reports whether a video needs a downscaled copy: its
// codec is one browsers render poorly, or it is wider than common
// screens.
func (b *Builder) needsScaling(img *gallery.Image) bool {
	codec, err := b.trans.Codec(filepath.Join(b.dir, img.Path))
	if err != nil {
		klog.Errorf("codec of %s: %v", img.Path, err)
		return false
	}
	if strings.Contains(codec, "codec_name=hevc") || strings.Contains(codec, "codec_name=mjpeg") {
		return true
	}
	return img.Width > maxVideoWidth
}
