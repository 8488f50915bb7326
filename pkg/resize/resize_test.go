package resize

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"

	_ "image/jpeg"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	if err := imgio.Save(path, img, imgio.JPEGEncoder(90)); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		boxW, boxH   int
		wantW, wantH int
	}{
		{"smaller than box stays put", 800, 600, 1920, 1080, 800, 600},
		{"downscale to box height", 4000, 3000, 1920, 1080, 1440, 1080},
		{"downscale to box width", 4000, 1000, 1920, 1080, 1920, 480},
		{"exact fit", 1920, 1080, 1920, 1080, 1920, 1080},
		{"floor rounding", 1001, 1001, 500, 500, 500, 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := FitBox(tc.srcW, tc.srcH, tc.boxW, tc.boxH)
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("FitBox(%d, %d, %d, %d) = %dx%d, want %dx%d",
					tc.srcW, tc.srcH, tc.boxW, tc.boxH, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestScaleToArea(t *testing.T) {
	// 4K covers 4x the full-HD area, so both edges halve.
	w, h, scaled := ScaleToArea(3840, 2160, 1920*1080)
	if !scaled {
		t.Error("ScaleToArea(3840, 2160) reported no scaling")
	}
	if w != 1920 || h != 1080 {
		t.Errorf("got %dx%d, want 1920x1080", w, h)
	}

	w, h, scaled = ScaleToArea(1280, 720, 1920*1080)
	if scaled {
		t.Error("ScaleToArea(1280, 720) reported scaling for a small source")
	}
	if w != 1280 || h != 720 {
		t.Errorf("got %dx%d, want 1280x720", w, h)
	}
}

func TestFileNeverUpscales(t *testing.T) {
	p := filepath.Join(t.TempDir(), "small.jpg")
	writeJPEG(t, p, 80, 60)

	var buf bytes.Buffer
	if err := File(p, 200, 200, &buf); err != nil {
		t.Fatalf("File: %v", err)
	}

	cfg, _, err := image.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 80 || cfg.Height != 60 {
		t.Errorf("got %dx%d, want the original 80x60", cfg.Width, cfg.Height)
	}
}

func TestFileDownscales(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.jpg")
	writeJPEG(t, p, 400, 300)

	var buf bytes.Buffer
	if err := File(p, 192, 108, &buf); err != nil {
		t.Fatalf("File: %v", err)
	}

	cfg, _, err := image.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 144 || cfg.Height != 108 {
		t.Errorf("got %dx%d, want 144x108", cfg.Width, cfg.Height)
	}
}

func TestFileDecodeFailure(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notanimage.jpg")
	if err := os.WriteFile(p, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := File(p, 100, 100, &buf); err == nil {
		t.Error("File on a non-image succeeded, want error")
	}
}
