package gallery

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

func testGallery(dir string) *Gallery {
	return &Gallery{
		Dir: dir,
		Images: []Image{
			{
				Path:      "one.jpg",
				Caption:   "first light",
				Timestamp: time.Date(2023, 1, 15, 14, 30, 22, 0, time.UTC),
				Width:     4000,
				Height:    3000,
				Location:  "Oakland, CA",
			},
			{
				Path:        "clip.mp4",
				Timestamp:   Unresolved,
				Width:       3840,
				Height:      2160,
				VideoScaled: true,
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := testGallery(dir)
	if err := g.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("loaded %d images, want 2", len(got.Images))
	}

	first := got.Images[0]
	if first.Path != "one.jpg" || first.Caption != "first light" || first.Location != "Oakland, CA" {
		t.Errorf("first image fields did not survive: %+v", first)
	}
	if !first.Timestamp.Equal(g.Images[0].Timestamp) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, g.Images[0].Timestamp)
	}
	if !first.Resolved() {
		t.Error("first image should be resolved")
	}

	second := got.Images[1]
	if !second.VideoScaled || !second.IsVideo() {
		t.Errorf("video flags did not survive: %+v", second)
	}
	if second.Resolved() {
		t.Error("sentinel timestamp should stay unresolved through a round trip")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load of an empty dir succeeded, want error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}
}

func TestImageIndex(t *testing.T) {
	g := testGallery(t.TempDir())

	img, ok := g.Image(0)
	if !ok || img.Path != "one.jpg" {
		t.Errorf("Image(0) = %v, %v", img, ok)
	}
	if _, ok := g.Image(2); ok {
		t.Error("Image(2) in a 2-image gallery should be out of range")
	}
	if _, ok := g.Image(-1); ok {
		t.Error("Image(-1) should be out of range")
	}
}

func TestUpdateCaption(t *testing.T) {
	dir := t.TempDir()
	if err := testGallery(dir).Save(); err != nil {
		t.Fatal(err)
	}

	if err := UpdateCaption(dir, 1, "surf session"); err != nil {
		t.Fatalf("UpdateCaption: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Images[1].Caption != "surf session" {
		t.Errorf("caption = %q, want %q", got.Images[1].Caption, "surf session")
	}
	if got.Images[0].Caption != "first light" {
		t.Errorf("neighboring caption changed to %q", got.Images[0].Caption)
	}

	if err := UpdateCaption(dir, 5, "x"); err == nil {
		t.Error("UpdateCaption out of range succeeded, want error")
	}
}

func TestNameHelpers(t *testing.T) {
	if !IsImage("a.JPG") || !IsImage("b.jpeg") || IsImage("c.png") || IsImage("d.mp4") {
		t.Error("IsImage misclassifies")
	}
	if !IsVideo("a.mp4") || !IsVideo("b.MOV") || !IsVideo("c.avi") || IsVideo("d.jpg") {
		t.Error("IsVideo misclassifies")
	}
	if got := AsPreview("clip.mp4"); got != "clip.mp4.preview.jpg" {
		t.Errorf("AsPreview = %q", got)
	}
	if got := AsScaled("clip.mp4"); got != "clip.mp4.scaled.mp4" {
		t.Errorf("AsScaled = %q", got)
	}

	derived := []string{"clip.mp4.preview.jpg", "clip.mp4.scaled.mp4", "thumbnails.jpg", "thumbnails3.jpg"}
	for _, name := range derived {
		if !IsDerived(name) {
			t.Errorf("IsDerived(%q) = false, want true", name)
		}
	}
	source := []string{"one.jpg", "clip.mp4", "thumbnails.png"}
	for _, name := range source {
		if IsDerived(name) {
			t.Errorf("IsDerived(%q) = true, want false", name)
		}
	}
}
