// Package gallery defines the persisted metadata model for a media
// directory: an ordered list of images plus helpers for the derived
// artifact naming scheme.
package gallery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MetadataFile is the name of the persisted metadata file inside a
// gallery directory.
const MetadataFile = "metadata"

// Unresolved is the sentinel timestamp for images whose capture time
// has not been determined yet.
var Unresolved = time.Unix(0, 0).UTC()

// Image is the metadata for a single media item. The order of images
// within a gallery is significant: index i is addressed externally as
// id i+1, and determines the image's slot in the montage sheets.
type Image struct {
	Path        string    `json:"path"`
	Caption     string    `json:"caption"`
	Timestamp   time.Time `json:"timestamp"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	VideoScaled bool      `json:"is_video_downscaled"`
	Location    string    `json:"location,omitempty"`
}

// Resolved reports whether the image's timestamp has been set to a real
// capture time rather than the epoch sentinel.
func (i *Image) Resolved() bool {
	return !i.Timestamp.Equal(Unresolved)
}

// IsVideo reports whether the image record refers to a video file.
func (i *Image) IsVideo() bool {
	return IsVideo(i.Path)
}

// Gallery is one directory of media and its ordered metadata.
type Gallery struct {
	Dir    string
	Images []Image
}

// Image returns the image at the given 0-based index, or false if the
// index is out of range.
func (g *Gallery) Image(idx int) (*Image, bool) {
	if idx < 0 || idx >= len(g.Images) {
		return nil, false
	}
	return &g.Images[idx], true
}

// Load reads the persisted metadata file for dir. A missing file is
// reported as an error wrapping fs.ErrNotExist so callers can turn it
// into a not-found response.
func Load(dir string) (*Gallery, error) {
	p := filepath.Join(dir, MetadataFile)
	bs, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var images []Image
	if err := json.Unmarshal(bs, &images); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", p, err)
	}

	return &Gallery{Dir: dir, Images: images}, nil
}

// Save rewrites the whole metadata file for the gallery.
func (g *Gallery) Save() error {
	bs, err := json.MarshalIndent(g.Images, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	p := filepath.Join(g.Dir, MetadataFile)
	if err := os.WriteFile(p, bs, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// UpdateCaption sets the caption of the image at the given 0-based
// index and rewrites the metadata file. The load-modify-rewrite is
// whole-file: a failed write leaves no partial mutation visible.
func UpdateCaption(dir string, idx int, caption string) error {
	g, err := Load(dir)
	if err != nil {
		return err
	}

	img, ok := g.Image(idx)
	if !ok {
		return fmt.Errorf("image %d out of range (gallery has %d)", idx, len(g.Images))
	}
	img.Caption = caption

	return g.Save()
}

// IsImage reports whether name has a recognized still image extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// IsVideo reports whether name has a recognized video extension.
func IsVideo(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".avi":
		return true
	}
	return false
}

// AsPreview returns the name of the still-frame preview generated for a
// video file.
func AsPreview(name string) string {
	return name + ".preview.jpg"
}

// AsScaled returns the name of the downscaled serving copy generated
// for a video file.
func AsScaled(name string) string {
	return name + ".scaled.mp4"
}

// IsDerived reports whether name is a generated artifact (montage
// sheet, video preview or downscaled copy) rather than source media.
func IsDerived(name string) bool {
	if strings.HasSuffix(name, ".preview.jpg") || strings.HasSuffix(name, ".scaled.mp4") {
		return true
	}
	return strings.HasPrefix(name, "thumbnails") && strings.HasSuffix(name, ".jpg")
}
