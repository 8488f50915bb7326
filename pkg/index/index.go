// Package index builds the persisted metadata and derived assets for
// one gallery directory in a single batch run.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/ffmpeg"
	"github.com/tstromberg/gallerize/pkg/gallery"
	"github.com/tstromberg/gallerize/pkg/montage"
	"github.com/tstromberg/gallerize/pkg/probe"
	"github.com/tstromberg/gallerize/pkg/timestamp"
)

// Options configures one indexing run.
type Options struct {
	// Dir is the gallery directory to index.
	Dir string
	// PreferFilenameDates derives timestamps from filename digit runs
	// instead of probe fields. A malformed filename date aborts the run.
	PreferFilenameDates bool
	// NumericSort orders the gallery by the numeric value of each
	// filename's digit run instead of by resolved timestamp.
	NumericSort bool

	Probe      probe.Probe
	Transcoder ffmpeg.Transcoder
}

// Build indexes a directory of media into an ordered gallery: it probes
// every qualifying file, carries captions over, resolves timestamps,
// sorts, generates the montage sheets and video derivatives, and
// persists the metadata file and viewer assets.
func Build(opts Options) (*gallery.Gallery, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	klog.Infof("indexing %s", dir)

	paths, err := discover(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	klog.Infof("found %d media files", len(paths))

	captions := gallery.LoadCaptions(dir)

	infos, err := opts.Probe.Extract(paths)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	images := make([]gallery.Image, 0, len(infos))
	for _, fi := range infos {
		base := filepath.Base(fi.Path)
		if fi.Err != nil {
			klog.Errorf("probe %s: %v", base, fi.Err)
			continue
		}

		img := gallery.Image{
			Path:      base,
			Caption:   captions[base],
			Timestamp: gallery.Unresolved,
			Width:     dimension(fi.Fields[probe.FieldImageWidth]),
			Height:    dimension(fi.Fields[probe.FieldImageHeight]),
		}

		ts, err := timestamp.Resolve(fi.Fields, base, opts.PreferFilenameDates)
		if err != nil {
			return nil, fmt.Errorf("resolve timestamp for %s: %w", base, err)
		}
		img.Timestamp = ts

		images = append(images, img)
	}

	if err := sortImages(images, opts.NumericSort); err != nil {
		return nil, err
	}

	g := &gallery.Gallery{Dir: dir, Images: images}

	b := montage.NewBuilder(dir, opts.Transcoder)
	if err := b.Build(g.Images); err != nil {
		return nil, fmt.Errorf("montage: %w", err)
	}
	b.DownscaleVideos(g.Images)

	if err := g.Save(); err != nil {
		return nil, err
	}
	if err := installAssets(dir); err != nil {
		return nil, err
	}

	klog.Infof("indexed %d images into %s", len(g.Images), dir)
	return g, nil
}

// discover lists qualifying media files in dir, deleting stale derived
// artifacts from earlier runs instead of indexing them. Galleries are
// flat: subdirectories are not descended into.
func discover(dir string) ([]string, error) {
	found := []string{}

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == dir {
				return nil
			}
			if de.IsDir() {
				return godirwalk.SkipThis
			}

			name := de.Name()
			if name[0] == '.' {
				return nil
			}
			if gallery.IsDerived(name) {
				klog.Infof("removing stale artifact %s", name)
				return os.Remove(path)
			}
			if gallery.IsImage(name) || gallery.IsVideo(name) {
				found = append(found, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// sortImages orders the gallery by resolved timestamp, or by the
// numeric value of the filename digit run in numeric mode.
func sortImages(images []gallery.Image, numeric bool) error {
	if !numeric {
		sort.SliceStable(images, func(i, j int) bool {
			return images[i].Timestamp.Before(images[j].Timestamp)
		})
		return nil
	}

	keys := make(map[string]uint64, len(images))
	for _, img := range images {
		k, err := timestamp.NumericKey(img.Path)
		if err != nil {
			return err
		}
		keys[img.Path] = k
	}
	sort.SliceStable(images, func(i, j int) bool {
		return keys[images[i].Path] < keys[images[j].Path]
	})
	return nil
}

// dimension parses a probe pixel dimension, tolerating a fractional
// rendering of a whole number. Unknown stays 0.
func dimension(v string) int {
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		klog.Warningf("unparsable dimension %q", v)
		return 0
	}
	return int(f)
}
