package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/gallery"
)

// Watcher invalidates cache entries when a gallery's metadata file is
// rewritten outside the server, e.g. by re-running make-gallery.
type Watcher struct {
	w     *fsnotify.Watcher
	cache *gallery.Cache
}

// WatchRoot watches root and all its subdirectories for metadata file
// changes. Close releases the watcher.
func WatchRoot(root string, cache *gallery.Cache) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}

	dirs := 0
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if err := w.Add(path); err != nil {
				return err
			}
			dirs++
			return nil
		},
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	klog.Infof("watching %d dirs under %s", dirs, root)

	wa := &Watcher{w: w, cache: cache}
	go wa.loop()
	return wa, nil
}

func (wa *Watcher) loop() {
	for {
		select {
		case ev, ok := <-wa.w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != gallery.MetadataFile {
				// New subdirectories become galleries later; watch them.
				if ev.Has(fsnotify.Create) {
					if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
						wa.w.Add(ev.Name) //nolint:errcheck
					}
				}
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				dir := filepath.Dir(ev.Name)
				klog.Infof("metadata changed, invalidating %s", dir)
				wa.cache.Invalidate(dir)
			}
		case err, ok := <-wa.w.Errors:
			if !ok {
				return
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// Close stops the watcher.
func (wa *Watcher) Close() error {
	return wa.w.Close()
}
