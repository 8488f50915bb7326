package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tstromberg/gallerize/pkg/gallery"
)

func TestWatchInvalidatesOnMetadataWrite(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "trip")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	g := &gallery.Gallery{Dir: dir, Images: []gallery.Image{{Path: "a.jpg", Caption: "before"}}}
	if err := g.Save(); err != nil {
		t.Fatal(err)
	}

	cache := gallery.NewCache()
	if _, err := cache.GetOrLoad(dir); err != nil {
		t.Fatal(err)
	}

	w, err := WatchRoot(root, cache)
	if err != nil {
		t.Fatalf("WatchRoot: %v", err)
	}
	defer w.Close()

	if err := gallery.UpdateCaption(dir, 0, "after"); err != nil {
		t.Fatal(err)
	}

	// The invalidation is asynchronous; poll until the cache reloads.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := cache.GetOrLoad(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got.Images[0].Caption == "after" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache still serves %q after metadata rewrite", got.Images[0].Caption)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
