package gallery

import (
	"sync"
	"testing"
)

func TestCacheGetOrLoad(t *testing.T) {
	dir := t.TempDir()
	if err := testGallery(dir).Save(); err != nil {
		t.Fatal(err)
	}

	c := NewCache()
	g, err := c.GetOrLoad(dir)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}

	// Mutate the file behind the cache's back: the stale entry is
	// served until an explicit invalidation.
	if err := UpdateCaption(dir, 0, "rewritten"); err != nil {
		t.Fatal(err)
	}

	again, err := c.GetOrLoad(dir)
	if err != nil {
		t.Fatal(err)
	}
	if again != g {
		t.Error("second GetOrLoad returned a different instance")
	}
	if again.Images[0].Caption != "first light" {
		t.Errorf("cached caption = %q, want the pre-mutation value", again.Images[0].Caption)
	}

	c.Invalidate(dir)
	fresh, err := c.GetOrLoad(dir)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Images[0].Caption != "rewritten" {
		t.Errorf("post-invalidate caption = %q, want %q", fresh.Images[0].Caption, "rewritten")
	}
}

func TestCacheMissingDir(t *testing.T) {
	c := NewCache()
	if _, err := c.GetOrLoad(t.TempDir()); err == nil {
		t.Error("GetOrLoad without a metadata file succeeded, want error")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testGallery(dir).Save(); err != nil {
		t.Fatal(err)
	}

	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.GetOrLoad(dir); err != nil {
					t.Errorf("GetOrLoad: %v", err)
					return
				}
				if j%10 == 0 {
					c.Invalidate(dir)
				}
			}
		}()
	}
	wg.Wait()
}
