package server

import (
	"net/http"

	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/gallery"
)

// editCaption mutates one image's caption. Preconditions, in order,
// each a rejection rather than a crash: the caller is trusted, the
// issued crumb is echoed back, and a caption value is supplied. On
// success the metadata file is rewritten whole and the cache entry is
// invalidated so the next read reloads.
func (s *Server) editCaption(w http.ResponseWriter, r *http.Request, g *gallery.Gallery, leaf string) {
	if !s.trusted(r.RemoteAddr) {
		klog.Warningf("caption edit attempt from untrusted caller %s", r.RemoteAddr)
		http.Error(w, "Not permitted", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	crumb := q.Get("crumb")
	issued := crumbFrom(r)
	if crumb == "" || issued == "" || crumb != issued {
		klog.Warningf("caption edit with missing or mismatched crumb from %s (CSRF attempt?)", r.RemoteAddr)
		http.Error(w, "Not permitted", http.StatusUnauthorized)
		return
	}

	caption, ok := q["caption"]
	if !ok {
		http.Error(w, "Not permitted", http.StatusUnauthorized)
		return
	}

	id, ok := idFromLeaf(leaf)
	if !ok {
		s.decline(w, r)
		return
	}
	idx := id - 1
	if _, ok := g.Image(idx); !ok {
		s.decline(w, r)
		return
	}

	s.editMu.Lock()
	err := gallery.UpdateCaption(g.Dir, idx, caption[0])
	s.editMu.Unlock()

	// Force a lazy reload on the next request so it sees the new
	// caption.
	s.cache.Invalidate(g.Dir)

	if err != nil {
		klog.Errorf("update caption %d in %s: %v", id, g.Dir, err)
		http.Error(w, "Failed to write: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("Ok")) //nolint:errcheck
}
