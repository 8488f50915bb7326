// Package server serves browsable galleries: per-directory metadata,
// montage sheets, on-demand resized images, video redirects and
// trusted-caller caption editing. Requests it declines fall through to
// a host-supplied next handler, normally a plain file server over the
// same root.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/gallery"
	"github.com/tstromberg/gallerize/pkg/montage"
	"github.com/tstromberg/gallerize/pkg/resize"
	"github.com/tstromberg/gallerize/pkg/streaming"
)

// crumbCookie carries the anti-forgery token for caption edits.
const crumbCookie = "crumb"

// Options holds the server's collaborators. Zero values get sensible
// defaults from New.
type Options struct {
	// Cache is the shared gallery metadata cache.
	Cache *gallery.Cache
	// Trusted decides whether a caller may see the caption editor and
	// mutate captions. Defaults to Loopback.
	Trusted TrustFunc
	// Next handles requests the dispatcher declines. Defaults to a 404
	// handler; hosts normally pass a file server over the same root.
	Next http.Handler
	// Alloc supplies response buffer segments, for hosts with their own
	// memory pools.
	Alloc streaming.Allocator
}

// Server dispatches gallery requests. All shared mutable state lives in
// the cache; everything else is read-only after New.
type Server struct {
	root    string
	cache   *gallery.Cache
	trusted TrustFunc
	next    http.Handler
	alloc   streaming.Allocator

	// editMu serializes caption writes within this process. Mutations
	// from other processes still race (last writer wins).
	editMu sync.Mutex
}

// New returns a Server rooted at root.
func New(root string, opts Options) *Server {
	s := &Server{
		root:    filepath.Clean(root),
		cache:   opts.Cache,
		trusted: opts.Trusted,
		next:    opts.Next,
		alloc:   opts.Alloc,
	}
	if s.cache == nil {
		s.cache = gallery.NewCache()
	}
	if s.trusted == nil {
		s.trusted = Loopback
	}
	if s.next == nil {
		s.next = http.NotFoundHandler()
	}
	return s
}

// Cache returns the server's gallery cache, for hosts that wire up
// external invalidation.
func (s *Server) Cache() *gallery.Cache {
	return s.cache
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	// Clean drops the trailing slash, but "/summer/" addresses the
	// summer gallery itself, not a "summer" leaf in the parent.
	if p != "/" && strings.HasSuffix(r.URL.Path, "/") {
		p += "/"
	}
	dirPart, leaf := path.Split(p)
	if leaf == "" {
		leaf = "index.html"
	}
	galleryDir := filepath.Join(s.root, filepath.FromSlash(dirPart))

	g, err := s.cache.GetOrLoad(galleryDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "404 Not found", http.StatusNotFound)
			return
		}
		klog.Errorf("load %s: %v", galleryDir, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	klog.V(1).Infof("handling %s %s", r.Method, p)

	if r.Method == http.MethodPost {
		s.editCaption(w, r, g, leaf)
		return
	}

	switch {
	case leaf == "metadata":
		s.serveMetadata(w, g)
	case montage.IsSheetName(leaf):
		s.serveRaw(w, r, g.Dir, leaf)
	case leaf == "edit_caption.js":
		s.serveEditor(w, r, g.Dir)
	case gallery.IsImage(leaf):
		s.serveImage(w, r, g, dirPart, leaf)
	case gallery.IsVideo(leaf):
		s.serveVideo(w, r, g, dirPart, leaf)
	default:
		s.serveRaw(w, r, g.Dir, "index.html")
	}
}

// decline hands the request to the host's default handling.
func (s *Server) decline(w http.ResponseWriter, r *http.Request) {
	s.next.ServeHTTP(w, r)
}

// redirectRaw performs an internal redirect: the request is rewritten
// to the raw asset path and served by the next handler, invisibly to
// the client.
func (s *Server) redirectRaw(w http.ResponseWriter, r *http.Request, dirPart, name string) {
	r2 := r.Clone(r.Context())
	r2.URL.Path = path.Join(dirPart, name)
	klog.V(1).Infof("internal redirect to %s", r2.URL.Path)
	s.next.ServeHTTP(w, r2)
}

// serveImage streams a resized image, or redirects to the raw asset
// when no resize box is requested. Video ids resolve to their preview
// still here.
func (s *Server) serveImage(w http.ResponseWriter, r *http.Request, g *gallery.Gallery, dirPart, leaf string) {
	id, ok := idFromLeaf(leaf)
	if !ok {
		s.decline(w, r)
		return
	}
	img, ok := g.Image(id - 1)
	if !ok {
		s.decline(w, r)
		return
	}

	name := img.Path
	if img.IsVideo() {
		name = gallery.AsPreview(img.Path)
	}

	q := r.URL.Query()
	if q.Get("w") == "" && q.Get("h") == "" {
		s.redirectRaw(w, r, dirPart, name)
		return
	}

	boxW, errW := strconv.Atoi(q.Get("w"))
	boxH, errH := strconv.Atoi(q.Get("h"))
	if errW != nil || errH != nil || boxW <= 0 || boxH <= 0 {
		http.Error(w, "Bad resize parameters", http.StatusBadRequest)
		return
	}

	start := time.Now()
	sink := streaming.NewSink(s.alloc)
	if err := resize.File(filepath.Join(g.Dir, name), boxW, boxH, sink); err != nil {
		klog.Errorf("resize %s: %v", name, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	s.respond(w, r, sink, "image/jpeg")
	klog.V(1).Infof("resized %s to fit %dx%d in %s", name, boxW, boxH, time.Since(start))
}

// serveVideo redirects a video id to its downscaled copy when one was
// generated, else to the raw asset. A request for the downscaled file
// name itself is declined to avoid a redirect loop.
func (s *Server) serveVideo(w http.ResponseWriter, r *http.Request, g *gallery.Gallery, dirPart, leaf string) {
	if strings.HasSuffix(leaf, ".scaled.mp4") {
		s.decline(w, r)
		return
	}
	id, ok := idFromLeaf(leaf)
	if !ok {
		s.decline(w, r)
		return
	}
	img, ok := g.Image(id - 1)
	if !ok {
		s.decline(w, r)
		return
	}

	name := img.Path
	if img.IsVideo() && img.VideoScaled {
		name = gallery.AsScaled(img.Path)
	}
	s.redirectRaw(w, r, dirPart, name)
}

// serveRaw streams a file from the gallery directory through the sink.
func (s *Server) serveRaw(w http.ResponseWriter, r *http.Request, dir, name string) {
	sink := streaming.NewSink(s.alloc)
	if err := streaming.LoadFile(filepath.Join(dir, name), sink); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "404 Not found", http.StatusNotFound)
			return
		}
		klog.Errorf("load %s: %v", name, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	s.respond(w, r, sink, contentType(name))
}

// respond streams the sink to the client, issuing an anti-forgery
// crumb cookie if the caller does not carry one yet.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, sink *streaming.Sink, ct string) {
	if _, err := r.Cookie(crumbCookie); err != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     crumbCookie,
			Value:    uuid.NewString(),
			Path:     "/",
			HttpOnly: true,
		})
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(sink.Len(), 10))
	if _, err := sink.WriteTo(w); err != nil {
		klog.V(1).Infof("client gone: %v", err)
	}
}

// writeScript sends a small generated script or status payload.
func writeScript(w http.ResponseWriter, sink *streaming.Sink, ct string) {
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(sink.Len(), 10))
	sink.WriteTo(w) //nolint:errcheck
}

// idFromLeaf returns the 1-based id encoded in a leaf like "12.jpg" or
// a bare "12". Non-numeric leaves report false so the request can be
// declined instead of failing.
func idFromLeaf(leaf string) (int, bool) {
	digits, _, _ := strings.Cut(leaf, ".")
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return id, true
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".html":
		return "text/html"
	case ".js":
		return "application/javascript"
	default:
		return "application/octet-stream"
	}
}

// crumbFrom returns the caller's crumb cookie value, or "".
func crumbFrom(r *http.Request) string {
	c, err := r.Cookie(crumbCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// serveEditor streams the caption editor script personalized with the
// caller's crumb. Untrusted callers receive an empty payload rather
// than an error.
func (s *Server) serveEditor(w http.ResponseWriter, r *http.Request, dir string) {
	sink := streaming.NewSink(s.alloc)

	if !s.trusted(r.RemoteAddr) {
		fmt.Fprint(sink, "{}")
		writeScript(w, sink, "application/javascript")
		return
	}

	js, err := os.ReadFile(filepath.Join(dir, "edit_caption.js"))
	if err != nil {
		http.Error(w, "404 Not found", http.StatusNotFound)
		return
	}
	fmt.Fprintf(sink, "const crumb = %q;\n\n", crumbFrom(r))
	sink.Write(js) //nolint:errcheck
	writeScript(w, sink, "application/javascript")
}
