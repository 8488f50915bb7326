package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/gallery"
	"github.com/tstromberg/gallerize/pkg/streaming"
)

// displayEntry is the per-image shape embedded into the viewer page.
type displayEntry struct {
	Date     string `json:"date"`
	Caption  string `json:"caption"`
	Video    bool   `json:"video"`
	Location string `json:"location"`
}

// serveMetadata emits the gallery's display fields as a script the
// viewer page can include directly.
func (s *Server) serveMetadata(w http.ResponseWriter, g *gallery.Gallery) {
	entries := make([]displayEntry, 0, len(g.Images))
	for i := range g.Images {
		img := &g.Images[i]
		entries = append(entries, displayEntry{
			Date:     img.Timestamp.Format("01/02/2006"),
			Caption:  img.Caption,
			Video:    img.IsVideo(),
			Location: img.Location,
		})
	}

	bs, err := json.Marshal(entries)
	if err != nil {
		klog.Errorf("marshal metadata for %s: %v", g.Dir, err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	sink := streaming.NewSink(s.alloc)
	fmt.Fprintf(sink, "const metadata = %s;", bs)
	writeScript(w, sink, "application/javascript")
}
