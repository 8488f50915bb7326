// autocaption suggests captions for uncaptioned gallery images using
// Gemini, writing them back through the same whole-file metadata
// rewrite the caption editor uses. Requires GOOGLE_AI_API_KEY.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/caption"
	"github.com/tstromberg/gallerize/pkg/gallery"
)

var (
	dryRun = flag.Bool("n", false, "dry-run mode, don't write captions")
	dir    = flag.String("dir", ".", "gallery directory")
	model  = flag.String("model", "gemini-2.5-flash", "model to use")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GOOGLE_AI_API_KEY"),
	})
	if err != nil {
		klog.Exitf("genai client: %v", err)
	}

	g, err := gallery.Load(*dir)
	if err != nil {
		klog.Exitf("load gallery: %v", err)
	}

	updated := 0
	for i := range g.Images {
		img := &g.Images[i]
		if img.Caption != "" {
			continue
		}

		p := filepath.Join(g.Dir, img.Path)
		if img.IsVideo() {
			// Caption the preview still rather than the video itself.
			p = filepath.Join(g.Dir, gallery.AsPreview(img.Path))
		}

		c, err := caption.Suggest(ctx, client, *model, p)
		if err != nil {
			klog.Errorf("suggest for %s: %v", img.Path, err)
			continue
		}

		klog.Infof("caption for %s: %q", img.Path, c)
		img.Caption = c
		updated++
	}

	if *dryRun {
		klog.Infof("dry-run: %d captions suggested, none saved", updated)
		return
	}
	if updated > 0 {
		if err := g.Save(); err != nil {
			klog.Exitf("save: %v", err)
		}
	}
	klog.Infof("saved %d new captions", updated)
}
