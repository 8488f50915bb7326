// make-gallery indexes a directory of photos and videos into a
// browsable gallery: a persisted metadata file, montage thumbnail
// sheets, video previews and downscaled serving copies.
package main

import (
	"flag"

	_ "image/jpeg"
	_ "image/png"

	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/ffmpeg"
	"github.com/tstromberg/gallerize/pkg/index"
	"github.com/tstromberg/gallerize/pkg/probe"
)

var (
	dir     = flag.String("dir", ".", "gallery directory to index")
	fnDates = flag.Bool("d", false, "derive dates from filename digits (YYYYMMDDHHMMSS) rather than probe fields")
	numSort = flag.Bool("n", false, "sort by the numeric value of filename digits rather than by date")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	p, err := probe.New()
	if err != nil {
		klog.Exitf("probe failed: %v", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			klog.Errorf("close probe: %v", err)
		}
	}()

	g, err := index.Build(index.Options{
		Dir:                 *dir,
		PreferFilenameDates: *fnDates,
		NumericSort:         *numSort,
		Probe:               p,
		Transcoder:          ffmpeg.CLI{},
	})
	if err != nil {
		klog.Exitf("index failed: %v", err)
	}

	klog.Infof("done: %d images", len(g.Images))
}
