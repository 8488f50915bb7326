// gallerize serves browsable galleries over HTTP: metadata, montage
// sheets, on-demand resized images and trusted-caller caption editing.
// Anything the gallery dispatcher declines falls through to a plain
// file server over the same root.
package main

import (
	"flag"
	"net/http"

	_ "image/jpeg"
	_ "image/png"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"github.com/tstromberg/gallerize/pkg/server"
)

var configPath = flag.String("config", "", "path to YAML config file")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	files := http.FileServer(http.Dir(cfg.Root))
	srv := server.New(cfg.Root, server.Options{Next: files})

	if cfg.Watch {
		w, err := server.WatchRoot(cfg.Root, srv.Cache())
		if err != nil {
			klog.Exitf("watch failed: %v", err)
		}
		defer w.Close()
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(srv)

	klog.Infof("listening on %s, serving %s", cfg.ListenAddr, cfg.Root)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}
