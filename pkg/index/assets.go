package index

import (
	_ "embed"
	"os"
	"path/filepath"
)

//go:embed assets/index.html
var indexHTML []byte

//go:embed assets/edit_caption.js
var editCaptionJS []byte

// installAssets writes the embedded viewer page and caption editor
// script into the gallery directory so the server can stream them.
func installAssets(dir string) error {
	if err := os.WriteFile(filepath.Join(dir, "index.html"), indexHTML, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "edit_caption.js"), editCaptionJS, 0o644)
}
