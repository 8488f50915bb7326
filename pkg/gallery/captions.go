package gallery

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

// CaptionsFile is the legacy sidecar consumed at index time, one
// "<path> <caption>" pair per line. When present it supersedes captions
// recovered from an older metadata file.
const CaptionsFile = "captions.txt"

// LoadCaptions returns previously known captions keyed by image path.
// It prefers the captions.txt sidecar; failing that, it recovers
// captions textually from an older metadata file so that re-indexing a
// gallery does not lose them.
func LoadCaptions(dir string) map[string]string {
	captions := map[string]string{}

	f, err := os.Open(filepath.Join(dir, CaptionsFile))
	if err != nil {
		return recoverCaptions(dir)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		path, caption, ok := strings.Cut(sc.Text(), " ")
		if !ok {
			klog.Warningf("skipping malformed caption line %q", sc.Text())
			continue
		}
		captions[path] = caption
	}
	if err := sc.Err(); err != nil {
		klog.Errorf("reading %s: %v", CaptionsFile, err)
	}

	return captions
}

// recoverCaptions scans an old metadata file as text rather than JSON,
// which sidesteps schema versioning: only the path/caption field lines
// are of interest.
func recoverCaptions(dir string) map[string]string {
	captions := map[string]string{}

	f, err := os.Open(filepath.Join(dir, MetadataFile))
	if err != nil {
		return captions
	}
	defer f.Close()

	path := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(l, `"path"`):
			path = fieldValue(l)
		case strings.HasPrefix(l, `"caption"`):
			if path != "" {
				captions[path] = fieldValue(l)
			}
		}
	}

	return captions
}

// fieldValue extracts the quoted value from a `"key": "value"` line.
func fieldValue(line string) string {
	parts := strings.SplitN(line, `"`, 5)
	if len(parts) < 5 {
		return ""
	}
	return parts[3]
}
