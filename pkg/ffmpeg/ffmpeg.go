// Package ffmpeg shells out to ffmpeg/ffprobe for frame extraction,
// video downscaling and codec detection. The Transcoder interface keeps
// callers testable without the tools installed.
package ffmpeg

import (
	"fmt"
	"os/exec"
	"strings"
)

// Transcoder is the capability surface the indexer needs from an
// external transcoding utility.
type Transcoder interface {
	// ExtractFrame writes the frame at the 1-second mark of src to dst
	// as a JPEG.
	ExtractFrame(src, dst string) error
	// Downscale re-encodes src as a browser-safe, width-capped MP4 at
	// dst. Audio is copied unchanged.
	Downscale(src, dst string) error
	// Codec reports the raw codec description of the first video
	// stream of src.
	Codec(src string) (string, error)
}

// CLI runs the real ffmpeg and ffprobe binaries.
type CLI struct{}

// ExtractFrame implements Transcoder.
func (CLI) ExtractFrame(src, dst string) error {
	return run("ffmpeg", "-y", "-i", src,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-update", "true", dst)
}

// Downscale implements Transcoder. 1920 is wide enough for normal
// screens; libx264 because hevc/mjpeg playback is spotty in browsers.
func (CLI) Downscale(src, dst string) error {
	return run("ffmpeg", "-y", "-i", src,
		"-vf", "scale=1920:-2",
		"-c:a", "copy",
		"-c:v", "libx264",
		"-f", "mp4", dst)
}

// Codec implements Transcoder. The output contains a line of the form
// "codec_name=h264".
func (CLI) Codec(src string) (string, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name", src).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffprobe %s: %w: %s", src, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// run executes a command, folding its combined output into the error on
// failure so the offending file is attributable in diagnostics.
func run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
