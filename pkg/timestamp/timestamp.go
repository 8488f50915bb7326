// Package timestamp turns probe fields or filename digit runs into a
// single authoritative capture time per image.
package timestamp

import (
	"fmt"
	"strconv"
	"time"
	"unicode"

	"github.com/tstromberg/gallerize/pkg/gallery"
	"github.com/tstromberg/gallerize/pkg/probe"

	"k8s.io/klog/v2"
)

const (
	probeLayout    = "2006:01:02 15:04:05"
	filenameLayout = "20060102150405"
)

// Probe fields in priority order: original capture time, then creation
// time, then file modification time. The first valid value wins.
var sourcePriority = []string{
	probe.FieldDateTimeOriginal,
	probe.FieldCreateDate,
	probe.FieldFileModifyDate,
}

// Resolve determines the capture time for one image. In filename mode
// the name's digit run is the only source and any failure is fatal to
// the run. Otherwise probe fields are tried in priority order; a single
// unparsable field is logged and skipped, and the sentinel is returned
// if no source yields a valid time.
func Resolve(fields map[string]string, name string, preferFilename bool) (time.Time, error) {
	if preferFilename {
		return FromFilename(name)
	}

	for _, k := range sourcePriority {
		v, ok := fields[k]
		if !ok {
			continue
		}
		t, err := parseProbeDate(v)
		if err != nil {
			klog.Warningf("unparsable %s %q for %s: %v (verify photo ordering)", k, v, name, err)
			continue
		}
		return t, nil
	}

	return gallery.Unresolved, nil
}

// parseProbeDate parses a probe date field, ignoring any trailing zone
// offset the tool may append.
func parseProbeDate(v string) (time.Time, error) {
	if len(v) > len(probeLayout) {
		v = v[:len(probeLayout)]
	}
	return time.Parse(probeLayout, v)
}

// Digits returns the longest contiguous run of digits in s, so that
// digits elsewhere in the name (an extension like ".mp4", a copy
// suffix) do not pollute the timestamp run.
func Digits(s string) string {
	longest := ""
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > len(longest) {
			longest = s[start:i]
		}
		start = -1
	}
	if start >= 0 && len(s)-start > len(longest) {
		longest = s[start:]
	}
	return longest
}

// FromFilename derives a capture time from the digit run embedded in a
// filename, which must be exactly 14 digits (YYYYMMDDHHMMSS). If the
// trailing six digits are not a valid clock time they are reinterpreted
// as a seconds counter and re-validated.
func FromFilename(name string) (time.Time, error) {
	digits := Digits(name)
	if len(digits) != 14 {
		return gallery.Unresolved, fmt.Errorf("digit run %q in %q is not YYYYMMDDHHMMSS", digits, name)
	}

	t, err := time.Parse(filenameLayout, digits)
	if err == nil {
		return t, nil
	}

	// Some cameras number shots rather than timestamping them. Treat
	// the trailing digits as whole seconds and re-validate.
	counter, cerr := strconv.Atoi(digits[8:])
	if cerr != nil {
		return gallery.Unresolved, fmt.Errorf("parse time portion of %q: %w", digits, err)
	}
	klog.Infof("treating %d in %q as a counter rather than a time: %v", counter, name, err)

	redone := fmt.Sprintf("%s00%02d%02d", digits[:8], counter/60, counter%60)
	t, err = time.Parse(filenameLayout, redone)
	if err != nil {
		return gallery.Unresolved, fmt.Errorf("parse %q (counter reinterpretation of %q): %w", redone, digits, err)
	}
	return t, nil
}

// NumericKey returns the numeric value of the filename's digit run,
// used for numeric sort mode.
func NumericKey(name string) (uint64, error) {
	digits := Digits(name)
	if digits == "" {
		return 0, fmt.Errorf("no digits in %q", name)
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("numeric sort key for %q: %w", name, err)
	}
	return n, nil
}
