// Package probe extracts per-file timestamp and dimension metadata via
// an external tool. The Probe interface keeps the indexer independent
// of the tool so tests can substitute an in-memory implementation.
package probe

import (
	"fmt"

	"github.com/barasher/go-exiftool"
)

// Field keys reported for each file. Date fields use the
// "2006:01:02 15:04:05" layout (possibly followed by a zone offset).
const (
	FieldDateTimeOriginal = "DateTimeOriginal"
	FieldCreateDate       = "CreateDate"
	FieldFileModifyDate   = "FileModifyDate"
	FieldImageWidth       = "ImageWidth"
	FieldImageHeight      = "ImageHeight"
)

var fieldKeys = []string{
	FieldDateTimeOriginal,
	FieldCreateDate,
	FieldFileModifyDate,
	FieldImageWidth,
	FieldImageHeight,
}

// FileInfo is the probe result for one file. Err is set when the tool
// could not read that particular file; the batch as a whole still
// succeeds.
type FileInfo struct {
	Path   string
	Fields map[string]string
	Err    error
}

// Probe reports metadata for a batch of media files.
type Probe interface {
	Extract(paths []string) ([]FileInfo, error)
}

// ExifTool is the exiftool-backed Probe. One exiftool process serves
// the whole batch.
type ExifTool struct {
	et *exiftool.Exiftool
}

// New starts an exiftool process. Failure to start is fatal to the
// indexing run.
func New() (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Close shuts the exiftool process down.
func (p *ExifTool) Close() error {
	return p.et.Close()
}

// Extract reports metadata for each path, in order.
func (p *ExifTool) Extract(paths []string) ([]FileInfo, error) {
	fms := p.et.ExtractMetadata(paths...)

	infos := make([]FileInfo, 0, len(fms))
	for i, fm := range fms {
		info := FileInfo{Path: paths[i], Fields: map[string]string{}}
		if fm.Err != nil {
			info.Err = fm.Err
			infos = append(infos, info)
			continue
		}
		for _, k := range fieldKeys {
			if v, ok := fm.Fields[k]; ok {
				info.Fields[k] = fmt.Sprintf("%v", v)
			}
		}
		infos = append(infos, info)
	}

	return infos, nil
}
