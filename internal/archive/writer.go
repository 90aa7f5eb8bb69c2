package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/rtjson/core/errors"
)

// Writer builds a compressed tar bundle. Entries carry one fixed mtime so
// that the same documents produce the same bundle.
type Writer struct {
	tw      *tar.Writer
	comp    io.WriteCloser
	file    *os.File
	path    string
	modTime time.Time
}

// NewWriter creates the bundle at path, creating parent directories. The
// compression follows the file name.
func NewWriter(path string, modTime time.Time) (*Writer, error) {
	comp, err := CompressionFor(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewIO("create directory", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create archive", path, err)
	}

	var cw io.WriteCloser
	switch comp {
	case XZ:
		cw, err = xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("xz writer", path, err)
		}
	case Gzip:
		cw = gzip.NewWriter(f)
	}

	return &Writer{
		tw:      tar.NewWriter(cw),
		comp:    cw,
		file:    f,
		path:    path,
		modTime: modTime.UTC().Truncate(time.Second),
	}, nil
}

// AddFile writes one regular file.
func (w *Writer) AddFile(name string, data []byte) error {
	if err := w.tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  w.modTime,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	}); err != nil {
		return errors.NewIO("write header", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return errors.NewIO("write entry", name, err)
	}
	return nil
}

// Close flushes the tar stream, the compressor and the file, in that order.
func (w *Writer) Close() error {
	tarErr := w.tw.Close()
	compErr := w.comp.Close()
	fileErr := w.file.Close()
	for _, err := range []error{tarErr, compErr, fileErr} {
		if err != nil {
			return errors.NewIO("close archive", w.path, err)
		}
	}
	return nil
}
