// Package validation checks user-supplied paths and source documents before
// they reach the parsers.
package validation

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/rtjson/core/errors"
)

// MaxPathLength is the maximum allowed path length.
const MaxPathLength = 4096

// sniffLen is how much of a source is inspected for binary content.
const sniffLen = 512

// ValidatePath rejects empty, oversized and control-character paths.
func ValidatePath(path string) error {
	if path == "" {
		return errors.NewValidation("path", "cannot be empty")
	}
	if len(path) > MaxPathLength {
		return errors.NewValidation("path", fmt.Sprintf("longer than %d bytes", MaxPathLength))
	}
	if strings.IndexFunc(path, unicode.IsControl) >= 0 {
		return errors.NewValidation("path", "control character not allowed")
	}
	return nil
}

// BinaryKind names a binary format recognised by its magic bytes.
type BinaryKind string

const (
	BinaryNone   BinaryKind = ""
	BinaryXZ     BinaryKind = "xz"
	BinaryGzip   BinaryKind = "gzip"
	BinaryZip    BinaryKind = "zip"
	BinaryTar    BinaryKind = "tar"
	BinarySQLite BinaryKind = "sqlite"
	BinaryPDF    BinaryKind = "pdf"
	BinaryPNG    BinaryKind = "png"
	BinaryOther  BinaryKind = "binary"
)

var magicBytes = []struct {
	kind   BinaryKind
	magic  []byte
	offset int
}{
	{BinaryTar, []byte("ustar"), 257},
	{BinaryGzip, []byte{0x1f, 0x8b}, 0},
	{BinaryXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{BinaryZip, []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{BinarySQLite, []byte("SQLite format 3\x00"), 0},
	{BinaryPDF, []byte("%PDF-"), 0},
	{BinaryPNG, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, 0},
}

// DetectBinary reports what kind of binary file data is, or BinaryNone when
// it looks like text.
func DetectBinary(data []byte) BinaryKind {
	head := data[:min(len(data), sniffLen)]
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(head) &&
			bytes.Equal(head[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
			return sig.kind
		}
	}
	if len(head) > 0 && !isLikelyText(head) {
		return BinaryOther
	}
	return BinaryNone
}

// ValidateSource rejects documents that are binary files rather than text.
func ValidateSource(data []byte) error {
	if kind := DetectBinary(data); kind != BinaryNone {
		return errors.NewUnsupported("source document", fmt.Sprintf("input is a %s file, not text", kind))
	}
	return nil
}

// isLikelyText reports whether more than 95% of buf is printable. Bytes of
// multi-byte UTF-8 sequences count as neither printable nor control.
func isLikelyText(buf []byte) bool {
	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b == '\t' || b == '\n' || b == '\r' || b == '\f':
			printable++
		case b < 0x20 || b == 0x7f:
			control++
		case b < 0x7f:
			printable++
		}
	}
	if printable+control == 0 {
		// All multi-byte UTF-8.
		return true
	}
	return float64(printable)/float64(printable+control) > 0.95
}
