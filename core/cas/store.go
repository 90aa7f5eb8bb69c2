// Package cas stores encoded documents as content-addressed blobs.
//
// A blob is addressed by the SHA-256 of its uncompressed bytes and kept
// xz-compressed on disk, so identical documents are stored once and every
// read can be verified against its address.
package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/ulikunitz/xz"
)

// Function variables allow tests to inject failures.
var (
	osRename      = os.Rename
	xzNewWriter   = xz.NewWriter
	xzNewReader   = xz.NewReader
	tempFileWrite = func(f *os.File, data []byte) (int, error) {
		return f.Write(data)
	}
	tempFileClose = func(f io.Closer) error {
		return f.Close()
	}
)

// blobExt is the file extension of compressed blobs.
const blobExt = ".xz"

// hexPattern matches a lowercase 256-bit hex digest.
var hexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root string
}

// NewStore opens the store at root, creating its directory layout if
// needed.
func NewStore(root string) (*Store, error) {
	blobDir := filepath.Join(root, "blobs", "sha256")
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, errors.NewIO("create blob directory", blobDir, err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory the store lives in.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its SHA-256 address. Storing bytes that are
// already present is a no-op.
func (s *Store) Put(data []byte) (string, error) {
	hash := Hash(data)
	blobPath := s.pathForHash(hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash, nil
	}

	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish xz stream: %w", err)
	}

	if err := writeAtomic(filepath.Dir(blobPath), blobPath, ".blob-*", buf.Bytes()); err != nil {
		return "", err
	}
	return hash, nil
}

// Get returns the uncompressed bytes stored under hash. The content is
// checked against the address before it is returned.
func (s *Store) Get(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, invalidHash(hash)
	}

	blobPath := s.pathForHash(hash)
	f, err := os.Open(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("blob", hash)
		}
		return nil, errors.NewIO("open blob", blobPath, err)
	}
	defer f.Close()

	r, err := xzNewReader(f)
	if err != nil {
		return nil, errors.NewIO("decompress blob", blobPath, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("decompress blob", blobPath, err)
	}

	if got := Hash(data); got != hash {
		return nil, &errors.IOError{
			Operation: "verify blob",
			Path:      blobPath,
			Err:       fmt.Errorf("content hash %s does not match address: %w", got, errors.ErrInternal),
		}
	}
	return data, nil
}

// Exists reports whether a blob with the given hash is stored.
func (s *Store) Exists(hash string) bool {
	if !isValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// Delete removes the blob stored under hash. Deleting a missing blob
// reports a NotFoundError.
func (s *Store) Delete(hash string) error {
	if !isValidHash(hash) {
		return invalidHash(hash)
	}
	blobPath := s.pathForHash(hash)
	if err := os.Remove(blobPath); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound("blob", hash)
		}
		return errors.NewIO("remove blob", blobPath, err)
	}
	return nil
}

// pathForHash returns <root>/blobs/sha256/<first2>/<hash>.xz.
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash+blobExt)
}

// writeAtomic writes data to a temp file in dir and renames it to dst.
func writeAtomic(dir, dst, pattern string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return errors.NewIO("create temp file", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return errors.NewIO("write", tempPath, err)
	}
	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", tempPath, err)
	}
	if err := osRename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename", dst, err)
	}
	return nil
}

func isValidHash(hash string) bool {
	return hexPattern.MatchString(hash)
}

func invalidHash(hash string) error {
	return errors.NewValidation("hash", fmt.Sprintf("%q is not a 64-character lowercase hex digest", hash))
}

// Hash computes the SHA-256 address of data without storing it.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
