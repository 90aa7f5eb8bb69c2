package cas

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/zeebo/blake3"
)

// Digests holds both addresses of a stored blob.
type Digests struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// blake3Pointer is the content of a BLAKE3 pointer file.
type blake3Pointer struct {
	SHA256 string `json:"sha256"`
}

// PutWithBlake3 stores data and records a pointer from its BLAKE3 digest
// to its SHA-256 address.
func (s *Store) PutWithBlake3(data []byte) (*Digests, error) {
	sha, err := s.Put(data)
	if err != nil {
		return nil, err
	}

	b3 := Blake3Hash(data)
	if err := s.writePointer(b3, sha); err != nil {
		return nil, fmt.Errorf("failed to create BLAKE3 pointer: %w", err)
	}
	return &Digests{SHA256: sha, BLAKE3: b3}, nil
}

// writePointer writes <root>/blobs/blake3/<first2>/<blake3>.json unless it
// already exists.
func (s *Store) writePointer(b3, sha string) error {
	pointerPath := s.pointerPath(b3)
	if _, err := os.Stat(pointerPath); err == nil {
		return nil
	}

	data, err := json.Marshal(blake3Pointer{SHA256: sha})
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Dir(pointerPath), pointerPath, ".pointer-*", data)
}

// DeleteWithBlake3 removes the blob addressed by d and the BLAKE3 pointer
// to it. The pointer is removed even when the blob is already gone; a
// missing blob is still reported as not found.
func (s *Store) DeleteWithBlake3(d Digests) error {
	if !isValidHash(d.BLAKE3) {
		return invalidHash(d.BLAKE3)
	}
	blobErr := s.Delete(d.SHA256)
	if blobErr != nil && !errors.Is(blobErr, errors.ErrNotFound) {
		return blobErr
	}
	pointerPath := s.pointerPath(d.BLAKE3)
	if err := os.Remove(pointerPath); err != nil && !os.IsNotExist(err) {
		return errors.NewIO("remove pointer", pointerPath, err)
	}
	return blobErr
}

// LookupBlake3 returns the SHA-256 address recorded for a BLAKE3 digest.
func (s *Store) LookupBlake3(b3 string) (string, error) {
	if !isValidHash(b3) {
		return "", invalidHash(b3)
	}

	pointerPath := s.pointerPath(b3)
	data, err := os.ReadFile(pointerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFound("blake3 pointer", b3)
		}
		return "", errors.NewIO("read pointer", pointerPath, err)
	}

	var p blake3Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", errors.NewParse("BLAKE3 pointer", pointerPath, err.Error())
	}
	return p.SHA256, nil
}

// GetByBlake3 returns the blob whose BLAKE3 digest is b3.
func (s *Store) GetByBlake3(b3 string) ([]byte, error) {
	sha, err := s.LookupBlake3(b3)
	if err != nil {
		return nil, err
	}
	return s.Get(sha)
}

func (s *Store) pointerPath(b3 string) string {
	return filepath.Join(s.root, "blobs", "blake3", b3[:2], b3+".json")
}

// Blake3Hash computes the BLAKE3 digest of data without storing it.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
