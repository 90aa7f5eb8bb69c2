// Package library keeps encoded documents on disk. Document JSON lives in
// a content-addressed store; a SQLite index maps document IDs to names and
// digests.
package library

import (
	"context"
	"database/sql"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FocuswithJustin/rtjson/core/cas"
	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/core/sqlite"
)

// IndexFile is the SQLite index inside a library directory.
const IndexFile = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	format TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	blake3 TEXT NOT NULL,
	size INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_sha256 ON documents(sha256);
`

// Record describes one stored document.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	SHA256    string    `json:"sha256"`
	BLAKE3    string    `json:"blake3"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Options sizes the decoded-document cache.
type Options struct {
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// Library is safe for concurrent use.
type Library struct {
	dir   string
	db    *sql.DB
	store *cas.Store
	cache *cache.Cache

	// blobMu orders blob writes with the reference count check of Delete,
	// so a blob is never removed under a record that was just inserted.
	blobMu sync.Mutex
}

type entry struct {
	rec Record
	doc *rtjson.Document
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// Open opens or creates the library in dir.
func Open(ctx context.Context, dir string, opts Options) (*Library, error) {
	store, err := cas.NewStore(dir)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.OpenContext(ctx, filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, errors.NewIO("open index", dir, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create schema", dir, err)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Library{
		dir:   dir,
		db:    db,
		store: store,
		cache: cache.New(ttl, opts.CacheCleanup),
	}, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// Close closes the index and drops cached documents.
func (l *Library) Close() error {
	l.cache.Flush()
	return l.db.Close()
}

// Put stores doc under a fresh ID. Identical documents share one blob.
func (l *Library) Put(ctx context.Context, name, format string, doc *rtjson.Document) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, errors.NewValidation("name", "is required")
	}
	if doc == nil {
		return Record{}, errors.NewValidation("document", "is required")
	}

	data, err := rtjson.Marshal(doc)
	if err != nil {
		return Record{}, errors.Wrap(err, "marshal document")
	}
	l.blobMu.Lock()
	defer l.blobMu.Unlock()

	digests, err := l.store.PutWithBlake3(data)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		Name:      name,
		Format:    format,
		SHA256:    digests.SHA256,
		BLAKE3:    digests.BLAKE3,
		Size:      len(data),
		CreatedAt: now(),
	}
	_, err = l.db.ExecContext(ctx,
		"INSERT INTO documents (id, name, format, sha256, blake3, size, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Name, rec.Format, rec.SHA256, rec.BLAKE3, rec.Size, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, errors.NewIO("insert document", rec.ID, err)
	}

	l.cache.SetDefault(rec.ID, entry{rec: rec, doc: doc})
	return rec, nil
}

// Get returns the record and the decoded document for id.
func (l *Library) Get(ctx context.Context, id string) (Record, *rtjson.Document, error) {
	if err := validateID(id); err != nil {
		return Record{}, nil, err
	}
	if x, found := l.cache.Get(id); found {
		e := x.(entry)
		return e.rec, e.doc, nil
	}

	rec, err := l.Stat(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	data, err := l.store.Get(rec.SHA256)
	if err != nil {
		return Record{}, nil, err
	}
	doc, err := rtjson.Unmarshal(data)
	if err != nil {
		return Record{}, nil, errors.NewParse("rtjson", rec.SHA256, err.Error())
	}

	l.cache.SetDefault(id, entry{rec: rec, doc: doc})
	return rec, doc, nil
}

// Raw returns the stored JSON for id without decoding it.
func (l *Library) Raw(ctx context.Context, id string) (Record, []byte, error) {
	rec, err := l.Stat(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	data, err := l.store.Get(rec.SHA256)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, data, nil
}

// Stat returns the index record for id.
func (l *Library) Stat(ctx context.Context, id string) (Record, error) {
	if err := validateID(id); err != nil {
		return Record{}, err
	}
	row := l.db.QueryRowContext(ctx,
		"SELECT id, name, format, sha256, blake3, size, created_at FROM documents WHERE id = ?", id)
	rec, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.NewNotFound("document", id)
	}
	if err != nil {
		return Record{}, errors.NewIO("query document", id, err)
	}
	return rec, nil
}

// List returns all records, oldest first.
func (l *Library) List(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, name, format, sha256, blake3, size, created_at FROM documents ORDER BY created_at, rowid")
	if err != nil {
		return nil, errors.NewIO("list documents", l.dir, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewIO("list documents", l.dir, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("list documents", l.dir, err)
	}
	return records, nil
}

// Delete removes id from the index. The blob is removed once no record
// refers to it.
func (l *Library) Delete(ctx context.Context, id string) error {
	rec, err := l.Stat(ctx, id)
	if err != nil {
		return err
	}

	l.blobMu.Lock()
	defer l.blobMu.Unlock()

	if _, err := l.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return errors.NewIO("delete document", id, err)
	}
	l.cache.Delete(id)

	var refs int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE sha256 = ?", rec.SHA256).Scan(&refs); err != nil {
		return errors.NewIO("count references", rec.SHA256, err)
	}
	if refs == 0 {
		err := l.store.DeleteWithBlake3(cas.Digests{SHA256: rec.SHA256, BLAKE3: rec.BLAKE3})
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var rec Record
	var created string
	if err := s.Scan(&rec.ID, &rec.Name, &rec.Format, &rec.SHA256, &rec.BLAKE3, &rec.Size, &created); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = t
	return rec, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewValidation("id", "must be a UUID")
	}
	return nil
}
