// Package sqliteexternal provides optional external SQLite drivers.
//
// # CGO SQLite Driver
//
// To use the CGO driver (github.com/mattn/go-sqlite3) for the document
// library index:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/rtjson
//
// core/sqlite imports this package under that tag; nothing else needs to.
//
// # Default Pure Go Driver
//
// Without the tag, rtjson uses modernc.org/sqlite, which needs no CGO and
// cross-compiles to a single static binary.
package sqliteexternal
