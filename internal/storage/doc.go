// Package storage provides the embedded database engines gatecam persists to.
//
//   - badger.go: Badger v3 engine with value log GC, key scans and sequences
//   - sqlite.go: SQLite opener (modernc.org/sqlite) with WAL pragmas
//   - kv.go: Badger configuration
//
// Subpackages build on these engines:
//
//   - audit: the append-only audit log (SQLite or Badger backed)
//   - photo: reassembled photo files, optionally sealed at rest
package storage
