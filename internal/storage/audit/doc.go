// Package audit stores the append-only log of capture attempts.
//
// Two backends implement Store: SQLiteStore keeps the "logs" table
// (ts, uid, authorized, photo) the door controller has always written,
// and BadgerStore keeps JSON records under sequence keys for deployments
// that already run Badger. Both return records in the order they were
// appended.
package audit
