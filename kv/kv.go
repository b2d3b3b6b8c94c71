// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv abstracts the native ordered key-value engine.
// It enumerates exactly the operations the store layer depends on, so that
// the concrete engine (memory-mapped B+tree, or the in-memory variant) is
// selected once at startup and never dispatched on afterwards.
package kv

// DBI is an opaque handle of a named sub-database.
type DBI uint32

// CursorOp positions a cursor.
type CursorOp int

const (
	First CursorOp = iota
	Last
	Next
	Prev
	SetRange   // position at first key >= the given key
	GetCurrent // re-read key/value at the current position
)

// PutFlags modify the behavior of Txn.Put.
type PutFlags uint

const (
	// NoOverwrite makes Put fail when the key already exists.
	NoOverwrite PutFlags = 1 << iota
	// Append requires keys to be put in sorted order, skipping the search.
	Append
)

// Stat holds per-DBI statistics.
type Stat struct {
	Entries uint64
}

// Info holds environment runtime information.
type Info struct {
	MapSize    int64
	NumReaders int
	MaxReaders int
}

// Engine is the native store. It supports many concurrent readers and
// exactly one writer per environment.
type Engine interface {
	Path() string
	Info() (*Info, error)
	// SetMapSize tunes the upper bound of the memory map. Must not be
	// called with transactions in flight.
	SetMapSize(size int64) error
	// BeginTxn starts a transaction. Read-only transactions may later be
	// Reset and Renewed to recycle their reader slot.
	BeginTxn(readonly bool) (Txn, error)
	Sync(force bool) error
	// CmpKeys compares two keys in the engine's native key order.
	CmpKeys(a, b []byte) int
	MaxKeySize() int
	Close() error

	IsNotFound(err error) bool
	IsMapFull(err error) bool
	IsBadReaderLock(err error) bool
}

// Txn is a transaction handle. Write transactions must be finished with
// Commit or Abort; read-only ones cycle through Reset/Renew until the
// owner finally aborts them.
type Txn interface {
	Commit() error
	Abort()
	// Reset releases the reader slot while keeping the handle reusable.
	Reset()
	// Renew re-acquires a reader slot and refreshes the snapshot.
	Renew() error

	OpenDBI(name string, create bool) (DBI, error)
	// Drop empties the named sub-database. With del set the handle is
	// deleted as well.
	Drop(dbi DBI, del bool) error
	Stat(dbi DBI) (*Stat, error)

	// Get returns the value for key. An error for which
	// Engine.IsNotFound holds is returned on miss.
	Get(dbi DBI, key []byte) ([]byte, error)
	Put(dbi DBI, key, val []byte, flags PutFlags) error
	Del(dbi DBI, key []byte) error

	OpenCursor(dbi DBI) (Cursor, error)
}

// Cursor walks a sub-database in key order. The returned views are only
// valid until the next Get or Close.
type Cursor interface {
	// Get executes op. setKey is consulted by SetRange only.
	Get(setKey []byte, op CursorOp) (key, val []byte, err error)
	Close()
}
