// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package memeng provides a memory-backed engine with the same contract as
// the mmap-backed one: snapshot-isolated readers, a single writer, a
// bounded map size. It backs tests and throwaway environments.
package memeng

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/kv"
)

var _ kv.Engine = (*MemEngine)(nil)

var (
	errNotFound      = errors.New("memeng: not found")
	errMapFull       = errors.New("memeng: map full")
	errKeyExist      = errors.New("memeng: key exists")
	errClosed        = errors.New("memeng: closed")
	errTxnReset      = errors.New("memeng: txn is reset")
	errReadOnly      = errors.New("memeng: read-only txn")
	errOutOfOrder    = errors.New("memeng: append key out of order")
	errUnknownCursor = errors.New("memeng: unknown cursor op")
)

// entryOverhead approximates the per-entry page cost of the mmap engine,
// so map-full conditions trigger at plausible fill levels.
const entryOverhead = 16

const maxKeySize = 511

// table is an immutable sorted key space. Writers clone before mutating.
type table struct {
	keys [][]byte
	vals [][]byte
}

// search returns the position of the first key >= key.
func (t *table) search(key []byte) (int, bool) {
	i := sort.Search(len(t.keys), func(i int) bool {
		return bytes.Compare(t.keys[i], key) >= 0
	})
	return i, i < len(t.keys) && bytes.Equal(t.keys[i], key)
}

func (t *table) clone() *table {
	return &table{
		keys: append([][]byte(nil), t.keys...),
		vals: append([][]byte(nil), t.vals...),
	}
}

// snapshot is the committed state. Readers pin it at renew time and never
// observe later commits.
type snapshot struct {
	tables map[kv.DBI]*table
	used   int64
}

// MemEngine implements kv.Engine in memory.
type MemEngine struct {
	mu        sync.Mutex
	writeCond *sync.Cond

	snap    *snapshot
	names   map[string]kv.DBI
	nextDBI kv.DBI
	mapSize int64
	writing bool
	closed  bool
	readers int
}

// Options for creating a memory engine.
type Options struct {
	// MapSize bounds the total payload size, mirroring the mmap limit.
	MapSize int64
}

// New creates an empty memory engine.
func New(opts Options) *MemEngine {
	if opts.MapSize <= 0 {
		opts.MapSize = 1 << 30
	}
	e := &MemEngine{
		snap:    &snapshot{tables: map[kv.DBI]*table{}},
		names:   map[string]kv.DBI{},
		nextDBI: 1,
		mapSize: opts.MapSize,
	}
	e.writeCond = sync.NewCond(&e.mu)
	return e
}

func (e *MemEngine) Path() string { return ":memory:" }

func (e *MemEngine) Info() (*kv.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}
	return &kv.Info{MapSize: e.mapSize, NumReaders: e.readers, MaxReaders: 126}, nil
}

func (e *MemEngine) SetMapSize(size int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}
	e.mapSize = size
	return nil
}

func (e *MemEngine) BeginTxn(readonly bool) (kv.Txn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}
	if readonly {
		e.readers++
		return &memTxn{eng: e, readonly: true, snap: e.snap}, nil
	}
	for e.writing {
		e.writeCond.Wait()
		if e.closed {
			return nil, errClosed
		}
	}
	e.writing = true
	return &memTxn{
		eng:     e,
		base:    e.snap,
		work:    map[kv.DBI]*table{},
		dropped: map[kv.DBI]bool{},
		used:    e.snap.used,
	}, nil
}

func (e *MemEngine) Sync(bool) error { return nil }

func (e *MemEngine) CmpKeys(a, b []byte) int { return bytes.Compare(a, b) }

func (e *MemEngine) MaxKeySize() int { return maxKeySize }

func (e *MemEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.writeCond.Broadcast()
	return nil
}

func (e *MemEngine) IsNotFound(err error) bool { return errors.Is(err, errNotFound) }
func (e *MemEngine) IsMapFull(err error) bool  { return errors.Is(err, errMapFull) }

// IsBadReaderLock never holds: reader slots are not a scarce resource here.
func (e *MemEngine) IsBadReaderLock(err error) bool { return false }

// openDBI registers the name engine-wide. Concurrent same-name opens
// resolve to one winner.
func (e *MemEngine) openDBI(name string, create bool) (kv.DBI, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errClosed
	}
	if dbi, ok := e.names[name]; ok {
		return dbi, nil
	}
	if !create {
		return 0, errNotFound
	}
	dbi := e.nextDBI
	e.nextDBI++
	e.names[name] = dbi
	return dbi, nil
}

type memTxn struct {
	eng      *MemEngine
	readonly bool

	// read view of a readonly txn; nil while reset
	snap *snapshot

	// write state
	base    *snapshot
	work    map[kv.DBI]*table
	dropped map[kv.DBI]bool
	used    int64
	done    bool
}

func (t *memTxn) Commit() error {
	if t.readonly {
		t.Abort()
		return nil
	}
	e := t.eng
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	next := &snapshot{tables: map[kv.DBI]*table{}, used: t.used}
	for dbi, tbl := range t.base.tables {
		next.tables[dbi] = tbl
	}
	for dbi, tbl := range t.work {
		next.tables[dbi] = tbl
	}
	for dbi := range t.dropped {
		delete(next.tables, dbi)
	}
	e.snap = next
	e.writing = false
	e.writeCond.Signal()
	for dbi := range t.dropped {
		for name, id := range e.names {
			if id == dbi {
				delete(e.names, name)
				break
			}
		}
	}
	return nil
}

func (t *memTxn) Abort() {
	e := t.eng
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	if t.readonly {
		if t.snap != nil {
			e.readers--
		}
		t.snap = nil
		return
	}
	e.writing = false
	e.writeCond.Signal()
}

func (t *memTxn) Reset() {
	if !t.readonly || t.snap == nil {
		return
	}
	e := t.eng
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readers--
	t.snap = nil
}

func (t *memTxn) Renew() error {
	if !t.readonly {
		return errReadOnly
	}
	e := t.eng
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}
	if t.snap == nil {
		e.readers++
	}
	t.snap = e.snap
	return nil
}

func (t *memTxn) OpenDBI(name string, create bool) (kv.DBI, error) {
	return t.eng.openDBI(name, create)
}

func (t *memTxn) Drop(dbi kv.DBI, del bool) error {
	if t.readonly {
		return errReadOnly
	}
	tbl := t.view(dbi)
	for i := range tbl.keys {
		t.used -= int64(len(tbl.keys[i]) + len(tbl.vals[i]) + entryOverhead)
	}
	t.work[dbi] = &table{}
	if del {
		t.dropped[dbi] = true
	}
	return nil
}

func (t *memTxn) Stat(dbi kv.DBI) (*kv.Stat, error) {
	tbl := t.view(dbi)
	if tbl == nil {
		return nil, errTxnReset
	}
	return &kv.Stat{Entries: uint64(len(tbl.keys))}, nil
}

// view resolves the table visible to this txn. An empty table stands in
// for a DBI that was opened but never written.
func (t *memTxn) view(dbi kv.DBI) *table {
	if t.readonly {
		if t.snap == nil {
			return nil
		}
		if tbl, ok := t.snap.tables[dbi]; ok {
			return tbl
		}
		return &table{}
	}
	if tbl, ok := t.work[dbi]; ok {
		return tbl
	}
	if tbl, ok := t.base.tables[dbi]; ok {
		return tbl
	}
	return &table{}
}

func (t *memTxn) writable(dbi kv.DBI) *table {
	if tbl, ok := t.work[dbi]; ok {
		return tbl
	}
	var tbl *table
	if base, ok := t.base.tables[dbi]; ok {
		tbl = base.clone()
	} else {
		tbl = &table{}
	}
	t.work[dbi] = tbl
	return tbl
}

func (t *memTxn) Get(dbi kv.DBI, key []byte) ([]byte, error) {
	tbl := t.view(dbi)
	if tbl == nil {
		return nil, errTxnReset
	}
	if i, ok := tbl.search(key); ok {
		return tbl.vals[i], nil
	}
	return nil, errNotFound
}

func (t *memTxn) Put(dbi kv.DBI, key, val []byte, flags kv.PutFlags) error {
	if t.readonly {
		return errReadOnly
	}
	tbl := t.writable(dbi)
	i, found := tbl.search(key)
	if found {
		if flags&kv.NoOverwrite != 0 {
			return errKeyExist
		}
		grown := t.used + int64(len(val)-len(tbl.vals[i]))
		if grown > t.eng.mapSize {
			return errMapFull
		}
		t.used = grown
		tbl.vals[i] = append([]byte(nil), val...)
		return nil
	}
	if flags&kv.Append != 0 && i != len(tbl.keys) {
		return errOutOfOrder
	}
	grown := t.used + int64(len(key)+len(val)+entryOverhead)
	if grown > t.eng.mapSize {
		return errMapFull
	}
	t.used = grown
	k := append([]byte(nil), key...)
	v := append([]byte(nil), val...)
	tbl.keys = append(tbl.keys, nil)
	copy(tbl.keys[i+1:], tbl.keys[i:])
	tbl.keys[i] = k
	tbl.vals = append(tbl.vals, nil)
	copy(tbl.vals[i+1:], tbl.vals[i:])
	tbl.vals[i] = v
	return nil
}

func (t *memTxn) Del(dbi kv.DBI, key []byte) error {
	if t.readonly {
		return errReadOnly
	}
	tbl := t.writable(dbi)
	i, found := tbl.search(key)
	if !found {
		return errNotFound
	}
	t.used -= int64(len(tbl.keys[i]) + len(tbl.vals[i]) + entryOverhead)
	tbl.keys = append(tbl.keys[:i], tbl.keys[i+1:]...)
	tbl.vals = append(tbl.vals[:i], tbl.vals[i+1:]...)
	return nil
}

func (t *memTxn) OpenCursor(dbi kv.DBI) (kv.Cursor, error) {
	tbl := t.view(dbi)
	if tbl == nil {
		return nil, errTxnReset
	}
	return &memCursor{t: tbl, idx: -1}, nil
}

// memCursor walks an immutable table view.
type memCursor struct {
	t   *table
	idx int
}

func (c *memCursor) Get(setKey []byte, op kv.CursorOp) ([]byte, []byte, error) {
	switch op {
	case kv.First:
		c.idx = 0
	case kv.Last:
		c.idx = len(c.t.keys) - 1
	case kv.Next:
		c.idx++
	case kv.Prev:
		c.idx--
	case kv.SetRange:
		c.idx, _ = c.t.search(setKey)
	case kv.GetCurrent:
	default:
		return nil, nil, errUnknownCursor
	}
	if c.idx < 0 || c.idx >= len(c.t.keys) {
		// clamp so a failed step can be followed by another op
		if c.idx < -1 {
			c.idx = -1
		}
		if c.idx > len(c.t.keys) {
			c.idx = len(c.t.keys)
		}
		return nil, nil, errNotFound
	}
	return c.t.keys[c.idx], c.t.vals[c.idx], nil
}

func (c *memCursor) Close() {}
