// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lmdbeng binds the kv engine abstraction to LMDB.
package lmdbeng

import (
	"bytes"
	"os"
	"runtime"

	"github.com/bmatsuo/lmdb-go/lmdb"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/kv"
)

var log = log15.New("pkg", "lmdbeng")

var _ kv.Engine = (*LMDB)(nil)

// Options options for creating an LMDB engine instance.
type Options struct {
	MapSize    int64
	MaxReaders int
	MaxDBs     int
}

// LMDB wraps an LMDB environment.
type LMDB struct {
	env  *lmdb.Env
	path string
}

// New creates the engine rooted at dir. The directory is created when
// missing. The environment is opened with NoReadahead|MapAsync|WriteMap.
func New(dir string, opts Options) (*LMDB, error) {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, errors.Wrap(err, "create env dir")
	}
	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, errors.Wrap(err, "new lmdb env")
	}
	if err := env.SetMapSize(opts.MapSize); err != nil {
		env.Close()
		return nil, errors.Wrap(err, "set map size")
	}
	if err := env.SetMaxReaders(opts.MaxReaders); err != nil {
		env.Close()
		return nil, errors.Wrap(err, "set max readers")
	}
	if err := env.SetMaxDBs(opts.MaxDBs); err != nil {
		env.Close()
		return nil, errors.Wrap(err, "set max dbs")
	}
	if err := env.Open(dir, lmdb.NoReadahead|lmdb.MapAsync|lmdb.WriteMap, 0664); err != nil {
		env.Close()
		return nil, errors.Wrap(err, "open lmdb env")
	}
	// stale reader slots left by crashed processes
	if n, err := env.ReaderCheck(); err == nil && n > 0 {
		log.Warn("cleared stale reader slots", "count", n)
	}
	return &LMDB{env: env, path: dir}, nil
}

func (e *LMDB) Path() string { return e.path }

// Info returns environment runtime info.
func (e *LMDB) Info() (*kv.Info, error) {
	info, err := e.env.Info()
	if err != nil {
		return nil, errors.Wrap(err, "env info")
	}
	return &kv.Info{
		MapSize:    info.MapSize,
		NumReaders: int(info.NumReaders),
		MaxReaders: int(info.MaxReaders),
	}, nil
}

// SetMapSize resizes the memory map. No transaction may be in flight.
func (e *LMDB) SetMapSize(size int64) error {
	return e.env.SetMapSize(size)
}

// BeginTxn starts a transaction. A write transaction pins the calling
// goroutine to its OS thread until Commit or Abort.
func (e *LMDB) BeginTxn(readonly bool) (kv.Txn, error) {
	if readonly {
		txn, err := e.env.BeginTxn(nil, lmdb.Readonly)
		if err != nil {
			return nil, err
		}
		txn.RawRead = true
		return &lmdbTxn{txn: txn, readonly: true}, nil
	}
	runtime.LockOSThread()
	txn, err := e.env.BeginTxn(nil, 0)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return &lmdbTxn{txn: txn}, nil
}

func (e *LMDB) Sync(force bool) error {
	return e.env.Sync(force)
}

// CmpKeys follows the engine's default key order, unsigned byte-wise
// lexicographic.
func (e *LMDB) CmpKeys(a, b []byte) int { return bytes.Compare(a, b) }

func (e *LMDB) MaxKeySize() int { return e.env.MaxKeySize() }

// Close closes the environment. Later operations will all fail.
func (e *LMDB) Close() error {
	if err := e.env.Sync(true); err != nil {
		log.Warn("sync before close failed", "err", err)
	}
	return e.env.Close()
}

func (e *LMDB) IsNotFound(err error) bool { return lmdb.IsNotFound(err) }
func (e *LMDB) IsMapFull(err error) bool  { return lmdb.IsMapFull(err) }
func (e *LMDB) IsBadReaderLock(err error) bool {
	return lmdb.IsErrno(err, lmdb.BadRSlot)
}

type lmdbTxn struct {
	txn      *lmdb.Txn
	readonly bool
}

func (t *lmdbTxn) Commit() error {
	err := t.txn.Commit()
	if !t.readonly {
		runtime.UnlockOSThread()
	}
	return err
}

func (t *lmdbTxn) Abort() {
	t.txn.Abort()
	if !t.readonly {
		runtime.UnlockOSThread()
	}
}

func (t *lmdbTxn) Reset() { t.txn.Reset() }

func (t *lmdbTxn) Renew() error { return t.txn.Renew() }

func (t *lmdbTxn) OpenDBI(name string, create bool) (kv.DBI, error) {
	var flags uint
	if create {
		flags = lmdb.Create
	}
	dbi, err := t.txn.OpenDBI(name, flags)
	return kv.DBI(dbi), err
}

func (t *lmdbTxn) Drop(dbi kv.DBI, del bool) error {
	return t.txn.Drop(lmdb.DBI(dbi), del)
}

func (t *lmdbTxn) Stat(dbi kv.DBI) (*kv.Stat, error) {
	st, err := t.txn.Stat(lmdb.DBI(dbi))
	if err != nil {
		return nil, err
	}
	return &kv.Stat{Entries: st.Entries}, nil
}

func (t *lmdbTxn) Get(dbi kv.DBI, key []byte) ([]byte, error) {
	return t.txn.Get(lmdb.DBI(dbi), key)
}

func (t *lmdbTxn) Put(dbi kv.DBI, key, val []byte, flags kv.PutFlags) error {
	return t.txn.Put(lmdb.DBI(dbi), key, val, putFlags(flags))
}

func (t *lmdbTxn) Del(dbi kv.DBI, key []byte) error {
	return t.txn.Del(lmdb.DBI(dbi), key, nil)
}

func (t *lmdbTxn) OpenCursor(dbi kv.DBI) (kv.Cursor, error) {
	cur, err := t.txn.OpenCursor(lmdb.DBI(dbi))
	if err != nil {
		return nil, err
	}
	return &lmdbCursor{cur: cur}, nil
}

func putFlags(flags kv.PutFlags) uint {
	var f uint
	if flags&kv.NoOverwrite != 0 {
		f |= lmdb.NoOverwrite
	}
	if flags&kv.Append != 0 {
		f |= lmdb.Append
	}
	return f
}

type lmdbCursor struct {
	cur *lmdb.Cursor
}

func (c *lmdbCursor) Get(setKey []byte, op kv.CursorOp) ([]byte, []byte, error) {
	return c.cur.Get(setKey, nil, cursorOps[op])
}

func (c *lmdbCursor) Close() { c.cur.Close() }

var cursorOps = map[kv.CursorOp]uint{
	kv.First:      lmdb.First,
	kv.Last:       lmdb.Last,
	kv.Next:       lmdb.Next,
	kv.Prev:       lmdb.Prev,
	kv.SetRange:   lmdb.SetRange,
	kv.GetCurrent: lmdb.GetCurrent,
}
