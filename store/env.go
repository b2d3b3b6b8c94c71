// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store implements a thread-safe key-value layer on top of the
// native ordered engine. An environment owns named sub-databases, a pool
// of recycled read transactions, and a single batched write path.
package store

import (
	"sort"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/codec"
	"github.com/hendursaga/datalevin/kv"
	"github.com/hendursaga/datalevin/lmdbeng"
	"github.com/hendursaga/datalevin/memeng"
)

var log = log15.New("pkg", "store")

// Tuning defaults. Options fields left zero fall back to these.
const (
	// MaxKeySize is the largest encoded key the engine accepts.
	MaxKeySize = 511
	// DefaultValSize is the initial capacity of value scratch buffers.
	DefaultValSize = 16384
	// UseReaders caps the read transaction pool.
	UseReaders = 32
	// MaxReaders is the engine-level reader slot limit.
	MaxReaders = 126
	// MaxDBs is the engine-level cap of named sub-databases.
	MaxDBs = 128
	// InitDBSizeMB is the initial memory map size.
	InitDBSizeMB = 100
)

// Options optional parameters for opening an environment.
type Options struct {
	// InitMapSizeMB is the initial size of the memory map. The map grows
	// automatically when write batches exhaust it.
	InitMapSizeMB int
	// MaxReaders bounds concurrent engine reader slots.
	MaxReaders int
	// MaxDBs bounds the number of named sub-databases.
	MaxDBs int
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.InitMapSizeMB == 0 {
		opts.InitMapSizeMB = InitDBSizeMB
	}
	if opts.MaxReaders == 0 {
		opts.MaxReaders = MaxReaders
	}
	if opts.MaxDBs == 0 {
		opts.MaxDBs = MaxDBs
	}
	return opts
}

// Env is an opened environment. All methods are safe for concurrent use.
type Env struct {
	engine kv.Engine
	dir    string
	pool   *rtxPool

	// writeMu serializes Transact so dbi scratch buffers see one writer.
	writeMu sync.Mutex

	mu     sync.RWMutex
	dbis   map[string]*DBI
	closed bool
}

// Open opens or creates the environment rooted at dir.
func Open(dir string, options *Options) (*Env, error) {
	opts := options.withDefaults()
	engine, err := lmdbeng.New(dir, lmdbeng.Options{
		MapSize:    int64(opts.InitMapSizeMB) << 20,
		MaxReaders: opts.MaxReaders,
		MaxDBs:     opts.MaxDBs,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "open env at %q", dir)
	}
	log.Info("opened env", "dir", dir, "mapSizeMB", opts.InitMapSizeMB)
	return newEnv(engine, dir), nil
}

// OpenMem creates a memory-backed environment, mostly useful for tests
// and throwaway work.
func OpenMem() *Env {
	engine := memeng.New(memeng.Options{})
	return newEnv(engine, engine.Path())
}

func newEnv(engine kv.Engine, dir string) *Env {
	return &Env{
		engine: engine,
		dir:    dir,
		pool:   newRtxPool(engine),
		dbis:   make(map[string]*DBI),
	}
}

// Dir returns the directory the environment was opened at.
func (e *Env) Dir() string { return e.dir }

func (e *Env) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrNotOpen
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (e *Env) IsClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// Close closes the pool, the engine, and fails all later operations.
// Closing twice is a no-op.
func (e *Env) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.pool.close()
	e.dbis = make(map[string]*DBI)
	err := e.engine.Close()
	log.Info("closed env", "dir", e.dir)
	return errors.Wrap(err, "close engine")
}

// OpenDBI opens the named sub-database, creating it when missing.
// Reopening a name returns the registered handle.
//
// The engine txn runs outside the registry lock so a concurrent write
// batch, which resolves handles per op, cannot deadlock against it.
func (e *Env) OpenDBI(name string) (*DBI, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrNotOpen
	}
	if d, ok := e.dbis[name]; ok {
		e.mu.RUnlock()
		return d, nil
	}
	e.mu.RUnlock()

	txn, err := e.engine.BeginTxn(false)
	if err != nil {
		return nil, errors.Wrapf(err, "open dbi %q", name)
	}
	dbi, err := txn.OpenDBI(name, true)
	if err != nil {
		txn.Abort()
		return nil, errors.Wrapf(err, "open dbi %q", name)
	}
	if err := txn.Commit(); err != nil {
		return nil, errors.Wrapf(err, "open dbi %q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrNotOpen
	}
	// same-name race: the engine dedups, first registration wins
	if d, ok := e.dbis[name]; ok {
		return d, nil
	}
	d := &DBI{
		engine: e.engine,
		dbi:    dbi,
		name:   name,
		kb:     codec.NewBuffer(e.engine.MaxKeySize()),
		vb:     codec.NewBuffer(DefaultValSize),
	}
	e.dbis[name] = d
	log.Debug("opened dbi", "name", name)
	return d, nil
}

// GetDBI returns the registered handle of name.
func (e *Env) GetDBI(name string) (*DBI, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrNotOpen
	}
	d, ok := e.dbis[name]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownDBI, "get dbi %q", name)
	}
	return d, nil
}

// ListDBIs returns the registered sub-database names, sorted.
func (e *Env) ListDBIs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.dbis))
	for name := range e.dbis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearDBI removes all entries of the named sub-database, keeping the
// handle registered.
func (e *Env) ClearDBI(name string) error {
	return e.dropDBI(name, false)
}

// DropDBI deletes the named sub-database and removes it from the
// registry.
func (e *Env) DropDBI(name string) error {
	return e.dropDBI(name, true)
}

func (e *Env) dropDBI(name string, del bool) error {
	d, err := e.GetDBI(name)
	if err != nil {
		return err
	}
	// the engine serializes writers; taking writeMu keeps the registry
	// change ordered against in-flight write batches
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	txn, err := e.engine.BeginTxn(false)
	if err != nil {
		return errors.Wrapf(err, "drop dbi %q", name)
	}
	if err := txn.Drop(d.dbi, del); err != nil {
		txn.Abort()
		return errors.Wrapf(err, "drop dbi %q", name)
	}
	if err := txn.Commit(); err != nil {
		return errors.Wrapf(err, "drop dbi %q", name)
	}
	if del {
		e.mu.Lock()
		delete(e.dbis, name)
		e.mu.Unlock()
		log.Debug("dropped dbi", "name", name)
	}
	return nil
}

// Entries returns the entry count of the named sub-database.
func (e *Env) Entries(name string) (uint64, error) {
	var n uint64
	err := e.readOp("entries", name, func(d *DBI, rtx *Rtx) error {
		var err error
		n, err = d.entries(rtx)
		return err
	})
	return n, err
}

// Info returns engine runtime information.
func (e *Env) Info() (*kv.Info, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.engine.Info()
}

// Sync flushes buffered writes to disk.
func (e *Env) Sync() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return errors.Wrap(e.engine.Sync(true), "sync env")
}
