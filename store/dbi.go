// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/codec"
	"github.com/hendursaga/datalevin/kv"
)

// DBI is a named sub-database. It carries the scratch buffers of the
// write path; those are not thread-safe and are serialized by the
// environment's single writer lock.
type DBI struct {
	engine kv.Engine
	dbi    kv.DBI
	name   string

	kb *codec.Buffer // write key, fixed size
	vb *codec.Buffer // write value, replaced on overflow
}

// Name returns the sub-database name.
func (d *DBI) Name() string { return d.name }

// PutKey encodes k into the key scratch buffer. The key buffer never
// grows; an oversized key is a caller error.
func (d *DBI) PutKey(k any, kt codec.Type) error {
	d.kb.Reset()
	return errors.WithMessagef(codec.PutBuffer(d.kb, k, kt), "put key of dbi %q", d.name)
}

// PutVal encodes v into the value scratch buffer. On overflow the cell is
// released for one sized 2x the measured encoding, and the encode retried
// once. Safe only on the write path, where no reader views the old cell.
func (d *DBI) PutVal(v any, vt codec.Type) error {
	d.vb.Reset()
	err := codec.PutBuffer(d.vb, v, vt)
	if codec.IsOverflow(err) {
		d.vb = codec.NewBuffer(2 * codec.MeasureSize(v, vt))
		err = codec.PutBuffer(d.vb, v, vt)
	}
	return errors.WithMessagef(err, "put val of dbi %q", d.name)
}

// Put writes the current key/value pair under txn.
func (d *DBI) Put(txn kv.Txn, flags kv.PutFlags) error {
	return txn.Put(d.dbi, d.kb.Bytes(), d.vb.Bytes(), flags)
}

// Del deletes the current key under txn.
func (d *DBI) Del(txn kv.Txn) error {
	return txn.Del(d.dbi, d.kb.Bytes())
}

// GetKV looks up the key held in the rtx key buffer and materializes the
// value into the rtx value buffer. The view stays valid for the lease.
func (d *DBI) GetKV(rtx *Rtx) ([]byte, error) {
	v, err := rtx.txn.Get(d.dbi, rtx.kb.Bytes())
	if err != nil {
		return nil, err
	}
	return rtx.materialize(v), nil
}

// IterateKV opens a cursor under the rtx and returns an iterator over the
// requested range. The iterator borrows the rtx range-key buffers and
// must be closed before the rtx is reset.
func (d *DBI) IterateKV(rtx *Rtx, kr KeyRange, kt codec.Type) (*Iterator, error) {
	ri := kr.Type.info()
	if ri.hasStart {
		if err := rtx.PutStartKey(kr.Start, kt); err != nil {
			return nil, err
		}
	}
	if ri.hasStop {
		if err := rtx.PutStopKey(kr.Stop, kt); err != nil {
			return nil, err
		}
	}
	cur, err := rtx.txn.OpenCursor(d.dbi)
	if err != nil {
		return nil, errors.Wrapf(err, "open cursor on dbi %q", d.name)
	}
	return &Iterator{
		cur:    cur,
		engine: d.engine,
		ri:     ri,
		start:  rtx.startKB.Bytes(),
		stop:   rtx.stopKB.Bytes(),
	}, nil
}

// entries reads the entry count under the rtx snapshot.
func (d *DBI) entries(rtx *Rtx) (uint64, error) {
	st, err := rtx.txn.Stat(d.dbi)
	if err != nil {
		return 0, errors.Wrapf(err, "stat dbi %q", d.name)
	}
	return st.Entries, nil
}
