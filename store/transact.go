// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/codec"
	"github.com/hendursaga/datalevin/kv"
)

// mapGrowFactor scales the memory map when a write batch exhausts it.
const mapGrowFactor = 10

// OpKind is the kind of a write operation.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDel
)

// Op is one operation of a write batch. Zero-valued KeyType/ValType mean
// codec.Data.
type Op struct {
	Kind    OpKind
	DBI     string
	Key     any
	Val     any
	KeyType codec.Type
	ValType codec.Type
	Flags   kv.PutFlags
}

// Put builds a put op with data-typed key and value.
func Put(dbi string, key, val any) Op {
	return Op{Kind: OpPut, DBI: dbi, Key: key, Val: val}
}

// Del builds a del op with a data-typed key.
func Del(dbi string, key any) Op {
	return Op{Kind: OpDel, DBI: dbi, Key: key}
}

// Transact applies the batch atomically, in input order. When the batch
// exhausts the memory map, the map is grown 10x and the whole batch
// retried; the retry loop ends once the working set fits.
func (e *Env) Transact(ops []Op) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	for {
		err := e.applyBatch(ops)
		if err == nil {
			metricTransactOps().Observe(int64(len(ops)))
			return nil
		}
		if e.engine.IsMapFull(errors.Cause(err)) {
			info, ierr := e.engine.Info()
			if ierr != nil {
				return errors.Wrap(ierr, "env info after map full")
			}
			newSize := info.MapSize * mapGrowFactor
			if rerr := e.engine.SetMapSize(newSize); rerr != nil {
				return errors.Wrap(rerr, "grow map")
			}
			metricMapResizes().Add(1)
			log.Info("grew map on full", "from", info.MapSize, "to", newSize)
			continue
		}
		return errors.WithMessagef(err, "transact of %d ops", len(ops))
	}
}

func (e *Env) applyBatch(ops []Op) error {
	txn, err := e.engine.BeginTxn(false)
	if err != nil {
		return errors.Wrap(err, "begin write txn")
	}
	committed := false
	defer func() {
		if !committed {
			txn.Abort()
		}
	}()

	for i := range ops {
		op := &ops[i]
		d, err := e.GetDBI(op.DBI)
		if err != nil {
			return err
		}
		if err := d.PutKey(op.Key, op.KeyType); err != nil {
			return err
		}
		switch op.Kind {
		case OpPut:
			if err := d.PutVal(op.Val, op.ValType); err != nil {
				return err
			}
			if err := d.Put(txn, op.Flags); err != nil {
				return errors.Wrapf(err, "put op %d on dbi %q", i, op.DBI)
			}
		case OpDel:
			if err := d.Del(txn); err != nil {
				// deleting an absent key is a no-op
				if e.engine.IsNotFound(err) {
					continue
				}
				return errors.Wrapf(err, "del op %d on dbi %q", i, op.DBI)
			}
		default:
			return errors.Errorf("unknown op kind %d at %d", op.Kind, i)
		}
	}

	if err := txn.Commit(); err != nil {
		return errors.Wrap(err, "commit write txn")
	}
	committed = true
	return nil
}
