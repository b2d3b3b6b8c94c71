// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/codec"
)

// KV is a decoded key/value pair. K is nil when the read ignored keys.
type KV struct {
	K any
	V any
}

// Pred filters raw pairs during a scan. The views are only valid for the
// duration of the call.
type Pred func(k, v []byte) bool

// readOp is the shared read-path frame: resolve the dbi, lease an rtx,
// run the scan, and reset the rtx on every path.
func (e *Env) readOp(op, dbiName string, fn func(*DBI, *Rtx) error) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	d, err := e.GetDBI(dbiName)
	if err != nil {
		return err
	}
	rtx, err := e.pool.get()
	if err != nil {
		return err
	}
	defer e.pool.reset(rtx)
	metricReadOps().AddWithLabel(1, map[string]string{"op": op})
	return errors.WithMessagef(fn(d, rtx), "%s on dbi %q", op, dbiName)
}

// GetValue returns the value stored under k, decoded per vt, or nil when
// the key is absent. With ignoreKey unset the result is a *KV carrying
// the original key.
func (e *Env) GetValue(dbi string, k any, kt, vt codec.Type, ignoreKey bool) (any, error) {
	var res any
	err := e.readOp("get-value", dbi, func(d *DBI, rtx *Rtx) error {
		if err := rtx.PutKey(k, kt); err != nil {
			return err
		}
		bs, err := d.GetKV(rtx)
		if err != nil {
			if e.engine.IsNotFound(err) {
				return nil
			}
			return err
		}
		v, err := decodeVal(bs, vt)
		if err != nil {
			return err
		}
		if ignoreKey {
			res = v
		} else {
			res = &KV{K: k, V: v}
		}
		return nil
	})
	return res, err
}

// GetValueData is GetValue with data-typed key and value.
func (e *Env) GetValueData(dbi string, k any) (any, error) {
	return e.GetValue(dbi, k, codec.Data, codec.Data, true)
}

// GetFirst returns the first pair of the range, or nil on an empty range.
func (e *Env) GetFirst(dbi string, kr KeyRange, kt, vt codec.Type, ignoreKey bool) (*KV, error) {
	var res *KV
	err := e.readOp("get-first", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		res, err = fetchFirst(d, rtx, kr, kt, vt, ignoreKey)
		return err
	})
	return res, err
}

// GetRange returns all pairs of the range in range order.
func (e *Env) GetRange(dbi string, kr KeyRange, kt, vt codec.Type, ignoreKey bool) ([]KV, error) {
	var res []KV
	err := e.readOp("get-range", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		res, err = fetchRange(d, rtx, kr, kt, vt, ignoreKey)
		return err
	})
	return res, err
}

// RangeCount returns the number of pairs in the range.
func (e *Env) RangeCount(dbi string, kr KeyRange, kt codec.Type) (int64, error) {
	var n int64
	err := e.readOp("range-count", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		n, err = rangeCount(d, rtx, kr, kt)
		return err
	})
	return n, err
}

// GetSome returns the first pair of the range satisfying pred, or nil.
func (e *Env) GetSome(dbi string, pred Pred, kr KeyRange, kt, vt codec.Type, ignoreKey bool) (*KV, error) {
	var res *KV
	err := e.readOp("get-some", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		res, err = fetchSome(d, rtx, pred, kr, kt, vt, ignoreKey)
		return err
	})
	return res, err
}

// RangeFilter returns the pairs of the range satisfying pred, in range
// order.
func (e *Env) RangeFilter(dbi string, pred Pred, kr KeyRange, kt, vt codec.Type, ignoreKey bool) ([]KV, error) {
	var res []KV
	err := e.readOp("range-filter", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		res, err = rangeFilter(d, rtx, pred, kr, kt, vt, ignoreKey)
		return err
	})
	return res, err
}

// RangeFilterCount returns the number of pairs in the range satisfying
// pred.
func (e *Env) RangeFilterCount(dbi string, pred Pred, kr KeyRange, kt codec.Type) (int64, error) {
	var n int64
	err := e.readOp("range-filter-count", dbi, func(d *DBI, rtx *Rtx) error {
		var err error
		n, err = rangeFilterCount(d, rtx, pred, kr, kt)
		return err
	})
	return n, err
}

// scan helpers

func fetchFirst(d *DBI, rtx *Rtx, kr KeyRange, kt, vt codec.Type, ignoreKey bool) (*KV, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if !it.HasNext() {
		return nil, it.Err()
	}
	k, v := it.Next()
	pair, err := decodePair(k, v, kt, vt, ignoreKey)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func fetchRange(d *DBI, rtx *Rtx, kr KeyRange, kt, vt codec.Type, ignoreKey bool) ([]KV, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []KV
	for it.HasNext() {
		k, v := it.Next()
		pair, err := decodePair(k, v, kt, vt, ignoreKey)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, it.Err()
}

func rangeCount(d *DBI, rtx *Rtx, kr KeyRange, kt codec.Type) (int64, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	var n int64
	for it.HasNext() {
		n++
	}
	return n, it.Err()
}

func fetchSome(d *DBI, rtx *Rtx, pred Pred, kr KeyRange, kt, vt codec.Type, ignoreKey bool) (*KV, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.HasNext() {
		k, v := it.Next()
		if !pred(k, v) {
			continue
		}
		pair, err := decodePair(k, v, kt, vt, ignoreKey)
		if err != nil {
			return nil, err
		}
		return &pair, nil
	}
	return nil, it.Err()
}

func rangeFilter(d *DBI, rtx *Rtx, pred Pred, kr KeyRange, kt, vt codec.Type, ignoreKey bool) ([]KV, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var out []KV
	for it.HasNext() {
		k, v := it.Next()
		if !pred(k, v) {
			continue
		}
		pair, err := decodePair(k, v, kt, vt, ignoreKey)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, it.Err()
}

func rangeFilterCount(d *DBI, rtx *Rtx, pred Pred, kr KeyRange, kt codec.Type) (int64, error) {
	it, err := d.IterateKV(rtx, kr, kt)
	if err != nil {
		return 0, err
	}
	defer it.Close()
	var n int64
	for it.HasNext() {
		k, v := it.Next()
		if pred(k, v) {
			n++
		}
	}
	return n, it.Err()
}

// decodeVal decodes an engine view, detaching Data results from the
// scratch buffer they alias.
func decodeVal(bs []byte, t codec.Type) (any, error) {
	if t == codec.Data {
		return append([]byte(nil), bs...), nil
	}
	return codec.GetValue(bs, t)
}

func decodePair(k, v []byte, kt, vt codec.Type, ignoreKey bool) (KV, error) {
	dv, err := decodeVal(v, vt)
	if err != nil {
		return KV{}, err
	}
	if ignoreKey {
		return KV{V: dv}, nil
	}
	dk, err := decodeVal(k, kt)
	if err != nil {
		return KV{}, err
	}
	return KV{K: dk, V: dv}, nil
}
