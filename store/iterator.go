// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/hendursaga/datalevin/kv"
)

// Iterator lazily walks a DBI in key order, restricted to a key range.
// It is single-pass and must be closed to release its cursor.
//
// Protocol: every Next must be preceded by a HasNext that returned true.
// HasNext advances and positions the cursor; Next reads the pair at the
// current position. The returned views are invalidated by the following
// HasNext.
type Iterator struct {
	cur    kv.Cursor
	engine kv.Engine
	ri     rangeInfo

	start, stop []byte

	started, ended bool
	k, v           []byte
	err            error
}

// HasNext advances to the next pair in range, reporting whether one
// exists. Once it returns false it never returns true again.
func (it *Iterator) HasNext() bool {
	if it.ended {
		return false
	}
	var (
		k, v []byte
		err  error
	)
	if it.started {
		k, v, err = it.step()
	} else {
		it.started = true
		k, v, err = it.seek()
	}
	if err != nil {
		it.ended = true
		if !it.engine.IsNotFound(err) {
			it.err = err
		}
		return false
	}
	it.k, it.v = k, v
	if it.ri.hasStop {
		return it.checkStop()
	}
	return true
}

// Next returns the pair HasNext positioned at.
func (it *Iterator) Next() (key, val []byte) {
	return it.k, it.v
}

// Err returns the first engine failure hit while advancing. A plain range
// exhaustion leaves it nil.
func (it *Iterator) Err() error { return it.err }

// Close releases the cursor.
func (it *Iterator) Close() { it.cur.Close() }

// seek performs the initial positioning.
func (it *Iterator) seek() ([]byte, []byte, error) {
	if !it.ri.hasStart {
		if it.ri.forward {
			return it.cur.Get(nil, kv.First)
		}
		return it.cur.Get(nil, kv.Last)
	}

	k, v, err := it.cur.Get(it.start, kv.SetRange)
	if it.ri.forward {
		if err != nil {
			return nil, nil, err
		}
		if !it.ri.includeStart && it.engine.CmpKeys(k, it.start) == 0 {
			return it.cur.Get(nil, kv.Next)
		}
		return k, v, nil
	}

	// Backward: the walk begins at the largest key <= start. SetRange
	// lands at the smallest key >= start, so adjust from there.
	if err != nil {
		if it.engine.IsNotFound(err) {
			return it.cur.Get(nil, kv.Last)
		}
		return nil, nil, err
	}
	if it.engine.CmpKeys(k, it.start) == 0 {
		if it.ri.includeStart {
			return k, v, nil
		}
		return it.cur.Get(nil, kv.Prev)
	}
	return it.cur.Get(nil, kv.Prev)
}

func (it *Iterator) step() ([]byte, []byte, error) {
	if it.ri.forward {
		return it.cur.Get(nil, kv.Next)
	}
	return it.cur.Get(nil, kv.Prev)
}

// checkStop tests the current position against the stop bound. The key is
// re-read through GetCurrent because advancement mutates cursor internal
// state.
func (it *Iterator) checkStop() bool {
	k, _, err := it.cur.Get(nil, kv.GetCurrent)
	if err != nil {
		it.ended = true
		if !it.engine.IsNotFound(err) {
			it.err = err
		}
		return false
	}
	cmp := it.engine.CmpKeys(k, it.stop)
	if !it.ri.forward {
		cmp = -cmp
	}
	switch {
	case cmp == 0:
		it.ended = true
		return it.ri.includeStop
	case cmp > 0:
		it.ended = true
		return false
	}
	return true
}
