// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/kv"
)

const badReaderLockHint = "bad reader lock; open one environment handle per directory per process and share it"

// rtxPool recycles read transactions up to a fixed cap, so read paths skip
// the cost of creating one per call and reader slots stay bounded.
//
// Acquisition is serialized under the pool mutex. The starting probe slot
// rotates so concurrent callers spread over distinct slots. When every
// slot is leased and the cap is reached, get blocks until a reset frees
// one.
type rtxPool struct {
	engine kv.Engine

	mu     sync.Mutex
	cond   *sync.Cond
	rtxs   map[int]*Rtx
	cnt    int
	next   uint32
	closed bool
}

func newRtxPool(engine kv.Engine) *rtxPool {
	p := &rtxPool{
		engine: engine,
		rtxs:   make(map[int]*Rtx),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// get leases an Active rtx ready for engine calls.
func (p *rtxPool) get() (*Rtx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.closed {
			return nil, ErrNotOpen
		}
		if p.cnt > 0 {
			start := int(p.next % uint32(p.cnt))
			p.next++
			for i := 0; i < p.cnt; i++ {
				rtx := p.rtxs[(start+i)%p.cnt]
				if rtx.state == rtxActive {
					continue
				}
				if err := p.renew(rtx); err != nil {
					return nil, err
				}
				return rtx, nil
			}
		}
		if p.cnt < UseReaders {
			return p.allocate()
		}
		metricPoolWaits().Add(1)
		p.cond.Wait()
	}
}

// allocate creates a fresh rtx under the cap. The new txn is reset then
// renewed so it follows the same slot lifecycle as recycled ones.
func (p *rtxPool) allocate() (*Rtx, error) {
	txn, err := p.engine.BeginTxn(true)
	if err != nil {
		if p.engine.IsBadReaderLock(err) {
			return nil, errors.Wrap(err, badReaderLockHint)
		}
		return nil, errors.Wrap(err, "begin read txn")
	}
	rtx := newRtx(txn, p.engine.MaxKeySize())
	txn.Reset()
	if err := p.renew(rtx); err != nil {
		txn.Abort()
		return nil, err
	}
	p.rtxs[p.cnt] = rtx
	p.cnt++
	metricPoolRTXs().Set(int64(p.cnt))
	log.Debug("pool grew", "rtxs", p.cnt)
	return rtx, nil
}

func (p *rtxPool) renew(rtx *Rtx) error {
	if err := rtx.txn.Renew(); err != nil {
		if p.engine.IsBadReaderLock(err) {
			return errors.Wrap(err, badReaderLockHint)
		}
		return errors.Wrap(err, "renew read txn")
	}
	rtx.state = rtxActive
	return nil
}

// reset returns a leased rtx to the pool and wakes one blocked getter.
func (p *rtxPool) reset(rtx *Rtx) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rtx.state != rtxActive {
		return
	}
	rtx.txn.Reset()
	rtx.state = rtxReset
	p.cond.Signal()
}

// close aborts all pooled txns. Blocked getters fail with ErrNotOpen.
func (p *rtxPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, rtx := range p.rtxs {
		rtx.txn.Abort()
	}
	p.rtxs = make(map[int]*Rtx)
	p.cnt = 0
	metricPoolRTXs().Set(0)
	p.cond.Broadcast()
}
