// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/pkg/errors"

	"github.com/hendursaga/datalevin/codec"
	"github.com/hendursaga/datalevin/kv"
)

type rtxState int

const (
	rtxFresh rtxState = iota
	rtxActive
	rtxReset
)

// Rtx is a pooled read-only transaction plus the scratch buffers of one
// read operation. It is leased to exactly one caller at a time; the
// buffers are private to that caller until the lease is reset.
type Rtx struct {
	txn   kv.Txn
	state rtxState

	kb      *codec.Buffer // point-read key
	vb      *codec.Buffer // materialized value
	startKB *codec.Buffer // range start key
	stopKB  *codec.Buffer // range stop key
}

func newRtx(txn kv.Txn, maxKeySize int) *Rtx {
	return &Rtx{
		txn:     txn,
		kb:      codec.NewBuffer(maxKeySize),
		vb:      codec.NewBuffer(DefaultValSize),
		startKB: codec.NewBuffer(maxKeySize),
		stopKB:  codec.NewBuffer(maxKeySize),
	}
}

// PutKey encodes k into the read key buffer. Key buffers never grow; an
// oversized key is a caller error.
func (r *Rtx) PutKey(k any, kt codec.Type) error {
	r.kb.Reset()
	return errors.WithMessage(codec.PutBuffer(r.kb, k, kt), "put read key")
}

// PutStartKey encodes the range start key.
func (r *Rtx) PutStartKey(k any, kt codec.Type) error {
	r.startKB.Reset()
	return errors.WithMessage(codec.PutBuffer(r.startKB, k, kt), "put start key")
}

// PutStopKey encodes the range stop key.
func (r *Rtx) PutStopKey(k any, kt codec.Type) error {
	r.stopKB.Reset()
	return errors.WithMessage(codec.PutBuffer(r.stopKB, k, kt), "put stop key")
}

// materialize copies an engine-owned value view into the rtx value
// buffer, so the result stays valid for the rest of the lease.
func (r *Rtx) materialize(v []byte) []byte {
	if len(v) > r.vb.Cap() {
		r.vb = codec.NewBuffer(2 * len(v))
	}
	r.vb.Reset()
	_ = r.vb.Write(v)
	return r.vb.Bytes()
}
