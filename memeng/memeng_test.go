// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package memeng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hendursaga/datalevin/kv"
)

func openTestDBI(t *testing.T, e *MemEngine, name string) kv.DBI {
	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	dbi, err := txn.OpenDBI(name, true)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
	return dbi
}

func TestPutGetDel(t *testing.T) {
	e := New(Options{})
	defer e.Close()
	dbi := openTestDBI(t, e, "a")

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v"), 0))
	require.NoError(t, txn.Commit())

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)
	v, err := rtx.Get(dbi, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	_, err = rtx.Get(dbi, []byte("missing"))
	assert.True(t, e.IsNotFound(err))
	rtx.Abort()

	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Del(dbi, []byte("k")))
	assert.True(t, e.IsNotFound(txn.Del(dbi, []byte("k"))))
	require.NoError(t, txn.Commit())
}

func TestSnapshotIsolation(t *testing.T) {
	e := New(Options{})
	defer e.Close()
	dbi := openTestDBI(t, e, "a")

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v"), 0))
	require.NoError(t, txn.Commit())

	// reader pinned before the commit must not see it
	_, err = rtx.Get(dbi, []byte("k"))
	assert.True(t, e.IsNotFound(err))

	// after reset+renew the commit becomes visible
	rtx.Reset()
	require.NoError(t, rtx.Renew())
	v, err := rtx.Get(dbi, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	rtx.Abort()
}

func TestMapFull(t *testing.T) {
	e := New(Options{MapSize: 64})
	defer e.Close()
	dbi := openTestDBI(t, e, "a")

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k1"), make([]byte, 16), 0))
	err = txn.Put(dbi, []byte("k2"), make([]byte, 64), 0)
	assert.True(t, e.IsMapFull(err))
	txn.Abort()

	require.NoError(t, e.SetMapSize(1024))
	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k2"), make([]byte, 64), 0))
	require.NoError(t, txn.Commit())
}

func TestCursorOps(t *testing.T) {
	e := New(Options{})
	defer e.Close()
	dbi := openTestDBI(t, e, "a")

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	for _, k := range []string{"b", "d", "f"} {
		require.NoError(t, txn.Put(dbi, []byte(k), []byte("v"+k), 0))
	}
	require.NoError(t, txn.Commit())

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)
	defer rtx.Abort()
	cur, err := rtx.OpenCursor(dbi)
	require.NoError(t, err)
	defer cur.Close()

	k, _, err := cur.Get(nil, kv.First)
	require.NoError(t, err)
	assert.Equal(t, "b", string(k))

	k, _, err = cur.Get(nil, kv.Next)
	require.NoError(t, err)
	assert.Equal(t, "d", string(k))

	k, v, err := cur.Get(nil, kv.GetCurrent)
	require.NoError(t, err)
	assert.Equal(t, "d", string(k))
	assert.Equal(t, "vd", string(v))

	k, _, err = cur.Get([]byte("e"), kv.SetRange)
	require.NoError(t, err)
	assert.Equal(t, "f", string(k))

	_, _, err = cur.Get(nil, kv.Next)
	assert.True(t, e.IsNotFound(err))

	k, _, err = cur.Get(nil, kv.Last)
	require.NoError(t, err)
	assert.Equal(t, "f", string(k))

	k, _, err = cur.Get(nil, kv.Prev)
	require.NoError(t, err)
	assert.Equal(t, "d", string(k))
}

func TestDropAndClear(t *testing.T) {
	e := New(Options{})
	defer e.Close()
	dbi := openTestDBI(t, e, "a")

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v"), 0))
	require.NoError(t, txn.Commit())

	// clear keeps the handle
	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Drop(dbi, false))
	st, err := txn.Stat(dbi)
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
	require.NoError(t, txn.Commit())

	got, err := e.openDBI("a", false)
	require.NoError(t, err)
	assert.Equal(t, dbi, got)

	// drop removes the name
	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Drop(dbi, true))
	require.NoError(t, txn.Commit())

	_, err = e.openDBI("a", false)
	assert.True(t, e.IsNotFound(err))
}
