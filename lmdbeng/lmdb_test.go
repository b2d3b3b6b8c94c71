// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lmdbeng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hendursaga/datalevin/kv"
)

func newTestEngine(t *testing.T) *LMDB {
	e, err := New(t.TempDir(), Options{
		MapSize:    64 << 20,
		MaxReaders: 126,
		MaxDBs:     16,
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestOpenPutGet(t *testing.T) {
	e := newTestEngine(t)

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	dbi, err := txn.OpenDBI("a", true)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v"), 0))
	require.NoError(t, txn.Commit())

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)
	defer rtx.Abort()
	v, err := rtx.Get(dbi, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = rtx.Get(dbi, []byte("missing"))
	assert.True(t, e.IsNotFound(err))
}

func TestResetRenew(t *testing.T) {
	e := newTestEngine(t)

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	dbi, err := txn.OpenDBI("a", true)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)
	defer rtx.Abort()
	rtx.Reset()

	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v"), 0))
	require.NoError(t, txn.Commit())

	require.NoError(t, rtx.Renew())
	v, err := rtx.Get(dbi, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestCursorWalk(t *testing.T) {
	e := newTestEngine(t)

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	dbi, err := txn.OpenDBI("a", true)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, txn.Put(dbi, []byte(k), []byte(k), 0))
	}
	require.NoError(t, txn.Commit())

	rtx, err := e.BeginTxn(true)
	require.NoError(t, err)
	defer rtx.Abort()
	cur, err := rtx.OpenCursor(dbi)
	require.NoError(t, err)
	defer cur.Close()

	var got []string
	k, _, err := cur.Get(nil, kv.First)
	for err == nil {
		got = append(got, string(k))
		k, _, err = cur.Get(nil, kv.Next)
	}
	assert.True(t, e.IsNotFound(err))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMapFullAndResize(t *testing.T) {
	e, err := New(t.TempDir(), Options{
		MapSize:    1 << 16, // tiny map to force exhaustion
		MaxReaders: 126,
		MaxDBs:     16,
	})
	require.NoError(t, err)
	defer e.Close()

	txn, err := e.BeginTxn(false)
	require.NoError(t, err)
	dbi, err := txn.OpenDBI("a", true)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	var full bool
	for i := byte(0); i < 255 && !full; i++ {
		txn, err := e.BeginTxn(false)
		require.NoError(t, err)
		err = txn.Put(dbi, []byte{i}, make([]byte, 4096), 0)
		if err == nil {
			err = txn.Commit()
		} else {
			txn.Abort()
		}
		if err != nil {
			require.True(t, e.IsMapFull(err))
			full = true
		}
	}
	require.True(t, full)

	info, err := e.Info()
	require.NoError(t, err)
	require.NoError(t, e.SetMapSize(info.MapSize*10))

	txn, err = e.BeginTxn(false)
	require.NoError(t, err)
	require.NoError(t, txn.Put(dbi, []byte("post-resize"), make([]byte, 4096), 0))
	require.NoError(t, txn.Commit())
}
