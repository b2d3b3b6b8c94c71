// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hendursaga/datalevin/codec"
)

func TestPutGetEntries(t *testing.T) {
	env := OpenMem()
	defer env.Close()

	_, err := env.OpenDBI("a")
	require.NoError(t, err)

	require.NoError(t, env.Transact([]Op{
		{Kind: OpPut, DBI: "a", Key: int64(1), Val: "x", KeyType: codec.Long, ValType: codec.String},
	}))

	v, err := env.GetValue("a", int64(1), codec.Long, codec.String, true)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	n, err := env.Entries("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	// delete makes the key read as absent
	require.NoError(t, env.Transact([]Op{
		{Kind: OpDel, DBI: "a", Key: int64(1), KeyType: codec.Long},
	}))
	v, err = env.GetValue("a", int64(1), codec.Long, codec.String, true)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestGetValueVariants(t *testing.T) {
	env := OpenMem()
	defer env.Close()
	_, err := env.OpenDBI("a")
	require.NoError(t, err)

	require.NoError(t, env.Transact([]Op{Put("a", []byte("k"), []byte("v"))}))

	v, err := env.GetValueData("a", []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	// point read keeping the key
	got, err := env.GetValue("a", []byte("k"), codec.Data, codec.Data, false)
	require.NoError(t, err)
	pair, ok := got.(*KV)
	require.True(t, ok)
	assert.Equal(t, []byte("k"), pair.K)
	assert.Equal(t, []byte("v"), pair.V)

	// absent key reads as empty result, not an error
	v, err = env.GetValueData("a", []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestUnknownDBI(t *testing.T) {
	env := OpenMem()
	defer env.Close()

	_, err := env.GetValueData("nope", []byte("k"))
	assert.True(t, IsUnknownDBI(err))

	err = env.Transact([]Op{Put("nope", []byte("k"), []byte("v"))})
	assert.True(t, IsUnknownDBI(err))
}

func TestDropAndClearDBI(t *testing.T) {
	env := OpenMem()
	defer env.Close()
	_, err := env.OpenDBI("a")
	require.NoError(t, err)
	require.NoError(t, env.Transact([]Op{Put("a", []byte("k"), []byte("v"))}))

	// clear empties but keeps the handle
	require.NoError(t, env.ClearDBI("a"))
	n, err := env.Entries("a")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = env.GetDBI("a")
	require.NoError(t, err)

	// drop removes the handle
	require.NoError(t, env.DropDBI("a"))
	_, err = env.GetDBI("a")
	assert.True(t, IsUnknownDBI(err))
	assert.NotContains(t, env.ListDBIs(), "a")
}

func TestListDBIs(t *testing.T) {
	env := OpenMem()
	defer env.Close()
	for _, name := range []string{"c", "a", "b"} {
		_, err := env.OpenDBI(name)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, env.ListDBIs())
}

func TestClosedEnv(t *testing.T) {
	env := OpenMem()
	_, err := env.OpenDBI("a")
	require.NoError(t, err)
	require.NoError(t, env.Close())
	assert.True(t, env.IsClosed())
	// closing twice is fine
	require.NoError(t, env.Close())

	_, err = env.GetValueData("a", []byte("k"))
	assert.ErrorIs(t, err, ErrNotOpen)
	err = env.Transact([]Op{Put("a", []byte("k"), []byte("v"))})
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = env.OpenDBI("b")
	assert.ErrorIs(t, err, ErrNotOpen)
	err = env.Sync()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestValueBufferAutoGrow(t *testing.T) {
	env := OpenMem()
	defer env.Close()
	_, err := env.OpenDBI("a")
	require.NoError(t, err)

	big := strings.Repeat("x", DefaultValSize*3)
	require.NoError(t, env.Transact([]Op{
		{Kind: OpPut, DBI: "a", Key: []byte("big"), Val: big, ValType: codec.String},
	}))

	v, err := env.GetValue("a", []byte("big"), codec.Data, codec.String, true)
	require.NoError(t, err)
	assert.Equal(t, big, v)
}

func TestOversizedKeyFails(t *testing.T) {
	env := OpenMem()
	defer env.Close()
	_, err := env.OpenDBI("a")
	require.NoError(t, err)

	hugeKey := make([]byte, MaxKeySize+1)
	err = env.Transact([]Op{Put("a", hugeKey, []byte("v"))})
	require.Error(t, err)
	assert.True(t, codec.IsOverflow(err))
	assert.Contains(t, err.Error(), "BufferOverflow")
}
