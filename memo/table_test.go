package memo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_WriteOnce(t *testing.T) {
	tbl := newTable[string](4)
	key, err := Canonicalize("a")
	require.NoError(t, err)

	_, gen, ok := tbl.load(key)
	assert.False(t, ok)

	v, stored := tbl.storeIfAbsent(key, gen, "first")
	assert.True(t, stored)
	assert.Equal(t, "first", v)

	v, stored = tbl.storeIfAbsent(key, gen, "second")
	assert.False(t, stored)
	assert.Equal(t, "first", v)

	v, _, ok = tbl.load(key)
	assert.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, 1, tbl.len())
}

func TestTable_ClearDropsStaleWrites(t *testing.T) {
	tbl := newTable[int](1)
	key, err := Canonicalize(42)
	require.NoError(t, err)

	_, staleGen, _ := tbl.load(key)
	tbl.clear()

	_, stored := tbl.storeIfAbsent(key, staleGen, 1)
	assert.False(t, stored)
	assert.Equal(t, 0, tbl.len())

	_, gen, _ := tbl.load(key)
	_, stored = tbl.storeIfAbsent(key, gen, 2)
	assert.True(t, stored)
}

func TestTable_ZeroShardsPanics(t *testing.T) {
	assert.Panics(t, func() { newTable[int](0) })
}
