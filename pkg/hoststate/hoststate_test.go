package hoststate_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/hoststate"
)

// conformance exercises the StateStore contract shared by every backend.
func conformance(t *testing.T, store hoststate.Store) {
	t.Helper()

	t.Run("view state round trip", func(t *testing.T) {
		blob := []byte(`{"layers":[1,2]}`)
		require.NoError(t, store.SetViewState("node-rt", "canvas", blob))

		got, err := store.ViewState("node-rt", "canvas")
		require.NoError(t, err)
		assert.Equal(t, blob, got)
	})

	t.Run("view state overwrite", func(t *testing.T) {
		require.NoError(t, store.SetViewState("node-ow", "canvas", []byte("one")))
		require.NoError(t, store.SetViewState("node-ow", "canvas", []byte("two")))

		got, err := store.ViewState("node-ow", "canvas")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("missing view state is nil", func(t *testing.T) {
		got, err := store.ViewState("node-missing", "canvas")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("state isolated per view", func(t *testing.T) {
		require.NoError(t, store.SetViewState("node-iso", "canvas", []byte("paint")))
		require.NoError(t, store.SetViewState("node-iso", "object", []byte("tree")))

		canvas, err := store.ViewState("node-iso", "canvas")
		require.NoError(t, err)
		object, err := store.ViewState("node-iso", "object")
		require.NoError(t, err)
		assert.Equal(t, []byte("paint"), canvas)
		assert.Equal(t, []byte("tree"), object)
	})

	t.Run("exclusions round trip", func(t *testing.T) {
		require.NoError(t, store.SetExclusions("node-ex", []int{0, 2, 5}))

		got, err := store.Exclusions("node-ex")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 5}, got)
	})

	t.Run("exclusions overwrite", func(t *testing.T) {
		require.NoError(t, store.SetExclusions("node-ex-ow", []int{1}))
		require.NoError(t, store.SetExclusions("node-ex-ow", []int{3, 4}))

		got, err := store.Exclusions("node-ex-ow")
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4}, got)
	})

	t.Run("empty exclusions clear previous ones", func(t *testing.T) {
		require.NoError(t, store.SetExclusions("node-ex-clear", []int{7}))
		require.NoError(t, store.SetExclusions("node-ex-clear", nil))

		got, err := store.Exclusions("node-ex-clear")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing exclusions are nil", func(t *testing.T) {
		got, err := store.Exclusions("node-ex-missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("prune removes state", func(t *testing.T) {
		require.NoError(t, store.SetViewState("node-prune", "canvas", []byte("gone")))
		require.NoError(t, store.PruneViewState("node-prune", "canvas"))

		got, err := store.ViewState("node-prune", "canvas")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("prune of absent state succeeds", func(t *testing.T) {
		assert.NoError(t, store.PruneViewState("node-prune-missing", "canvas"))
	})
}

func TestMemoryStore(t *testing.T) {
	conformance(t, hoststate.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := hoststate.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	conformance(t, store)
}

func TestMemoryStoreCopiesBlobs(t *testing.T) {
	store := hoststate.NewMemoryStore()

	blob := []byte("original")
	require.NoError(t, store.SetViewState("node-1", "canvas", blob))
	blob[0] = 'X'

	got, err := store.ViewState("node-1", "canvas")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.ViewState("node-1", "canvas")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := hoststate.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.SetViewState("node-1", "canvas", []byte(`{"layers":[]}`)))
	require.NoError(t, store.SetExclusions("node-1", []int{1}))
	require.NoError(t, store.Close())

	reopened, err := hoststate.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	blob, err := reopened.ViewState("node-1", "canvas")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"layers":[]}`), blob)

	indices, err := reopened.Exclusions("node-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices)
}
