package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	type cachedUser struct {
		ID    string `json:"id"`
		Phone string `json:"phone"`
	}

	t.Run("round trip", func(t *testing.T) {
		store, err := New(t.TempDir())
		require.NoError(t, err)

		err = Save(store, KeyUser, cachedUser{ID: "u1", Phone: "+91 9000000000"})
		require.NoError(t, err)

		got, ok := Load[cachedUser](store, KeyUser)
		require.True(t, ok)
		require.Equal(t, cachedUser{ID: "u1", Phone: "+91 9000000000"}, got)
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		store, err := New(t.TempDir())
		require.NoError(t, err)

		_, ok := Load[cachedUser](store, "never_saved")
		require.False(t, ok)
	})

	t.Run("version mismatch discards", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir)
		require.NoError(t, err)

		stale := `{"version":0,"savedAt":"2024-01-01T00:00:00Z","value":{"id":"u1"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, KeyUser+".json"), []byte(stale), 0o600))

		_, ok := Load[cachedUser](store, KeyUser)
		require.False(t, ok)
	})

	t.Run("malformed content is a miss not an error", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, KeyUser+".json"), []byte("{not json"), 0o600))

		_, ok := Load[cachedUser](store, KeyUser)
		require.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		store, err := New(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, Save(store, KeyRedirect, "/send?requestId=r1"))
		require.NoError(t, store.Delete(KeyRedirect))
		require.NoError(t, store.Delete(KeyRedirect), "double delete should be fine")

		_, ok := Load[string](store, KeyRedirect)
		require.False(t, ok)
	})
}
