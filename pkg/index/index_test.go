package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingStartsEmpty(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	assert.Empty(t, idx.TaskIDs())
	assert.Equal(t, "", idx.Get("1"))
}

func TestSaveAndReopen(t *testing.T) {
	path := DefaultPath(filepath.Join(t.TempDir(), "taskboard"))
	idx, err := Open(path)
	require.NoError(t, err)

	idx.Set("b", "evt-b")
	idx.Set("a", "evt-a")
	idx.Remove("missing")
	require.NoError(t, idx.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reopened.TaskIDs())
	assert.Equal(t, "evt-a", reopened.Get("a"))

	reopened.Remove("a")
	require.NoError(t, reopened.Save())
	again, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, again.TaskIDs())
}

func TestSaveSkipsCleanIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Save())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err := Open(path)
	assert.Error(t, err)
}
