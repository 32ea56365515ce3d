package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_WriteReadRoundTrip(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "reports/2024/report.txt", []byte("hello")))

	data, err := fs.Read(ctx, "reports/2024/report.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestLocalFS_Exists(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := fs.Exists(ctx, "missing.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Write(ctx, "present.json", []byte("{}")))
	ok, err = fs.Exists(ctx, "present.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalFS_ListAndDelete(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "snaps/a.json", []byte("a")))
	require.NoError(t, fs.Write(ctx, "snaps/b.json", []byte("b")))

	paths, err := fs.List(ctx, "snaps")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	require.NoError(t, fs.Delete(ctx, "snaps/a.json"))
	paths, err = fs.List(ctx, "snaps")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestLocalFS_ListMissingPrefixIsEmpty(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	paths, err := fs.List(context.Background(), "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalFS_OverwriteIsAtomicReplace(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "latest.json", []byte("v1")))
	require.NoError(t, fs.Write(ctx, "latest.json", []byte("v2")))

	data, err := fs.Read(ctx, "latest.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	// No temp file left behind.
	paths, err := fs.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}
