package models

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(5), f.Size)
	assert.Contains(t, f.ContentType, "text/plain")

	r, err := f.Open()
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestFileFromPath_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.zzunknown")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))

	f, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Empty(t, f.ContentType)
}

func TestFileFromPath_Errors(t *testing.T) {
	_, err := FileFromPath(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)

	_, err = FileFromPath(t.TempDir())
	require.ErrorIs(t, err, ErrNotRegularFile)
}

func TestFileFromBytes_Reopenable(t *testing.T) {
	f := FileFromBytes("empty.txt", "text/plain", nil)
	assert.Equal(t, int64(0), f.Size)

	for i := 0; i < 2; i++ {
		r, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Empty(t, b)
		require.NoError(t, r.Close())
	}
}

func TestFile_OpenWithoutContent(t *testing.T) {
	f := &File{Name: "x"}
	_, err := f.Open()
	require.Error(t, err)
}

func TestUploadStatus_Classes(t *testing.T) {
	assert.True(t, UploadSucceeded.Terminal())
	assert.True(t, UploadFailed.Terminal())
	assert.False(t, UploadSigning.Terminal())

	assert.True(t, UploadPreparing.InFlight())
	assert.True(t, UploadTransmitting.InFlight())
	assert.False(t, UploadIdle.InFlight())
	assert.False(t, UploadFailed.InFlight())
}
