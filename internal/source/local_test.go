package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stashgate/cdn/internal/httprange"
)

func newTestSource(t *testing.T) (*LocalSource, string) {
	t.Helper()
	dir := t.TempDir()
	src, err := NewLocalSource(dir, "http://thumbs.local")
	require.NoError(t, err)
	return src, dir
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, data, 0644))
}

func TestLocalSource_Stat(t *testing.T) {
	src, dir := newTestSource(t)
	writeFile(t, dir, "clips/intro.mp4", bytes.Repeat([]byte{0xAB}, 1000))

	info, err := src.Stat(context.Background(), "clips/intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), info.Size)
	assert.Empty(t, info.ContentType)

	_, err = src.Stat(context.Background(), "clips/missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalSource_StatRejectsEscapingPath(t *testing.T) {
	src, _ := newTestSource(t)

	_, err := src.Stat(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalSource_OpenFull(t *testing.T) {
	src, dir := newTestSource(t)
	data := []byte("hello content delivery")
	writeFile(t, dir, "greeting.txt", data)

	rc, err := src.Open(context.Background(), "greeting.txt", nil)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalSource_OpenRange(t *testing.T) {
	src, dir := newTestSource(t)
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	writeFile(t, dir, "blob.bin", data)

	rng, err := httprange.Parse("bytes=200-499", 1000)
	require.NoError(t, err)

	rc, err := src.Open(context.Background(), "blob.bin", rng)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Len(t, got, 300)
	assert.Equal(t, data[200:500], got)
}

func TestLocalSource_OpenRangeTruncated(t *testing.T) {
	src, dir := newTestSource(t)
	writeFile(t, dir, "short.bin", make([]byte, 100))

	// Range claims more bytes than the file holds, as if the object
	// shrank between Stat and Open.
	rng := &httprange.ByteRange{Start: 0, End: 199, Total: 200}

	rc, err := src.Open(context.Background(), "short.bin", rng)
	require.NoError(t, err)
	defer rc.Close()

	_, err = io.ReadAll(rc)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLocalSource_List(t *testing.T) {
	src, dir := newTestSource(t)
	writeFile(t, dir, "media/b.mp4", make([]byte, 10))
	writeFile(t, dir, "media/a.mp4", make([]byte, 20))
	writeFile(t, dir, "media/sub/c.mp4", make([]byte, 30))

	entries, err := src.List(context.Background(), "media")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Byte-order ascending by name.
	assert.Equal(t, "a.mp4", entries[0].Name)
	assert.Equal(t, "b.mp4", entries[1].Name)
	assert.Equal(t, "sub", entries[2].Name)

	assert.Equal(t, "media/a.mp4", entries[0].ID)
	assert.Equal(t, int64(20), entries[0].Size)
	assert.Equal(t, "application/x-directory", entries[2].ContentType)

	_, err = src.List(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalSource_ThumbnailRef(t *testing.T) {
	src, dir := newTestSource(t)
	writeFile(t, dir, ".thumbnails/clips/intro.jpg", []byte("jpeg"))

	ref, err := src.ThumbnailRef(context.Background(), "clips/intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://thumbs.local/clips/intro.jpg", ref)

	_, err = src.ThumbnailRef(context.Background(), "clips/other.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalSource_ThumbnailRefDisabled(t *testing.T) {
	dir := t.TempDir()
	src, err := NewLocalSource(dir, "")
	require.NoError(t, err)

	_, err = src.ThumbnailRef(context.Background(), "clips/intro.mp4")
	assert.True(t, errors.Is(err, ErrNotFound))
}
