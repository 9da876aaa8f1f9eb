package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSize(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "app.log")

	r, err := NewSize(name, MustPolicy("MIDNIGHT", WithBackupCount(3)), WithMaxSize(1))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, name, r.Filename())

	_, err = r.Write([]byte("first\n"))
	require.NoError(t, err)

	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, DefaultFileMode, info.Mode().Perm())

	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("second\n"))
	require.NoError(t, err)

	assert.Len(t, listDir(t, dir), 2, "活动文件 + 一个备份")
	assert.Equal(t, "second\n", readFile(t, name))
}

func TestNewSize_Errors(t *testing.T) {
	p := MustPolicy("H")

	_, err := NewSize("", p)
	assert.ErrorIs(t, err, ErrEmptyFilename)

	_, err = NewSize(filepath.Join(t.TempDir(), "a.log"), p, WithMaxSize(0))
	assert.ErrorIs(t, err, ErrInvalidMaxSize)

	_, err = NewSize(filepath.Join(t.TempDir(), "a.log"), p, WithMaxSize(maxSizeMB+1))
	assert.ErrorIs(t, err, ErrInvalidMaxSize)

	_, err = NewSize(filepath.Join(t.TempDir(), "a.log"), p, WithFileMode(os.ModeSetuid|0o644))
	assert.ErrorIs(t, err, ErrInvalidFileMode)
}

func TestSizeRotator_Closed(t *testing.T) {
	r, err := NewSize(filepath.Join(t.TempDir(), "app.log"), MustPolicy("H"))
	require.NoError(t, err)

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("y\n"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}
