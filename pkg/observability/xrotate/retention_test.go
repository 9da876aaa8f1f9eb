package xrotate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch 在 dir 中创建空文件
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRetentionPrune(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("MIDNIGHT", WithUTC(true), WithBackupCount(2))
	n := NewNamer(filepath.Join(dir, "app-info.log"), p)

	touch(t, dir,
		"app-info-2024-03-01.log",
		"app-info-2024-03-02.log",
		"app-info-2024-03-03.log",
		"app-info-2024-03-04.log",
		"app-info-2024-03-05.log", // 活动文件
		"app-error-2024-03-01.log",
		"app-info.log.bak",
		"notes.txt",
	)
	active := n.Name(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	removed, failed := NewRetention(n, p.BackupCount(), nil).Prune(active)
	assert.Equal(t, 2, removed)
	assert.Zero(t, failed)

	assert.ElementsMatch(t, []string{
		"app-info-2024-03-03.log",
		"app-info-2024-03-04.log",
		"app-info-2024-03-05.log",
		"app-error-2024-03-01.log",
		"app-info.log.bak",
		"notes.txt",
	}, listDir(t, dir))
}

func TestRetentionPrune_KeepAll(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("H", WithUTC(true), WithBackupCount(0))
	n := NewNamer(filepath.Join(dir, "app.log"), p)

	touch(t, dir, "app-2024-03-01_01.log", "app-2024-03-01_02.log", "app-2024-03-01_03.log")

	removed, failed := NewRetention(n, 0, nil).Prune(filepath.Join(dir, "app-2024-03-01_04.log"))
	assert.Zero(t, removed)
	assert.Zero(t, failed)
	assert.Len(t, listDir(t, dir), 3)
}

func TestRetentionPrune_UnderLimit(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("H", WithUTC(true))
	n := NewNamer(filepath.Join(dir, "app.log"), p)
	touch(t, dir, "app-2024-03-01_01.log")

	removed, failed := NewRetention(n, 3, nil).Prune(filepath.Join(dir, "app-2024-03-01_02.log"))
	assert.Zero(t, removed)
	assert.Zero(t, failed)
}

func TestRetentionCandidates_Sorted(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("M", WithUTC(true))
	n := NewNamer(filepath.Join(dir, "app.log"), p)

	touch(t, dir,
		"app-2024-03-10_10-02.log",
		"app-2024-03-09_23-59.log",
		"app-2024-03-10_10-00.log",
	)
	got, err := NewRetention(n, 1, nil).Candidates(filepath.Join(dir, "app-2024-03-10_10-02.log"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "app-2024-03-09_23-59.log"),
		filepath.Join(dir, "app-2024-03-10_10-00.log"),
	}, got)
}

func TestRetentionPrune_RemoveFailure(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("D", WithUTC(true))
	n := NewNamer(filepath.Join(dir, "app.log"), p)
	touch(t, dir, "app-2024-03-01.log", "app-2024-03-02.log", "app-2024-03-03.log")

	var reported []error
	r := NewRetention(n, 1, func(err error) { reported = append(reported, err) })
	r.remove = func(name string) error {
		if filepath.Base(name) == "app-2024-03-01.log" {
			return os.ErrPermission
		}
		return os.Remove(name)
	}

	removed, failed := r.Prune(filepath.Join(dir, "app-2024-03-04.log"))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, failed)

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrPrune)
	assert.ErrorIs(t, reported[0], os.ErrPermission)
	assert.Contains(t, listDir(t, dir), "app-2024-03-01.log")
}

func TestRetentionPrune_ListFailure(t *testing.T) {
	p := MustPolicy("D", WithUTC(true))
	n := NewNamer("/nonexistent/app.log", p)

	var got error
	r := NewRetention(n, 1, func(err error) { got = err })
	r.readDir = func(string) ([]os.DirEntry, error) { return nil, errors.New("boom") }

	removed, failed := r.Prune("/nonexistent/app-2024-03-04.log")
	assert.Zero(t, removed)
	assert.Equal(t, 1, failed)
	assert.ErrorIs(t, got, ErrPrune)
}

func TestRetentionPrune_CallbackPanicIsolated(t *testing.T) {
	dir := t.TempDir()
	p := MustPolicy("D", WithUTC(true))
	n := NewNamer(filepath.Join(dir, "app.log"), p)
	touch(t, dir, "app-2024-03-01.log", "app-2024-03-02.log")

	r := NewRetention(n, 1, func(error) { panic("callback") })
	r.remove = func(string) error { return os.ErrPermission }

	assert.NotPanics(t, func() {
		_, failed := r.Prune(filepath.Join(dir, "app-2024-03-03.log"))
		assert.Equal(t, 1, failed)
	})
}
