package xfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"普通相对路径", "logs/app.log", filepath.FromSlash("logs/app.log"), nil},
		{"冗余分隔符", "logs//./app.log", filepath.FromSlash("logs/app.log"), nil},
		{"绝对路径内的 .. 被解析", "/var/log/../tmp/app.log", filepath.FromSlash("/var/tmp/app.log"), nil},
		{"文件名含双点", "logs/app..2024.log", filepath.FromSlash("logs/app..2024.log"), nil},
		{"空路径", "", "", ErrEmptyPath},
		{"空字节", "app\x00.log", "", ErrNullByte},
		{"尾部斜杠", "logs/", "", ErrInvalidPath},
		{"尾部反斜杠", "logs\\", "", ErrInvalidPath},
		{"相对穿越", "../etc/passwd", "", ErrPathTraversal},
		{"只有点", ".", "", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "logs/app-info", Stem("logs/app-info.log", ".txt", ".log"))
	assert.Equal(t, "run", Stem("run.txt", ".txt", ".log"))
	assert.Equal(t, "app", Stem("app", ".log"))
	assert.Equal(t, ".log", Stem(".log", ".log"), "不能剥成空字符串")
	assert.Equal(t, "app.log", Stem("app.log", ""))
}

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()

	target := filepath.Join(tmp, "a", "b", "app.log")
	require.NoError(t, EnsureDir(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// 已存在时再次调用不报错
	require.NoError(t, EnsureDir(target))
	// 当前目录下的文件无需创建目录
	require.NoError(t, EnsureDir("app.log"))
}

func TestEnsureDirWithPerm_Errors(t *testing.T) {
	assert.ErrorIs(t, EnsureDirWithPerm("", DefaultDirPerm), ErrEmptyPath)
	assert.ErrorIs(t, EnsureDirWithPerm("a\x00/b.log", DefaultDirPerm), ErrNullByte)
	assert.ErrorIs(t, EnsureDirWithPerm(filepath.Join(t.TempDir(), "x", "a.log"), 0o640), ErrInvalidPerm)
}
