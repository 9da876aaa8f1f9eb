// Package xproc 提供进程标识：进程 ID、进程名和日志文件默认基础名。
package xproc

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// osExecutable 测试中可替换
var osExecutable = os.Executable

var (
	processNameOnce  sync.Once
	processNameValue string
)

// ProcessID 返回当前进程 ID，写入每条日志记录的 pid 字段。
func ProcessID() int {
	return os.Getpid()
}

// baseName 提取路径的文件名，"."、".." 和根目录返回空字符串。
func baseName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func resolveProcessName() string {
	if exe, err := osExecutable(); err == nil && exe != "" {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(os.Args) == 0 || os.Args[0] == "" {
		return ""
	}
	return baseName(os.Args[0])
}

// ProcessName 返回当前进程名称（不含路径）。
//
// 优先使用 [os.Executable]，失败时回退到 os.Args[0]。
// 结果在首次调用时缓存，空字符串也会被缓存。
func ProcessName() string {
	processNameOnce.Do(func() {
		processNameValue = resolveProcessName()
	})
	return processNameValue
}

// LogBase 返回日志文件的默认基础名
//
// 取进程名并去掉扩展名（如 "xspider.exe" → "xspider"）；
// 进程名不可用时返回 fallback。
func LogBase(fallback string) string {
	name := ProcessName()
	if ext := filepath.Ext(name); ext != "" && len(ext) < len(name) {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" {
		return fallback
	}
	return name
}
