package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 判断路径中是否有恰好为 ".." 的路径段
//
// '/' 和 '\' 都视为分隔符。"app..2024.log" 这类文件名不算穿越。
func hasDotDotSegment(path string) bool {
	for i := 0; i < len(path); {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 校验并规范化日志文件路径
//
// 拒绝空路径、空字节、以分隔符结尾的目录路径和规范化后仍含 ".." 段的相对路径。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析。
//
// 本函数只做格式校验，不把路径限制在某个目录内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会去掉尾部分隔符，必须先检查
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// Stem 去掉文件名的后缀
//
// 依次尝试 suffixes 中的每一个，去掉第一个匹配的后缀后返回；
// 都不匹配时原样返回。
//
//	Stem("logs/app-info.log", ".txt", ".log") // "logs/app-info"
func Stem(filename string, suffixes ...string) string {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(filename, s) && len(filename) > len(s) {
			return filename[:len(filename)-len(s)]
		}
	}
	return filename
}
