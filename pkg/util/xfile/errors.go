package xfile

import "errors"

var (
	// ErrEmptyPath 必需的路径参数为空
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 路径格式无效（目录路径、缺少文件名）
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 相对路径中出现 ".." 路径段
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrNullByte 路径中包含空字节（\x00），内核会在此处截断路径
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 目录权限缺少所有者执行位
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")
)
