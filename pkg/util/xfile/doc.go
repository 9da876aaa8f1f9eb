// Package xfile 提供日志文件路径相关的小工具。
//
//   - SanitizePath: 校验并规范化文件路径，拒绝相对路径穿越和空字节
//   - EnsureDir: 按需创建父目录
//   - Stem: 去掉文件名后缀，用于由基础路径推导轮转文件名
//
// 所有错误都包装了包内预定义的错误变量，可用 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 拒绝
//	}
package xfile
