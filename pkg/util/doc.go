// Package util 通用工具子包。
//
// 子包列表：
//   - xfile: 路径校验与目录创建
//   - xproc: 进程 ID 与进程名
package util
