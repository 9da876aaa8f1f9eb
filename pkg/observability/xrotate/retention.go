package xrotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrPrune 清理历史文件失败
//
// 只通过 OnError 回调上报，从不返回给 Write 调用方。
var ErrPrune = errors.New("xrotate: prune failed")

// Retention 历史文件清理
//
// 列出目录中由 Namer 生成的文件，排除当前活动文件，按文件名排序
// （固定宽度的时间格式使字典序即时间序），删除超出 keep 的最旧文件。
type Retention struct {
	namer   Namer
	keep    int
	onError func(error)

	readDir func(string) ([]os.DirEntry, error)
	remove  func(string) error
}

// NewRetention 创建清理器
//
// keep <= 0 时 Prune 不做任何事（保留全部历史文件）。
func NewRetention(n Namer, keep int, onError func(error)) Retention {
	return Retention{
		namer:   n,
		keep:    keep,
		onError: onError,
		readDir: os.ReadDir,
		remove:  os.Remove,
	}
}

// Candidates 返回除 active 之外的所有历史文件，按时间从旧到新排序
func (r Retention) Candidates(active string) ([]string, error) {
	entries, err := r.readDir(r.namer.Dir())
	if err != nil {
		return nil, err
	}
	activeName := filepath.Base(active)

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == activeName || !r.namer.Match(name) {
			continue
		}
		files = append(files, filepath.Join(r.namer.Dir(), name))
	}
	sort.Strings(files)
	return files, nil
}

// Prune 删除超出保留数量的最旧文件
//
// 删除失败（权限、被外部并发删除等）不返回错误，只计数并通过 onError 上报；
// 残留文件会在之后的某次成功清理中被删除。
func (r Retention) Prune(active string) (removed, failed int) {
	if r.keep <= 0 {
		return 0, 0
	}

	files, err := r.Candidates(active)
	if err != nil {
		r.report(fmt.Errorf("%w: list %s: %w", ErrPrune, r.namer.Dir(), err))
		return 0, 1
	}
	if len(files) <= r.keep {
		return 0, 0
	}

	for _, f := range files[:len(files)-r.keep] {
		if err := r.remove(f); err != nil {
			failed++
			r.report(fmt.Errorf("%w: remove %s: %w", ErrPrune, f, err))
			continue
		}
		removed++
	}
	return removed, failed
}

// report 通过回调上报内部错误，隔离回调 panic
func (r Retention) report(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}
