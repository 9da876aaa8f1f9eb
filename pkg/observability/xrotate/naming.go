package xrotate

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/omeyang/xspider/pkg/util/xfile"
)

// Namer 轮转时刻与文件名之间的映射
//
// 文件名格式：<stem>-<时间后缀><postfix>，stem 为基础路径去掉后缀的部分。
// 例如基础路径 "logs/app-info.log"、单位 MIDNIGHT 时为 "logs/app-info-2024-03-10.log"。
//
// 命名和清理扫描使用同一个 Namer，保证两边的格式始终一致。
type Namer struct {
	dir     string
	prefix  string // 文件名前缀（不含目录），如 "app-info-"
	postfix string
	layout  string
	match   *regexp.Regexp
	loc     *time.Location
}

// NewNamer 根据基础路径和策略创建 Namer
func NewNamer(basePath string, p Policy) Namer {
	stem := xfile.Stem(basePath, p.postfix, DefaultPostfix)
	return Namer{
		dir:     filepath.Dir(stem),
		prefix:  filepath.Base(stem) + "-",
		postfix: p.postfix,
		layout:  p.unit.layout(),
		match:   p.unit.pattern(),
		loc:     p.loc,
	}
}

// Dir 返回日志文件所在目录
func (n Namer) Dir() string {
	return n.dir
}

// Name 返回时刻 t 对应的文件路径
func (n Namer) Name(t time.Time) string {
	return filepath.Join(n.dir, n.prefix+t.In(n.loc).Format(n.layout)+n.postfix)
}

// Match 判断文件名（不含目录）是否是该 Namer 生成的文件
func (n Namer) Match(name string) bool {
	_, ok := n.suffix(name)
	return ok
}

// Parse 从文件名（可含目录）解析出对应的时刻，与 Name 互逆（精度为单位粒度）
func (n Namer) Parse(name string) (time.Time, bool) {
	s, ok := n.suffix(filepath.Base(name))
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(n.layout, s, n.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// suffix 提取并校验文件名中的时间后缀
func (n Namer) suffix(name string) (string, bool) {
	if len(name) <= len(n.prefix)+len(n.postfix) {
		return "", false
	}
	if !strings.HasPrefix(name, n.prefix) || !strings.HasSuffix(name, n.postfix) {
		return "", false
	}
	s := name[len(n.prefix) : len(name)-len(n.postfix)]
	if !n.match.MatchString(s) {
		return "", false
	}
	return s, true
}
