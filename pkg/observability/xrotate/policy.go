package xrotate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// 按时间轮转的默认值
const (
	// DefaultBackupCount 默认保留的历史文件数量
	DefaultBackupCount = 60

	// DefaultPostfix 默认文件后缀
	DefaultPostfix = ".log"

	// maxBackupCount 历史文件数量上限
	maxBackupCount = 4096

	// maxInterval 间隔倍数上限，避免 Duration 溢出
	maxInterval = 10000
)

// Unit 轮转时间单位
type Unit int

// 轮转单位常量
const (
	UnitSecond   Unit = iota + 1 // S：按秒
	UnitMinute                   // M：按分钟
	UnitHour                     // H：按小时
	UnitDay                      // D：按 24 小时（与 Unix 纪元对齐）
	UnitMidnight                 // MIDNIGHT：本地午夜
	UnitWeekday                  // W0~W6：每周指定星期的本地午夜
)

// String 返回单位的配置写法（不含星期数字）
func (u Unit) String() string {
	switch u {
	case UnitSecond:
		return "S"
	case UnitMinute:
		return "M"
	case UnitHour:
		return "H"
	case UnitDay:
		return "D"
	case UnitMidnight:
		return "MIDNIGHT"
	case UnitWeekday:
		return "W"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// length 单位长度（间隔倍数为 1 时）
func (u Unit) length() time.Duration {
	switch u {
	case UnitSecond:
		return time.Second
	case UnitMinute:
		return time.Minute
	case UnitHour:
		return time.Hour
	case UnitDay, UnitMidnight:
		return 24 * time.Hour
	case UnitWeekday:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// calendar 是否按本地日历对齐（需要夏令时修正）
func (u Unit) calendar() bool {
	return u == UnitMidnight || u == UnitWeekday
}

// 文件名时间格式与匹配规则，两者必须一一对应
var (
	layoutSecond = "2006-01-02_15-04-05"
	layoutMinute = "2006-01-02_15-04"
	layoutHour   = "2006-01-02_15"
	layoutDate   = "2006-01-02"

	matchSecond = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}$`)
	matchMinute = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}$`)
	matchHour   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}$`)
	matchDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// layout 返回单位对应的文件名时间格式
func (u Unit) layout() string {
	switch u {
	case UnitSecond:
		return layoutSecond
	case UnitMinute:
		return layoutMinute
	case UnitHour:
		return layoutHour
	default:
		return layoutDate
	}
}

// pattern 返回单位对应的文件名时间匹配规则
func (u Unit) pattern() *regexp.Regexp {
	switch u {
	case UnitSecond:
		return matchSecond
	case UnitMinute:
		return matchMinute
	case UnitHour:
		return matchHour
	default:
		return matchDate
	}
}

// ParseUnit 解析轮转单位配置
//
// 支持（大小写不敏感）：S、M、H、D、MIDNIGHT、W0~W6（0 为周一）。
// 返回单位和星期数字（仅 UnitWeekday 有意义）。
func ParseUnit(when string) (Unit, int, error) {
	w := strings.ToUpper(strings.TrimSpace(when))
	switch w {
	case "S":
		return UnitSecond, 0, nil
	case "M":
		return UnitMinute, 0, nil
	case "H":
		return UnitHour, 0, nil
	case "D":
		return UnitDay, 0, nil
	case "MIDNIGHT":
		return UnitMidnight, 0, nil
	}

	if !strings.HasPrefix(w, "W") {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidUnit, when)
	}
	if len(w) == 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrEmptyWeekday, when)
	}
	if len(w) != 2 || w[1] < '0' || w[1] > '6' {
		return 0, 0, fmt.Errorf("%w: %q, want W0~W6", ErrInvalidWeekday, when)
	}
	return UnitWeekday, int(w[1] - '0'), nil
}

// Policy 按时间轮转的策略
//
// 构造后不可变，只能通过 [NewPolicy] 创建。零值不可用。
type Policy struct {
	unit        Unit
	weekday     int // 0 为周一，仅 UnitWeekday 使用
	interval    int
	backupCount int
	utc         bool
	loc         *time.Location
	postfix     string
}

// PolicyOption 轮转策略配置选项
type PolicyOption func(*Policy)

// WithInterval 设置间隔倍数（默认 1）
func WithInterval(n int) PolicyOption {
	return func(p *Policy) {
		p.interval = n
	}
}

// WithBackupCount 设置保留的历史文件数量（默认 DefaultBackupCount，0 表示不清理）
func WithBackupCount(n int) PolicyOption {
	return func(p *Policy) {
		p.backupCount = n
	}
}

// WithUTC 使用 UTC 时间计算边界和文件名（默认本地时间）
func WithUTC(utc bool) PolicyOption {
	return func(p *Policy) {
		p.utc = utc
	}
}

// WithLocation 指定本地时间所用的时区（默认 time.Local）
//
// WithUTC(true) 优先于此选项。
func WithLocation(loc *time.Location) PolicyOption {
	return func(p *Policy) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithPostfix 设置文件后缀（默认 ".log"）
func WithPostfix(postfix string) PolicyOption {
	return func(p *Policy) {
		p.postfix = postfix
	}
}

// NewPolicy 根据 when 配置创建轮转策略
//
// when 的取值见 [ParseUnit]。任何配置错误都在这里返回。
func NewPolicy(when string, opts ...PolicyOption) (Policy, error) {
	unit, weekday, err := ParseUnit(when)
	if err != nil {
		return Policy{}, err
	}

	p := Policy{
		unit:        unit,
		weekday:     weekday,
		interval:    1,
		backupCount: DefaultBackupCount,
		loc:         time.Local,
		postfix:     DefaultPostfix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}

	if p.interval < 1 || p.interval > maxInterval {
		return Policy{}, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidInterval, p.interval, maxInterval)
	}
	if p.backupCount < 0 || p.backupCount > maxBackupCount {
		return Policy{}, fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidBackupCount, p.backupCount, maxBackupCount)
	}
	if strings.ContainsAny(p.postfix, `/\`) {
		return Policy{}, fmt.Errorf("%w: %q", ErrInvalidPostfix, p.postfix)
	}
	if p.utc {
		p.loc = time.UTC
	}
	return p, nil
}

// MustPolicy 与 NewPolicy 相同，但失败时 panic
//
// 仅用于常量配置（测试、示例）。
func MustPolicy(when string, opts ...PolicyOption) Policy {
	p, err := NewPolicy(when, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Unit 返回轮转单位
func (p Policy) Unit() Unit { return p.unit }

// Weekday 返回按周轮转的星期数字（0 为周一）
func (p Policy) Weekday() int { return p.weekday }

// Interval 返回间隔倍数
func (p Policy) Interval() int { return p.interval }

// BackupCount 返回保留的历史文件数量
func (p Policy) BackupCount() int { return p.backupCount }

// UTC 是否使用 UTC 时间
func (p Policy) UTC() bool { return p.utc }

// Location 返回计算边界和文件名所用的时区
func (p Policy) Location() *time.Location { return p.loc }

// Postfix 返回文件后缀
func (p Policy) Postfix() string { return p.postfix }

// Step 返回一个完整间隔的名义长度（未经夏令时修正）
func (p Policy) Step() time.Duration {
	return p.unit.length() * time.Duration(p.interval)
}

// String 返回策略的配置写法，如 "MIDNIGHT"、"W3"
func (p Policy) String() string {
	if p.unit == UnitWeekday {
		return fmt.Sprintf("W%d", p.weekday)
	}
	return p.unit.String()
}
