package xlog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FormatterID 格式化器标识
type FormatterID string

// 内置格式化器
const (
	// FormatPlain 纯文本，用于文件
	FormatPlain FormatterID = "plain"

	// FormatColor 纯文本 + 按级别着色，仅用于控制台
	FormatColor FormatterID = "color"
)

// TimeLayout 记录时间格式，毫秒以逗号分隔
const TimeLayout = "2006-01-02 15:04:05,000"

// 控制台颜色（ANSI 转义序列）
const (
	colorReset    = "\033[0m"
	colorCritical = "\033[0;31m"
	colorError    = "\033[0;33m"
	colorWarning  = "\033[0;35m"
	colorInfo     = "\033[0;32m"
	colorDebug    = "\033[0;00m"
)

// Formatter 将记录格式化为一行文本（含结尾换行）
//
// 实现必须是无状态的，可被多个 goroutine 同时调用。
type Formatter interface {
	Format(buf []byte, r *Record) []byte
}

// NewFormatter 根据标识创建格式化器
//
// loc 为记录时间的显示时区，nil 表示本地时区。
func NewFormatter(id FormatterID, loc *time.Location) (Formatter, error) {
	if loc == nil {
		loc = time.Local
	}
	switch id {
	case FormatPlain, "":
		return TextFormatter{Location: loc}, nil
	case FormatColor:
		return TextFormatter{Location: loc, Color: true}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
}

// TextFormatter 文本格式化器
//
// 输出格式：
//
//	[2024-03-10 13:45:07,123] [INFO    ] [pid: 4242 ] [crawler.go 88 crawl.(*Crawler).fetch] message url=https://a/ status=200
type TextFormatter struct {
	Location *time.Location
	Color    bool
}

// Format 实现 Formatter 接口
func (f TextFormatter) Format(buf []byte, r *Record) []byte {
	start := len(buf)
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}

	buf = append(buf, '[')
	buf = r.Time.In(loc).AppendFormat(buf, TimeLayout)
	buf = append(buf, "] ["...)
	buf = appendPadded(buf, levelOf(r.Level).String(), 8)
	buf = append(buf, "] [pid: "...)
	buf = appendPadded(buf, strconv.Itoa(r.PID), 5)
	buf = append(buf, "] ["...)
	buf = appendSource(buf, r.Source)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	for _, a := range r.Attrs {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = appendValue(buf, a.Value)
	}

	if f.Color {
		if code := colorOf(levelOf(r.Level)); code != "" {
			line := string(buf[start:])
			buf = append(buf[:start], code...)
			buf = append(buf, line...)
			buf = append(buf, colorReset...)
		}
	}
	return append(buf, '\n')
}

// Colorize 按级别为文本着色
//
// 未知级别原样返回。
func Colorize(text string, level Level) string {
	code := colorOf(level)
	if code == "" {
		return text
	}
	return code + text + colorReset
}

func colorOf(level Level) string {
	switch level {
	case LevelCritical:
		return colorCritical
	case LevelError:
		return colorError
	case LevelWarning:
		return colorWarning
	case LevelInfo:
		return colorInfo
	case LevelDebug:
		return colorDebug
	default:
		return ""
	}
}

// appendPadded 左对齐并以空格补足宽度
func appendPadded(buf []byte, s string, width int) []byte {
	buf = append(buf, s...)
	for i := len(s); i < width; i++ {
		buf = append(buf, ' ')
	}
	return buf
}

func appendSource(buf []byte, s Source) []byte {
	if s.File == "" {
		return append(buf, "? 0 ?"...)
	}
	buf = append(buf, s.File...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(s.Line), 10)
	buf = append(buf, ' ')
	return append(buf, s.Function...)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendString(buf, v.String())
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339Nano)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	default:
		return appendString(buf, v.String())
	}
}

// appendString 含空白、引号、等号或不可打印字符时加引号
func appendString(buf []byte, s string) []byte {
	if s == "" || strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func needsQuote(r rune) bool {
	return r == '"' || r == '=' || unicode.IsSpace(r) || !unicode.IsPrint(r)
}
