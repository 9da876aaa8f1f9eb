package xlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/omeyang/xspider/pkg/observability/xrotate"
)

// DestinationConfig 一个输出目的地的配置
//
// Path 为空表示控制台目的地（写入 Console，默认 os.Stderr），
// 否则为轮转文件的基础路径，实际文件名带时间后缀。
type DestinationConfig struct {
	Name      string
	Enabled   bool
	Filter    Filter
	Formatter FormatterID

	// Path 文件目的地的基础路径，如 "logs/xspider-info.log"
	Path string

	// Policy 文件目的地的轮转策略；控制台目的地忽略
	Policy xrotate.Policy

	// Console 控制台目的地的输出，nil 时为 os.Stderr
	Console io.Writer
}

// IsConsole 是否为控制台目的地
func (c DestinationConfig) IsConsole() bool {
	return c.Path == ""
}

// destination 运行期的目的地
type destination struct {
	name    string
	filter  Filter
	format  Formatter
	w       io.Writer
	closer  io.Closer // 控制台为 nil
	encoder encoding.Encoding
}

// write 编码并写入一行
func (d *destination) write(line []byte) error {
	if d.encoder != nil {
		b, err := encoding.ReplaceUnsupported(d.encoder.NewEncoder()).Bytes(line)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		line = b
	}
	_, err := d.w.Write(line)
	return err
}

// consoleSink 控制台输出，拥有独立的锁
//
// 整行一次写入，多个 goroutine 的记录不会交错。
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// ColorMode 控制台着色模式
type ColorMode string

// 着色模式
const (
	ColorAuto   ColorMode = "auto"   // 输出为终端时着色
	ColorAlways ColorMode = "always" // 总是着色
	ColorNever  ColorMode = "never"  // 从不着色
)

// ParseColorMode 解析着色模式，空字符串视为 auto
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColorMode, s)
	}
}

// useColor 判断 w 是否应着色
func (m ColorMode) useColor(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// lookupEncoding 按 WHATWG 标签查找编码
//
// 空标签和 UTF-8 返回 nil（无需转码）。
// 写入时无法编码的字符替换为编码自身的替代字符，不会导致写入失败。
func lookupEncoding(label string) (encoding.Encoding, error) {
	if strings.TrimSpace(label) == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
