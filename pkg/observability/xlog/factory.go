package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/encoding"

	"github.com/omeyang/xspider/pkg/observability/xrotate"
	"github.com/omeyang/xspider/pkg/util/xproc"
)

// 默认目的地名称
const (
	DestConsole   = "console"
	DestFileInfo  = "file"
	DestFileError = "file_error"
	DestFileDebug = "file_debug"
)

// 轮转模式
const (
	RotationTime = "time"
	RotationSize = "size"
)

// defaultBase 进程名不可用时的日志基础名
const defaultBase = "xspider"

// Config 日志子系统配置
//
// 可通过 xconf 从 YAML/JSON 加载（结构体标签为 koanf），
// 未出现在配置文件中的字段保留 [DefaultConfig] 的值。
type Config struct {
	// Base 日志文件基础名，空时取进程名
	Base string `koanf:"base"`

	// Dir 日志目录
	Dir string `koanf:"dir"`

	// Levels 命名 Logger 的级别，"" 或 "root" 为根。未配置的名称按 "a.b" → "a" → "" 逐级查找
	Levels map[string]Level `koanf:"levels"`

	Console  ConsoleConfig  `koanf:"console"`
	Files    FilesConfig    `koanf:"files"`
	Rotation RotationConfig `koanf:"rotation"`

	// Encoding 文件目的地的字符编码（WHATWG 标签），如 utf-8、gbk
	Encoding string `koanf:"encoding"`

	// Enrich 是否注入 trace_id/span_id
	Enrich bool `koanf:"enrich"`
}

// ConsoleConfig 控制台目的地配置
type ConsoleConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   Level  `koanf:"level"`
	Color   string `koanf:"color"` // auto | always | never
}

// FilesConfig 三个默认文件目的地的开关
type FilesConfig struct {
	Info  bool `koanf:"info"`
	Error bool `koanf:"error"`
	Debug bool `koanf:"debug"`
}

// RotationConfig 文件轮转配置
type RotationConfig struct {
	Mode        string `koanf:"mode"` // time | size
	When        string `koanf:"when"`
	Interval    int    `koanf:"interval"`
	BackupCount int    `koanf:"backup_count"`
	UTC         bool   `koanf:"utc"`
	// Postfix 为空表示文件名不带后缀；默认值 ".log" 来自 DefaultConfig
	Postfix     string `koanf:"postfix"`
	MaxSizeMB   int    `koanf:"max_size_mb"` // 仅 size 模式
}

// DefaultConfig 返回默认配置
//
// 控制台 INFO 及以上并着色；info/error/debug 三个文件；
// 每天本地午夜轮转，保留 60 个历史文件；UTF-8。
func DefaultConfig() Config {
	return Config{
		Dir:    "logs",
		Levels: map[string]Level{"": LevelDebug},
		Console: ConsoleConfig{
			Enabled: true,
			Level:   LevelInfo,
			Color:   string(ColorAuto),
		},
		Files: FilesConfig{Info: true, Error: true, Debug: true},
		Rotation: RotationConfig{
			Mode:        RotationTime,
			When:        "MIDNIGHT",
			Interval:    1,
			BackupCount: xrotate.DefaultBackupCount,
			Postfix:     xrotate.DefaultPostfix,
			MaxSizeMB:   xrotate.DefaultMaxSizeMB,
		},
		Encoding: "utf-8",
		Enrich:   true,
	}
}

// Policy 由轮转配置构造轮转策略
func (c Config) Policy() (xrotate.Policy, error) {
	interval := c.Rotation.Interval
	if interval == 0 {
		interval = 1
	}
	return xrotate.NewPolicy(c.Rotation.When,
		xrotate.WithInterval(interval),
		xrotate.WithBackupCount(c.Rotation.BackupCount),
		xrotate.WithUTC(c.Rotation.UTC),
		xrotate.WithPostfix(c.Rotation.Postfix),
	)
}

// BasePath 返回日志基础路径（不含级别后缀），如 "logs/xspider"
func (c Config) BasePath() string {
	base := c.Base
	if base == "" {
		base = xproc.LogBase(defaultBase)
	}
	return filepath.Join(c.Dir, base)
}

// Destinations 按配置生成目的地列表
func (c Config) Destinations() ([]DestinationConfig, error) {
	return c.destinations(nil)
}

// destinations console 为控制台输出（nil 为 os.Stderr），着色判断针对实际输出
func (c Config) destinations(console io.Writer) ([]DestinationConfig, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	color, err := ParseColorMode(c.Console.Color)
	if err != nil {
		return nil, err
	}

	dests := DefaultDestinations(c.BasePath(), policy)
	for i := range dests {
		d := &dests[i]
		switch d.Name {
		case DestConsole:
			d.Enabled = c.Console.Enabled
			d.Filter = MinLevel(c.Console.Level)
			d.Console = console
			if !color.useColor(consoleWriter(console)) {
				d.Formatter = FormatPlain
			}
		case DestFileInfo:
			d.Enabled = c.Files.Info
		case DestFileError:
			d.Enabled = c.Files.Error
		case DestFileDebug:
			d.Enabled = c.Files.Debug
		}
	}
	return dests, nil
}

// DefaultDestinations 返回默认的四个目的地
//
//   - console: INFO 及以上，着色
//   - file: <base>-info.log，只有 INFO
//   - file_error: <base>-error.log，ERROR 及以上
//   - file_debug: <base>-debug.log，只有 DEBUG
func DefaultDestinations(basePath string, policy xrotate.Policy) []DestinationConfig {
	postfix := policy.Postfix()
	file := func(name, level string, f Filter) DestinationConfig {
		return DestinationConfig{
			Name:      name,
			Enabled:   true,
			Filter:    f,
			Formatter: FormatPlain,
			Path:      basePath + "-" + level + postfix,
			Policy:    policy,
		}
	}
	return []DestinationConfig{
		{Name: DestConsole, Enabled: true, Filter: MinLevel(LevelInfo), Formatter: FormatColor},
		file(DestFileInfo, "info", OnlyLevel(LevelInfo)),
		file(DestFileError, "error", MinLevel(LevelError)),
		file(DestFileDebug, "debug", OnlyLevel(LevelDebug)),
	}
}

func consoleWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// Option Factory 配置选项
type Option func(*factoryOptions)

type factoryOptions struct {
	console       io.Writer
	now           func() time.Time
	onError       func(error)
	meterProvider metric.MeterProvider
	extra         []DestinationConfig
}

// WithConsoleOutput 替换控制台输出（默认 os.Stderr）
func WithConsoleOutput(w io.Writer) Option {
	return func(o *factoryOptions) {
		o.console = w
	}
}

// WithClock 替换轮转判断使用的时间源
func WithClock(now func() time.Time) Option {
	return func(o *factoryOptions) {
		o.now = now
	}
}

// WithOnError 设置内部错误回调
//
// 接收写入失败和历史文件清理失败。回调不得通过同一 Factory 记录日志
// 到出错的目的地，递归调用会被忽略。
func WithOnError(fn func(error)) Option {
	return func(o *factoryOptions) {
		o.onError = fn
	}
}

// WithMeterProvider 设置轮转指标使用的 MeterProvider
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(o *factoryOptions) {
		o.meterProvider = p
	}
}

// WithDestinations 追加自定义目的地
func WithDestinations(dests ...DestinationConfig) Option {
	return func(o *factoryOptions) {
		o.extra = append(o.extra, dests...)
	}
}

// Factory 创建命名 Logger，持有所有目的地
//
// 所有由同一 Factory 创建的 Logger 共享目的地：每个轮转文件只有一个写入器。
type Factory struct {
	router     *router
	enrich     bool
	onError    func(error)
	errorCount atomic.Uint64
	inError    atomic.Bool
	files      []*destination

	mu     sync.Mutex
	levels map[string]Level
	nodes  map[string]*xlogger

	shutdownOnce sync.Once
}

// NewFactory 按配置创建 Factory
//
// 所有配置（轮转单位、编码、着色模式等）在打开任何文件之前校验；
// 文件默认在首次写入时才创建。
func NewFactory(cfg Config, opts ...Option) (*Factory, error) {
	o := factoryOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	switch strings.ToLower(cfg.Rotation.Mode) {
	case "", RotationTime, RotationSize:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRotationMode, cfg.Rotation.Mode)
	}
	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	dests, err := cfg.destinations(o.console)
	if err != nil {
		return nil, err
	}
	dests = append(dests, o.extra...)
	if err := checkNames(dests); err != nil {
		return nil, err
	}

	f := &Factory{
		enrich:  cfg.Enrich,
		onError: o.onError,
		levels:  copyLevels(cfg.Levels),
		nodes:   make(map[string]*xlogger),
	}
	r := &router{pid: xproc.ProcessID()}

	for _, dc := range dests {
		if !dc.Enabled {
			continue
		}
		d, err := f.openDestination(dc, cfg, policy, enc, o)
		if err != nil {
			for _, opened := range f.files {
				_ = opened.closer.Close()
			}
			return nil, err
		}
		r.dests = append(r.dests, d)
		if d.closer != nil {
			f.files = append(f.files, d)
		}
	}
	f.router = r
	return f, nil
}

// openDestination 创建运行期目的地
func (f *Factory) openDestination(dc DestinationConfig, cfg Config, policy xrotate.Policy,
	enc encoding.Encoding, o factoryOptions) (*destination, error) {
	if dc.IsConsole() {
		w := consoleWriter(dc.Console)
		format, err := NewFormatter(dc.Formatter, policy.Location())
		if err != nil {
			return nil, err
		}
		return &destination{
			name:   dc.Name,
			filter: dc.Filter,
			format: format,
			w:      &consoleSink{w: w},
		}, nil
	}

	p := dc.Policy
	if p.Unit() == 0 {
		p = policy
	}
	format, err := NewFormatter(dc.Formatter, p.Location())
	if err != nil {
		return nil, err
	}

	ropts := []xrotate.Option{
		xrotate.WithOnError(f.reportRotate),
		xrotate.WithMeterProvider(o.meterProvider),
	}
	if o.now != nil {
		ropts = append(ropts, xrotate.WithClock(o.now))
	}

	var w xrotate.Rotator
	if strings.EqualFold(cfg.Rotation.Mode, RotationSize) {
		maxMB := cfg.Rotation.MaxSizeMB
		if maxMB == 0 {
			maxMB = xrotate.DefaultMaxSizeMB
		}
		w, err = xrotate.NewSize(dc.Path, p, append(ropts, xrotate.WithMaxSize(maxMB))...)
	} else {
		w, err = xrotate.NewTimed(dc.Path, p, ropts...)
	}
	if err != nil {
		return nil, fmt.Errorf("xlog: destination %s: %w", dc.Name, err)
	}
	return &destination{
		name:    dc.Name,
		filter:  dc.Filter,
		format:  format,
		w:       w,
		closer:  w,
		encoder: enc,
	}, nil
}

func checkNames(dests []DestinationConfig) error {
	seen := make(map[string]struct{}, len(dests))
	for _, d := range dests {
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateDestination, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// RootLogger Levels 中根 Logger 的别名，等价于 ""
const RootLogger = "root"

func copyLevels(src map[string]Level) map[string]Level {
	dst := make(map[string]Level, len(src))
	for k, v := range src {
		dst[k] = v
	}
	// 配置文件中的 root 叠加在默认的 "" 之上，以 root 为准
	if v, ok := dst[RootLogger]; ok {
		dst[""] = v
		delete(dst, RootLogger)
	}
	return dst
}

// Logger 返回名为 name 的 Logger，同名多次调用返回同一实例
func (f *Factory) Logger(name string) LoggerWithLevel {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.nodes[name]; ok {
		return l
	}

	lv := new(slog.LevelVar)
	lv.Set(slog.Level(resolveLevel(f.levels, name)))

	var h slog.Handler = newRouteHandler(f.router, name, lv)
	if f.enrich {
		h = &EnrichHandler{base: h}
	}

	l := &xlogger{
		name:           name,
		handler:        h,
		levelVar:       lv,
		onError:        f.onError,
		errorCount:     &f.errorCount,
		inErrorHandler: &f.inError,
	}
	f.nodes[name] = l
	return l
}

// resolveLevel 查找 name 的级别："a.b.c" → "a.b" → "a" → ""，都没有时为 DEBUG
func resolveLevel(levels map[string]Level, name string) Level {
	for {
		if l, ok := levels[name]; ok {
			return l
		}
		if name == "" {
			return LevelDebug
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			name = ""
		} else {
			name = name[:i]
		}
	}
}

// ApplyLevels 替换级别配置并更新所有已创建的 Logger
//
// 用于配置热更新。之前通过 SetLevel 设置的级别会被覆盖。
func (f *Factory) ApplyLevels(levels map[string]Level) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.levels = copyLevels(levels)
	for name, l := range f.nodes {
		l.levelVar.Set(slog.Level(resolveLevel(f.levels, name)))
	}
}

// Files 返回所有文件目的地当前的活动文件路径
func (f *Factory) Files() []string {
	names := make([]string, 0, len(f.files))
	for _, d := range f.files {
		if r, ok := d.w.(xrotate.Rotator); ok {
			names = append(names, r.Filename())
		}
	}
	return names
}

// ErrorCount 返回累计的内部错误数（写入失败、清理失败）
func (f *Factory) ErrorCount() uint64 {
	return f.errorCount.Load()
}

// Shutdown 刷新并关闭所有文件目的地
//
// 某个目的地关闭失败不影响其他目的地，错误合并返回。
// 只有第一次调用生效，之后的调用返回 nil；关闭后记录的日志被丢弃并计入 ErrorCount。
func (f *Factory) Shutdown() error {
	var err error
	f.shutdownOnce.Do(func() {
		f.router.closed.Store(true)
		var errs []error
		for _, d := range f.files {
			if cerr := d.closer.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("xlog: close %s: %w", d.name, cerr))
			}
		}
		err = errors.Join(errs...)
	})
	return err
}

// reportRotate 接收轮转器的内部错误
func (f *Factory) reportRotate(err error) {
	f.errorCount.Add(1)
	if f.onError == nil {
		return
	}
	if f.inError.CompareAndSwap(false, true) {
		defer f.inError.Store(false)
		defer func() {
			if r := recover(); r != nil {
				f.errorCount.Add(1)
			}
		}()
		f.onError(err)
	}
}
