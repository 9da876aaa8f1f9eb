package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

// 支持的配置格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 已加载的配置
//
// 只提供加载、重载和反序列化，其余读取操作直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前的 koanf 实例。Reload 之后旧实例仍可读，但内容已过期。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空时为整个配置。
	// target 中已有的值在配置未出现对应键时保留，可用来叠加默认值。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件，解析失败时保留原配置。
	// 从字节数据创建的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 返回配置文件路径，从字节数据创建时为空
	Path() string

	// Format 返回配置格式
	Format() Format
}
