package xconf

import (
	"testing"

	"github.com/omeyang/xspider/pkg/observability/xlog"
)

// FuzzNewFromBytes 任意输入不 panic；解析成功后解码到日志配置也不 panic
func FuzzNewFromBytes(f *testing.F) {
	f.Add([]byte(testYAML), true)
	f.Add([]byte(testJSON), false)
	f.Add([]byte("log:\n  levels:\n    root: verbose\n"), true)
	f.Add([]byte("log: [1, 2]\n"), true)
	f.Add([]byte(`{"log": {"rotation": {"interval": "x"}}}`), false)

	f.Fuzz(func(t *testing.T, data []byte, yaml bool) {
		format := FormatJSON
		if yaml {
			format = FormatYAML
		}

		cfg, err := NewFromBytes(data, format, WithDelim("/"))
		if err != nil {
			return
		}

		logCfg := xlog.DefaultConfig()
		if err := cfg.Unmarshal("log", &logCfg); err != nil {
			return
		}
		_, _ = logCfg.Policy()
	})
}
