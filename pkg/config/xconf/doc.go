// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML（.yaml/.yml）和 JSON（.json），从文件或字节数据加载。
// Unmarshal 不会清零目标中已有的字段，先填默认值再 Unmarshal 即可叠加：
//
//	logCfg := xlog.DefaultConfig()
//	if err := cfg.Unmarshal("log", &logCfg); err != nil {
//	    return err
//	}
//
// 实现了 encoding.TextUnmarshaler 的字段（如 xlog.Level）按文本解析，
// 因此 YAML 中可以写 level: warning。
//
// # 热重载
//
// [Watch] 基于 fsnotify 监视配置文件，防抖后调用 Reload 并通知回调。
// 重载失败时保留旧配置。
package xconf
