// Package config 站点配置信息
package config

// Initialize 触发包内各配置文件的 init() 注册
// main 中以 btsConfig.Initialize() 的形式显式加载
func Initialize() {
}
