package config

import (
	"checkout/pkg/config"
)

func init() {
	config.Add("gateway", func() map[string]interface{} {
		return map[string]interface{}{
			// 支付网关后端地址
			"base_url": config.Env("GATEWAY_BASE_URL", "http://127.0.0.1:8000/api"),

			// 请求超时（秒）
			"timeout": config.Env("GATEWAY_TIMEOUT", 15),

			// 支付宝移动端支付完成后的回跳地址
			"return_url": config.Env("GATEWAY_RETURN_URL", ""),
		}
	})
}
