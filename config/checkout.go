package config

import "checkout/pkg/config"

func init() {
	config.Add("checkout", func() map[string]interface{} {
		return map[string]interface{}{
			// 默认商品标题
			"default_title": config.Env("CHECKOUT_DEFAULT_TITLE", "在线支付"),

			// 轮询间隔（秒）与最大次数，默认 3 秒 x 40 次约 2 分钟
			"poll_interval": config.Env("CHECKOUT_POLL_INTERVAL", 3),
			"max_attempts":  config.Env("CHECKOUT_MAX_ATTEMPTS", 40),

			// 成功提示展示时长（毫秒）
			"success_delay_ms": config.Env("CHECKOUT_SUCCESS_DELAY_MS", 1500),

			// 单会话守卫的保底过期时间（秒），应覆盖整个轮询窗口
			"guard_ttl": config.Env("CHECKOUT_GUARD_TTL", 180),

			// 会话创建限流
			"session_rate_limit": config.Env("CHECKOUT_SESSION_RATE_LIMIT", 500),
			"session_rate_burst": config.Env("CHECKOUT_SESSION_RATE_BURST", 500),
		}
	})
}
