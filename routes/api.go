package routes

import (
	"checkout/app/http/controllers/api/v1/checkoutapi"
	"checkout/app/http/middlewares"

	"github.com/gin-gonic/gin"
)

// 路由限流配置
const (
	// 🌍 全局限流：每小时每IP 30000 请求
	GlobalRateLimit = "30000-H"
	// 💰 发起结账限流：每小时每IP 100 请求
	CreateCheckoutLimit = "100-H"
	// 🔍 状态查询限流：每分钟每IP 300 请求
	QueryStatusLimit = "300-M"
)

// RegisterAPIRoutes 注册所有 API 路由
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.Recovery(),
		middlewares.Logger(),
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// 💰 结账相关路由
	checkoutRoutes := v1.Group("/checkout")
	{
		checkoutapi.InitShared()
		cc := checkoutapi.NewCheckoutController()

		// 📝 发起结账（创建订单、派发支付）
		// POST /v1/checkout
		// 请求频率：每小时每IP最多100次
		checkoutRoutes.POST("",
			middlewares.LimitIP(CreateCheckoutLimit),
			cc.Store,
		)

		// 📡 查询会话轮询状态
		// GET /v1/checkout/:id
		// 请求频率：每分钟每IP最多300次
		checkoutRoutes.GET("/:id",
			middlewares.LimitIP(QueryStatusLimit),
			cc.GetStatus,
		)

		// 📊 获取会话最终结果
		// GET /v1/checkout/:id/result
		checkoutRoutes.GET("/:id/result",
			middlewares.LimitIP(QueryStatusLimit),
			cc.GetResult,
		)

		// ❌ 取消会话（关闭二维码弹窗）
		// DELETE /v1/checkout/:id
		checkoutRoutes.DELETE("/:id", cc.Cancel)

		// 📜 获取用户结账历史
		v1.GET("/users/:user_id/checkouts", cc.GetHistory)

		// ❤️ 健康检查
		v1.GET("/health", cc.HealthCheck)
	}
}
