package checkout

import (
	"checkout/pkg/gateway"
)

// Paid 将方式相关的状态字段归一化为单一布尔值
// 两种支付方式返回不同的字段布局：
//   - 微信：status == "paid" 或 trade_state == "SUCCESS"
//   - 支付宝：order_status == "paid" 或嵌套查询结果 trade_status == "TRADE_SUCCESS"
//
// 这里是方式相关知识允许泄漏进轮询的唯一位置
func (m Method) Paid(report *gateway.StatusReport) bool {
	if report == nil {
		return false
	}

	switch m {
	case MethodWechat:
		return report.Status == "paid" || report.TradeState == "SUCCESS"
	case MethodAlipay:
		if report.OrderStatus == "paid" {
			return true
		}
		return report.AlipayQueryResult != nil &&
			report.AlipayQueryResult.TradeStatus == "TRADE_SUCCESS"
	}
	return false
}
