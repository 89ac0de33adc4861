package gateway

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Amount      float64 `json:"amount"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	UserID      string  `json:"user_id"`
	PaymentType string  `json:"payment_type"`
}

// OrderCreated 创建订单响应
type OrderCreated struct {
	OrderID string `json:"order_id"`
}

// PayRequest 请求支付参数
// trade_type 仅微信使用：移动端 MWEB，桌面端 NATIVE
type PayRequest struct {
	OpenID    string `json:"openid,omitempty"`
	TradeType string `json:"trade_type,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// PayResult 支付参数响应的原始结构
// payment_params 为多态载荷：桥接参数、mweb_url、form_html 或 qr_code，
// 由上层解析为具体的呈现变体
type PayResult struct {
	PaymentParams map[string]interface{} `json:"payment_params"`
	PaymentURL    string                 `json:"payment_url"`
	CodeURL       string                 `json:"code_url"`
	QRCode        string                 `json:"qr_code"`
}

// StatusReport 支付状态查询响应
// 两种支付方式返回的字段布局不同，归一化在上层完成
type StatusReport struct {
	Status            string             `json:"status"`
	TradeState        string             `json:"trade_state"`
	OrderStatus       string             `json:"order_status"`
	AlipayQueryResult *AlipayQueryResult `json:"alipay_query_result,omitempty"`
}

// AlipayQueryResult 支付宝查询结果的嵌套对象
type AlipayQueryResult struct {
	TradeStatus string `json:"trade_status"`
}
