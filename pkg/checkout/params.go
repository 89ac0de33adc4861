package checkout

import (
	"checkout/pkg/gateway"

	"github.com/spf13/cast"
)

// BridgeParams 应用内桥接调起所需的参数集合
// 内容由网关签发（appId、timeStamp、nonceStr、package、signType、paySign 等），
// 本层不理解其含义，原样透传给桥接调用
type BridgeParams map[string]string

// Params 支付参数的归一化视图
// 网关每次响应只会填充一个呈现变体；派发器按分支优先级取用，
// 绝不假设多个变体同时存在
type Params struct {
	Bridge     BridgeParams // 桥接调起载荷
	MWebURL    string       // 微信 H5 支付链接
	PaymentURL string       // 支付宝跳转链接
	FormHTML   string       // 支付宝表单载荷
	QRCode     string       // 二维码内容
}

// payment_params 中具名的非桥接字段
const (
	keyMWebURL  = "mweb_url"
	keyFormHTML = "form_html"
	keyQRCode   = "qr_code"
)

// ParamsFromGateway 将网关原始响应解析为归一化视图
// 解析只发生在这一处边界，方式相关的字段名不向状态机泄漏
func ParamsFromGateway(raw *gateway.PayResult) *Params {
	p := &Params{
		PaymentURL: raw.PaymentURL,
		QRCode:     raw.QRCode,
	}
	if p.QRCode == "" {
		p.QRCode = raw.CodeURL
	}

	if len(raw.PaymentParams) == 0 {
		return p
	}

	bridge := make(BridgeParams)
	for key, value := range raw.PaymentParams {
		switch key {
		case keyMWebURL:
			p.MWebURL = cast.ToString(value)
		case keyFormHTML:
			p.FormHTML = cast.ToString(value)
		case keyQRCode:
			if p.QRCode == "" {
				p.QRCode = cast.ToString(value)
			}
		default:
			bridge[key] = cast.ToString(value)
		}
	}

	// 只有带签名的载荷才视为可调起的桥接参数
	if _, ok := bridge["paySign"]; ok {
		p.Bridge = bridge
	}
	return p
}

// BridgeReady 是否可走桥接调起
func (p *Params) BridgeReady() bool {
	return len(p.Bridge) > 0
}

// RedirectURL 跳转链接，支付宝 payment_url 优先于微信 mweb_url
func (p *Params) RedirectURL() string {
	if p.PaymentURL != "" {
		return p.PaymentURL
	}
	return p.MWebURL
}

// QRContent 二维码内容
func (p *Params) QRContent() string {
	return p.QRCode
}

// Empty 没有任何可用变体
func (p *Params) Empty() bool {
	return !p.BridgeReady() && p.RedirectURL() == "" && p.FormHTML == "" && p.QRCode == ""
}
