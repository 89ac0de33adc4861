// Package checkout 实现结账编排：支付派发、二维码轮询与会话管理
package checkout

import (
	"errors"
	"fmt"
)

// Method 支付方式
type Method string

const (
	MethodWechat Method = "wechat" // 微信支付
	MethodAlipay Method = "alipay" // 支付宝
)

// Valid 判断是否为受支持的支付方式
func (m Method) Valid() bool {
	return m == MethodWechat || m == MethodAlipay
}

// Title 支付方式的用户可读名称
func (m Method) Title() string {
	switch m {
	case MethodWechat:
		return "微信支付"
	case MethodAlipay:
		return "支付宝支付"
	}
	return string(m)
}

// ParseMethod 解析支付方式
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unsupported payment method: %q", s)
	}
	return m, nil
}

// DeviceClass 设备类型
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"  // 移动端
	DeviceDesktop DeviceClass = "desktop" // 桌面端
)

// Action 派发选择的呈现路径
type Action string

const (
	ActionBridge   Action = "bridge"   // 应用内桥接调起
	ActionRedirect Action = "redirect" // 跳转支付链接
	ActionForm     Action = "form"     // 提交支付表单
	ActionQR       Action = "qr"       // 展示二维码并轮询
)

// State 轮询状态机的状态
type State string

const (
	StatePolling   State = "polling"   // 轮询中
	StateSucceeded State = "succeeded" // 支付成功
	StateTimedOut  State = "timed_out" // 轮询超时
	StateCancelled State = "cancelled" // 用户取消
)

// Terminal 判断是否为终止状态，终止后不再发出任何查询
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// 用户可见的状态消息，与前端支付脚本保持一致
const (
	MsgWaitingFormat = "等待支付...（%d/%d）"
	MsgPaySuccess    = "支付成功！"
	MsgRedirecting   = "支付成功！正在跳转..."
	MsgPayTimeout    = "支付超时，请刷新页面或关闭弹窗后重试"
	MsgQueryFailed   = "查询状态失败，请关闭弹窗重试"
	MsgRequestFailed = "请求失败，请稍后重试"
	MsgNoParams      = "无法获取支付参数，请稍后重试"
)

// 预定义错误
var (
	// ErrNoParams 网关响应中没有任何可用的支付参数变体
	ErrNoParams = errors.New("no payment parameter variant in gateway response")
	// ErrEmptyOrderID 缺少订单号
	ErrEmptyOrderID = errors.New("order id is empty")
	// ErrSessionActive 同一用户已存在进行中的轮询会话
	ErrSessionActive = errors.New("an active checkout session already exists")
	// ErrBridgeFailed 应用内桥接支付被取消或失败
	ErrBridgeFailed = errors.New("bridge payment failed or was cancelled")
)
