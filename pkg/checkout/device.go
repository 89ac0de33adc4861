package checkout

import (
	"regexp"
	"strings"
)

// Capabilities 设备与运行环境探测策略
// 做成可插拔接口，派发分支逻辑可以脱离真实浏览器环境测试
type Capabilities interface {
	// Classify 根据 User-Agent 判断设备类型
	Classify(userAgent string) DeviceClass

	// InAppBrowser 判断当前是否运行在指定支付方式的应用内浏览器
	InAppBrowser(userAgent string, method Method) bool
}

// 移动端 UA 特征，与前端设备检测保持一致
var mobilePattern = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// UserAgentCapabilities 基于 User-Agent 字符串的默认实现
type UserAgentCapabilities struct{}

// Classify 根据 User-Agent 判断设备类型
func (UserAgentCapabilities) Classify(userAgent string) DeviceClass {
	if mobilePattern.MatchString(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}

// InAppBrowser 判断是否处于对应支付应用的内置浏览器
// 微信内置浏览器 UA 带 MicroMessenger，支付宝带 AlipayClient
func (UserAgentCapabilities) InAppBrowser(userAgent string, method Method) bool {
	ua := strings.ToLower(userAgent)
	switch method {
	case MethodWechat:
		return strings.Contains(ua, "micromessenger")
	case MethodAlipay:
		return strings.Contains(ua, "alipayclient")
	}
	return false
}

// ParseDevice 解析显式指定的设备类型，为空串时返回 ok=false
func ParseDevice(s string) (DeviceClass, bool) {
	switch DeviceClass(s) {
	case DeviceMobile:
		return DeviceMobile, true
	case DeviceDesktop:
		return DeviceDesktop, true
	}
	return "", false
}
