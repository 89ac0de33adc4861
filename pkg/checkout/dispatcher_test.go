package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout/pkg/gateway"
)

const (
	uaDesktop     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	uaMobile      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	uaWechatInApp = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) MicroMessenger/8.0.44"
	uaAlipayInApp = "Mozilla/5.0 (Linux; Android 14) AlipayClient/10.5.60"
)

// fakeRequester 返回固定支付参数的测试替身
type fakeRequester struct {
	result  *gateway.PayResult
	err     error
	lastReq gateway.PayRequest
}

func (f *fakeRequester) RequestParams(ctx context.Context, method, orderID string, req gateway.PayRequest) (*gateway.PayResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func newTestDispatcher(requester *fakeRequester, querier StatusQuerier) (*Dispatcher, *Manager) {
	manager := NewManager(nil, time.Minute)
	d := NewDispatcher(requester, querier, UserAgentCapabilities{}, manager, "https://shop.example.com/return")
	return d, manager
}

func newTestSession(method Method, device DeviceClass, surface Surface) *Session {
	return NewSession("sess-1", "user-1", "order-1", method, device, surface)
}

func TestDispatchDesktopShowsQRAndPolls(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{CodeURL: "weixin://wxpay/bizpayurl?pr=abc"}}
	querier := &fakeQuerier{script: []queryStep{{report: paidWechatReport()}}}
	d, _ := newTestDispatcher(requester, querier)

	surface := &fakeSurface{}
	sess := newTestSession(MethodWechat, DeviceDesktop, surface)

	action, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if action != ActionQR {
		t.Fatalf("action = %s, want %s", action, ActionQR)
	}
	if surface.qrContent != "weixin://wxpay/bizpayurl?pr=abc" {
		t.Errorf("qr content = %q", surface.qrContent)
	}
	if requester.lastReq.TradeType != "NATIVE" {
		t.Errorf("trade type = %q, want NATIVE", requester.lastReq.TradeType)
	}

	// 轮询应当启动并最终成功
	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("polling did not finish")
	}
	if surface.successCount() != 1 {
		t.Errorf("success shown %d times, want 1", surface.successCount())
	}
}

func TestDispatchMobileWechatNavigatesToMWeb(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{
		PaymentParams: map[string]interface{}{"mweb_url": "https://wx.tenpay.com/h5?x=1"},
	}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := newTestSession(MethodWechat, DeviceMobile, surface)

	action, err := d.Dispatch(context.Background(), sess, uaMobile, testPollConfig(5))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if action != ActionRedirect {
		t.Fatalf("action = %s, want %s", action, ActionRedirect)
	}
	if surface.navigatedTo != "https://wx.tenpay.com/h5?x=1" {
		t.Errorf("navigated to %q", surface.navigatedTo)
	}
	if requester.lastReq.TradeType != "MWEB" {
		t.Errorf("trade type = %q, want MWEB", requester.lastReq.TradeType)
	}
	if sess.Polling() {
		t.Error("polling started for redirect dispatch")
	}
}

func TestDispatchMobileAlipaySubmitsForm(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{
		PaymentParams: map[string]interface{}{"form_html": "<form action='https://openapi.alipay.com'></form>"},
	}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := newTestSession(MethodAlipay, DeviceMobile, surface)

	action, err := d.Dispatch(context.Background(), sess, uaMobile, testPollConfig(5))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if action != ActionForm {
		t.Fatalf("action = %s, want %s", action, ActionForm)
	}
	if surface.formHTML == "" {
		t.Error("form was not submitted")
	}
	if requester.lastReq.ReturnURL != "https://shop.example.com/return" {
		t.Errorf("return url = %q", requester.lastReq.ReturnURL)
	}
}

func TestDispatchInAppBrowserInvokesBridge(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{
		PaymentParams: map[string]interface{}{
			"appId":     "wx123",
			"timeStamp": "1700000000",
			"nonceStr":  "abc",
			"package":   "prepay_id=xyz",
			"signType":  "RSA",
			"paySign":   "signature",
		},
	}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{bridgeResult: BridgeResult{OK: true}}
	sess := newTestSession(MethodWechat, DeviceMobile, surface)

	action, err := d.Dispatch(context.Background(), sess, uaWechatInApp, testPollConfig(5))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if action != ActionBridge {
		t.Fatalf("action = %s, want %s", action, ActionBridge)
	}
	if surface.bridgeParams["paySign"] != "signature" {
		t.Error("bridge params were not passed through")
	}
	if surface.successCount() != 1 {
		t.Errorf("success shown %d times, want 1", surface.successCount())
	}
	// 桥接回调是权威结果，绝不进入轮询
	if sess.Polling() {
		t.Error("polling started for bridge dispatch")
	}
}

func TestDispatchBridgeFailureAlerts(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{
		PaymentParams: map[string]interface{}{"paySign": "signature"},
	}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{bridgeResult: BridgeResult{OK: false, ErrMsg: "用户取消"}}
	sess := newTestSession(MethodWechat, DeviceMobile, surface)

	_, err := d.Dispatch(context.Background(), sess, uaWechatInApp, testPollConfig(5))
	if !errors.Is(err, ErrBridgeFailed) {
		t.Fatalf("error = %v, want ErrBridgeFailed", err)
	}
	if got := surface.lastAlert(); got != "支付取消或失败: 用户取消" {
		t.Errorf("alert = %q", got)
	}
}

func TestDispatchGatewayErrorShowsDetail(t *testing.T) {
	requester := &fakeRequester{err: &gateway.Error{StatusCode: 400, Detail: "订单已关闭"}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := newTestSession(MethodWechat, DeviceDesktop, surface)

	_, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5))
	if err == nil {
		t.Fatal("Dispatch() error = nil, want gateway error")
	}
	if got := surface.lastAlert(); got != "支付请求失败: 订单已关闭" {
		t.Errorf("alert = %q", got)
	}
	// 加载指示在失败路径也要成对出现
	if surface.loadingShows != 1 || surface.loadingHides != 1 {
		t.Errorf("loading shows/hides = %d/%d, want 1/1", surface.loadingShows, surface.loadingHides)
	}
}

func TestDispatchGenericErrorUsesFallbackMessage(t *testing.T) {
	requester := &fakeRequester{err: errors.New("dial tcp: connection refused")}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := newTestSession(MethodAlipay, DeviceDesktop, surface)

	_, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5))
	if err == nil {
		t.Fatal("Dispatch() error = nil")
	}
	if got := surface.lastAlert(); got != MsgRequestFailed {
		t.Errorf("alert = %q, want %q", got, MsgRequestFailed)
	}
}

func TestDispatchNoParamsAlerts(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := newTestSession(MethodWechat, DeviceDesktop, surface)

	_, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5))
	if !errors.Is(err, ErrNoParams) {
		t.Fatalf("error = %v, want ErrNoParams", err)
	}
	if got := surface.lastAlert(); got != MsgNoParams {
		t.Errorf("alert = %q, want %q", got, MsgNoParams)
	}
}

func TestDispatchLoadingPairedOnSuccessPath(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{QRCode: "https://qr.alipay.com/abc"}}
	querier := &fakeQuerier{script: []queryStep{{report: &gateway.StatusReport{OrderStatus: "paid"}}}}
	d, _ := newTestDispatcher(requester, querier)

	surface := &fakeSurface{}
	sess := newTestSession(MethodAlipay, DeviceDesktop, surface)

	if _, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if surface.loadingShows != 1 || surface.loadingHides != 1 {
		t.Errorf("loading shows/hides = %d/%d, want 1/1", surface.loadingShows, surface.loadingHides)
	}

	<-sess.Done()
}

func TestDispatchNonPollingSessionLeavesRegistry(t *testing.T) {
	tests := []struct {
		name      string
		method    Method
		userAgent string
		result    *gateway.PayResult
		action    Action
	}{
		{
			name:      "移动端跳转",
			method:    MethodWechat,
			userAgent: uaMobile,
			result: &gateway.PayResult{
				PaymentParams: map[string]interface{}{"mweb_url": "https://wx.tenpay.com/h5?x=1"},
			},
			action: ActionRedirect,
		},
		{
			name:      "移动端表单",
			method:    MethodAlipay,
			userAgent: uaMobile,
			result: &gateway.PayResult{
				PaymentParams: map[string]interface{}{"form_html": "<form></form>"},
			},
			action: ActionForm,
		},
		{
			name:      "应用内桥接",
			method:    MethodWechat,
			userAgent: uaWechatInApp,
			result: &gateway.PayResult{
				PaymentParams: map[string]interface{}{"appId": "wx123", "paySign": "signature"},
			},
			action: ActionBridge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := &fakeRequester{result: tt.result}
			d, manager := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

			sess := newTestSession(tt.method, DeviceMobile, &fakeSurface{bridgeResult: BridgeResult{OK: true}})
			manager.Register(sess)

			action, err := d.Dispatch(context.Background(), sess, tt.userAgent, testPollConfig(5))
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if action != tt.action {
				t.Fatalf("action = %s, want %s", action, tt.action)
			}
			// 不轮询的会话没有后续生命周期，派发后立即出注册表
			if got := manager.Get(sess.ID); got != nil {
				t.Error("session still registered after dispatch")
			}
		})
	}
}

func TestDispatchQRSessionLeavesRegistryAfterFinish(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{CodeURL: "weixin://wxpay/bizpayurl?pr=abc"}}
	querier := &fakeQuerier{script: []queryStep{{report: paidWechatReport()}}}
	d, manager := newTestDispatcher(requester, querier)

	sess := newTestSession(MethodWechat, DeviceDesktop, &fakeSurface{})
	manager.Register(sess)

	if _, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// 轮询中会话留在注册表，供状态查询与取消使用
	if got := manager.Get(sess.ID); got == nil {
		t.Fatal("polling session missing from registry")
	}

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("polling did not finish")
	}

	if got := manager.Get(sess.ID); got != nil {
		t.Error("session still registered after polling finished")
	}
}

func TestDispatchEmptyOrderIDRejected(t *testing.T) {
	requester := &fakeRequester{result: &gateway.PayResult{}}
	d, _ := newTestDispatcher(requester, &fakeQuerier{script: []queryStep{{report: unpaidReport()}}})

	surface := &fakeSurface{}
	sess := NewSession("sess-1", "user-1", "", MethodWechat, DeviceDesktop, surface)

	_, err := d.Dispatch(context.Background(), sess, uaDesktop, testPollConfig(5))
	if !errors.Is(err, ErrEmptyOrderID) {
		t.Fatalf("error = %v, want ErrEmptyOrderID", err)
	}
}
