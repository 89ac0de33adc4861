package checkoutapi

import (
	"sync"
	"testing"

	"checkout/pkg/checkout"
)

func TestAPISurfaceRecordsDirectives(t *testing.T) {
	s := newAPISurface()

	if err := s.ShowQR("weixin://wxpay/bizpayurl", checkout.MethodWechat); err != nil {
		t.Fatalf("ShowQR() error = %v", err)
	}
	s.Alert("提示")
	s.Success("支付成功！")

	directives := s.Directives()
	if len(directives) != 3 {
		t.Fatalf("directives = %d, want 3", len(directives))
	}
	if directives[0].Kind != "qr" || directives[0].Method != "wechat" {
		t.Errorf("first directive = %+v", directives[0])
	}
	if directives[1].Kind != "alert" || directives[1].Content != "提示" {
		t.Errorf("second directive = %+v", directives[1])
	}
	if directives[2].Kind != "success" {
		t.Errorf("third directive = %+v", directives[2])
	}
}

func TestAPISurfaceBridgeIsDeferred(t *testing.T) {
	s := newAPISurface()

	params := checkout.BridgeParams{"appId": "wx123", "paySign": "sig"}
	result, err := s.InvokeBridge(params)
	if err != nil {
		t.Fatalf("InvokeBridge() error = %v", err)
	}
	if !result.Deferred {
		t.Error("bridge result is not deferred")
	}

	directives := s.Directives()
	if len(directives) != 1 || directives[0].Kind != "bridge" {
		t.Fatalf("directives = %+v", directives)
	}
	if directives[0].Bridge["paySign"] != "sig" {
		t.Error("bridge params not recorded")
	}
}

func TestAPISurfaceConcurrentStatusUpdates(t *testing.T) {
	s := newAPISurface()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetStatus("等待支付...")
			_ = s.Status()
			_ = s.Directives()
		}()
	}
	wg.Wait()

	if s.Status() != "等待支付..." {
		t.Errorf("status = %q", s.Status())
	}
}
