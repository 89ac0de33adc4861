package checkoutapi

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"checkout/pkg/checkout"
	"checkout/pkg/gateway"
	"checkout/pkg/logger"
)

// fakeOrderCreator 返回固定结果的订单创建替身
type fakeOrderCreator struct {
	orderID string
	err     error
}

func (f *fakeOrderCreator) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (string, error) {
	return f.orderID, f.err
}

func TestCreateOrderLoadingPairedOnSuccess(t *testing.T) {
	surface := newAPISurface()
	gw := &fakeOrderCreator{orderID: "order-1"}

	orderID, err := createOrderWithLoading(context.Background(), gw, surface, gateway.CreateOrderRequest{
		Amount: 1.00, Title: "在线支付", UserID: "user-1", PaymentType: "wechat",
	})
	if err != nil {
		t.Fatalf("createOrderWithLoading() error = %v", err)
	}
	if orderID != "order-1" {
		t.Errorf("orderID = %q, want order-1", orderID)
	}
	if surface.loadingShows != 1 || surface.loadingHides != 1 {
		t.Errorf("loading shows/hides = %d/%d, want 1/1", surface.loadingShows, surface.loadingHides)
	}
	if surface.Loading() {
		t.Error("loading indicator still visible")
	}
}

func TestCreateOrderLoadingPairedOnFailure(t *testing.T) {
	surface := newAPISurface()
	gw := &fakeOrderCreator{err: &gateway.Error{StatusCode: 500, Detail: "上游异常"}}

	_, err := createOrderWithLoading(context.Background(), gw, surface, gateway.CreateOrderRequest{
		Amount: 1.00, UserID: "user-1", PaymentType: "wechat",
	})
	if err == nil {
		t.Fatal("createOrderWithLoading() error = nil, want gateway error")
	}
	// 失败路径加载指示同样成对出现
	if surface.loadingShows != 1 || surface.loadingHides != 1 {
		t.Errorf("loading shows/hides = %d/%d, want 1/1", surface.loadingShows, surface.loadingHides)
	}
	if surface.Loading() {
		t.Error("loading indicator still visible after failure")
	}
}

// failingProgressStore 持久化总是失败的会话存储替身
type failingProgressStore struct {
	err error
}

func (f *failingProgressStore) UpdateProgress(ctx context.Context, sessionID string, snap checkout.PollSnapshot) error {
	return f.err
}

// failingStateRecorder 落库总是失败的记录仓库替身
type failingStateRecorder struct {
	err error
}

func (f *failingStateRecorder) UpdateState(ctx context.Context, sessionID string, state checkout.State, attempts int, message string) error {
	return f.err
}

func TestPersistProgressLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := logger.Logger
	logger.Logger = zap.New(core)
	defer func() { logger.Logger = restore }()

	snap := checkout.PollSnapshot{
		OrderID: "order-1",
		State:   checkout.StateSucceeded,
		Attempt: 3,
		Message: "支付成功！",
	}
	persistProgress(
		&failingProgressStore{err: errors.New("redis: connection refused")},
		&failingStateRecorder{err: errors.New("database is locked")},
		"sess-1", snap)

	// 两条持久化失败都必须留下日志
	if got := logs.Len(); got != 2 {
		t.Fatalf("logged %d entries, want 2", got)
	}
}

func TestPersistProgressQuietOnSuccess(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := logger.Logger
	logger.Logger = zap.New(core)
	defer func() { logger.Logger = restore }()

	persistProgress(&failingProgressStore{}, &failingStateRecorder{}, "sess-1",
		checkout.PollSnapshot{State: checkout.StatePolling, Attempt: 1})

	if got := logs.Len(); got != 0 {
		t.Fatalf("logged %d entries, want 0", got)
	}
}
