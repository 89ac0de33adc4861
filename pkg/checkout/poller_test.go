package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testPollConfig(maxAttempts int) PollConfig {
	return PollConfig{
		Interval:     time.Millisecond,
		MaxAttempts:  maxAttempts,
		SuccessDelay: 0,
	}
}

func TestPollerSucceedsWhenPaid(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{report: unpaidReport()},
		{report: unpaidReport()},
		{report: paidWechatReport()},
	}}
	surface := &fakeSurface{}

	successCalled := false
	cfg := testPollConfig(10)
	cfg.OnSuccess = func() { successCalled = true }

	p := NewPoller(querier, surface, MethodWechat, "order-1", cfg)
	state := p.Run(context.Background())

	if state != StateSucceeded {
		t.Fatalf("state = %s, want %s", state, StateSucceeded)
	}
	if got := querier.callCount(); got != 3 {
		t.Errorf("query count = %d, want 3", got)
	}
	if surface.successCount() != 1 {
		t.Errorf("success shown %d times, want 1", surface.successCount())
	}
	if !successCalled {
		t.Error("OnSuccess was not called")
	}

	snap := p.Snapshot()
	if snap.Message != MsgPaySuccess {
		t.Errorf("message = %q, want %q", snap.Message, MsgPaySuccess)
	}
}

func TestPollerTimesOutAfterMaxAttempts(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{report: unpaidReport()},
	}}
	surface := &fakeSurface{}

	p := NewPoller(querier, surface, MethodAlipay, "order-2", testPollConfig(5))
	state := p.Run(context.Background())

	if state != StateTimedOut {
		t.Fatalf("state = %s, want %s", state, StateTimedOut)
	}
	if got := querier.callCount(); got != 5 {
		t.Errorf("query count = %d, want 5", got)
	}
	if got := surface.lastStatus(); got != MsgPayTimeout {
		t.Errorf("last status = %q, want %q", got, MsgPayTimeout)
	}
}

func TestPollerDistinguishesQueryFailureOnExhaustion(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{err: errors.New("connection refused")},
	}}
	surface := &fakeSurface{}

	p := NewPoller(querier, surface, MethodWechat, "order-3", testPollConfig(3))
	state := p.Run(context.Background())

	if state != StateTimedOut {
		t.Fatalf("state = %s, want %s", state, StateTimedOut)
	}
	if got := surface.lastStatus(); got != MsgQueryFailed {
		t.Errorf("last status = %q, want %q", got, MsgQueryFailed)
	}
}

func TestPollerToleratesTransientErrors(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{report: paidWechatReport()},
	}}
	surface := &fakeSurface{}

	p := NewPoller(querier, surface, MethodWechat, "order-4", testPollConfig(10))
	state := p.Run(context.Background())

	if state != StateSucceeded {
		t.Fatalf("state = %s, want %s", state, StateSucceeded)
	}
	if got := querier.callCount(); got != 3 {
		t.Errorf("query count = %d, want 3", got)
	}
}

func TestPollerCancelledBeforeFirstQuery(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{report: unpaidReport()},
	}}
	surface := &fakeSurface{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(querier, surface, MethodWechat, "order-5", testPollConfig(10))
	state := p.Run(ctx)

	if state != StateCancelled {
		t.Fatalf("state = %s, want %s", state, StateCancelled)
	}
	if got := querier.callCount(); got != 0 {
		t.Errorf("query count = %d, want 0", got)
	}
}

func TestPollerDiscardsInFlightResultAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// 取消发生在查询在途时，已支付的应答也必须被丢弃
	querier := &fakeQuerier{script: []queryStep{
		{report: paidWechatReport()},
	}}
	querier.onQuery = func(call int) { cancel() }

	surface := &fakeSurface{}
	p := NewPoller(querier, surface, MethodWechat, "order-6", testPollConfig(10))
	state := p.Run(ctx)

	if state != StateCancelled {
		t.Fatalf("state = %s, want %s", state, StateCancelled)
	}
	if surface.successCount() != 0 {
		t.Error("success shown after cancellation")
	}
}

func TestPollerProgressMessages(t *testing.T) {
	querier := &fakeQuerier{script: []queryStep{
		{report: unpaidReport()},
	}}
	surface := &fakeSurface{}

	var snapshots []PollSnapshot
	cfg := testPollConfig(3)
	cfg.OnProgress = func(s PollSnapshot) { snapshots = append(snapshots, s) }

	p := NewPoller(querier, surface, MethodWechat, "order-7", cfg)
	p.Run(context.Background())

	if len(snapshots) == 0 {
		t.Fatal("no progress snapshots recorded")
	}

	first := snapshots[0]
	want := fmt.Sprintf(MsgWaitingFormat, 1, 3)
	if first.Message != want {
		t.Errorf("first progress message = %q, want %q", first.Message, want)
	}

	last := snapshots[len(snapshots)-1]
	if !last.State.Terminal() {
		t.Errorf("last snapshot state = %s, want terminal", last.State)
	}
}
