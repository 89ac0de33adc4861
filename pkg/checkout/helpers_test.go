package checkout

import (
	"context"
	"sync"

	"checkout/pkg/gateway"
)

// fakeSurface 记录呈现面调用的测试替身
type fakeSurface struct {
	mu sync.Mutex

	loadingShows int
	loadingHides int
	qrContent    string
	qrMethod     Method
	navigatedTo  string
	formHTML     string
	bridgeParams BridgeParams
	bridgeResult BridgeResult
	bridgeErr    error
	statuses     []string
	alerts       []string
	successes    []string
}

func (s *fakeSurface) ShowLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingShows++
}

func (s *fakeSurface) HideLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingHides++
}

func (s *fakeSurface) ShowQR(content string, method Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qrContent = content
	s.qrMethod = method
	return nil
}

func (s *fakeSurface) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigatedTo = url
	return nil
}

func (s *fakeSurface) SubmitForm(formHTML string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formHTML = formHTML
	return nil
}

func (s *fakeSurface) InvokeBridge(params BridgeParams) (BridgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridgeParams = params
	return s.bridgeResult, s.bridgeErr
}

func (s *fakeSurface) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
}

func (s *fakeSurface) Alert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, msg)
}

func (s *fakeSurface) Success(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = append(s.successes, msg)
}

func (s *fakeSurface) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func (s *fakeSurface) lastAlert() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.alerts) == 0 {
		return ""
	}
	return s.alerts[len(s.alerts)-1]
}

func (s *fakeSurface) successCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.successes)
}

// fakeQuerier 按脚本返回状态报告的测试替身
// 脚本耗尽后重复最后一个应答
type fakeQuerier struct {
	mu      sync.Mutex
	script  []queryStep
	calls   int
	onQuery func(call int)
}

type queryStep struct {
	report *gateway.StatusReport
	err    error
}

func (q *fakeQuerier) QueryStatus(ctx context.Context, method, orderID string) (*gateway.StatusReport, error) {
	q.mu.Lock()
	call := q.calls
	q.calls++
	step := q.script[len(q.script)-1]
	if call < len(q.script) {
		step = q.script[call]
	}
	hook := q.onQuery
	q.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return step.report, step.err
}

func (q *fakeQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func unpaidReport() *gateway.StatusReport {
	return &gateway.StatusReport{Status: "pending"}
}

func paidWechatReport() *gateway.StatusReport {
	return &gateway.StatusReport{TradeState: "SUCCESS"}
}
