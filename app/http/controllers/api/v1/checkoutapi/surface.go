package checkoutapi

import (
	"sync"

	"checkout/pkg/checkout"
)

// Directive 下发给前端的呈现指令
// 派发结果不在服务端渲染，而是变成一条条指令由前端执行
type Directive struct {
	Kind    string                `json:"kind"` // qr / navigate / form / bridge / alert / success
	Content string                `json:"content,omitempty"`
	Bridge  checkout.BridgeParams `json:"bridge,omitempty"`
	Method  string                `json:"method,omitempty"`
}

// apiSurface 把呈现面调用记录为指令序列的实现
// 每个会话持有一个；轮询协程会并发调用 SetStatus，需要加锁
type apiSurface struct {
	mu           sync.Mutex
	directives   []Directive
	status       string
	loadingShows int
	loadingHides int
}

func newAPISurface() *apiSurface {
	return &apiSurface{}
}

// ShowLoading 展示加载指示
func (s *apiSurface) ShowLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingShows++
}

// HideLoading 移除加载指示
func (s *apiSurface) HideLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingHides++
}

// Loading 加载指示是否仍在展示
func (s *apiSurface) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingShows > s.loadingHides
}

// ShowQR 记录二维码指令
func (s *apiSurface) ShowQR(content string, method checkout.Method) error {
	s.append(Directive{Kind: "qr", Content: content, Method: string(method)})
	return nil
}

// Navigate 记录跳转指令
func (s *apiSurface) Navigate(url string) error {
	s.append(Directive{Kind: "navigate", Content: url})
	return nil
}

// SubmitForm 记录表单提交指令
func (s *apiSurface) SubmitForm(formHTML string) error {
	s.append(Directive{Kind: "form", Content: formHTML})
	return nil
}

// InvokeBridge 桥接调起交给前端执行，结果由后续请求带回
func (s *apiSurface) InvokeBridge(params checkout.BridgeParams) (checkout.BridgeResult, error) {
	s.append(Directive{Kind: "bridge", Bridge: params})
	return checkout.BridgeResult{Deferred: true}, nil
}

// SetStatus 更新进度文案
func (s *apiSurface) SetStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = text
}

// Alert 记录错误提示指令
func (s *apiSurface) Alert(msg string) {
	s.append(Directive{Kind: "alert", Content: msg})
}

// Success 记录支付成功指令
func (s *apiSurface) Success(msg string) {
	s.append(Directive{Kind: "success", Content: msg})
}

// Directives 当前已积累的指令副本
func (s *apiSurface) Directives() []Directive {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// Status 当前进度文案
func (s *apiSurface) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *apiSurface) append(d Directive) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directives = append(s.directives, d)
}
