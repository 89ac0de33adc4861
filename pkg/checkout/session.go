package checkout

import (
	"context"
	"sync"
	"time"

	"checkout/pkg/logger"
)

// SharedGuard 跨实例的会话互斥，由 redis 会话存储实现
// 本地单实例部署可以不提供（传 nil）
type SharedGuard interface {
	AcquireActive(userID, sessionID string, ttl time.Duration) bool
	ReleaseActive(userID, sessionID string)
}

// Session 一次结账会话
// 会话持有自己的呈现面、轮询器与取消令牌；同一用户同一时刻
// 至多存在一个轮询中的会话
type Session struct {
	ID      string
	UserID  string
	OrderID string
	Method  Method
	Device  DeviceClass

	surface Surface

	mu        sync.Mutex
	poller    *Poller
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession 创建会话
func NewSession(id, userID, orderID string, method Method, device DeviceClass, surface Surface) *Session {
	return &Session{
		ID:      id,
		UserID:  userID,
		OrderID: orderID,
		Method:  method,
		Device:  device,
		surface: surface,
		done:    make(chan struct{}),
	}
}

// Surface 会话自己的呈现面
func (s *Session) Surface() Surface {
	return s.surface
}

// Polling 是否有进行中的轮询
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poller != nil && !s.poller.State().Terminal()
}

// Snapshot 轮询快照，未开始轮询时 ok=false
func (s *Session) Snapshot() (PollSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller == nil {
		return PollSnapshot{}, false
	}
	return s.poller.Snapshot(), true
}

// startPolling 启动轮询，由派发器在展示二维码后调用
// 每个会话至多轮询一次，重复启动返回 ErrSessionActive
// onDone 在轮询结束后、会话收尾前回调
func (s *Session) startPolling(querier StatusQuerier, cfg PollConfig, onDone func(State)) error {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.poller != nil {
		s.mu.Unlock()
		cancel()
		return ErrSessionActive
	}
	s.cancel = cancel
	s.poller = NewPoller(querier, s.surface, s.Method, s.OrderID, cfg)
	poller := s.poller
	s.mu.Unlock()

	go func() {
		state := poller.Run(ctx)
		if onDone != nil {
			onDone(state)
		}
		close(s.done)
	}()
	return nil
}

// Close 用户取消（关闭二维码弹窗）
// 取消令牌在本调用内同步生效，轮询在下一个检查点停止，
// 在途查询的结果会被丢弃
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		} else {
			// 未启动轮询的会话直接结束
			close(s.done)
		}
		logger.InfoString("Checkout", "Session", "会话已关闭: "+s.ID)
	})
}

// Done 轮询结束信号
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Manager 会话注册表与单会话守卫
// 约定：同一用户在前一个轮询会话结束（成功/超时/取消）前，
// 不允许再发起新的轮询会话
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session // 按会话 ID
	activeUser map[string]string   // 用户 ID → 轮询中的会话 ID
	shared     SharedGuard         // 可选的跨实例守卫
	guardTTL   time.Duration
}

// NewManager 创建会话管理器
// guardTTL 为守卫的保底过期时间，应覆盖整个轮询窗口
func NewManager(shared SharedGuard, guardTTL time.Duration) *Manager {
	if guardTTL <= 0 {
		guardTTL = 3 * time.Minute
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		activeUser: make(map[string]string),
		shared:     shared,
		guardTTL:   guardTTL,
	}
}

// Register 登记会话，派发前调用
func (m *Manager) Register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Get 按会话 ID 查找
func (m *Manager) Get(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

// acquire 获取用户的轮询名额
// 名额不可重入，已持有名额的会话重复获取同样被拒绝
func (m *Manager) acquire(s *Session) error {
	m.mu.Lock()
	if _, ok := m.activeUser[s.UserID]; ok {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.activeUser[s.UserID] = s.ID
	m.mu.Unlock()

	if m.shared != nil && !m.shared.AcquireActive(s.UserID, s.ID, m.guardTTL) {
		m.mu.Lock()
		delete(m.activeUser, s.UserID)
		m.mu.Unlock()
		return ErrSessionActive
	}
	return nil
}

// release 释放用户的轮询名额
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	if current, ok := m.activeUser[s.UserID]; ok && current == s.ID {
		delete(m.activeUser, s.UserID)
	}
	m.mu.Unlock()

	if m.shared != nil {
		m.shared.ReleaseActive(s.UserID, s.ID)
	}
}

// Remove 会话终结后从注册表移除
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// StartPolling 获取单会话名额并启动轮询
// 轮询进入终止状态后自动释放名额，并把会话从注册表移除，
// 终结的会话不在内存中滞留
func (m *Manager) StartPolling(s *Session, querier StatusQuerier, cfg PollConfig, onDone func(State)) error {
	if err := m.acquire(s); err != nil {
		return err
	}

	err := s.startPolling(querier, cfg, func(state State) {
		m.release(s)
		m.Remove(s.ID)
		if onDone != nil {
			onDone(state)
		}
	})
	if err != nil {
		m.release(s)
		return err
	}
	return nil
}
