package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"checkout/pkg/gateway"
	"checkout/pkg/logger"
)

// 轮询默认配置：3 秒一跳，最多 40 跳，约 2 分钟
const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 40
	// DefaultSuccessDelay 成功提示展示时长，之后才触发成功回调
	DefaultSuccessDelay = 1500 * time.Millisecond
)

// StatusQuerier 状态查询接口，由网关客户端实现
type StatusQuerier interface {
	QueryStatus(ctx context.Context, method, orderID string) (*gateway.StatusReport, error)
}

// PollConfig 轮询配置
type PollConfig struct {
	Interval     time.Duration
	MaxAttempts  int
	SuccessDelay time.Duration

	// OnProgress 每一跳以及进入终止状态时回调，用于持久化会话快照
	OnProgress func(PollSnapshot)
	// OnSuccess 成功提示展示完毕后回调（如刷新页面）
	OnSuccess func()
}

// fillDefaults 填充缺省配置
func (c *PollConfig) fillDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.SuccessDelay < 0 {
		c.SuccessDelay = DefaultSuccessDelay
	}
}

// PollSnapshot 轮询状态快照
type PollSnapshot struct {
	OrderID     string
	Method      Method
	State       State
	Attempt     int
	MaxAttempts int
	Message     string
}

// Poller 状态轮询器
// 单驱动循环推进显式状态机；取消通过 context 表达，在每一跳开头检查，
// 不依赖呈现面是否还在
type Poller struct {
	querier StatusQuerier
	surface Surface
	method  Method
	orderID string
	cfg     PollConfig

	mu      sync.Mutex
	state   State
	attempt int
	message string
	lastErr error

	finishOnce sync.Once
}

// NewPoller 创建轮询器，进入 polling 状态
func NewPoller(querier StatusQuerier, surface Surface, method Method, orderID string, cfg PollConfig) *Poller {
	cfg.fillDefaults()
	return &Poller{
		querier: querier,
		surface: surface,
		method:  method,
		orderID: orderID,
		cfg:     cfg,
		state:   StatePolling,
	}
}

// Run 驱动轮询直到终止状态，阻塞调用
// 每一跳严格串行：下一跳的计时在上一跳的查询完成后才开始，
// 同一订单不会出现并发查询
func (p *Poller) Run(ctx context.Context) State {
	logger.InfoString("Poller", "Start", fmt.Sprintf(
		"开始检查%s支付状态，订单号:%s", p.method.Title(), p.orderID))

	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.finish(StateCancelled, "")
		case <-timer.C:
		}

		attempt := p.nextAttempt()

		report, err := p.querier.QueryStatus(ctx, string(p.method), p.orderID)

		// 弹窗已在查询在途时被关闭，丢弃本次结果
		if ctx.Err() != nil {
			return p.finish(StateCancelled, "")
		}

		if err != nil {
			// 瞬时查询失败不终止轮询，记录后继续
			p.setLastErr(err)
			logger.WarnString("Poller", "Query", fmt.Sprintf(
				"查询支付状态出错 订单号:%s 第%d次: %v", p.orderID, attempt, err))
		} else {
			p.setLastErr(nil)
			if p.method.Paid(report) {
				p.surface.SetStatus(MsgRedirecting)
				state := p.finish(StateSucceeded, MsgPaySuccess)
				p.surface.Success(MsgPaySuccess)

				// 留出时间让用户看到成功提示，再触发成功回调
				if p.cfg.SuccessDelay > 0 {
					time.Sleep(p.cfg.SuccessDelay)
				}
				if p.cfg.OnSuccess != nil {
					p.cfg.OnSuccess()
				}
				return state
			}
		}

		p.progress(attempt)

		if attempt >= p.cfg.MaxAttempts {
			// 超时与查询失败给出不同的提示，便于用户区分
			msg := MsgPayTimeout
			if p.lastQueryFailed() {
				msg = MsgQueryFailed
			}
			p.surface.SetStatus(msg)
			return p.finish(StateTimedOut, msg)
		}

		timer.Reset(p.cfg.Interval)
	}
}

// Snapshot 当前轮询状态快照
func (p *Poller) Snapshot() PollSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollSnapshot{
		OrderID:     p.orderID,
		Method:      p.method,
		State:       p.state,
		Attempt:     p.attempt,
		MaxAttempts: p.cfg.MaxAttempts,
		Message:     p.message,
	}
}

// State 当前状态
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// nextAttempt 递增并返回当前跳数
func (p *Poller) nextAttempt() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempt++
	return p.attempt
}

// progress 更新进度文案并通知回调
func (p *Poller) progress(attempt int) {
	text := fmt.Sprintf(MsgWaitingFormat, attempt, p.cfg.MaxAttempts)
	p.surface.SetStatus(text)

	p.mu.Lock()
	p.message = text
	p.mu.Unlock()

	if p.cfg.OnProgress != nil {
		p.cfg.OnProgress(p.Snapshot())
	}
}

// finish 进入终止状态，保证只发生一次
func (p *Poller) finish(state State, msg string) State {
	p.finishOnce.Do(func() {
		p.mu.Lock()
		p.state = state
		if msg != "" {
			p.message = msg
		}
		p.mu.Unlock()

		logger.InfoString("Poller", "Finish", fmt.Sprintf(
			"停止检查%s支付状态 订单号:%s 状态:%s", p.method.Title(), p.orderID, state))

		if p.cfg.OnProgress != nil {
			p.cfg.OnProgress(p.Snapshot())
		}
	})
	return p.State()
}

func (p *Poller) setLastErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
}

func (p *Poller) lastQueryFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr != nil
}
