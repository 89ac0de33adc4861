package session

import (
	"sync"
	"sync/atomic"
	"time"

	"checkout/pkg/checkout"
)

// MetricOperation 定义指标操作类型
type MetricOperation string

const (
	OpSave MetricOperation = "save"
	OpGet  MetricOperation = "get"
)

// LatencyStats 延迟统计
type LatencyStats struct {
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// Metrics 会话存储的性能指标收集器
type Metrics struct {
	totalOps      atomic.Int64
	successfulOps atomic.Int64
	failedOps     atomic.Int64

	createdSessions   atomic.Int64
	succeededSessions atomic.Int64
	timedOutSessions  atomic.Int64
	cancelledSessions atomic.Int64

	// 延迟统计
	saveLatency *LatencyStats

	mu sync.Mutex
}

// NewMetrics 创建新的指标收集器
func NewMetrics() *Metrics {
	return &Metrics{
		saveLatency: &LatencyStats{},
	}
}

// RecordSuccess 记录成功操作
func (m *Metrics) RecordSuccess(op MetricOperation) {
	m.successfulOps.Add(1)
	m.totalOps.Add(1)
}

// RecordError 记录失败操作
func (m *Metrics) RecordError(op MetricOperation) {
	m.failedOps.Add(1)
	m.totalOps.Add(1)
}

// RecordCreated 记录新建会话
func (m *Metrics) RecordCreated() {
	m.createdSessions.Add(1)
}

// RecordFinished 按终止状态计数
func (m *Metrics) RecordFinished(state checkout.State) {
	switch state {
	case checkout.StateSucceeded:
		m.succeededSessions.Add(1)
	case checkout.StateTimedOut:
		m.timedOutSessions.Add(1)
	case checkout.StateCancelled:
		m.cancelledSessions.Add(1)
	}
}

// RecordSaveLatency 记录写入延迟
func (m *Metrics) RecordSaveLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLatency.record(d)
}

// Summary 指标快照
type Summary struct {
	TotalOps          int64 `json:"total_ops"`
	SuccessfulOps     int64 `json:"successful_ops"`
	FailedOps         int64 `json:"failed_ops"`
	CreatedSessions   int64 `json:"created_sessions"`
	SucceededSessions int64 `json:"succeeded_sessions"`
	TimedOutSessions  int64 `json:"timed_out_sessions"`
	CancelledSessions int64 `json:"cancelled_sessions"`
	AvgSaveLatencyMs  int64 `json:"avg_save_latency_ms"`
}

// Snapshot 导出当前指标
func (m *Metrics) Snapshot() Summary {
	m.mu.Lock()
	avg := time.Duration(0)
	if m.saveLatency.count > 0 {
		avg = m.saveLatency.total / time.Duration(m.saveLatency.count)
	}
	m.mu.Unlock()

	return Summary{
		TotalOps:          m.totalOps.Load(),
		SuccessfulOps:     m.successfulOps.Load(),
		FailedOps:         m.failedOps.Load(),
		CreatedSessions:   m.createdSessions.Load(),
		SucceededSessions: m.succeededSessions.Load(),
		TimedOutSessions:  m.timedOutSessions.Load(),
		CancelledSessions: m.cancelledSessions.Load(),
		AvgSaveLatencyMs:  avg.Milliseconds(),
	}
}

// record 记录延迟数据
func (s *LatencyStats) record(d time.Duration) {
	atomic.AddInt64(&s.count, 1)
	s.total += d

	if s.min == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}
