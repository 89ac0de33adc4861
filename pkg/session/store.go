// Package session 结账会话的 Redis 持久化
// 会话快照跨请求可查，单会话守卫跨实例生效
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"checkout/pkg/checkout"
	"checkout/pkg/config"
	"checkout/pkg/redis"
)

// Snapshot 会话的持久化快照
type Snapshot struct {
	SessionID   string               `json:"session_id"`
	UserID      string               `json:"user_id"`
	OrderID     string               `json:"order_id"`
	Method      checkout.Method      `json:"method"`
	Device      checkout.DeviceClass `json:"device"`
	Action      checkout.Action      `json:"action"`
	Amount      int64                `json:"amount"`
	State       checkout.State       `json:"state"`
	Attempt     int                  `json:"attempt"`
	MaxAttempts int                  `json:"max_attempts"`
	Message     string               `json:"message"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Store Redis 会话存储
// 支持限流和监控指标收集
type Store struct {
	client      *redis.RedisClient
	prefix      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	metrics     *Metrics
}

// NewStore 创建会话存储实例
func NewStore() *Store {
	rateLimit := config.GetInt("checkout.session_rate_limit", 500)
	burst := config.GetInt("checkout.session_rate_burst", rateLimit)

	return &Store{
		client:      redis.GetRedis(redis.SessionDB),
		prefix:      config.GetString("redis.session_prefix", "checkout"),
		timeout:     time.Duration(config.GetInt("redis.session_timeout", 3600)) * time.Second,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		metrics:     NewMetrics(),
	}
}

// Metrics 暴露指标收集器
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Save 写入会话快照
// 新会话创建走限流，更新不受限
func (s *Store) Save(ctx context.Context, snap *Snapshot, isNew bool) error {
	if isNew {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
		s.metrics.RecordCreated()
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordSaveLatency(time.Since(start))
	}()

	snap.UpdatedAt = time.Now()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = snap.UpdatedAt
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.metrics.RecordError(OpSave)
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	key := s.sessionKey(snap.SessionID)

	// 新会话同时写入用户索引，更新只覆盖快照本身
	pipe := s.client.Client.Pipeline()
	pipe.Set(ctx, key, data, s.timeout)
	if isNew {
		userKey := s.userIndexKey(snap.UserID)
		pipe.LPush(ctx, userKey, snap.SessionID)
		pipe.LTrim(ctx, userKey, 0, 99)
		pipe.Expire(ctx, userKey, s.timeout)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.metrics.RecordError(OpSave)
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}

	s.metrics.RecordSuccess(OpSave)
	return nil
}

// UpdateProgress 以轮询快照更新已有会话
func (s *Store) UpdateProgress(ctx context.Context, sessionID string, poll checkout.PollSnapshot) error {
	snap, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	snap.State = poll.State
	snap.Attempt = poll.Attempt
	snap.MaxAttempts = poll.MaxAttempts
	snap.Message = poll.Message

	if poll.State.Terminal() {
		s.metrics.RecordFinished(poll.State)
	}
	return s.Save(ctx, snap, false)
}

// Get 读取会话快照，不存在时返回 nil
func (s *Store) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := s.client.Client.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		s.metrics.RecordError(OpGet)
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}

	s.metrics.RecordSuccess(OpGet)
	return &snap, nil
}

// ListByUser 用户最近的会话 ID 列表
func (s *Store) ListByUser(ctx context.Context, userID string, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := s.client.Client.LRange(ctx, s.userIndexKey(userID), 0, limit-1).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	return ids, nil
}

// AcquireActive 获取用户的跨实例轮询名额
// 实现 checkout.SharedGuard
func (s *Store) AcquireActive(userID, sessionID string, ttl time.Duration) bool {
	return s.client.SetNX(s.activeKey(userID), sessionID, ttl)
}

// ReleaseActive 释放轮询名额，只释放自己持有的
func (s *Store) ReleaseActive(userID, sessionID string) {
	key := s.activeKey(userID)
	if s.client.Get(key) == sessionID {
		s.client.Del(key)
	}
}

// Ping 检查存储健康状态
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping()
}

func (s *Store) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, sessionID)
}

func (s *Store) userIndexKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

func (s *Store) activeKey(userID string) string {
	return fmt.Sprintf("%s:active:%s", s.prefix, userID)
}
