// Package checkoutapi 结账编排的 HTTP 接口
package checkoutapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"checkout/app/models/record"
	"checkout/app/repositories"
	"checkout/app/requests"
	"checkout/pkg/checkout"
	"checkout/pkg/config"
	"checkout/pkg/gateway"
	"checkout/pkg/logger"
	"checkout/pkg/response"
	"checkout/pkg/session"
)

type CheckoutController struct {
	gw         *gateway.Client
	store      *session.Store
	manager    *checkout.Manager
	dispatcher *checkout.Dispatcher
	caps       checkout.Capabilities
	repo       *repositories.RecordRepository
}

// 控制器内共享的会话管理器，单会话守卫要求全局唯一
var (
	sharedManager *checkout.Manager
	sharedStore   *session.Store
)

// InitShared 初始化共享的会话存储与管理器，路由注册前调用一次
func InitShared() {
	sharedStore = session.NewStore()
	sharedManager = checkout.NewManager(sharedStore,
		time.Duration(config.GetInt("checkout.guard_ttl", 180))*time.Second)
}

// NewCheckoutController 创建结账控制器
func NewCheckoutController() *CheckoutController {
	gw := gateway.NewClientFromConfig()
	caps := checkout.UserAgentCapabilities{}

	return &CheckoutController{
		gw:      gw,
		store:   sharedStore,
		manager: sharedManager,
		caps:    caps,
		dispatcher: checkout.NewDispatcher(gw, gw, caps, sharedManager,
			config.GetString("gateway.return_url")),
		repo: repositories.NewRecordRepository(),
	}
}

// Store 发起结账
// 创建订单、请求支付参数并完成派发，响应中带回呈现指令
func (cc *CheckoutController) Store(c *gin.Context) {
	// 1. 请求验证
	request, err := requests.ValidateCheckout(c)
	if err != nil {
		response.BadRequest(c, err, "请求参数验证失败")
		return
	}

	method, _ := checkout.ParseMethod(request.Method)
	userAgent := c.Request.UserAgent()

	// 2. 设备判定：显式指定优先，否则按 User-Agent 推断
	device, ok := checkout.ParseDevice(request.Device)
	if !ok {
		device = cc.caps.Classify(userAgent)
	}

	// 3. 确定金额（支持随缘金额）
	amount, err := checkout.ResolveAmount(request.Amount, request.Surprise)
	if err != nil {
		response.Abort400(c, "金额必须为正数")
		return
	}

	title := request.Title
	if title == "" {
		title = config.GetString("checkout.default_title", "在线支付")
	}

	// 4. 创建订单，加载指示与派发时一样成对出现
	surface := newAPISurface()
	orderID, err := createOrderWithLoading(c.Request.Context(), cc.gw, surface, gateway.CreateOrderRequest{
		Amount:      float64(amount) / 100,
		Title:       title,
		UserID:      request.UserID,
		PaymentType: string(method),
	})
	if err != nil {
		cc.abortGateway(c, err)
		return
	}

	// 5. 建立会话并派发
	sessionID := uuid.New().String()
	sess := checkout.NewSession(sessionID, request.UserID, orderID, method, device, surface)
	cc.manager.Register(sess)

	action, err := cc.dispatcher.Dispatch(c.Request.Context(), sess, userAgent, cc.pollConfig(sessionID))
	if err != nil {
		cc.manager.Remove(sessionID)
		cc.abortDispatch(c, err, surface)
		return
	}

	// 6. 持久化会话快照与落库记录
	state := checkout.State("")
	if action == checkout.ActionQR {
		state = checkout.StatePolling
	}

	snap := &session.Snapshot{
		SessionID:   sessionID,
		UserID:      request.UserID,
		OrderID:     orderID,
		Method:      method,
		Device:      device,
		Action:      action,
		Amount:      amount,
		State:       state,
		MaxAttempts: config.GetInt("checkout.max_attempts", checkout.DefaultMaxAttempts),
	}
	if err := cc.store.Save(c.Request.Context(), snap, true); err != nil {
		response.Abort500(c, "保存会话失败")
		return
	}

	rec := &record.Record{
		SessionID: sessionID,
		OrderID:   orderID,
		UserID:    request.UserID,
		Method:    string(method),
		Device:    string(device),
		Action:    string(action),
		Amount:    amount,
		State:     string(state),
	}
	if err := cc.repo.Create(c.Request.Context(), rec); err != nil {
		response.Abort500(c, "保存结账记录失败")
		return
	}

	response.Created(c, gin.H{
		"session_id": sessionID,
		"order_id":   orderID,
		"action":     action,
		"amount":     amount,
		"directives": surface.Directives(),
	})
}

// GetStatus 查询会话的实时轮询状态
func (cc *CheckoutController) GetStatus(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Abort400(c, "缺少会话 ID")
		return
	}

	// 本实例的活跃会话直接取内存快照
	if sess := cc.manager.Get(sessionID); sess != nil {
		if snap, ok := sess.Snapshot(); ok {
			response.Data(c, gin.H{
				"session_id":   sessionID,
				"order_id":     snap.OrderID,
				"state":        snap.State,
				"attempt":      snap.Attempt,
				"max_attempts": snap.MaxAttempts,
				"message":      snap.Message,
			})
			return
		}
	}

	// 其余情况回退到 Redis 快照
	snap, err := cc.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.Abort500(c, "获取会话状态失败")
		return
	}
	if snap == nil {
		response.Abort404(c, "会话不存在")
		return
	}

	response.Data(c, gin.H{
		"session_id":   snap.SessionID,
		"order_id":     snap.OrderID,
		"state":        snap.State,
		"attempt":      snap.Attempt,
		"max_attempts": snap.MaxAttempts,
		"message":      snap.Message,
	})
}

// GetResult 获取会话的最终结果（落库记录）
func (cc *CheckoutController) GetResult(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Abort400(c, "缺少会话 ID")
		return
	}

	rec, err := cc.repo.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Abort404(c, "记录不存在")
			return
		}
		response.Abort500(c, "获取结账记录失败")
		return
	}

	response.Data(c, rec)
}

// Cancel 用户取消会话（关闭二维码弹窗）
// 取消在本调用内同步生效，进行中的轮询在下一个检查点停止
func (cc *CheckoutController) Cancel(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.Abort400(c, "缺少会话 ID")
		return
	}

	sess := cc.manager.Get(sessionID)
	if sess == nil {
		snap, err := cc.store.Get(c.Request.Context(), sessionID)
		if err != nil || snap == nil {
			response.Abort404(c, "会话不存在")
			return
		}
		// 已终结的会话取消是幂等操作
		if snap.State.Terminal() {
			response.Data(c, gin.H{"session_id": sessionID, "state": snap.State})
			return
		}
		response.Abort404(c, "会话不在当前实例")
		return
	}

	sess.Close()
	cc.manager.Remove(sessionID)

	response.Data(c, gin.H{
		"session_id": sessionID,
		"state":      checkout.StateCancelled,
	})
}

// GetHistory 获取用户的结账历史
func (cc *CheckoutController) GetHistory(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		response.Abort400(c, "用户ID不能为空")
		return
	}

	// 获取分页参数
	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := cc.repo.GetByUserID(c.Request.Context(), userID, pageNum, size)
	if err != nil {
		response.Abort500(c, "获取历史记录失败")
		return
	}

	response.Data(c, gin.H{
		"data": records,
		"meta": gin.H{
			"total":     total,
			"page":      pageNum,
			"page_size": size,
		},
	})
}

// HealthCheck 健康检查端点，并行探测网关与会话存储
func (cc *CheckoutController) HealthCheck(c *gin.Context) {
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		return cc.gw.Healthy(ctx)
	})
	g.Go(func() error {
		return cc.store.Ping(ctx)
	})

	if err := g.Wait(); err != nil {
		response.Abort502(c, "依赖服务不可用: "+err.Error())
		return
	}

	response.Data(c, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"metrics": cc.store.Metrics().Snapshot(),
	})
}

// pollConfig 组装轮询配置，进度变化同步写入 Redis 与数据库
func (cc *CheckoutController) pollConfig(sessionID string) checkout.PollConfig {
	return checkout.PollConfig{
		Interval:     time.Duration(config.GetInt("checkout.poll_interval", 3)) * time.Second,
		MaxAttempts:  config.GetInt("checkout.max_attempts", checkout.DefaultMaxAttempts),
		SuccessDelay: time.Duration(config.GetInt("checkout.success_delay_ms", 1500)) * time.Millisecond,
		OnProgress: func(snap checkout.PollSnapshot) {
			persistProgress(cc.store, cc.repo, sessionID, snap)
		},
	}
}

// progressStore 会话快照的进度写入，由 session.Store 实现
type progressStore interface {
	UpdateProgress(ctx context.Context, sessionID string, snap checkout.PollSnapshot) error
}

// stateRecorder 落库记录的状态写入，由 RecordRepository 实现
type stateRecorder interface {
	UpdateState(ctx context.Context, sessionID string, state checkout.State, attempts int, message string) error
}

// persistProgress 把轮询进度同步写入会话存储与落库记录
// 持久化失败不中断轮询，但必须留下日志
func persistProgress(store progressStore, repo stateRecorder, sessionID string, snap checkout.PollSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.LogIf(store.UpdateProgress(ctx, sessionID, snap))
	logger.LogIf(repo.UpdateState(ctx, sessionID, snap.State, snap.Attempt, snap.Message))
}

// orderCreator 订单创建接口，由网关客户端实现
type orderCreator interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (string, error)
}

// createOrderWithLoading 创建订单，加载指示在调用前展示、返回后移除
func createOrderWithLoading(ctx context.Context, gw orderCreator, surface *apiSurface, req gateway.CreateOrderRequest) (string, error) {
	surface.ShowLoading()
	defer surface.HideLoading()
	return gw.CreateOrder(ctx, req)
}

// abortGateway 把网关错误映射为响应
func (cc *CheckoutController) abortGateway(c *gin.Context, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		if gwErr.Detail != "" {
			response.Abort502(c, "支付请求失败: "+gwErr.Detail)
			return
		}
		response.Abort502(c)
		return
	}
	response.Abort502(c)
}

// abortDispatch 把派发错误映射为响应，带上已积累的提示指令
func (cc *CheckoutController) abortDispatch(c *gin.Context, err error, surface *apiSurface) {
	switch {
	case errors.Is(err, checkout.ErrSessionActive):
		response.Abort409(c, "已有进行中的支付会话，请先完成或取消")
	case errors.Is(err, checkout.ErrNoParams):
		response.Abort502(c, checkout.MsgNoParams)
	default:
		cc.abortGateway(c, err)
	}
}
