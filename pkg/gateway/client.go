// Package gateway 封装与外部支付网关后端的交互
// 订单创建、支付参数签发和状态查询均由网关完成，本包只做 REST 调用和错误提取
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"checkout/pkg/config"
	"checkout/pkg/logger"
)

// Error 网关返回的非 2xx 响应
type Error struct {
	StatusCode int
	Detail     string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

// Config 网关客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client 支付网关客户端
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient 创建网关客户端
// 订单创建和参数请求不做自动重试，重试只属于状态查询层（由轮询器负责）
func NewClient(cfg Config) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// NewClientFromConfig 从配置文件创建网关客户端
func NewClientFromConfig() *Client {
	return NewClient(Config{
		BaseURL: config.GetString("gateway.base_url"),
		Timeout: time.Duration(config.GetInt("gateway.timeout", 15)) * time.Second,
	})
}

// CreateOrder 创建待支付订单，返回订单号
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(fmt.Sprintf("%s/orders", c.baseURL))

	if err != nil {
		logger.ErrorString("Gateway", "CreateOrder", err.Error())
		return "", fmt.Errorf("create order request failed: %w", err)
	}

	if resp.IsError() {
		return "", extractError(resp)
	}

	var created OrderCreated
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("unmarshal order response: %w", err)
	}
	if created.OrderID == "" {
		return "", fmt.Errorf("order response missing order_id")
	}

	logger.InfoString("Gateway", "CreateOrder", fmt.Sprintf(
		"订单创建成功 订单号:%s 金额:%.2f 方式:%s", created.OrderID, req.Amount, req.PaymentType))
	return created.OrderID, nil
}

// RequestParams 请求指定订单的支付参数
func (c *Client) RequestParams(ctx context.Context, method, orderID string, req PayRequest) (*PayResult, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(fmt.Sprintf("%s/payment/%s/pay/%s", c.baseURL, method, orderID))

	if err != nil {
		logger.ErrorString("Gateway", "RequestParams", err.Error())
		return nil, fmt.Errorf("payment params request failed: %w", err)
	}

	if resp.IsError() {
		return nil, extractError(resp)
	}

	var result PayResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("unmarshal payment params: %w", err)
	}

	logger.InfoString("Gateway", "RequestParams", fmt.Sprintf(
		"支付参数获取成功 订单号:%s 方式:%s", orderID, method))
	return &result, nil
}

// QueryStatus 查询订单支付状态
// 查询失败只返回错误，是否容忍由轮询器决定
func (c *Client) QueryStatus(ctx context.Context, method, orderID string) (*StatusReport, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/payment/%s/query/%s", c.baseURL, method, orderID))

	if err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}

	// 查询接口的非 2xx 响应也可能携带状态字段，统一按失败处理但保留 detail
	if resp.IsError() {
		return nil, extractError(resp)
	}

	var report StatusReport
	if err := json.Unmarshal(resp.Body(), &report); err != nil {
		return nil, fmt.Errorf("unmarshal status report: %w", err)
	}
	return &report, nil
}

// Healthy 探测网关可达性，只有传输层错误才视为不可用
func (c *Client) Healthy(ctx context.Context) error {
	_, err := c.client.R().
		SetContext(ctx).
		Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	return nil
}

// extractError 从错误响应中尽力提取人类可读的 detail/message 字段
// JSON 解析失败时回退为通用失败消息
func extractError(resp *resty.Response) error {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}

	detail := ""
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		detail = body.Detail
		if detail == "" {
			detail = body.Message
		}
	}

	return &Error{
		StatusCode: resp.StatusCode(),
		Detail:     detail,
	}
}
