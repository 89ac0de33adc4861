package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"

	"checkout/pkg/checkout"
)

// CheckoutRequest 发起结账请求
type CheckoutRequest struct {
	UserID   string `json:"user_id" valid:"required"`
	Method   string `json:"method" valid:"required"`
	Amount   int64  `json:"amount"`
	Surprise bool   `json:"surprise"`
	Title    string `json:"title"`
	Device   string `json:"device"`
}

// ValidateCheckout 验证发起结账请求
func ValidateCheckout(c *gin.Context) (*CheckoutRequest, error) {
	var req CheckoutRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"user_id": []string{"required"},
		"method":  []string{"required", "in:wechat,alipay"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
		"method": []string{
			"required:支付方式不能为空",
			"in:支付方式必须是 wechat 或 alipay",
		},
	}

	// 4. 开始验证
	opts := govalidator.Options{
		Data:     &req,
		Rules:    rules,
		Messages: messages,
	}

	validator := govalidator.New(opts)
	if errs := validator.ValidateStruct(); len(errs) > 0 {
		return nil, fmt.Errorf("验证失败: %v", errs)
	}

	// 5. 额外的金额与设备验证
	if !req.Surprise && req.Amount < 0 {
		return nil, fmt.Errorf("金额必须为正数")
	}

	if req.Device != "" {
		if _, ok := checkout.ParseDevice(req.Device); !ok {
			return nil, fmt.Errorf("无效的设备类型: %s", req.Device)
		}
	}

	return &req, nil
}
