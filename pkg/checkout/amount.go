package checkout

import (
	"errors"
	"math/rand"
)

// 金额边界（单位：分）
const (
	DefaultAmount     = 50
	SurpriseAmountMin = 10
	SurpriseAmountMax = 10000
)

// ErrInvalidAmount 金额必须为正数
var ErrInvalidAmount = errors.New("amount must be positive")

// ResolveAmount 确定订单金额
// surprise 为真时在 [SurpriseAmountMin, SurpriseAmountMax] 内随机取值（随缘金额），
// 金额为零时落到默认值，负数视为非法
func ResolveAmount(amount int64, surprise bool) (int64, error) {
	if surprise {
		return SurpriseAmountMin + rand.Int63n(SurpriseAmountMax-SurpriseAmountMin+1), nil
	}
	if amount == 0 {
		return DefaultAmount, nil
	}
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}
