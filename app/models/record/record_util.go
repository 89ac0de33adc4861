package record

import (
	"errors"

	"checkout/pkg/checkout"
)

// Validate 验证记录
func (r *Record) Validate() error {
	if r.SessionID == "" {
		return errors.New("session_id is required")
	}
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if !checkout.Method(r.Method).Valid() {
		return errors.New("invalid payment method")
	}
	return nil
}

// IsTerminal 会话是否已经终结
func (r *Record) IsTerminal() bool {
	return checkout.State(r.State).Terminal()
}

// IsSucceeded 支付是否成功
func (r *Record) IsSucceeded() bool {
	return r.State == string(checkout.StateSucceeded)
}
