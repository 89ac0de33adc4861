package checkout

import (
	"context"
	"errors"
	"fmt"

	"checkout/pkg/gateway"
	"checkout/pkg/logger"
)

// ParamsRequester 支付参数请求接口，由网关客户端实现
type ParamsRequester interface {
	RequestParams(ctx context.Context, method, orderID string, req gateway.PayRequest) (*gateway.PayResult, error)
}

// Dispatcher 支付派发器
// 根据支付方式、设备类型与网关返回的参数变体，选择唯一的呈现路径：
// 桥接调起、跳转/表单、或二维码加轮询
type Dispatcher struct {
	params    ParamsRequester
	querier   StatusQuerier
	caps      Capabilities
	manager   *Manager
	returnURL string
}

// NewDispatcher 创建派发器
// returnURL 为支付宝移动端支付完成后的回跳地址
func NewDispatcher(params ParamsRequester, querier StatusQuerier, caps Capabilities, manager *Manager, returnURL string) *Dispatcher {
	return &Dispatcher{
		params:    params,
		querier:   querier,
		caps:      caps,
		manager:   manager,
		returnURL: returnURL,
	}
}

// Dispatch 执行一次支付派发，返回选择的呈现路径
// 加载指示在网关调用前展示、调用返回后立即移除，成功与失败路径都不例外
func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, userAgent string, poll PollConfig) (Action, error) {
	if sess.OrderID == "" {
		sess.Surface().Alert(MsgRequestFailed)
		return "", ErrEmptyOrderID
	}
	if !sess.Method.Valid() {
		sess.Surface().Alert(MsgRequestFailed)
		return "", fmt.Errorf("unsupported payment method: %q", sess.Method)
	}

	surface := sess.Surface()
	mobile := sess.Device == DeviceMobile

	surface.ShowLoading()
	result, err := d.params.RequestParams(ctx, string(sess.Method), sess.OrderID, d.payRequest(sess.Method, mobile))
	surface.HideLoading()

	if err != nil {
		logger.ErrorString("Dispatcher", "RequestParams", fmt.Sprintf(
			"获取支付参数失败 订单号:%s: %v", sess.OrderID, err))
		surface.Alert(userMessage(err))
		return "", err
	}

	params := ParamsFromGateway(result)

	// 分支一：应用内浏览器且参数可调起，桥接回调即权威结果，绝不进入轮询
	if mobile && d.caps.InAppBrowser(userAgent, sess.Method) && params.BridgeReady() {
		action, err := d.invokeBridge(sess, params, poll)
		if err == nil {
			// 不轮询的会话没有后续生命周期，立即出注册表
			d.manager.Remove(sess.ID)
		}
		return action, err
	}

	// 分支二：移动端跳转或表单提交，控制权离开当前页面，不启动轮询
	if mobile {
		if url := params.RedirectURL(); url != "" {
			if err := surface.Navigate(url); err != nil {
				return "", err
			}
			d.manager.Remove(sess.ID)
			return ActionRedirect, nil
		}
		if params.FormHTML != "" {
			if err := surface.SubmitForm(params.FormHTML); err != nil {
				return "", err
			}
			d.manager.Remove(sess.ID)
			return ActionForm, nil
		}
	}

	// 分支三：二维码加轮询
	if qr := params.QRContent(); qr != "" {
		if err := surface.ShowQR(qr, sess.Method); err != nil {
			return "", err
		}
		if err := d.manager.StartPolling(sess, d.querier, poll, nil); err != nil {
			return "", err
		}
		return ActionQR, nil
	}

	surface.Alert(MsgNoParams)
	return "", ErrNoParams
}

// invokeBridge 应用内桥接调起
func (d *Dispatcher) invokeBridge(sess *Session, params *Params, poll PollConfig) (Action, error) {
	surface := sess.Surface()

	result, err := surface.InvokeBridge(params.Bridge)
	if err != nil {
		surface.Alert(userMessage(err))
		return "", err
	}

	// 调起已交出去，结果由呈现面的回调稍后产生
	if result.Deferred {
		return ActionBridge, nil
	}

	if !result.OK {
		msg := result.ErrMsg
		if msg == "" {
			msg = "未知错误"
		}
		surface.Alert("支付取消或失败: " + msg)
		return "", ErrBridgeFailed
	}

	surface.Success(MsgPaySuccess)
	if poll.OnSuccess != nil {
		poll.OnSuccess()
	}
	return ActionBridge, nil
}

// payRequest 按方式与设备构造参数请求
// 微信区分 H5（MWEB）与扫码（NATIVE）两种交易类型，
// 支付宝移动端需要携带回跳地址
func (d *Dispatcher) payRequest(method Method, mobile bool) gateway.PayRequest {
	req := gateway.PayRequest{}
	switch method {
	case MethodWechat:
		if mobile {
			req.TradeType = "MWEB"
		} else {
			req.TradeType = "NATIVE"
		}
	case MethodAlipay:
		if mobile {
			req.ReturnURL = d.returnURL
		}
	}
	return req
}

// userMessage 把网关错误转换为可直接展示给用户的提示
// 网关带 detail 时透出，否则回退为通用失败文案
func userMessage(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Detail != "" {
		return "支付请求失败: " + gwErr.Detail
	}
	return MsgRequestFailed
}
