package checkout

// BridgeResult 应用内桥接调起的回调结果
// Deferred 表示调起已交给原生层，结果不在本次派发内产生（如 API 场景下由前端完成）
type BridgeResult struct {
	OK       bool
	Deferred bool
	ErrMsg   string
}

// Surface 呈现面接口
// 会话持有自己的呈现面，派发与轮询只通过它产生界面副作用，
// 绝不通过全局状态去发现"当前弹窗"
type Surface interface {
	// ShowLoading 展示加载指示，与 HideLoading 严格成对出现
	ShowLoading()
	HideLoading()

	// ShowQR 渲染二维码
	ShowQR(content string, method Method) error

	// Navigate 跳转到支付链接，控制权离开当前页面
	Navigate(url string) error

	// SubmitForm 提交支付表单（HTML 载荷），控制权离开当前页面
	SubmitForm(formHTML string) error

	// InvokeBridge 调起应用内支付桥接，回调结果即权威结果
	InvokeBridge(params BridgeParams) (BridgeResult, error)

	// SetStatus 更新进度文案（如 等待支付...（3/40））
	SetStatus(text string)

	// Alert 弹出错误提示
	Alert(msg string)

	// Success 展示支付成功
	Success(msg string)
}
