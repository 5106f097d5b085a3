package transport

// BizCode 是业务码的强类型封装，用于日志上下文里减少误传风险。
type BizCode int

const (
	OK           = 0
	InvalidParam = 400
	Unauthorized = 401
	NotFound     = 404
	SystemError  = 500
)
