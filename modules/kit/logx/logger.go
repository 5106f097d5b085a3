package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger 是可跨组件复用的最小日志接口。
//
// 约束：
// - API 保持极简：结构化字段 + ctx 透传（trace/span）即可
// - 不承载采样/多路输出等能力，那些归属 logs 初始化
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	WithContext(ctx context.Context) Logger
}
