package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindInfra     Kind = "infra"     // 持久层瞬时故障，下一轮调度自动重试
	KindIntegrity Kind = "integrity" // 数据完整性问题，跳过单个实体
	KindBusiness  Kind = "business"
)

type Error struct {
	Op    string         // 发生位置：repo.LockVillage / engine.ResolveArmy
	Kind  Kind           // 粗分类
	Meta  map[string]any // 关键参数（village_id, army_id...）
	Cause error          // 根因（必须保留）
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap：统一包装入口
func Wrap(op string, kind Kind, cause error, meta map[string]any) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Cause: cause, Meta: meta}
}

// KindOf 取错误分类，用于决定“重试整批”还是“跳过单个实体”。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
