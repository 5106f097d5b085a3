package domain

import "errors"

var (
	ErrVillageNotFound = errors.New("village not found")
	ErrArmyNotFound    = errors.New("army not found")
	ErrReportNotFound  = errors.New("report not found")
	// ErrDanglingEntity 队列条目指向已删除的村庄之类的数据完整性问题：
	// 跳过该条目，批次其余部分照常处理。
	ErrDanglingEntity = errors.New("entity references deleted owner")
	ErrNegativeCount  = errors.New("negative troop count")
)
