package port

import (
	"context"
)

// Store 持久层统一入口。
// WithTx 里拿到的 Store 共享同一个事务：一支军队的结算（双方损失、
// 掠夺、忠诚度、战报、返程）必须在单个事务内提交，恰好结算一次。
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Villages() VillageRepository
	Buildings() BuildingRepository
	Troops() TroopRepository
	Armies() ArmyRepository
}
