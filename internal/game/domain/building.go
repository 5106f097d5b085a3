package domain

import (
	"time"

	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
)

type BuildingID int64

// Building 村庄建筑。Level 为 0 表示尚未建成。
type Building struct {
	ID        BuildingID
	VillageID VillageID
	Type      buildingcfg.BuildingType
	Slot      int
	Level     int
}

type ConstructionQueueID int64

// ConstructionQueueEntry 建造队列条目。
// 入队时已扣资源，处理器信任存储的 DurationS，不重新校验可负担性。
// InProgress 为 false 的条目在排队等待空闲建造位。
type ConstructionQueueEntry struct {
	ID         ConstructionQueueID
	VillageID  VillageID
	BuildingID BuildingID
	Type       buildingcfg.BuildingType
	TargetLvl  int
	DurationS  int
	InProgress bool
	StartedAt  time.Time
	EndsAt     time.Time
}

// Promote 把排队条目提升为在建：从 now 起按存储时长计算完工时间。
func (e *ConstructionQueueEntry) Promote(now time.Time) {
	e.InProgress = true
	e.StartedAt = now
	e.EndsAt = now.Add(time.Duration(e.DurationS) * time.Second)
}
