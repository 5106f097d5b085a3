package domain

import (
	"time"

	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

// Garrison 村庄某兵种的驻军行。Count 为总数，InVillage 为在村可用数，
// 差值即在途/出征中的部分。
type Garrison struct {
	VillageID VillageID
	Type      troopcfg.TroopType
	Count     int
	InVillage int
}

type TrainingQueueID int64

// TrainingQueueEntry 训练队列条目，入队时已扣资源。
type TrainingQueueEntry struct {
	ID           TrainingQueueID
	VillageID    VillageID
	Type         troopcfg.TroopType
	Count        int
	EachDuration int // 单个单位训练秒数
	StartedAt    time.Time
	EndsAt       time.Time
}

// Restart 队首条目就位时从 now 重算起止窗口。
func (e *TrainingQueueEntry) Restart(now time.Time) {
	e.StartedAt = now
	e.EndsAt = now.Add(time.Duration(e.EachDuration*e.Count) * time.Second)
}
