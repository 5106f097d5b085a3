package model

import "time"

type Building struct {
	ID        int64     `gorm:"column:id;primaryKey;not null;" json:"id"`
	VillageID int64     `gorm:"column:village_id;uniqueIndex:idx_building_slot;not null;" json:"village_id"`
	Type      string    `gorm:"column:type;type:varchar(32);not null;" json:"type"`
	Slot      int       `gorm:"column:slot;uniqueIndex:idx_building_slot;not null;" json:"slot"`
	Level     int       `gorm:"column:level;not null;default:0;" json:"level"` // 0 表示未建成
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"updated_at"`
}

func (b *Building) TableName() string {
	return "building"
}

// ConstructionQueue 建造队列。入队即已扣资源，duration_s 由指令层定死。
type ConstructionQueue struct {
	ID         int64      `gorm:"column:id;primaryKey;not null;" json:"id"`
	VillageID  int64      `gorm:"column:village_id;index;not null;" json:"village_id"`
	BuildingID int64      `gorm:"column:building_id;not null;" json:"building_id"`
	Type       string     `gorm:"column:type;type:varchar(32);not null;" json:"type"`
	TargetLvl  int        `gorm:"column:target_lvl;not null;" json:"target_lvl"`
	DurationS  int        `gorm:"column:duration_s;not null;" json:"duration_s"`
	InProgress bool       `gorm:"column:in_progress;index;not null;default:0;" json:"in_progress"`
	StartedAt  *time.Time `gorm:"column:started_at;type:TIMESTAMP;default:NULL;" json:"started_at"`
	EndsAt     *time.Time `gorm:"column:ends_at;type:TIMESTAMP;index;default:NULL;" json:"ends_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
}

func (c *ConstructionQueue) TableName() string {
	return "construction_queue"
}
