package model

import "time"

// Garrison 一行一个兵种。count 为总数，in_village 为在村可用数。
type Garrison struct {
	VillageID int64     `gorm:"column:village_id;primaryKey;not null;" json:"village_id"`
	Type      string    `gorm:"column:type;type:varchar(32);primaryKey;not null;" json:"type"`
	Count     int       `gorm:"column:count;not null;default:0;" json:"count"`
	InVillage int       `gorm:"column:in_village;not null;default:0;" json:"in_village"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"updated_at"`
}

func (g *Garrison) TableName() string {
	return "garrison"
}

// TrainingQueue 训练队列。ends_at 为 NULL 表示还在排队，队首就位时才起表。
type TrainingQueue struct {
	ID           int64      `gorm:"column:id;primaryKey;not null;" json:"id"`
	VillageID    int64      `gorm:"column:village_id;index;not null;" json:"village_id"`
	Type         string     `gorm:"column:type;type:varchar(32);not null;" json:"type"`
	Count        int        `gorm:"column:count;not null;" json:"count"`
	EachDuration int        `gorm:"column:each_duration_s;not null;" json:"each_duration_s"`
	StartedAt    *time.Time `gorm:"column:started_at;type:TIMESTAMP;default:NULL;" json:"started_at"`
	EndsAt       *time.Time `gorm:"column:ends_at;type:TIMESTAMP;index;default:NULL;" json:"ends_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
}

func (t *TrainingQueue) TableName() string {
	return "training_queue"
}
