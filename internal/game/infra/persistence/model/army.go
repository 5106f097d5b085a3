package model

import "time"

// Army 行军记录。troops/carried 存 JSON 文本，读取时经封闭枚举校验反序列化。
type Army struct {
	ID            int64      `gorm:"column:id;primaryKey;not null;" json:"id"`
	PlayerID      int64      `gorm:"column:player_id;index;not null;" json:"player_id"`
	FromVillageID int64      `gorm:"column:from_village_id;index;not null;" json:"from_village_id"`
	ToVillageID   int64      `gorm:"column:to_village_id;index;not null;default:0;" json:"to_village_id"`
	ToX           int        `gorm:"column:to_x;not null;" json:"to_x"`
	ToY           int        `gorm:"column:to_y;not null;" json:"to_y"`
	Mission       string     `gorm:"column:mission;type:varchar(16);not null;" json:"mission"`
	Troops        string     `gorm:"column:troops;type:text;not null;" json:"troops"`
	Carried       string     `gorm:"column:carried;type:text;" json:"carried"`
	DepartedAt    time.Time  `gorm:"column:departed_at;type:TIMESTAMP;not null;" json:"departed_at"`
	ArrivesAt     time.Time  `gorm:"column:arrives_at;type:TIMESTAMP;index;not null;" json:"arrives_at"`
	ReturningAt   *time.Time `gorm:"column:returning_at;type:TIMESTAMP;index;default:NULL;" json:"returning_at"`
	Stationed     bool       `gorm:"column:stationed;index;not null;default:0;" json:"stationed"`
	Returning     bool       `gorm:"column:returning;not null;default:0;" json:"returning"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
}

func (a *Army) TableName() string {
	return "army"
}
