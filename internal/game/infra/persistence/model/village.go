package model

import "time"

// model
type Village struct {
	ID           int64   `gorm:"column:id;primaryKey;not null;" json:"id"`
	PlayerID     int64   `gorm:"column:player_id;index;not null;" json:"player_id"`
	Name         string  `gorm:"column:name;type:varchar(100);" json:"name"`
	X            int     `gorm:"column:x;uniqueIndex:idx_village_coords;not null;" json:"x"`
	Y            int     `gorm:"column:y;uniqueIndex:idx_village_coords;not null;" json:"y"`
	IsCapital    bool    `gorm:"column:is_capital;not null;default:0;" json:"is_capital"`
	Wood         float64 `gorm:"column:wood;not null;default:0;" json:"wood"`
	Clay         float64 `gorm:"column:clay;not null;default:0;" json:"clay"`
	Iron         float64 `gorm:"column:iron;not null;default:0;" json:"iron"`
	Crop         float64 `gorm:"column:crop;not null;default:0;" json:"crop"` // 允许为负，负值是饥荒信号
	WoodRate     float64 `gorm:"column:wood_rate;not null;default:0;" json:"wood_rate"`
	ClayRate     float64 `gorm:"column:clay_rate;not null;default:0;" json:"clay_rate"`
	IronRate     float64 `gorm:"column:iron_rate;not null;default:0;" json:"iron_rate"`
	CropRate     float64 `gorm:"column:crop_rate;not null;default:0;" json:"crop_rate"`
	CropUpkeep   float64 `gorm:"column:crop_upkeep;not null;default:0;" json:"crop_upkeep"`
	WarehouseCap float64 `gorm:"column:warehouse_cap;not null;default:800;" json:"warehouse_cap"`
	GranaryCap   float64 `gorm:"column:granary_cap;not null;default:800;" json:"granary_cap"`
	WallLevel    int     `gorm:"column:wall_level;not null;default:0;" json:"wall_level"`
	Loyalty      int     `gorm:"column:loyalty;not null;default:100;" json:"loyalty"`
	UpgradeSlots int     `gorm:"column:upgrade_slots;not null;default:0;" json:"upgrade_slots"` // 0 表示用服务器默认建造位

	LastSyncAt time.Time `gorm:"column:last_sync_at;type:TIMESTAMP;not null;" json:"last_sync_at"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;not null;default:CURRENT_TIMESTAMP;" json:"updated_at"`
}

func (v *Village) TableName() string {
	return "village"
}
