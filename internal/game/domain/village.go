package domain

import (
	"time"
)

type VillageID int64
type PlayerID int64

// Village 村庄聚合。
// 不变式：四项资源存量永远是 LastSyncAt 时刻的值，不是“实时值”，
// 读取方必须自己按流逝时间补算，或者先触发一次结算。
type Village struct {
	ID        VillageID
	PlayerID  PlayerID
	Name      string
	X         int
	Y         int
	IsCapital bool

	Resources Resources
	// 每小时产量（由资源田等级推导，建筑完成时重算）
	WoodRate float64
	ClayRate float64
	IronRate float64
	CropRate float64
	// 每小时粮耗（驻军 + 人口）
	CropUpkeep float64

	WarehouseCap float64 // 木/泥/铁上限
	GranaryCap   float64 // 粮上限
	WallLevel    int
	Loyalty      int // 0-100，归零即被征服
	// 本村并行建造位数量，付费会员按村提升。0 表示用服务器默认值
	UpgradeSlots int

	LastSyncAt time.Time
}

const (
	LoyaltyMax          = 100
	LoyaltyAfterConquer = 25
)

// AccrueTo 把资源结算推进到 now。幂等：elapsed 为零时不产生任何变化。
// 木/泥/铁夹在 [0, 仓库容量]；粮受粮仓容量封顶，但允许为负，
// 负粮是饥荒信号，由饥荒处理器消费，这里不抹掉。
func (v *Village) AccrueTo(now time.Time) {
	elapsed := now.Sub(v.LastSyncAt)
	if elapsed <= 0 {
		return
	}
	hours := elapsed.Hours()

	v.Resources.Wood = clamp(v.Resources.Wood+v.WoodRate*hours, 0, v.WarehouseCap)
	v.Resources.Clay = clamp(v.Resources.Clay+v.ClayRate*hours, 0, v.WarehouseCap)
	v.Resources.Iron = clamp(v.Resources.Iron+v.IronRate*hours, 0, v.WarehouseCap)

	crop := v.Resources.Crop + (v.CropRate-v.CropUpkeep)*hours
	if crop > v.GranaryCap {
		crop = v.GranaryCap
	}
	v.Resources.Crop = crop

	v.LastSyncAt = now
}

// ResourcesAt 只读视角的“当前”资源量：不改动聚合本身。
func (v *Village) ResourcesAt(now time.Time) Resources {
	snapshot := *v
	snapshot.AccrueTo(now)
	return snapshot.Resources
}

// ReduceLoyalty 扣减忠诚度并报告是否触发征服（降到 0）。
func (v *Village) ReduceLoyalty(amount int) (conquered bool) {
	if amount <= 0 {
		return false
	}
	v.Loyalty -= amount
	if v.Loyalty <= 0 {
		v.Loyalty = 0
		return true
	}
	return false
}

// TransferOwnership 征服后的所有权转移：忠诚度重置到 25，给原防守方留反扑窗口。
func (v *Village) TransferOwnership(newOwner PlayerID) {
	v.PlayerID = newOwner
	v.Loyalty = LoyaltyAfterConquer
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
