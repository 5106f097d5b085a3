package engine

import (
	"context"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
)

// recomputeDerivedStats 按建筑等级重算村庄的派生属性：
// 四项小时产量、仓库/粮仓容量、城墙等级。建筑完成后必须调用。
func recomputeDerivedStats(v *domain.Village, buildings []*domain.Building) {
	var wood, clay, iron, crop float64
	warehouseCap := float64(buildingcfg.Warehouse.StorageCapacity(0))
	granaryCap := float64(buildingcfg.Granary.StorageCapacity(0))
	wall := 0

	for _, b := range buildings {
		if b.Level <= 0 {
			continue
		}
		switch b.Type {
		case buildingcfg.Woodcutter:
			wood += float64(b.Type.ProductionPerHour(b.Level))
		case buildingcfg.ClayPit:
			clay += float64(b.Type.ProductionPerHour(b.Level))
		case buildingcfg.IronMine:
			iron += float64(b.Type.ProductionPerHour(b.Level))
		case buildingcfg.CropField:
			crop += float64(b.Type.ProductionPerHour(b.Level))
		case buildingcfg.Warehouse:
			warehouseCap += float64(b.Type.StorageCapacity(b.Level))
		case buildingcfg.Granary:
			granaryCap += float64(b.Type.StorageCapacity(b.Level))
		case buildingcfg.Wall:
			if b.Level > wall {
				wall = b.Level
			}
		}
	}

	v.WoodRate = wood
	v.ClayRate = clay
	v.IronRate = iron
	v.CropRate = crop
	v.WarehouseCap = warehouseCap
	v.GranaryCap = granaryCap
	v.WallLevel = wall
}

// syncCropUpkeep 重算村庄每小时粮耗：本村驻军（按总数，含在途）加
// 外来驻防部队。兵力变动后调用。
func syncCropUpkeep(ctx context.Context, tx port.Store, v *domain.Village) error {
	garrisons, err := tx.Troops().GarrisonByVillage(ctx, v.ID)
	if err != nil {
		return err
	}
	counts := make(domain.TroopCounts)
	for _, g := range garrisons {
		counts[g.Type] += g.Count
	}

	stationed, err := tx.Armies().StationedAt(ctx, v.ID)
	if err != nil {
		return err
	}
	for _, a := range stationed {
		counts.AddAll(a.Troops)
	}

	v.CropUpkeep = counts.CropUpkeep()
	return nil
}
