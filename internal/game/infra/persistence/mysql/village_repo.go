package mysql

import (
	"context"
	"errors"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/infra/persistence/model"
	"SiamKingdoms/internal/shared/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VillageRepo struct {
	db *gorm.DB
}

func NewVillageRepo(db *gorm.DB) *VillageRepo {
	return &VillageRepo{db: db}
}

func (r *VillageRepo) WithTx(tx *gorm.DB) *VillageRepo {
	return &VillageRepo{db: tx}
}

const OpGetVillage = "repo.village.Get"

func (r *VillageRepo) Get(ctx context.Context, id domain.VillageID) (*domain.Village, error) {
	var m model.Village
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error

	switch {
	case err == nil:
		return villageToEntity(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrVillageNotFound
	default:
		return nil, errs.Wrap(OpGetVillage, errs.KindInfra, err, map[string]any{"village_id": id})
	}
}

const OpLockVillage = "repo.village.GetForUpdate"

// GetForUpdate 行级锁读（SELECT ... FOR UPDATE），持锁到事务提交。
func (r *VillageRepo) GetForUpdate(ctx context.Context, id domain.VillageID) (*domain.Village, error) {
	var m model.Village
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&m).Error

	switch {
	case err == nil:
		return villageToEntity(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrVillageNotFound
	default:
		return nil, errs.Wrap(OpLockVillage, errs.KindInfra, err, map[string]any{"village_id": id})
	}
}

const OpFindVillageByCoords = "repo.village.FindByCoordinates"

func (r *VillageRepo) FindByCoordinates(ctx context.Context, x, y int) (*domain.Village, error) {
	var m model.Village
	err := r.db.WithContext(ctx).Where("x = ? AND y = ?", x, y).First(&m).Error

	switch {
	case err == nil:
		return villageToEntity(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrVillageNotFound
	default:
		return nil, errs.Wrap(OpFindVillageByCoords, errs.KindInfra, err, map[string]any{"x": x, "y": y})
	}
}

const OpListVillageIDs = "repo.village.ListIDs"

func (r *VillageRepo) ListIDs(ctx context.Context) ([]domain.VillageID, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Village{}).Order("id asc").Pluck("id", &ids).Error
	if err != nil {
		return nil, errs.Wrap(OpListVillageIDs, errs.KindInfra, err, nil)
	}
	out := make([]domain.VillageID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.VillageID(id))
	}
	return out, nil
}

const OpCreateVillage = "repo.village.Create"

func (r *VillageRepo) Create(ctx context.Context, v *domain.Village) error {
	id, err := utils.NextSnowflakeID()
	if err != nil {
		return errs.Wrap(OpCreateVillage, errs.KindInfra, err, nil)
	}
	v.ID = domain.VillageID(id)
	m := villageToModel(v)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errs.Wrap(OpCreateVillage, errs.KindInfra, err, map[string]any{"village_id": v.ID})
	}
	return nil
}

const OpSaveVillage = "repo.village.Save"

func (r *VillageRepo) Save(ctx context.Context, v *domain.Village) error {
	m := villageToModel(v)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errs.Wrap(OpSaveVillage, errs.KindInfra, err, map[string]any{"village_id": v.ID})
	}
	return nil
}

func villageToEntity(m *model.Village) *domain.Village {
	return &domain.Village{
		ID:        domain.VillageID(m.ID),
		PlayerID:  domain.PlayerID(m.PlayerID),
		Name:      m.Name,
		X:         m.X,
		Y:         m.Y,
		IsCapital: m.IsCapital,
		Resources: domain.Resources{
			Wood: m.Wood,
			Clay: m.Clay,
			Iron: m.Iron,
			Crop: m.Crop,
		},
		WoodRate:     m.WoodRate,
		ClayRate:     m.ClayRate,
		IronRate:     m.IronRate,
		CropRate:     m.CropRate,
		CropUpkeep:   m.CropUpkeep,
		WarehouseCap: m.WarehouseCap,
		GranaryCap:   m.GranaryCap,
		WallLevel:    m.WallLevel,
		Loyalty:      m.Loyalty,
		UpgradeSlots: m.UpgradeSlots,
		LastSyncAt:   m.LastSyncAt,
	}
}

func villageToModel(v *domain.Village) *model.Village {
	return &model.Village{
		ID:           int64(v.ID),
		PlayerID:     int64(v.PlayerID),
		Name:         v.Name,
		X:            v.X,
		Y:            v.Y,
		IsCapital:    v.IsCapital,
		Wood:         v.Resources.Wood,
		Clay:         v.Resources.Clay,
		Iron:         v.Resources.Iron,
		Crop:         v.Resources.Crop,
		WoodRate:     v.WoodRate,
		ClayRate:     v.ClayRate,
		IronRate:     v.IronRate,
		CropRate:     v.CropRate,
		CropUpkeep:   v.CropUpkeep,
		WarehouseCap: v.WarehouseCap,
		GranaryCap:   v.GranaryCap,
		WallLevel:    v.WallLevel,
		Loyalty:      v.Loyalty,
		UpgradeSlots: v.UpgradeSlots,
		LastSyncAt:   v.LastSyncAt,
	}
}
