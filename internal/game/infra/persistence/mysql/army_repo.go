package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/infra/persistence/model"
	"SiamKingdoms/internal/shared/utils"

	"gorm.io/gorm"
)

type ArmyRepo struct {
	db *gorm.DB
}

func NewArmyRepo(db *gorm.DB) *ArmyRepo {
	return &ArmyRepo{db: db}
}

func (r *ArmyRepo) WithTx(tx *gorm.DB) *ArmyRepo {
	return &ArmyRepo{db: tx}
}

const OpGetArmy = "repo.army.Get"

func (r *ArmyRepo) Get(ctx context.Context, id domain.ArmyID) (*domain.Army, error) {
	var m model.Army
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error

	switch {
	case err == nil:
		return armyToEntity(&m)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrArmyNotFound
	default:
		return nil, errs.Wrap(OpGetArmy, errs.KindInfra, err, map[string]any{"army_id": id})
	}
}

const OpDueArrivals = "repo.army.DueArrivals"

func (r *ArmyRepo) DueArrivals(ctx context.Context, now time.Time) ([]*domain.Army, error) {
	var ms []model.Army
	err := r.db.WithContext(ctx).
		Where("arrives_at <= ? AND stationed = ? AND returning = ?", now, false, false).
		Order("arrives_at asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpDueArrivals, errs.KindInfra, err, nil)
	}
	return armyEntities(ms)
}

const OpDueReturns = "repo.army.DueReturns"

func (r *ArmyRepo) DueReturns(ctx context.Context, now time.Time) ([]*domain.Army, error) {
	var ms []model.Army
	err := r.db.WithContext(ctx).
		Where("returning = ? AND returning_at IS NOT NULL AND returning_at <= ?", true, now).
		Order("returning_at asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpDueReturns, errs.KindInfra, err, nil)
	}
	return armyEntities(ms)
}

const OpStationedAt = "repo.army.StationedAt"

func (r *ArmyRepo) StationedAt(ctx context.Context, villageID domain.VillageID) ([]*domain.Army, error) {
	var ms []model.Army
	err := r.db.WithContext(ctx).
		Where("to_village_id = ? AND stationed = ?", villageID, true).
		Order("id asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpStationedAt, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
	return armyEntities(ms)
}

const OpCreateArmy = "repo.army.Create"

func (r *ArmyRepo) Create(ctx context.Context, a *domain.Army) error {
	id, err := utils.NextSnowflakeID()
	if err != nil {
		return errs.Wrap(OpCreateArmy, errs.KindInfra, err, nil)
	}
	a.ID = domain.ArmyID(id)
	m, err := armyToModel(a)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errs.Wrap(OpCreateArmy, errs.KindInfra, err, map[string]any{"army_id": a.ID})
	}
	return nil
}

const OpSaveArmy = "repo.army.Save"

func (r *ArmyRepo) Save(ctx context.Context, a *domain.Army) error {
	m, err := armyToModel(a)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errs.Wrap(OpSaveArmy, errs.KindInfra, err, map[string]any{"army_id": a.ID})
	}
	return nil
}

const OpDeleteArmy = "repo.army.Delete"

func (r *ArmyRepo) Delete(ctx context.Context, id domain.ArmyID) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Army{}).Error
	if err != nil {
		return errs.Wrap(OpDeleteArmy, errs.KindInfra, err, map[string]any{"army_id": id})
	}
	return nil
}

func armyToEntity(m *model.Army) (*domain.Army, error) {
	mission, err := domain.ParseMissionKind(m.Mission)
	if err != nil {
		return nil, errs.Wrap(OpGetArmy, errs.KindIntegrity, err, map[string]any{"army_id": m.ID})
	}
	// 兵力列是 JSON 文本，反序列化经封闭枚举校验，脏数据直接失败
	var troops domain.TroopCounts
	if err := json.Unmarshal([]byte(m.Troops), &troops); err != nil {
		return nil, errs.Wrap(OpGetArmy, errs.KindIntegrity, err, map[string]any{"army_id": m.ID})
	}
	var carried domain.Resources
	if m.Carried != "" {
		if err := json.Unmarshal([]byte(m.Carried), &carried); err != nil {
			return nil, errs.Wrap(OpGetArmy, errs.KindIntegrity, err, map[string]any{"army_id": m.ID})
		}
	}
	a := &domain.Army{
		ID:            domain.ArmyID(m.ID),
		PlayerID:      domain.PlayerID(m.PlayerID),
		FromVillageID: domain.VillageID(m.FromVillageID),
		ToVillageID:   domain.VillageID(m.ToVillageID),
		ToX:           m.ToX,
		ToY:           m.ToY,
		Mission:       mission,
		Troops:        troops,
		Carried:       carried,
		DepartedAt:    m.DepartedAt,
		ArrivesAt:     m.ArrivesAt,
		Stationed:     m.Stationed,
		Returning:     m.Returning,
	}
	if m.ReturningAt != nil {
		a.ReturningAt = *m.ReturningAt
	}
	return a, nil
}

func armyToModel(a *domain.Army) (*model.Army, error) {
	troops, err := json.Marshal(a.Troops)
	if err != nil {
		return nil, errs.Wrap(OpSaveArmy, errs.KindInfra, err, map[string]any{"army_id": a.ID})
	}
	carried, err := json.Marshal(a.Carried)
	if err != nil {
		return nil, errs.Wrap(OpSaveArmy, errs.KindInfra, err, map[string]any{"army_id": a.ID})
	}
	m := &model.Army{
		ID:            int64(a.ID),
		PlayerID:      int64(a.PlayerID),
		FromVillageID: int64(a.FromVillageID),
		ToVillageID:   int64(a.ToVillageID),
		ToX:           a.ToX,
		ToY:           a.ToY,
		Mission:       string(a.Mission),
		Troops:        string(troops),
		Carried:       string(carried),
		DepartedAt:    a.DepartedAt,
		ArrivesAt:     a.ArrivesAt,
		Stationed:     a.Stationed,
		Returning:     a.Returning,
	}
	if !a.ReturningAt.IsZero() {
		t := a.ReturningAt
		m.ReturningAt = &t
	}
	return m, nil
}

func armyEntities(ms []model.Army) ([]*domain.Army, error) {
	out := make([]*domain.Army, 0, len(ms))
	for i := range ms {
		a, err := armyToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
