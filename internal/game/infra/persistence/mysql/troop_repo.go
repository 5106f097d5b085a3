package mysql

import (
	"context"
	"errors"
	"time"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/infra/persistence/model"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
	"SiamKingdoms/internal/shared/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TroopRepo struct {
	db *gorm.DB
}

func NewTroopRepo(db *gorm.DB) *TroopRepo {
	return &TroopRepo{db: db}
}

func (r *TroopRepo) WithTx(tx *gorm.DB) *TroopRepo {
	return &TroopRepo{db: tx}
}

const OpGarrisonByVillage = "repo.troop.GarrisonByVillage"

func (r *TroopRepo) GarrisonByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Garrison, error) {
	var ms []model.Garrison
	err := r.db.WithContext(ctx).Where("village_id = ?", villageID).Order("type asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpGarrisonByVillage, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
	out := make([]*domain.Garrison, 0, len(ms))
	for i := range ms {
		g, err := garrisonToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

const OpAddTroops = "repo.troop.AddTroops"

// AddTroops 总数与在村数同加。行不存在时插入。
func (r *TroopRepo) AddTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	if count <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "village_id"}, {Name: "type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + ?", count),
			"in_village": gorm.Expr("in_village + ?", count),
		}),
	}).Create(&model.Garrison{
		VillageID: int64(villageID),
		Type:      string(t),
		Count:     count,
		InVillage: count,
	}).Error
	if err != nil {
		return errs.Wrap(OpAddTroops, errs.KindInfra, err, map[string]any{"village_id": villageID, "type": t})
	}
	return nil
}

const OpKillTroops = "repo.troop.KillTroops"

// KillTroops 总数与在村数同减，下限 0。
func (r *TroopRepo) KillTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	if count <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Garrison{}).
		Where("village_id = ? AND type = ?", villageID, t).
		Updates(map[string]interface{}{
			"count":      gorm.Expr("GREATEST(count - ?, 0)", count),
			"in_village": gorm.Expr("GREATEST(in_village - ?, 0)", count),
		}).Error
	if err != nil {
		return errs.Wrap(OpKillTroops, errs.KindInfra, err, map[string]any{"village_id": villageID, "type": t})
	}
	return nil
}

const OpReduceCount = "repo.troop.ReduceCount"

// ReduceCount 只扣总数：死在村外的部队出征时就已离村。
func (r *TroopRepo) ReduceCount(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error {
	if count <= 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Garrison{}).
		Where("village_id = ? AND type = ?", villageID, t).
		Update("count", gorm.Expr("GREATEST(count - ?, 0)", count)).Error
	if err != nil {
		return errs.Wrap(OpReduceCount, errs.KindInfra, err, map[string]any{"village_id": villageID, "type": t})
	}
	return nil
}

const OpAdjustInVillage = "repo.troop.AdjustInVillage"

// AdjustInVillage 出征/归队只动在村数，夹在 [0, count]。
func (r *TroopRepo) AdjustInVillage(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, delta int) error {
	if delta == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Garrison{}).
		Where("village_id = ? AND type = ?", villageID, t).
		Update("in_village", gorm.Expr("LEAST(GREATEST(in_village + ?, 0), count)", delta)).Error
	if err != nil {
		return errs.Wrap(OpAdjustInVillage, errs.KindInfra, err, map[string]any{"village_id": villageID, "type": t})
	}
	return nil
}

const OpDueTraining = "repo.troop.DueTraining"

func (r *TroopRepo) DueTraining(ctx context.Context, now time.Time) ([]*domain.TrainingQueueEntry, error) {
	var ms []model.TrainingQueue
	err := r.db.WithContext(ctx).
		Where("ends_at IS NOT NULL AND ends_at <= ?", now).
		Order("ends_at asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpDueTraining, errs.KindInfra, err, nil)
	}
	out := make([]*domain.TrainingQueueEntry, 0, len(ms))
	for i := range ms {
		e, err := trainingToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

const OpNextTraining = "repo.troop.NextTraining"

// NextTraining 取该村最早入队的等待条目（ends_at 为 NULL）；没有则返回 (nil, nil)。
func (r *TroopRepo) NextTraining(ctx context.Context, villageID domain.VillageID) (*domain.TrainingQueueEntry, error) {
	var m model.TrainingQueue
	err := r.db.WithContext(ctx).
		Where("village_id = ? AND ends_at IS NULL", villageID).
		Order("id asc").First(&m).Error

	switch {
	case err == nil:
		return trainingToEntity(&m)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, errs.Wrap(OpNextTraining, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
}

const OpCountTraining = "repo.troop.CountTraining"

func (r *TroopRepo) CountTraining(ctx context.Context, villageID domain.VillageID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TrainingQueue{}).
		Where("village_id = ?", villageID).Count(&n).Error
	if err != nil {
		return 0, errs.Wrap(OpCountTraining, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
	return int(n), nil
}

const OpSaveTraining = "repo.troop.SaveTraining"

func (r *TroopRepo) SaveTraining(ctx context.Context, e *domain.TrainingQueueEntry) error {
	if e.ID == 0 {
		id, err := utils.NextSnowflakeID()
		if err != nil {
			return errs.Wrap(OpSaveTraining, errs.KindInfra, err, nil)
		}
		e.ID = domain.TrainingQueueID(id)
	}
	m := trainingToModel(e)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errs.Wrap(OpSaveTraining, errs.KindInfra, err, map[string]any{"entry_id": e.ID})
	}
	return nil
}

const OpDeleteTraining = "repo.troop.DeleteTraining"

func (r *TroopRepo) DeleteTraining(ctx context.Context, id domain.TrainingQueueID) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TrainingQueue{}).Error
	if err != nil {
		return errs.Wrap(OpDeleteTraining, errs.KindInfra, err, map[string]any{"entry_id": id})
	}
	return nil
}

func garrisonToEntity(m *model.Garrison) (*domain.Garrison, error) {
	t, err := troopcfg.Parse(m.Type)
	if err != nil {
		return nil, errs.Wrap(OpGarrisonByVillage, errs.KindIntegrity, err, map[string]any{"village_id": m.VillageID, "type": m.Type})
	}
	return &domain.Garrison{
		VillageID: domain.VillageID(m.VillageID),
		Type:      t,
		Count:     m.Count,
		InVillage: m.InVillage,
	}, nil
}

func trainingToEntity(m *model.TrainingQueue) (*domain.TrainingQueueEntry, error) {
	t, err := troopcfg.Parse(m.Type)
	if err != nil {
		return nil, errs.Wrap(OpDueTraining, errs.KindIntegrity, err, map[string]any{"entry_id": m.ID, "type": m.Type})
	}
	e := &domain.TrainingQueueEntry{
		ID:           domain.TrainingQueueID(m.ID),
		VillageID:    domain.VillageID(m.VillageID),
		Type:         t,
		Count:        m.Count,
		EachDuration: m.EachDuration,
	}
	if m.StartedAt != nil {
		e.StartedAt = *m.StartedAt
	}
	if m.EndsAt != nil {
		e.EndsAt = *m.EndsAt
	}
	return e, nil
}

func trainingToModel(e *domain.TrainingQueueEntry) *model.TrainingQueue {
	m := &model.TrainingQueue{
		ID:           int64(e.ID),
		VillageID:    int64(e.VillageID),
		Type:         string(e.Type),
		Count:        e.Count,
		EachDuration: e.EachDuration,
	}
	if !e.StartedAt.IsZero() {
		t := e.StartedAt
		m.StartedAt = &t
	}
	if !e.EndsAt.IsZero() {
		t := e.EndsAt
		m.EndsAt = &t
	}
	return m
}
