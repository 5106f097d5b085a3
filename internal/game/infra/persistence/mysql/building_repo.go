package mysql

import (
	"context"
	"errors"
	"time"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/infra/persistence/model"
	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
	"SiamKingdoms/internal/shared/utils"

	"gorm.io/gorm"
)

type BuildingRepo struct {
	db *gorm.DB
}

func NewBuildingRepo(db *gorm.DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

func (r *BuildingRepo) WithTx(tx *gorm.DB) *BuildingRepo {
	return &BuildingRepo{db: tx}
}

const OpGetBuilding = "repo.building.Get"

func (r *BuildingRepo) Get(ctx context.Context, id domain.BuildingID) (*domain.Building, error) {
	var m model.Building
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error

	switch {
	case err == nil:
		return buildingToEntity(&m)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 队列条目指向的建筑不存在：完整性问题，跳过单条而不是重试整批
		return nil, errs.Wrap(OpGetBuilding, errs.KindIntegrity, domain.ErrDanglingEntity, map[string]any{"building_id": id})
	default:
		return nil, errs.Wrap(OpGetBuilding, errs.KindInfra, err, map[string]any{"building_id": id})
	}
}

const OpListBuildings = "repo.building.ListByVillage"

func (r *BuildingRepo) ListByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Building, error) {
	var ms []model.Building
	err := r.db.WithContext(ctx).Where("village_id = ?", villageID).Order("slot asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpListBuildings, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
	out := make([]*domain.Building, 0, len(ms))
	for i := range ms {
		b, err := buildingToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

const OpSaveBuilding = "repo.building.Save"

func (r *BuildingRepo) Save(ctx context.Context, b *domain.Building) error {
	if b.ID == 0 {
		id, err := utils.NextSnowflakeID()
		if err != nil {
			return errs.Wrap(OpSaveBuilding, errs.KindInfra, err, nil)
		}
		b.ID = domain.BuildingID(id)
	}
	m := buildingToModel(b)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errs.Wrap(OpSaveBuilding, errs.KindInfra, err, map[string]any{"building_id": b.ID})
	}
	return nil
}

const OpDueConstruction = "repo.building.DueConstruction"

func (r *BuildingRepo) DueConstruction(ctx context.Context, now time.Time) ([]*domain.ConstructionQueueEntry, error) {
	var ms []model.ConstructionQueue
	err := r.db.WithContext(ctx).
		Where("in_progress = ? AND ends_at <= ?", true, now).
		Order("ends_at asc").Find(&ms).Error
	if err != nil {
		return nil, errs.Wrap(OpDueConstruction, errs.KindInfra, err, nil)
	}
	return constructionEntries(ms)
}

const OpNextQueued = "repo.building.NextQueued"

// NextQueued 取该村最早入队的等待条目；没有则返回 (nil, nil)。
func (r *BuildingRepo) NextQueued(ctx context.Context, villageID domain.VillageID) (*domain.ConstructionQueueEntry, error) {
	var m model.ConstructionQueue
	err := r.db.WithContext(ctx).
		Where("village_id = ? AND in_progress = ?", villageID, false).
		Order("id asc").First(&m).Error

	switch {
	case err == nil:
		return constructionToEntity(&m)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, errs.Wrap(OpNextQueued, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
}

const OpInProgressCount = "repo.building.InProgressCount"

func (r *BuildingRepo) InProgressCount(ctx context.Context, villageID domain.VillageID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ConstructionQueue{}).
		Where("village_id = ? AND in_progress = ?", villageID, true).Count(&n).Error
	if err != nil {
		return 0, errs.Wrap(OpInProgressCount, errs.KindInfra, err, map[string]any{"village_id": villageID})
	}
	return int(n), nil
}

const OpSaveQueueEntry = "repo.building.SaveQueueEntry"

func (r *BuildingRepo) SaveQueueEntry(ctx context.Context, e *domain.ConstructionQueueEntry) error {
	if e.ID == 0 {
		id, err := utils.NextSnowflakeID()
		if err != nil {
			return errs.Wrap(OpSaveQueueEntry, errs.KindInfra, err, nil)
		}
		e.ID = domain.ConstructionQueueID(id)
	}
	m := constructionToModel(e)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return errs.Wrap(OpSaveQueueEntry, errs.KindInfra, err, map[string]any{"entry_id": e.ID})
	}
	return nil
}

const OpDeleteQueueEntry = "repo.building.DeleteQueueEntry"

func (r *BuildingRepo) DeleteQueueEntry(ctx context.Context, id domain.ConstructionQueueID) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ConstructionQueue{}).Error
	if err != nil {
		return errs.Wrap(OpDeleteQueueEntry, errs.KindInfra, err, map[string]any{"entry_id": id})
	}
	return nil
}

func buildingToEntity(m *model.Building) (*domain.Building, error) {
	t, err := buildingcfg.Parse(m.Type)
	if err != nil {
		return nil, errs.Wrap(OpGetBuilding, errs.KindIntegrity, err, map[string]any{"building_id": m.ID})
	}
	return &domain.Building{
		ID:        domain.BuildingID(m.ID),
		VillageID: domain.VillageID(m.VillageID),
		Type:      t,
		Slot:      m.Slot,
		Level:     m.Level,
	}, nil
}

func buildingToModel(b *domain.Building) *model.Building {
	return &model.Building{
		ID:        int64(b.ID),
		VillageID: int64(b.VillageID),
		Type:      string(b.Type),
		Slot:      b.Slot,
		Level:     b.Level,
	}
}

func constructionToEntity(m *model.ConstructionQueue) (*domain.ConstructionQueueEntry, error) {
	t, err := buildingcfg.Parse(m.Type)
	if err != nil {
		return nil, errs.Wrap(OpDueConstruction, errs.KindIntegrity, err, map[string]any{"entry_id": m.ID})
	}
	e := &domain.ConstructionQueueEntry{
		ID:         domain.ConstructionQueueID(m.ID),
		VillageID:  domain.VillageID(m.VillageID),
		BuildingID: domain.BuildingID(m.BuildingID),
		Type:       t,
		TargetLvl:  m.TargetLvl,
		DurationS:  m.DurationS,
		InProgress: m.InProgress,
	}
	if m.StartedAt != nil {
		e.StartedAt = *m.StartedAt
	}
	if m.EndsAt != nil {
		e.EndsAt = *m.EndsAt
	}
	return e, nil
}

func constructionToModel(e *domain.ConstructionQueueEntry) *model.ConstructionQueue {
	m := &model.ConstructionQueue{
		ID:         int64(e.ID),
		VillageID:  int64(e.VillageID),
		BuildingID: int64(e.BuildingID),
		Type:       string(e.Type),
		TargetLvl:  e.TargetLvl,
		DurationS:  e.DurationS,
		InProgress: e.InProgress,
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

func constructionEntries(ms []model.ConstructionQueue) ([]*domain.ConstructionQueueEntry, error) {
	out := make([]*domain.ConstructionQueueEntry, 0, len(ms))
	for i := range ms {
		e, err := constructionToEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
