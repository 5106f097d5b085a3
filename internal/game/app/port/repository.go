package port

import (
	"context"
	"time"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

type VillageRepository interface {
	Get(ctx context.Context, id domain.VillageID) (*domain.Village, error)
	// GetForUpdate 行级锁读：资源结算与建造完成并发触碰同一村庄时，
	// 靠这把锁保证不会交错出部分写。
	GetForUpdate(ctx context.Context, id domain.VillageID) (*domain.Village, error)
	FindByCoordinates(ctx context.Context, x, y int) (*domain.Village, error)
	ListIDs(ctx context.Context) ([]domain.VillageID, error)
	// Create 新建村庄（开拓任务），ID 由存储层生成并回填。
	Create(ctx context.Context, v *domain.Village) error
	Save(ctx context.Context, v *domain.Village) error
}

type BuildingRepository interface {
	Get(ctx context.Context, id domain.BuildingID) (*domain.Building, error)
	ListByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Building, error)
	Save(ctx context.Context, b *domain.Building) error

	// DueConstruction 选出所有 ends_at <= now 的在建条目。
	DueConstruction(ctx context.Context, now time.Time) ([]*domain.ConstructionQueueEntry, error)
	NextQueued(ctx context.Context, villageID domain.VillageID) (*domain.ConstructionQueueEntry, error)
	InProgressCount(ctx context.Context, villageID domain.VillageID) (int, error)
	SaveQueueEntry(ctx context.Context, e *domain.ConstructionQueueEntry) error
	DeleteQueueEntry(ctx context.Context, id domain.ConstructionQueueID) error
}

type TroopRepository interface {
	GarrisonByVillage(ctx context.Context, villageID domain.VillageID) ([]*domain.Garrison, error)
	// AddTroops 同时增加总数与在村数（训练完成）。
	AddTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error
	// KillTroops 同时扣减总数与在村数，下限为 0。
	KillTroops(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error
	// ReduceCount 只扣总数：部队死在村外时在村数早已扣过。
	ReduceCount(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, count int) error
	// AdjustInVillage 出征/归队时只动在村数。
	AdjustInVillage(ctx context.Context, villageID domain.VillageID, t troopcfg.TroopType, delta int) error

	DueTraining(ctx context.Context, now time.Time) ([]*domain.TrainingQueueEntry, error)
	NextTraining(ctx context.Context, villageID domain.VillageID) (*domain.TrainingQueueEntry, error)
	CountTraining(ctx context.Context, villageID domain.VillageID) (int, error)
	SaveTraining(ctx context.Context, e *domain.TrainingQueueEntry) error
	DeleteTraining(ctx context.Context, id domain.TrainingQueueID) error
}

type ArmyRepository interface {
	Get(ctx context.Context, id domain.ArmyID) (*domain.Army, error)
	// DueArrivals 选出已到达且未驻防未返程的军队。
	DueArrivals(ctx context.Context, now time.Time) ([]*domain.Army, error)
	// DueReturns 选出返程已到家的军队。
	DueReturns(ctx context.Context, now time.Time) ([]*domain.Army, error)
	StationedAt(ctx context.Context, villageID domain.VillageID) ([]*domain.Army, error)
	Create(ctx context.Context, a *domain.Army) error
	Save(ctx context.Context, a *domain.Army) error
	Delete(ctx context.Context, id domain.ArmyID) error
}

// ReportRepository 战报档案，独立于事务型存储（归档到文档库）。
type ReportRepository interface {
	SaveBattleReport(ctx context.Context, r *domain.BattleReport) error
	SaveScoutReport(ctx context.Context, r *domain.ScoutReport) error
	SaveStarvationReport(ctx context.Context, r *domain.StarvationReport) error
	ListBattleReports(ctx context.Context, playerID domain.PlayerID, limit int) ([]*domain.BattleReport, error)
	GetBattleReport(ctx context.Context, id domain.ReportID) (*domain.BattleReport, error)
	MarkBattleReportRead(ctx context.Context, id domain.ReportID, playerID domain.PlayerID) error
	CountUnreadBattleReports(ctx context.Context, playerID domain.PlayerID) (int64, error)
}
