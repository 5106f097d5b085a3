package mysql

import (
	"context"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/infra/persistence/model"

	"gorm.io/gorm"
)

// Store 基于 gorm 的事务型存储入口。
// WithTx 里的闭包拿到的是绑定同一事务的 Store 克隆，
// 闭包返回错误即整体回滚。
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx port.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Villages() port.VillageRepository   { return NewVillageRepo(s.db) }
func (s *Store) Buildings() port.BuildingRepository { return NewBuildingRepo(s.db) }
func (s *Store) Troops() port.TroopRepository       { return NewTroopRepo(s.db) }
func (s *Store) Armies() port.ArmyRepository        { return NewArmyRepo(s.db) }

// AutoMigrate 启动时建表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Village{},
		&model.Building{},
		&model.ConstructionQueue{},
		&model.Garrison{},
		&model.TrainingQueue{},
		&model.Army{},
	)
}
