package service

import (
	"context"
	"errors"
	"time"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

// CommandService 玩家指令面：升级建筑、训练、派兵、召回。
// 可负担性在这里一次性校验并扣资源，引擎信任入队条目的成本与时长字段，
// 不会重新推导。
type CommandService struct {
	store port.Store
	pub   port.Publisher
	now   func() time.Time
	// 服务器默认并行建造位数量，村庄自己的 UpgradeSlots 优先。
	upgradeSlots int
}

func NewCommandService(store port.Store, pub port.Publisher, upgradeSlots int) *CommandService {
	if upgradeSlots < 1 {
		upgradeSlots = 1
	}
	return &CommandService{store: store, pub: pub, now: time.Now, upgradeSlots: upgradeSlots}
}

// lockOwnedVillage 锁行读村庄并校验归属。
func lockOwnedVillage(ctx context.Context, tx port.Store, id domain.VillageID, owner domain.PlayerID) (*domain.Village, error) {
	v, err := tx.Villages().GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVillageNotFound) {
			return nil, ErrVillageNotFound.WithData("village_id", id)
		}
		return nil, ErrUnavailable.WithCause(err)
	}
	if v.PlayerID != owner {
		return nil, ErrNotOwner.WithData("village_id", id)
	}
	return v, nil
}

func deduct(v *domain.Village, wood, clay, iron, crop float64) error {
	if v.Resources.Wood < wood || v.Resources.Clay < clay ||
		v.Resources.Iron < iron || v.Resources.Crop < crop {
		return ErrInsufficientResources.WithData("village_id", v.ID)
	}
	v.Resources.Wood -= wood
	v.Resources.Clay -= clay
	v.Resources.Iron -= iron
	v.Resources.Crop -= crop
	return nil
}

type UpgradeBuildingReq struct {
	VillageID  domain.VillageID  `json:"village_id"`
	BuildingID domain.BuildingID `json:"building_id"`
}

type UpgradeBuildingResp struct {
	TargetLevel int   `json:"target_level"`
	InProgress  bool  `json:"in_progress"`
	EndsAt      int64 `json:"ends_at,omitempty"` // Unix 毫秒，排队中为 0
}

func (s *CommandService) UpgradeBuilding(ctx context.Context, playerID domain.PlayerID, req UpgradeBuildingReq) (*UpgradeBuildingResp, error) {
	var resp *UpgradeBuildingResp
	err := s.store.WithTx(ctx, func(tx port.Store) error {
		v, err := lockOwnedVillage(ctx, tx, req.VillageID, playerID)
		if err != nil {
			return err
		}

		b, err := tx.Buildings().Get(ctx, req.BuildingID)
		if err != nil || b.VillageID != v.ID {
			return ErrInvalidRequest.WithData("building_id", req.BuildingID)
		}
		target := b.Level + 1
		if target > b.Type.MaxLevel() {
			return ErrInvalidRequest.WithData("reason", "已达到最高等级")
		}

		cost := b.Type.CostAtLevel(target)

		// 先把资源推进到现在再扣，避免扣掉还没产出来的资源
		v.AccrueTo(s.now())
		if err := deduct(v, float64(cost.Wood), float64(cost.Clay), float64(cost.Iron), float64(cost.Crop)); err != nil {
			return err
		}
		if err := tx.Villages().Save(ctx, v); err != nil {
			return ErrUnavailable.WithCause(err)
		}

		inProgress, err := tx.Buildings().InProgressCount(ctx, v.ID)
		if err != nil {
			return ErrUnavailable.WithCause(err)
		}

		entry := &domain.ConstructionQueueEntry{
			VillageID:  v.ID,
			BuildingID: b.ID,
			Type:       b.Type,
			TargetLvl:  target,
			DurationS:  cost.TimeSeconds,
		}
		// 建造位是按村的能力，付费会员可以单村提升
		slots := v.UpgradeSlots
		if slots <= 0 {
			slots = s.upgradeSlots
		}
		if inProgress < slots {
			entry.Promote(s.now())
		}
		if err := tx.Buildings().SaveQueueEntry(ctx, entry); err != nil {
			return ErrUnavailable.WithCause(err)
		}

		resp = &UpgradeBuildingResp{TargetLevel: target, InProgress: entry.InProgress}
		if entry.InProgress {
			resp.EndsAt = entry.EndsAt.UnixNano() / 1e6
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type TrainTroopsReq struct {
	VillageID domain.VillageID   `json:"village_id"`
	Type      troopcfg.TroopType `json:"type"`
	Count     int                `json:"count"`
}

type TrainTroopsResp struct {
	Count  int   `json:"count"`
	EndsAt int64 `json:"ends_at,omitempty"`
}

func (s *CommandService) TrainTroops(ctx context.Context, playerID domain.PlayerID, req TrainTroopsReq) (*TrainTroopsResp, error) {
	if req.Count <= 0 {
		return nil, ErrInvalidRequest.WithData("count", req.Count)
	}
	def, ok := troopcfg.Get(req.Type)
	if !ok {
		return nil, ErrInvalidRequest.WithData("type", string(req.Type))
	}

	var resp *TrainTroopsResp
	err := s.store.WithTx(ctx, func(tx port.Store) error {
		v, err := lockOwnedVillage(ctx, tx, req.VillageID, playerID)
		if err != nil {
			return err
		}

		// 校验前置建筑
		reqType, err := buildingcfg.Parse(def.RequiredBuilding)
		if err == nil {
			ok, err := hasBuilding(ctx, tx, v.ID, reqType, def.RequiredBuildingLvl)
			if err != nil {
				return ErrUnavailable.WithCause(err)
			}
			if !ok {
				return ErrInvalidRequest.WithData("reason", "前置建筑等级不足")
			}
		}

		n := float64(req.Count)
		v.AccrueTo(s.now())
		if err := deduct(v, float64(def.WoodCost)*n, float64(def.ClayCost)*n, float64(def.IronCost)*n, float64(def.CropCost)*n); err != nil {
			return err
		}
		if err := tx.Villages().Save(ctx, v); err != nil {
			return ErrUnavailable.WithCause(err)
		}

		queued, err := tx.Troops().CountTraining(ctx, v.ID)
		if err != nil {
			return ErrUnavailable.WithCause(err)
		}

		entry := &domain.TrainingQueueEntry{
			VillageID:    v.ID,
			Type:         req.Type,
			Count:        req.Count,
			EachDuration: def.TrainingTimeSeconds,
		}
		if queued == 0 {
			entry.Restart(s.now())
		}
		if err := tx.Troops().SaveTraining(ctx, entry); err != nil {
			return ErrUnavailable.WithCause(err)
		}

		resp = &TrainTroopsResp{Count: req.Count}
		if !entry.EndsAt.IsZero() {
			resp.EndsAt = entry.EndsAt.UnixNano() / 1e6
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func hasBuilding(ctx context.Context, tx port.Store, villageID domain.VillageID, t buildingcfg.BuildingType, minLevel int) (bool, error) {
	buildings, err := tx.Buildings().ListByVillage(ctx, villageID)
	if err != nil {
		return false, err
	}
	for _, b := range buildings {
		if b.Type == t && b.Level >= minLevel {
			return true, nil
		}
	}
	return false, nil
}

type SendArmyReq struct {
	FromVillageID domain.VillageID   `json:"from_village_id"`
	ToX           int                `json:"to_x"`
	ToY           int                `json:"to_y"`
	Mission       domain.MissionKind `json:"mission"`
	Troops        domain.TroopCounts `json:"troops"`
}

type SendArmyResp struct {
	ArmyID    domain.ArmyID `json:"army_id"`
	ArrivesAt int64         `json:"arrives_at"`
}

func (s *CommandService) SendArmy(ctx context.Context, playerID domain.PlayerID, req SendArmyReq) (*SendArmyResp, error) {
	if !req.Mission.Valid() {
		return nil, ErrInvalidRequest.WithData("mission", string(req.Mission))
	}
	if req.Troops.Total() <= 0 {
		return nil, ErrEmptyForce
	}
	for t, n := range req.Troops {
		if n < 0 {
			return nil, ErrInvalidRequest.WithData("type", string(t)).WithData("count", n)
		}
	}

	var resp *SendArmyResp
	var targetID domain.VillageID
	var arrivesAt time.Time

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		v, err := lockOwnedVillage(ctx, tx, req.FromVillageID, playerID)
		if err != nil {
			return err
		}
		if v.X == req.ToX && v.Y == req.ToY {
			return ErrBadTarget.WithData("reason", "目标不能是出发村庄")
		}

		// 在村兵力必须覆盖出征量
		garrisons, err := tx.Troops().GarrisonByVillage(ctx, v.ID)
		if err != nil {
			return ErrUnavailable.WithCause(err)
		}
		available := make(domain.TroopCounts)
		for _, g := range garrisons {
			available[g.Type] = g.InVillage
		}
		for t, n := range req.Troops {
			if available[t] < n {
				return ErrInsufficientTroops.WithData("type", string(t))
			}
		}
		for t, n := range req.Troops {
			if n == 0 {
				continue
			}
			if err := tx.Troops().AdjustInVillage(ctx, v.ID, t, -n); err != nil {
				return ErrUnavailable.WithCause(err)
			}
		}

		target, err := tx.Villages().FindByCoordinates(ctx, req.ToX, req.ToY)
		if err != nil && !errors.Is(err, domain.ErrVillageNotFound) {
			return ErrUnavailable.WithCause(err)
		}
		if target != nil {
			targetID = target.ID
		}

		now := s.now()
		distance := domain.Distance(v.X, v.Y, req.ToX, req.ToY)
		arrivesAt = now.Add(domain.TravelDuration(distance, req.Troops))

		army := &domain.Army{
			PlayerID:      playerID,
			FromVillageID: v.ID,
			ToVillageID:   targetID,
			ToX:           req.ToX,
			ToY:           req.ToY,
			Mission:       req.Mission,
			Troops:        req.Troops.Clone(),
			DepartedAt:    now,
			ArrivesAt:     arrivesAt,
		}
		if err := tx.Armies().Create(ctx, army); err != nil {
			return ErrUnavailable.WithCause(err)
		}
		resp = &SendArmyResp{ArmyID: army.ID, ArrivesAt: arrivesAt.UnixNano() / 1e6}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 敌对任务给防守方提前预警
	if req.Mission.IsHostile() && targetID != 0 {
		s.pub.Publish(hub.VillageChannel(targetID), domain.NewUnderAttackEvent(domain.UnderAttackData{
			VillageID: targetID,
			Mission:   req.Mission,
			ArrivesAt: arrivesAt.UnixNano() / 1e6,
		}, s.now()))
	}
	return resp, nil
}

type RecallSupportReq struct {
	ArmyID domain.ArmyID `json:"army_id"`
}

type RecallSupportResp struct {
	ReturnsAt int64 `json:"returns_at"`
}

// RecallSupport 召回驻防在外的支援部队。
func (s *CommandService) RecallSupport(ctx context.Context, playerID domain.PlayerID, req RecallSupportReq) (*RecallSupportResp, error) {
	var resp *RecallSupportResp
	err := s.store.WithTx(ctx, func(tx port.Store) error {
		army, err := tx.Armies().Get(ctx, req.ArmyID)
		if err != nil {
			if errors.Is(err, domain.ErrArmyNotFound) {
				return ErrArmyNotFound.WithData("army_id", req.ArmyID)
			}
			return ErrUnavailable.WithCause(err)
		}
		if army.PlayerID != playerID {
			return ErrNotOwner.WithData("army_id", req.ArmyID)
		}
		if !army.Stationed {
			return ErrInvalidRequest.WithData("reason", "该军队未处于驻防状态")
		}

		origin, err := tx.Villages().Get(ctx, army.FromVillageID)
		if err != nil {
			return ErrUnavailable.WithCause(err)
		}

		now := s.now()
		distance := domain.Distance(origin.X, origin.Y, army.ToX, army.ToY)
		army.Stationed = false
		army.Returning = true
		army.ReturningAt = now.Add(domain.TravelDuration(distance, army.Troops))
		if err := tx.Armies().Save(ctx, army); err != nil {
			return ErrUnavailable.WithCause(err)
		}

		// 驻防撤走后东道村粮耗下降
		if army.ToVillageID != 0 {
			host, err := tx.Villages().GetForUpdate(ctx, army.ToVillageID)
			if err == nil {
				host.AccrueTo(now)
				counts := make(domain.TroopCounts)
				garrisons, gerr := tx.Troops().GarrisonByVillage(ctx, host.ID)
				if gerr != nil {
					return ErrUnavailable.WithCause(gerr)
				}
				for _, g := range garrisons {
					counts[g.Type] += g.Count
				}
				stationed, serr := tx.Armies().StationedAt(ctx, host.ID)
				if serr != nil {
					return ErrUnavailable.WithCause(serr)
				}
				for _, a := range stationed {
					counts.AddAll(a.Troops)
				}
				host.CropUpkeep = counts.CropUpkeep()
				if err := tx.Villages().Save(ctx, host); err != nil {
					return ErrUnavailable.WithCause(err)
				}
			} else if !errors.Is(err, domain.ErrVillageNotFound) {
				return ErrUnavailable.WithCause(err)
			}
		}

		resp = &RecallSupportResp{ReturnsAt: army.ReturningAt.UnixNano() / 1e6}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
