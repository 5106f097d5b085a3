package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
	"SiamKingdoms/modules/kit/logx"
)

// MovementProcessor 军队到达/返程结算管线。
// 一支军队的全部结算后果（双方损失、掠夺、忠诚度、所有权转移、返程）
// 在单个事务里提交：恰好结算一次，要么全生效要么全不生效。
// 战报归档和事件推送在事务提交之后进行。
type MovementProcessor struct {
	store   port.Store
	reports port.ReportRepository
	pub     port.Publisher
	log     logx.Logger
	now     func() time.Time
}

func NewMovementProcessor(store port.Store, reports port.ReportRepository, pub port.Publisher, l logx.Logger) *MovementProcessor {
	return &MovementProcessor{store: store, reports: reports, pub: pub, log: l, now: time.Now}
}

func (p *MovementProcessor) Name() string { return "army_movement" }

// outcome 单支军队结算后的待发布事件与待归档战报。
// skip 非空表示该军队因数据问题被清理跳过：清理随事务提交，
// 原因带出事务外记日志。
type outcome struct {
	events []channelEvent
	battle *domain.BattleReport
	scout  *domain.ScoutReport
	skip   error
}

type channelEvent struct {
	channel string
	ev      domain.Event
}

func (p *MovementProcessor) Run(ctx context.Context) error {
	const op = "engine.MovementProcessor.Run"

	now := p.now()

	arrivals, err := p.store.Armies().DueArrivals(ctx, now)
	if err != nil {
		return errs.Wrap(op, errs.KindInfra, err, nil)
	}
	for _, army := range arrivals {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.resolveOne(ctx, army.ID, now, p.resolveArrival); err != nil {
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"army_id": army.ID})
		}
	}

	returns, err := p.store.Armies().DueReturns(ctx, now)
	if err != nil {
		return errs.Wrap(op, errs.KindInfra, err, nil)
	}
	for _, army := range returns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.resolveOne(ctx, army.ID, now, p.resolveReturn); err != nil {
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"army_id": army.ID})
		}
	}
	return nil
}

type resolveFn func(ctx context.Context, tx port.Store, army *domain.Army, now time.Time, out *outcome) error

func (p *MovementProcessor) resolveOne(ctx context.Context, id domain.ArmyID, now time.Time, fn resolveFn) error {
	var out outcome
	err := p.store.WithTx(ctx, func(tx port.Store) error {
		// 事务内重读：批次扫描到提交之间军队可能已被并发结算
		army, err := tx.Armies().Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrArmyNotFound) {
				return nil
			}
			return err
		}
		return fn(ctx, tx, army, now, &out)
	})
	if err != nil {
		if errs.KindOf(err) == errs.KindIntegrity {
			p.log.Error("army skipped", zap.Int64("army_id", int64(id)), zap.Error(err))
			return nil
		}
		return err
	}
	if out.skip != nil {
		p.log.Error("army skipped", zap.Int64("army_id", int64(id)), zap.Error(out.skip))
		return nil
	}

	// 提交成功后才归档战报、推事件
	if out.battle != nil {
		if err := p.reports.SaveBattleReport(ctx, out.battle); err != nil {
			p.log.Error("archive battle report failed",
				zap.String("report_id", string(out.battle.ID)), zap.Error(err))
		}
	}
	if out.scout != nil {
		if err := p.reports.SaveScoutReport(ctx, out.scout); err != nil {
			p.log.Error("archive scout report failed",
				zap.String("report_id", string(out.scout.ID)), zap.Error(err))
		}
	}
	for _, ce := range out.events {
		p.pub.Publish(ce.channel, ce.ev)
	}
	return nil
}

func (p *MovementProcessor) resolveArrival(ctx context.Context, tx port.Store, army *domain.Army, now time.Time, out *outcome) error {
	const op = "engine.MovementProcessor.resolveArrival"

	if army.Returning || army.Stationed {
		return nil
	}
	if army.Troops.Total() <= 0 {
		out.skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrNegativeCount,
			map[string]any{"army_id": army.ID})
		return tx.Armies().Delete(ctx, army.ID)
	}

	target, err := p.findTarget(ctx, tx, army)
	if err != nil {
		return err
	}

	switch army.Mission {
	case domain.MissionSupport:
		return p.arriveSupport(ctx, tx, army, target, now, out)
	case domain.MissionScout:
		return p.arriveScout(ctx, tx, army, target, now, out)
	case domain.MissionSettle:
		return p.arriveSettle(ctx, tx, army, target, now, out)
	case domain.MissionRaid, domain.MissionAttack, domain.MissionConquer:
		return p.arriveHostile(ctx, tx, army, target, now, out)
	default:
		out.skip = errs.Wrap(op, errs.KindIntegrity,
			errors.New("unknown mission kind"), map[string]any{"mission": army.Mission})
		return tx.Armies().Delete(ctx, army.ID)
	}
}

func (p *MovementProcessor) findTarget(ctx context.Context, tx port.Store, army *domain.Army) (*domain.Village, error) {
	if army.ToVillageID != 0 {
		v, err := tx.Villages().Get(ctx, army.ToVillageID)
		if err != nil && !errors.Is(err, domain.ErrVillageNotFound) {
			return nil, err
		}
		return v, nil
	}
	v, err := tx.Villages().FindByCoordinates(ctx, army.ToX, army.ToY)
	if err != nil && !errors.Is(err, domain.ErrVillageNotFound) {
		return nil, err
	}
	return v, nil
}

func (p *MovementProcessor) arriveSupport(ctx context.Context, tx port.Store, army *domain.Army, target *domain.Village, now time.Time, out *outcome) error {
	if target == nil {
		// 目标是空地，原路返回
		return p.scheduleReturn(ctx, tx, army, army.Troops, domain.Resources{}, now, out)
	}

	army.Stationed = true
	if err := tx.Armies().Save(ctx, army); err != nil {
		return err
	}

	// 驻防部队在东道村吃粮
	host, err := tx.Villages().GetForUpdate(ctx, target.ID)
	if err != nil {
		return err
	}
	host.AccrueTo(now)
	if err := syncCropUpkeep(ctx, tx, host); err != nil {
		return err
	}
	if err := tx.Villages().Save(ctx, host); err != nil {
		return err
	}

	out.events = append(out.events, channelEvent{
		channel: hub.VillageChannel(host.ID),
		ev: domain.NewArmyArrivedEvent(domain.ArmyArrivedData{
			ArmyID:    army.ID,
			Mission:   army.Mission,
			VillageID: host.ID,
			X:         army.ToX,
			Y:         army.ToY,
		}, now),
	})
	return nil
}

func (p *MovementProcessor) arriveSettle(ctx context.Context, tx port.Store, army *domain.Army, target *domain.Village, now time.Time, out *outcome) error {
	if target != nil {
		// 地块已被占，开拓队回家
		return p.scheduleReturn(ctx, tx, army, army.Troops, domain.Resources{}, now, out)
	}

	v := newSettledVillage(army.PlayerID, army.ToX, army.ToY, now)
	if err := tx.Villages().Create(ctx, v); err != nil {
		return err
	}
	buildings := starterBuildings(v.ID)
	for _, b := range buildings {
		if err := tx.Buildings().Save(ctx, b); err != nil {
			return err
		}
	}
	recomputeDerivedStats(v, buildings)
	if err := tx.Villages().Save(ctx, v); err != nil {
		return err
	}

	// 开拓者本身消耗掉，不返程
	if err := tx.Armies().Delete(ctx, army.ID); err != nil {
		return err
	}

	out.events = append(out.events, channelEvent{
		channel: hub.RegionChannel(army.ToX, army.ToY),
		ev: domain.NewArmyArrivedEvent(domain.ArmyArrivedData{
			ArmyID:    army.ID,
			Mission:   army.Mission,
			VillageID: v.ID,
			X:         army.ToX,
			Y:         army.ToY,
		}, now),
	})
	return nil
}

func (p *MovementProcessor) arriveScout(ctx context.Context, tx port.Store, army *domain.Army, target *domain.Village, now time.Time, out *outcome) error {
	const op = "engine.MovementProcessor.arriveScout"

	if target == nil {
		return p.scheduleReturn(ctx, tx, army, army.Troops, domain.Resources{}, now, out)
	}

	garrisons, err := tx.Troops().GarrisonByVillage(ctx, target.ID)
	if err != nil {
		return err
	}
	defenders := make(domain.TroopCounts)
	for _, g := range garrisons {
		if g.InVillage > 0 {
			defenders[g.Type] = g.InVillage
		}
	}

	res, err := domain.ResolveScout(army.Troops, defenders)
	if err != nil {
		out.skip = errs.Wrap(op, errs.KindIntegrity, err, map[string]any{"army_id": army.ID})
		return tx.Armies().Delete(ctx, army.ID)
	}

	for t, n := range res.DefenderLossMap {
		if err := tx.Troops().KillTroops(ctx, target.ID, t, n); err != nil {
			return err
		}
	}
	// 死在外面的侦察兵只扣原籍村总数
	if err := p.reduceOriginCounts(ctx, tx, army, res.AttackerSurvivors); err != nil {
		return err
	}

	report := &domain.ScoutReport{
		ID:              domain.ReportID(uuid.NewString()),
		AttackerID:      army.PlayerID,
		DefenderID:      target.PlayerID,
		FromVillageID:   army.FromVillageID,
		TargetVillageID: target.ID,
		AttackerCount:   res.AttackerCount,
		DefenderCount:   res.DefenderCount,
		AttackerLosses:  res.AttackerLosses,
		DefenderLosses:  res.DefenderLosses,
		Success:         res.Success,
		OccurredAt:      now,
	}
	if res.Success {
		intelTroops := make(domain.TroopCounts)
		for _, g := range garrisons {
			remain := g.InVillage - res.DefenderLossMap[g.Type]
			if remain > 0 {
				intelTroops[g.Type] = remain
			}
		}
		report.Intel = &domain.ScoutIntel{
			Resources: target.ResourcesAt(now),
			Troops:    intelTroops,
		}
	}
	out.scout = report

	if res.AttackerSurvivors.Total() > 0 {
		return p.scheduleReturn(ctx, tx, army, res.AttackerSurvivors, domain.Resources{}, now, out)
	}
	return tx.Armies().Delete(ctx, army.ID)
}

func (p *MovementProcessor) arriveHostile(ctx context.Context, tx port.Store, army *domain.Army, target *domain.Village, now time.Time, out *outcome) error {
	const op = "engine.MovementProcessor.arriveHostile"

	if target == nil {
		return p.scheduleReturn(ctx, tx, army, army.Troops, domain.Resources{}, now, out)
	}
	if army.Mission == domain.MissionConquer && (target.PlayerID == army.PlayerID || target.IsCapital) {
		// 自己的村和都城不可征服，原路返回
		return p.scheduleReturn(ctx, tx, army, army.Troops, domain.Resources{}, now, out)
	}

	garrisons, err := tx.Troops().GarrisonByVillage(ctx, target.ID)
	if err != nil {
		return err
	}
	villageTroops := make(domain.TroopCounts)
	for _, g := range garrisons {
		if g.InVillage > 0 {
			villageTroops[g.Type] = g.InVillage
		}
	}

	stationed, err := tx.Armies().StationedAt(ctx, target.ID)
	if err != nil {
		return err
	}
	totalDefenders := villageTroops.Clone()
	for _, s := range stationed {
		totalDefenders.AddAll(s.Troops)
	}

	battle, err := domain.ResolveBattle(domain.BattleInput{
		Mission:              army.Mission,
		Attacker:             army.Troops,
		Defender:             totalDefenders,
		DefenderWallLevel:    target.WallLevel,
		AttackerAttackBonus:  domain.DominantTribe(army.Troops).AttackBonus(),
		DefenderDefenseBonus: domain.DominantTribe(totalDefenders).DefenseBonus(),
	})
	if err != nil {
		out.skip = errs.Wrap(op, errs.KindIntegrity, err, map[string]any{"army_id": army.ID})
		return tx.Armies().Delete(ctx, army.ID)
	}

	// 防守方损失按本村驻军与外来驻防的占比分摊
	if err := p.applyDefenderLosses(ctx, tx, target.ID, battle.DefenderLosses, villageTroops, totalDefenders, stationed); err != nil {
		return err
	}
	if err := p.reduceOriginCounts(ctx, tx, army, battle.AttackerSurvivors); err != nil {
		return err
	}

	v, err := tx.Villages().GetForUpdate(ctx, target.ID)
	if err != nil {
		return err
	}
	v.AccrueTo(now)

	loot := domain.Resources{}
	if battle.AttackerWins && (army.Mission == domain.MissionRaid || army.Mission == domain.MissionAttack) {
		loot = domain.StolenResources(v.Resources, battle.AttackerSurvivors, army.Mission)
		v.Resources = v.Resources.Sub(loot)
	}

	// 征服：忠诚度削减每支军队只生效一次，取幸存酋长里最高的削减值
	loyaltyReduced := 0
	conqueredNow := false
	if battle.AttackerWins && army.Mission == domain.MissionConquer {
		loyaltyReduced = chiefReduction(battle.AttackerSurvivors)
		if loyaltyReduced > 0 {
			if v.ReduceLoyalty(loyaltyReduced) {
				v.TransferOwnership(army.PlayerID)
				conqueredNow = true
			}
		}
	}

	if err := syncCropUpkeep(ctx, tx, v); err != nil {
		return err
	}
	if err := tx.Villages().Save(ctx, v); err != nil {
		return err
	}

	winner := domain.WinnerDefender
	if battle.AttackerWins {
		winner = domain.WinnerAttacker
	} else if battle.DefenderSurvivors.Total() == 0 {
		winner = domain.WinnerDraw
	}

	report := &domain.BattleReport{
		ID:              domain.ReportID(uuid.NewString()),
		AttackerID:      army.PlayerID,
		DefenderID:      target.PlayerID,
		FromVillageID:   army.FromVillageID,
		TargetVillageID: target.ID,
		Mission:         army.Mission,
		AttackerTroops:  army.Troops.Clone(),
		DefenderTroops:  totalDefenders,
		AttackerLosses:  battle.AttackerLosses,
		DefenderLosses:  battle.DefenderLosses,
		Loot:            loot,
		Winner:          winner,
		LoyaltyReduced:  loyaltyReduced,
		Conquered:       conqueredNow,
		OccurredAt:      now,
	}
	out.battle = report

	out.events = append(out.events,
		channelEvent{
			channel: hub.VillageChannel(target.ID),
			ev: domain.NewUnderAttackEvent(domain.UnderAttackData{
				VillageID: target.ID,
				Mission:   army.Mission,
				ArrivesAt: now.UnixNano() / 1e6,
			}, now),
		},
		channelEvent{
			channel: hub.VillageChannel(army.FromVillageID),
			ev: domain.NewArmyArrivedEvent(domain.ArmyArrivedData{
				ArmyID:    army.ID,
				Mission:   army.Mission,
				VillageID: target.ID,
				X:         army.ToX,
				Y:         army.ToY,
				ReportID:  report.ID,
			}, now),
		},
	)

	if battle.AttackerSurvivors.Total() > 0 {
		return p.scheduleReturn(ctx, tx, army, battle.AttackerSurvivors, loot, now, out)
	}
	return tx.Armies().Delete(ctx, army.ID)
}

// applyDefenderLosses 本村驻军直接扣表，外来驻防改写对应军队的兵力。
// 两边都按该兵种在总防守中的占比取上整分摊。
func (p *MovementProcessor) applyDefenderLosses(ctx context.Context, tx port.Store, villageID domain.VillageID,
	losses, villageTroops, total domain.TroopCounts, stationed []*domain.Army) error {

	for t, totalLoss := range losses {
		totalCount := total[t]
		if totalCount <= 0 {
			continue
		}
		if vc := villageTroops[t]; vc > 0 {
			share := int(math.Ceil(float64(totalLoss) * float64(vc) / float64(totalCount)))
			if share > vc {
				share = vc
			}
			if share > 0 {
				if err := tx.Troops().KillTroops(ctx, villageID, t, share); err != nil {
					return err
				}
			}
		}
	}

	for _, s := range stationed {
		changed := false
		for t, totalLoss := range losses {
			totalCount := total[t]
			sc := s.Troops[t]
			if totalCount <= 0 || sc <= 0 {
				continue
			}
			share := int(math.Ceil(float64(totalLoss) * float64(sc) / float64(totalCount)))
			if share > sc {
				share = sc
			}
			if share > 0 {
				changed = true
				// 驻防部队的伤亡同样要扣回原籍村的总数
				if err := tx.Troops().ReduceCount(ctx, s.FromVillageID, t, share); err != nil {
					return err
				}
				if remain := sc - share; remain > 0 {
					s.Troops[t] = remain
				} else {
					delete(s.Troops, t)
				}
			}
		}
		if !changed {
			continue
		}
		if s.Troops.Total() > 0 {
			if err := tx.Armies().Save(ctx, s); err != nil {
				return err
			}
		} else if err := tx.Armies().Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// reduceOriginCounts 把进攻方阵亡（战前兵力减幸存）扣回原籍村总数。
func (p *MovementProcessor) reduceOriginCounts(ctx context.Context, tx port.Store, army *domain.Army, survivors domain.TroopCounts) error {
	for t, n := range army.Troops {
		dead := n - survivors[t]
		if dead <= 0 {
			continue
		}
		if err := tx.Troops().ReduceCount(ctx, army.FromVillageID, t, dead); err != nil {
			return err
		}
	}
	return nil
}

// chiefReduction 每支军队只生效一次的忠诚度削减：取幸存酋长兵种里最高的值。
func chiefReduction(survivors domain.TroopCounts) int {
	best := 0
	for t, n := range survivors {
		if n <= 0 || !t.IsChief() {
			continue
		}
		if d, ok := troopcfg.Get(t); ok && d.LoyaltyReduction > best {
			best = d.LoyaltyReduction
		}
	}
	return best
}

// scheduleReturn 挂返程：行军时长与去程公式一致，按幸存部队的最慢速度算。
func (p *MovementProcessor) scheduleReturn(ctx context.Context, tx port.Store, army *domain.Army,
	troops domain.TroopCounts, carried domain.Resources, now time.Time, out *outcome) error {
	const op = "engine.MovementProcessor.scheduleReturn"

	origin, err := tx.Villages().Get(ctx, army.FromVillageID)
	if err != nil {
		if errors.Is(err, domain.ErrVillageNotFound) {
			out.skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrDanglingEntity,
				map[string]any{"village_id": army.FromVillageID})
			return tx.Armies().Delete(ctx, army.ID)
		}
		return err
	}

	distance := domain.Distance(origin.X, origin.Y, army.ToX, army.ToY)
	army.Troops = troops
	army.Carried = carried
	army.Returning = true
	army.Stationed = false
	army.ReturningAt = now.Add(domain.TravelDuration(distance, troops))
	return tx.Armies().Save(ctx, army)
}

func (p *MovementProcessor) resolveReturn(ctx context.Context, tx port.Store, army *domain.Army, now time.Time, out *outcome) error {
	const op = "engine.MovementProcessor.resolveReturn"

	if !army.Returning {
		return nil
	}

	origin, err := tx.Villages().GetForUpdate(ctx, army.FromVillageID)
	if err != nil {
		if errors.Is(err, domain.ErrVillageNotFound) {
			out.skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrDanglingEntity,
				map[string]any{"village_id": army.FromVillageID})
			return tx.Armies().Delete(ctx, army.ID)
		}
		return err
	}

	origin.AccrueTo(now)

	// 带回的资源受容量封顶，溢出部分丢弃
	origin.Resources.Wood = math.Min(origin.Resources.Wood+army.Carried.Wood, origin.WarehouseCap)
	origin.Resources.Clay = math.Min(origin.Resources.Clay+army.Carried.Clay, origin.WarehouseCap)
	origin.Resources.Iron = math.Min(origin.Resources.Iron+army.Carried.Iron, origin.WarehouseCap)
	origin.Resources.Crop = math.Min(origin.Resources.Crop+army.Carried.Crop, origin.GranaryCap)

	for t, n := range army.Troops {
		if n <= 0 {
			continue
		}
		if err := tx.Troops().AdjustInVillage(ctx, origin.ID, t, n); err != nil {
			return err
		}
	}

	if err := syncCropUpkeep(ctx, tx, origin); err != nil {
		return err
	}
	if err := tx.Villages().Save(ctx, origin); err != nil {
		return err
	}
	if err := tx.Armies().Delete(ctx, army.ID); err != nil {
		return err
	}

	out.events = append(out.events, channelEvent{
		channel: hub.VillageChannel(origin.ID),
		ev: domain.NewArmyArrivedEvent(domain.ArmyArrivedData{
			ArmyID:    army.ID,
			Mission:   army.Mission,
			VillageID: origin.ID,
			X:         origin.X,
			Y:         origin.Y,
			Returning: true,
		}, now),
	})
	return nil
}

func newSettledVillage(owner domain.PlayerID, x, y int, now time.Time) *domain.Village {
	v := &domain.Village{
		PlayerID:   owner,
		Name:       "新村庄",
		X:          x,
		Y:          y,
		Loyalty:    domain.LoyaltyMax,
		LastSyncAt: now,
		Resources:  domain.Resources{Wood: 750, Clay: 750, Iron: 750, Crop: 750},
	}
	return v
}

// starterBuildings 开拓出来的村庄自带一级主楼和四块一级资源田。
func starterBuildings(villageID domain.VillageID) []*domain.Building {
	types := []buildingcfg.BuildingType{
		buildingcfg.MainBuilding,
		buildingcfg.Woodcutter,
		buildingcfg.ClayPit,
		buildingcfg.IronMine,
		buildingcfg.CropField,
	}
	out := make([]*domain.Building, 0, len(types))
	for i, t := range types {
		out = append(out, &domain.Building{
			VillageID: villageID,
			Type:      t,
			Slot:      i + 1,
			Level:     1,
		})
	}
	return out
}
