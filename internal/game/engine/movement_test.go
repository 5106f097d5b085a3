package engine

import (
	"context"
	"testing"
	"time"

	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
	"SiamKingdoms/modules/kit/logx"
)

func newMovement(store *fakeStore, reports *fakeReportRepo, pub *fakePublisher) *MovementProcessor {
	p := NewMovementProcessor(store, reports, pub, logx.NewZapLogger(nil))
	p.now = func() time.Time { return engineNow }
	return p
}

func TestMovement_劫掠获胜掠夺后返程(t *testing.T) {
	store := newFakeStore()
	origin := engineVillage(1, 100, 0, 0)
	store.villages[1] = origin
	store.putGarrison(1, troopcfg.Infantry, 10, 0)

	target := engineVillage(2, 200, 3, 4)
	target.Resources.Wood = 1000
	store.villages[2] = target
	store.putGarrison(2, troopcfg.Infantry, 5, 5)

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionRaid,
		Troops:    domain.TroopCounts{troopcfg.Infantry: 10},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	pub := &fakePublisher{}
	if err := newMovement(store, reports, pub).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// 守方 5 步兵全灭
	if g := store.garrisons[garrisonKey{2, troopcfg.Infantry}]; g.Count != 0 {
		t.Fatalf("defender garrison = %d, want 0", g.Count)
	}
	// 攻方损失 2（(1750/4000)^1.5 截断），原籍村总数 10→8
	if g := store.garrisons[garrisonKey{1, troopcfg.Infantry}]; g.Count != 8 {
		t.Fatalf("origin garrison count = %d, want 8", g.Count)
	}

	// 劫掠上限五成（500），被 8 步兵负重 400 压缩
	if target.Resources.Wood != 600 {
		t.Fatalf("target wood = %v, want 600", target.Resources.Wood)
	}
	if !army.Returning || army.Stationed {
		t.Fatalf("army state = returning %v stationed %v", army.Returning, army.Stationed)
	}
	if army.Troops[troopcfg.Infantry] != 8 {
		t.Fatalf("returning troops = %d, want 8", army.Troops[troopcfg.Infantry])
	}
	if army.Carried.Wood != 400 {
		t.Fatalf("carried wood = %v, want 400", army.Carried.Wood)
	}
	// 距离 5 格，步兵 6 格每小时 → 3000 秒
	wantReturns := engineNow.Add(3000 * time.Second)
	if !army.ReturningAt.Equal(wantReturns) {
		t.Fatalf("returning_at = %v, want %v", army.ReturningAt, wantReturns)
	}

	if len(reports.battles) != 1 {
		t.Fatalf("battle reports = %d, want 1", len(reports.battles))
	}
	br := reports.battles[0]
	if br.Winner != domain.WinnerAttacker || br.Loot.Wood != 400 {
		t.Fatalf("report = winner %s loot %v", br.Winner, br.Loot.Wood)
	}
	if br.AttackerID != 100 || br.DefenderID != 200 {
		t.Fatalf("report parties = %d/%d", br.AttackerID, br.DefenderID)
	}

	if got := len(pub.byType(domain.EventUnderAttack)); got != 1 {
		t.Fatalf("under_attack events = %d, want 1", got)
	}
	arrived := pub.byType(domain.EventArmyArrived)
	if len(arrived) != 1 || arrived[0].channel != hub.VillageChannel(1) {
		t.Fatalf("army_arrived events = %+v", arrived)
	}
}

func TestMovement_征服削减忠诚度每军只一次(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)
	store.putGarrison(1, troopcfg.RoyalAdvisor, 2, 0)
	store.putGarrison(1, troopcfg.ElderChief, 1, 0)

	target := engineVillage(2, 200, 3, 4)
	store.villages[2] = target

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission: domain.MissionConquer,
		Troops: domain.TroopCounts{
			troopcfg.RoyalAdvisor: 2, // 削减 25
			troopcfg.ElderChief:   1, // 削减 30
		},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	if err := newMovement(store, reports, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// 取幸存酋长里最高的削减值，而不是逐个叠加
	if target.Loyalty != 70 {
		t.Fatalf("loyalty = %d, want 70", target.Loyalty)
	}
	if target.PlayerID != 200 {
		t.Fatalf("owner = %d, want unchanged 200", target.PlayerID)
	}
	if len(reports.battles) != 1 {
		t.Fatalf("battle reports = %d, want 1", len(reports.battles))
	}
	br := reports.battles[0]
	if br.LoyaltyReduced != 30 || br.Conquered {
		t.Fatalf("report = reduced %d conquered %v", br.LoyaltyReduced, br.Conquered)
	}
}

func TestMovement_忠诚度归零转移归属(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)
	store.putGarrison(1, troopcfg.RoyalAdvisor, 1, 0)

	target := engineVillage(2, 200, 3, 4)
	target.Loyalty = 20
	store.villages[2] = target

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionConquer,
		Troops:    domain.TroopCounts{troopcfg.RoyalAdvisor: 1},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	if err := newMovement(store, reports, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if target.PlayerID != 100 {
		t.Fatalf("owner = %d, want 100", target.PlayerID)
	}
	if target.Loyalty != domain.LoyaltyAfterConquer {
		t.Fatalf("loyalty = %d, want %d", target.Loyalty, domain.LoyaltyAfterConquer)
	}
	if !reports.battles[0].Conquered {
		t.Fatal("report should record conquest")
	}
}

func TestMovement_支援到达转驻防并计粮耗(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)
	host := engineVillage(2, 200, 3, 4)
	store.villages[2] = host

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionSupport,
		Troops:    domain.TroopCounts{troopcfg.Infantry: 10},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	if err := newMovement(store, &fakeReportRepo{}, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !army.Stationed || army.Returning {
		t.Fatalf("army state = stationed %v returning %v", army.Stationed, army.Returning)
	}
	// 驻防部队在东道村吃粮
	if host.CropUpkeep != 10 {
		t.Fatalf("host upkeep = %v, want 10", host.CropUpkeep)
	}
}

func TestMovement_侦察成功带回情报(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)
	store.putGarrison(1, troopcfg.SeaDiver, 5, 0)

	target := engineVillage(2, 200, 3, 4)
	target.Resources.Wood = 500
	store.villages[2] = target
	store.putGarrison(2, troopcfg.Infantry, 5, 5)

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionScout,
		Troops:    domain.TroopCounts{troopcfg.SeaDiver: 5},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	if err := newMovement(store, reports, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(reports.scouts) != 1 {
		t.Fatalf("scout reports = %d, want 1", len(reports.scouts))
	}
	sr := reports.scouts[0]
	if !sr.Success {
		t.Fatal("scout should succeed, 85 vs 30 effectiveness")
	}
	if sr.Intel == nil {
		t.Fatal("successful scout should carry intel")
	}
	if sr.Intel.Resources.Wood != 500 {
		t.Fatalf("intel wood = %v, want 500", sr.Intel.Resources.Wood)
	}
	// 守方 5 步兵折损 2，情报里是战后余量
	if sr.Intel.Troops[troopcfg.Infantry] != 3 {
		t.Fatalf("intel troops = %d, want 3", sr.Intel.Troops[troopcfg.Infantry])
	}
	if !army.Returning {
		t.Fatal("surviving scouts should head home")
	}
	if army.Troops[troopcfg.SeaDiver] != 3 {
		t.Fatalf("surviving scouts = %d, want 3", army.Troops[troopcfg.SeaDiver])
	}
	// 阵亡侦察兵扣回原籍村总数
	if g := store.garrisons[garrisonKey{1, troopcfg.SeaDiver}]; g.Count != 3 {
		t.Fatalf("origin scout count = %d, want 3", g.Count)
	}
}

func TestMovement_目标空地原路返回(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToX: 3, ToY: 4,
		Mission:   domain.MissionAttack,
		Troops:    domain.TroopCounts{troopcfg.Infantry: 10},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	if err := newMovement(store, reports, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !army.Returning {
		t.Fatal("army should turn back from empty field")
	}
	if army.Troops.Total() != 10 {
		t.Fatalf("troops = %d, want untouched 10", army.Troops.Total())
	}
	if len(reports.battles) != 0 {
		t.Fatal("no battle should be fought on empty field")
	}
}

func TestMovement_开拓空地建新村(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToX: 30, ToY: 40,
		Mission:   domain.MissionSettle,
		Troops:    domain.TroopCounts{troopcfg.Infantry: 3},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	if err := newMovement(store, &fakeReportRepo{}, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	settled, err := store.Villages().FindByCoordinates(context.Background(), 30, 40)
	if err != nil {
		t.Fatalf("settled village not found: %v", err)
	}
	if settled.PlayerID != 100 {
		t.Fatalf("settled owner = %d, want 100", settled.PlayerID)
	}
	// 自带一级资源田，产量已派生
	if settled.WoodRate != 3 || settled.CropRate != 3 {
		t.Fatalf("settled rates = %v/%v, want 3/3", settled.WoodRate, settled.CropRate)
	}
	// 开拓队本身消耗掉
	if _, ok := store.armies[7]; ok {
		t.Fatal("settler army should be consumed")
	}
}

func TestMovement_返程入村补回在村兵(t *testing.T) {
	store := newFakeStore()
	origin := engineVillage(1, 100, 0, 0)
	store.villages[1] = origin
	store.putGarrison(1, troopcfg.Infantry, 8, 0)

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToX: 3, ToY: 4,
		Mission:     domain.MissionRaid,
		Troops:      domain.TroopCounts{troopcfg.Infantry: 8},
		Carried:     domain.Resources{Wood: 400},
		Returning:   true,
		ReturningAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	pub := &fakePublisher{}
	if err := newMovement(store, &fakeReportRepo{}, pub).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	g := store.garrisons[garrisonKey{1, troopcfg.Infantry}]
	if g.InVillage != 8 {
		t.Fatalf("in_village = %d, want 8", g.InVillage)
	}
	if origin.Resources.Wood != 400 {
		t.Fatalf("origin wood = %v, want 400", origin.Resources.Wood)
	}
	if _, ok := store.armies[7]; ok {
		t.Fatal("returned army should be deleted")
	}
	arrived := pub.byType(domain.EventArmyArrived)
	if len(arrived) != 1 || arrived[0].channel != hub.VillageChannel(1) {
		t.Fatalf("army_arrived events = %+v", arrived)
	}
}

func TestMovement_带回资源受容量封顶(t *testing.T) {
	store := newFakeStore()
	origin := engineVillage(1, 100, 0, 0)
	origin.WarehouseCap = 800
	origin.Resources.Wood = 700
	store.villages[1] = origin

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToX: 3, ToY: 4,
		Mission:     domain.MissionRaid,
		Troops:      domain.TroopCounts{troopcfg.Infantry: 5},
		Carried:     domain.Resources{Wood: 400},
		Returning:   true,
		ReturningAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	if err := newMovement(store, &fakeReportRepo{}, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 溢出部分丢弃
	if origin.Resources.Wood != 800 {
		t.Fatalf("origin wood = %v, want capped 800", origin.Resources.Wood)
	}
}

func TestMovement_已结算军队幂等跳过(t *testing.T) {
	store := newFakeStore()
	p := newMovement(store, &fakeReportRepo{}, &fakePublisher{})

	// 批次扫描与结算之间军队被并发结算删除：事务内重读发现不存在，直接跳过
	if err := p.resolveOne(context.Background(), 404, engineNow, p.resolveArrival); err != nil {
		t.Fatalf("missing army should be a no-op, got %v", err)
	}
}

func TestMovement_不可征服目标原路返回(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)

	capital := engineVillage(2, 200, 3, 4)
	capital.IsCapital = true
	store.villages[2] = capital

	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionConquer,
		Troops:    domain.TroopCounts{troopcfg.RoyalAdvisor: 1},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	if err := newMovement(store, reports, &fakePublisher{}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !army.Returning {
		t.Fatal("army should turn back from capital")
	}
	if capital.Loyalty != domain.LoyaltyMax || len(reports.battles) != 0 {
		t.Fatal("capital must not be touched by conquer mission")
	}
}

func TestMovement_部族系数决定胜负(t *testing.T) {
	store := newFakeStore()
	store.villages[1] = engineVillage(1, 100, 0, 0)
	store.putGarrison(1, troopcfg.Crossbowman, 10, 0)

	target := engineVillage(2, 200, 3, 4)
	store.villages[2] = target
	store.putGarrison(2, troopcfg.Infantry, 10, 10)

	// 弩手 350×1.1=385 对步兵防御 350：没有基里进攻系数就是同归于尽的平局
	army := &domain.Army{
		ID: 7, PlayerID: 100, FromVillageID: 1, ToVillageID: 2, ToX: 3, ToY: 4,
		Mission:   domain.MissionAttack,
		Troops:    domain.TroopCounts{troopcfg.Crossbowman: 10},
		ArrivesAt: engineNow.Add(-time.Second),
	}
	store.armies[7] = army

	reports := &fakeReportRepo{}
	pub := &fakePublisher{}
	if err := newMovement(store, reports, pub).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(reports.battles) != 1 {
		t.Fatalf("battle reports = %d, want 1", len(reports.battles))
	}
	if br := reports.battles[0]; br.Winner != domain.WinnerAttacker {
		t.Fatalf("winner = %s, want attacker", br.Winner)
	}
	// 胜方损失 floor(10×(350/385)^1.5)=8，带 2 个幸存弩手返程
	if !army.Returning || army.Troops[troopcfg.Crossbowman] != 2 {
		t.Fatalf("army returning=%v troops=%d, want returning with 2", army.Returning, army.Troops[troopcfg.Crossbowman])
	}
	if g := store.garrisons[garrisonKey{2, troopcfg.Infantry}]; g.Count != 0 {
		t.Fatalf("defender garrison = %d, want wiped", g.Count)
	}
}

func TestMovement_原籍村已删返程军队清理(t *testing.T) {
	store := newFakeStore()
	army := &domain.Army{
		ID: 9, PlayerID: 100, FromVillageID: 77,
		Mission:     domain.MissionRaid,
		Troops:      domain.TroopCounts{troopcfg.Infantry: 3},
		Returning:   true,
		ReturningAt: engineNow.Add(-time.Second),
	}
	store.armies[9] = army

	reports := &fakeReportRepo{}
	pub := &fakePublisher{}
	if err := newMovement(store, reports, pub).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// 清理必须随事务提交，军队不能在下个节拍再被扫出来
	if _, ok := store.armies[9]; ok {
		t.Fatal("dangling army should be deleted")
	}
	if len(pub.events) != 0 {
		t.Fatalf("events = %d, want none for cleaned army", len(pub.events))
	}
}
