package domain

import (
	"errors"
	"math"
	"testing"

	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

func TestResolveBattle_攻强守弱攻方胜(t *testing.T) {
	// 100 禁卫步兵：攻击力 40*100=4000；50 禁卫步兵防守：步兵防御 35*50=1750
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.Infantry: 100},
		Defender: TroopCounts{troopcfg.Infantry: 50},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.AttackerWins || res.Draw {
		t.Fatalf("attacker should win, got wins=%v draw=%v", res.AttackerWins, res.Draw)
	}
	if res.AttackerPower != 4000 {
		t.Fatalf("attacker power = %v, want 4000", res.AttackerPower)
	}
	if res.DefenderPower != 1750 {
		t.Fatalf("defender power = %v, want 1750", res.DefenderPower)
	}

	// 胜方损失率 (1750/4000)^1.5 ≈ 0.2894，向下取整
	wantLosses := int(math.Floor(100 * math.Pow(1750.0/4000.0, 1.5)))
	if res.AttackerLosses[troopcfg.Infantry] != wantLosses {
		t.Fatalf("attacker losses = %d, want %d", res.AttackerLosses[troopcfg.Infantry], wantLosses)
	}
	// 败方全灭
	if res.DefenderLosses[troopcfg.Infantry] != 50 {
		t.Fatalf("defender losses = %d, want 50", res.DefenderLosses[troopcfg.Infantry])
	}
	if res.DefenderSurvivors.Total() != 0 {
		t.Fatalf("defender survivors = %d, want 0", res.DefenderSurvivors.Total())
	}
}

func TestResolveBattle_损失加幸存等于战前(t *testing.T) {
	attacker := TroopCounts{
		troopcfg.Infantry:    80,
		troopcfg.WarElephant: 20,
	}
	defender := TroopCounts{
		troopcfg.Spearman:    60,
		troopcfg.Crossbowman: 30,
	}
	res, err := ResolveBattle(BattleInput{Mission: MissionAttack, Attacker: attacker, Defender: defender})
	if err != nil {
		t.Fatal(err)
	}
	for tt, n := range attacker {
		if got := res.AttackerLosses[tt] + res.AttackerSurvivors[tt]; got != n {
			t.Fatalf("attacker %s: losses+survivors = %d, want %d", tt, got, n)
		}
	}
	for tt, n := range defender {
		if got := res.DefenderLosses[tt] + res.DefenderSurvivors[tt]; got != n {
			t.Fatalf("defender %s: losses+survivors = %d, want %d", tt, got, n)
		}
	}
}

func TestResolveBattle_无人防守零损失(t *testing.T) {
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.Infantry: 10},
		Defender: TroopCounts{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.AttackerWins {
		t.Fatal("attacker should win against empty defense")
	}
	if res.AttackerLosses.Total() != 0 {
		t.Fatalf("attacker losses = %d, want 0", res.AttackerLosses.Total())
	}
}

func TestResolveBattle_劫掠败逃损失打折(t *testing.T) {
	// 10 长矛手（攻 100）打 100 禁卫步兵（防 3500）：必败
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionRaid,
		Attacker: TroopCounts{troopcfg.Spearman: 10},
		Defender: TroopCounts{troopcfg.Infantry: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AttackerWins {
		t.Fatal("attacker should lose")
	}
	ratio := 100.0 / 3500.0
	wantRatio := math.Max(0.66, 1.0-ratio*0.5)
	wantLosses := int(math.Floor(10 * wantRatio))
	if res.AttackerLosses[troopcfg.Spearman] != wantLosses {
		t.Fatalf("raid attacker losses = %d, want %d（败逃折损）", res.AttackerLosses[troopcfg.Spearman], wantLosses)
	}
	if res.AttackerSurvivors.Total() == 0 {
		t.Fatal("raid loser should have survivors fleeing home")
	}
}

func TestResolveBattle_攻击败全灭(t *testing.T) {
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.Spearman: 10},
		Defender: TroopCounts{troopcfg.Infantry: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.AttackerSurvivors.Total() != 0 {
		t.Fatalf("attack loser survivors = %d, want 0", res.AttackerSurvivors.Total())
	}
}

func TestResolveBattle_势均力敌判平局(t *testing.T) {
	// 35 禁卫步兵攻 1400，40 禁卫步兵步防 1400
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.Infantry: 35},
		Defender: TroopCounts{troopcfg.Infantry: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Draw || res.AttackerWins {
		t.Fatalf("want draw, got wins=%v draw=%v (atk=%v def=%v)",
			res.AttackerWins, res.Draw, res.AttackerPower, res.DefenderPower)
	}
	if res.AttackerSurvivors.Total() != 0 || res.DefenderSurvivors.Total() != 0 {
		t.Fatal("draw should wipe both sides")
	}
}

func TestResolveBattle_骑兵构成影响防御加权(t *testing.T) {
	// 纯骑兵进攻：防守方吃的是骑兵防御值
	res, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.WarElephant: 10},
		Defender: TroopCounts{troopcfg.Spearman: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 长矛手骑兵防御 60 × 10
	if res.DefenderPower != 600 {
		t.Fatalf("defender power = %v, want 600 (pure cavalry weighting)", res.DefenderPower)
	}
}

func TestResolveBattle_城墙给防御乘数(t *testing.T) {
	base, err := ResolveBattle(BattleInput{
		Mission:  MissionAttack,
		Attacker: TroopCounts{troopcfg.Infantry: 100},
		Defender: TroopCounts{troopcfg.Infantry: 50},
	})
	if err != nil {
		t.Fatal(err)
	}
	walled, err := ResolveBattle(BattleInput{
		Mission:           MissionAttack,
		Attacker:          TroopCounts{troopcfg.Infantry: 100},
		Defender:          TroopCounts{troopcfg.Infantry: 50},
		DefenderWallLevel: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := base.DefenderPower * 1.3
	if math.Abs(walled.DefenderPower-want) > 1e-9 {
		t.Fatalf("walled defender power = %v, want %v", walled.DefenderPower, want)
	}
}

func TestResolveBattle_空进攻部队拒绝(t *testing.T) {
	_, err := ResolveBattle(BattleInput{Mission: MissionAttack, Attacker: TroopCounts{}})
	if !errors.Is(err, ErrEmptyAttacker) {
		t.Fatalf("err = %v, want ErrEmptyAttacker", err)
	}
}

func TestResolveScout_无防守侦察零损失(t *testing.T) {
	res, err := ResolveScout(TroopCounts{troopcfg.SeaDiver: 5}, TroopCounts{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("scout should succeed against no defenders")
	}
	if res.AttackerLosses != 0 {
		t.Fatalf("attacker losses = %d, want 0", res.AttackerLosses)
	}
}

func TestResolveScout_势均力敌成功但有损(t *testing.T) {
	res, err := ResolveScout(
		TroopCounts{troopcfg.SeaDiver: 5},
		TroopCounts{troopcfg.SeaDiver: 5},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("ratio 0.5 > 0.4, scout should succeed")
	}
	// 进攻方损失率 (1-0.5)*0.8=0.4，向上取整
	if res.AttackerLosses != 2 {
		t.Fatalf("attacker losses = %d, want 2", res.AttackerLosses)
	}
	// 防守方损失率 0.5*0.5=0.25
	if res.DefenderLosses != 2 {
		t.Fatalf("defender losses = %d, want 2", res.DefenderLosses)
	}
}

func TestResolveScout_寡不敌众侦察失败(t *testing.T) {
	res, err := ResolveScout(
		TroopCounts{troopcfg.SeaDiver: 1},
		TroopCounts{troopcfg.SeaDiver: 10},
	)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("scout should fail when badly outnumbered")
	}
	if res.AttackerLosses != 1 {
		t.Fatalf("attacker losses = %d, want 1（基本全灭）", res.AttackerLosses)
	}
	if res.DefenderLosses != 1 {
		t.Fatalf("defender losses = %d, want 1", res.DefenderLosses)
	}
}

func TestStolenResources_劫掠上限五成再按负重压缩(t *testing.T) {
	// 2 禁卫步兵负重 100
	survivors := TroopCounts{troopcfg.Infantry: 2}
	got := StolenResources(Resources{Wood: 1000}, survivors, MissionRaid)
	if got.Wood != 100 {
		t.Fatalf("raid loot wood = %v, want 100", got.Wood)
	}
	got = StolenResources(Resources{Wood: 1000}, survivors, MissionAttack)
	if got.Wood != 100 {
		t.Fatalf("attack loot wood = %v, want 100", got.Wood)
	}
	// 非敌对掠夺任务不拿东西
	got = StolenResources(Resources{Wood: 1000}, survivors, MissionSupport)
	if !got.IsZero() {
		t.Fatalf("support loot = %+v, want zero", got)
	}
}

func TestStolenResources_负粮不可掠夺(t *testing.T) {
	survivors := TroopCounts{troopcfg.Infantry: 10}
	got := StolenResources(Resources{Crop: -120, Wood: 50}, survivors, MissionRaid)
	if got.Crop != 0 {
		t.Fatalf("loot crop = %v, want 0（负存量按 0 计）", got.Crop)
	}
	if got.Wood != 25 {
		t.Fatalf("loot wood = %v, want 25", got.Wood)
	}
}

func TestCullForStarvation_先裁最廉价兵种(t *testing.T) {
	garrison := TroopCounts{
		troopcfg.BattleDuck:  10, // 总成本 140，粮耗 1
		troopcfg.Infantry:    10, // 总成本 400，粮耗 1
		troopcfg.WarElephant: 5,  // 总成本 1410，粮耗 3
	}
	culled := CullForStarvation(garrison, 12)

	if culled[troopcfg.BattleDuck] != 10 {
		t.Fatalf("battle_duck culled = %d, want 10（最廉价先死）", culled[troopcfg.BattleDuck])
	}
	if culled[troopcfg.Infantry] != 2 {
		t.Fatalf("infantry culled = %d, want 2", culled[troopcfg.Infantry])
	}
	if culled[troopcfg.WarElephant] != 0 {
		t.Fatalf("war_elephant culled = %d, want 0", culled[troopcfg.WarElephant])
	}
}

func TestCullForStarvation_兵力不够裁光为止(t *testing.T) {
	garrison := TroopCounts{troopcfg.BattleDuck: 3}
	culled := CullForStarvation(garrison, 100)
	if culled[troopcfg.BattleDuck] != 3 {
		t.Fatalf("culled = %d, want 3", culled[troopcfg.BattleDuck])
	}
}

func TestCullForStarvation_无缺口不裁军(t *testing.T) {
	culled := CullForStarvation(TroopCounts{troopcfg.Infantry: 10}, 0)
	if len(culled) != 0 {
		t.Fatalf("culled = %v, want empty", culled)
	}
}

func TestResolveBattle_部族系数作用于双方战力(t *testing.T) {
	// 基里弩手偏攻（×1.1），纳瓦克力士偏守（防御 ×1.1）
	res, err := ResolveBattle(BattleInput{
		Mission:              MissionAttack,
		Attacker:             TroopCounts{troopcfg.Crossbowman: 10},
		Defender:             TroopCounts{troopcfg.KrisWarrior: 10},
		AttackerAttackBonus:  DominantTribe(TroopCounts{troopcfg.Crossbowman: 10}).AttackBonus(),
		DefenderDefenseBonus: DominantTribe(TroopCounts{troopcfg.KrisWarrior: 10}).DefenseBonus(),
	})
	if err != nil {
		t.Fatal(err)
	}
	// 弩手攻击 35×10=350，克力士步兵防御 30×10=300
	wantAtk := 350 * troopcfg.TribeKiri.AttackBonus()
	if math.Abs(res.AttackerPower-wantAtk) > 1e-9 {
		t.Fatalf("attacker power = %v, want %v", res.AttackerPower, wantAtk)
	}
	wantDef := 300 * troopcfg.TribeNava.DefenseBonus()
	if math.Abs(res.DefenderPower-wantDef) > 1e-9 {
		t.Fatalf("defender power = %v, want %v", res.DefenderPower, wantDef)
	}
}

func TestDominantTribe_按兵力最多的部族取(t *testing.T) {
	got := DominantTribe(TroopCounts{
		troopcfg.Infantry:    3,
		troopcfg.Crossbowman: 5,
	})
	if got != troopcfg.TribeKiri {
		t.Fatalf("dominant tribe = %v, want kiri", got)
	}
}

func TestDominantTribe_并列或纯特殊部队无加成(t *testing.T) {
	tied := DominantTribe(TroopCounts{
		troopcfg.Infantry:    5,
		troopcfg.KrisWarrior: 5,
	})
	if tied != troopcfg.TribeSpecial {
		t.Fatalf("tied force tribe = %v, want special", tied)
	}
	ducks := DominantTribe(TroopCounts{troopcfg.BattleDuck: 7})
	if ducks != troopcfg.TribeSpecial {
		t.Fatalf("special-only force tribe = %v, want special", ducks)
	}
	if troopcfg.TribeSpecial.AttackBonus() != 1.0 || troopcfg.TribeSpecial.DefenseBonus() != 1.0 {
		t.Fatal("special tribe should carry no combat bonus")
	}
}
