package domain

import (
	"errors"
	"math"
	"sort"

	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

// ErrEmptyAttacker 空进攻部队不是“必败”，是非法输入，在结算前就拒绝。
var ErrEmptyAttacker = errors.New("combat: empty attacking force")

// BattleInput 战斗结算输入。Bonus 为乘数，1.0 表示无加成。
type BattleInput struct {
	Mission              MissionKind
	Attacker             TroopCounts
	Defender             TroopCounts
	DefenderWallLevel    int
	AttackerAttackBonus  float64
	DefenderDefenseBonus float64
}

type BattleResult struct {
	AttackerWins      bool
	Draw              bool
	AttackerPower     float64
	DefenderPower     float64
	AttackerLosses    TroopCounts
	DefenderLosses    TroopCounts
	AttackerSurvivors TroopCounts
	DefenderSurvivors TroopCounts
}

// ResolveBattle 纯函数战斗结算：同样输入必然给出同样输出，
// 模拟预览与真实结算共用这一份代码，结果保证一致。
//
// 防御力按进攻方步/骑构成加权：防守单位的步兵防御吃步兵攻击占比，
// 骑兵防御吃骑兵攻击占比；城墙按等级给防御乘数加成。
// 胜方损失 (弱/强)^1.5，败方全灭；劫掠任务败方可以逃跑，损失打折。
// 占比恰为 0.5 时判平局，双方同归于尽。
func ResolveBattle(in BattleInput) (BattleResult, error) {
	if in.Attacker.Total() <= 0 {
		return BattleResult{}, ErrEmptyAttacker
	}
	atkBonus := in.AttackerAttackBonus
	if atkBonus <= 0 {
		atkBonus = 1.0
	}
	defBonus := in.DefenderDefenseBonus
	if defBonus <= 0 {
		defBonus = 1.0
	}

	attackPower := attackPowerOf(in.Attacker) * atkBonus

	infAttack, cavAttack := attackByCategory(in.Attacker)
	infantryRatio := 0.5
	if infAttack+cavAttack > 0 {
		infantryRatio = infAttack / (infAttack + cavAttack)
	}

	defensePower := defensePowerOf(in.Defender, infantryRatio) * defBonus
	defensePower *= 1 + buildingcfg.WallBonus(in.DefenderWallLevel)

	res := BattleResult{
		AttackerPower: attackPower,
		DefenderPower: defensePower,
	}

	var attackerLossRatio, defenderLossRatio float64
	switch {
	case defensePower <= 0:
		// 无人防守：完胜零损失
		res.AttackerWins = true
		attackerLossRatio, defenderLossRatio = 0, 0
	case attackPower > defensePower:
		res.AttackerWins = true
		attackerLossRatio = math.Pow(defensePower/attackPower, 1.5)
		defenderLossRatio = 1.0
	case attackPower < defensePower:
		ratio := attackPower / defensePower
		defenderLossRatio = math.Pow(ratio, 1.5)
		if in.Mission == MissionRaid {
			// 劫掠打输了可以跑路
			attackerLossRatio = math.Max(0.66, 1.0-ratio*0.5)
		} else {
			attackerLossRatio = 1.0
		}
	default:
		// 势均力敌：平局，同归于尽
		res.Draw = true
		attackerLossRatio = 1.0
		defenderLossRatio = 1.0
		if in.Mission == MissionRaid {
			attackerLossRatio = 0.66
		}
	}

	res.AttackerLosses = applyLosses(in.Attacker, attackerLossRatio)
	res.DefenderLosses = applyLosses(in.Defender, defenderLossRatio)
	res.AttackerSurvivors = survivorsOf(in.Attacker, res.AttackerLosses)
	res.DefenderSurvivors = survivorsOf(in.Defender, res.DefenderLosses)
	return res, nil
}

func attackPowerOf(troops TroopCounts) float64 {
	sum := 0.0
	for t, n := range troops {
		if d, ok := troopcfg.Get(t); ok {
			sum += float64(d.Attack) * float64(n)
		}
	}
	return sum
}

func attackByCategory(troops TroopCounts) (infantry, cavalry float64) {
	for t, n := range troops {
		d, ok := troopcfg.Get(t)
		if !ok {
			continue
		}
		power := float64(d.Attack) * float64(n)
		if t.IsCavalry() {
			cavalry += power
		} else {
			infantry += power
		}
	}
	return infantry, cavalry
}

func defensePowerOf(troops TroopCounts, infantryRatio float64) float64 {
	cavalryRatio := 1.0 - infantryRatio
	sum := 0.0
	for t, n := range troops {
		if d, ok := troopcfg.Get(t); ok {
			effective := float64(d.DefenseInfantry)*infantryRatio + float64(d.DefenseCavalry)*cavalryRatio
			sum += effective * float64(n)
		}
	}
	return sum
}

// applyLosses 损失向下取整，且不超过战前数量。
func applyLosses(troops TroopCounts, lossRatio float64) TroopCounts {
	out := make(TroopCounts)
	for t, n := range troops {
		losses := int(math.Floor(float64(n) * lossRatio))
		if losses > n {
			losses = n
		}
		if losses > 0 {
			out[t] = losses
		}
	}
	return out
}

func survivorsOf(troops TroopCounts, losses TroopCounts) TroopCounts {
	out := make(TroopCounts)
	for t, n := range troops {
		remain := n - losses[t]
		if remain > 0 {
			out[t] = remain
		}
	}
	return out
}

// ScoutResult 侦察结算结果。Intel 仅在成功时由调用方填充。
type ScoutResult struct {
	Success           bool
	AttackerCount     int
	DefenderCount     int
	AttackerLosses    int
	DefenderLosses    int
	AttackerSurvivors TroopCounts
	DefenderLossMap   TroopCounts
}

// ResolveScout 侦察对抗：以速度作为侦察效力，占比超过 0.4 即成功。
// 防守方无侦察力时零损失完美侦察。
func ResolveScout(attacker, defender TroopCounts) (ScoutResult, error) {
	if attacker.Total() <= 0 {
		return ScoutResult{}, ErrEmptyAttacker
	}

	attackerPower := scoutPowerOf(attacker)
	defenderPower := scoutPowerOf(defender)
	attackerCount := attacker.Total()
	defenderCount := defender.Total()

	ratio := 1.0
	if attackerPower+defenderPower > 0 {
		ratio = attackerPower / (attackerPower + defenderPower)
	}
	success := ratio > 0.4

	res := ScoutResult{
		Success:       success,
		AttackerCount: attackerCount,
		DefenderCount: defenderCount,
	}

	if defenderPower > 0 {
		var attackerLossRatio, defenderLossRatio float64
		if success {
			attackerLossRatio = (1.0 - ratio) * 0.8
			defenderLossRatio = ratio * 0.5
		} else {
			attackerLossRatio = 0.9 + (1.0-ratio)*0.1
			defenderLossRatio = 0.1
		}
		res.AttackerLosses = minInt(int(math.Ceil(float64(attackerCount)*attackerLossRatio)), attackerCount)
		res.DefenderLosses = minInt(int(math.Ceil(float64(defenderCount)*defenderLossRatio)), defenderCount)
	}

	res.AttackerSurvivors = distributeLosses(attacker, res.AttackerLosses, attackerCount)
	res.DefenderLossMap = lossShares(defender, res.DefenderLosses, defenderCount)
	return res, nil
}

func scoutPowerOf(troops TroopCounts) float64 {
	sum := 0.0
	for t, n := range troops {
		if d, ok := troopcfg.Get(t); ok {
			sum += float64(d.Speed) * float64(n)
		}
	}
	return sum
}

// distributeLosses 按比例扣减并返回幸存者。
func distributeLosses(troops TroopCounts, totalLosses, totalCount int) TroopCounts {
	if totalCount <= 0 || totalLosses <= 0 {
		return troops.Clone()
	}
	lossRatio := float64(totalLosses) / float64(totalCount)
	out := make(TroopCounts)
	for t, n := range troops {
		losses := int(math.Ceil(float64(n) * lossRatio))
		if remain := n - losses; remain > 0 {
			out[t] = remain
		}
	}
	return out
}

// lossShares 把总损失按兵种占比拆分（向上取整、不超过现有数量）。
func lossShares(troops TroopCounts, totalLosses, totalCount int) TroopCounts {
	out := make(TroopCounts)
	if totalCount <= 0 || totalLosses <= 0 {
		return out
	}
	for t, n := range troops {
		share := float64(n) / float64(totalCount)
		losses := minInt(int(math.Ceil(float64(totalLosses)*share)), n)
		if losses > 0 {
			out[t] = losses
		}
	}
	return out
}

// StolenResources 可掠夺资源：劫掠最多拿走 50%，攻击/征服拿 100%，
// 按负重上限等比例压缩。
func StolenResources(available Resources, survivors TroopCounts, mission MissionKind) Resources {
	capacity := survivors.CarryCapacity()
	if capacity <= 0 {
		return Resources{}
	}

	var percent float64
	switch mission {
	case MissionRaid:
		percent = 0.5
	case MissionAttack, MissionConquer:
		percent = 1.0
	default:
		return Resources{}
	}

	avail := Resources{
		Wood: math.Floor(math.Max(available.Wood, 0) * percent),
		Clay: math.Floor(math.Max(available.Clay, 0) * percent),
		Iron: math.Floor(math.Max(available.Iron, 0) * percent),
		Crop: math.Floor(math.Max(available.Crop, 0) * percent),
	}
	total := avail.Total()
	if total <= 0 {
		return Resources{}
	}

	factor := 1.0
	if total > float64(capacity) {
		factor = float64(capacity) / total
	}
	return Resources{
		Wood: math.Floor(avail.Wood * factor),
		Clay: math.Floor(avail.Clay * factor),
		Iron: math.Floor(avail.Iron * factor),
		Crop: math.Floor(avail.Crop * factor),
	}
}

// CullForStarvation 饥荒裁军：从最廉价（重训成本最低）的兵种开始杀，
// 直到削减的粮耗覆盖缺口或无兵可杀。返回各兵种被裁数量。
func CullForStarvation(garrison TroopCounts, cropDeficit float64) TroopCounts {
	out := make(TroopCounts)
	if cropDeficit <= 0 {
		return out
	}

	type unit struct {
		t      troopcfg.TroopType
		count  int
		upkeep int
		cost   int
	}
	units := make([]unit, 0, len(garrison))
	for t, n := range garrison {
		if n <= 0 {
			continue
		}
		d, ok := troopcfg.Get(t)
		if !ok {
			continue
		}
		upkeep := d.CropConsumption
		if upkeep <= 0 {
			upkeep = 1
		}
		units = append(units, unit{
			t:      t,
			count:  n,
			upkeep: upkeep,
			cost:   d.WoodCost + d.ClayCost + d.IronCost + d.CropCost,
		})
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].cost != units[j].cost {
			return units[i].cost < units[j].cost
		}
		return units[i].t < units[j].t
	})

	remaining := cropDeficit
	for _, u := range units {
		if remaining <= 0 {
			break
		}
		need := int(math.Ceil(remaining / float64(u.upkeep)))
		kill := minInt(need, u.count)
		if kill > 0 {
			out[u.t] = kill
			remaining -= float64(kill * u.upkeep)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
