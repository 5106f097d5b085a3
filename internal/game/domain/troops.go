package domain

import (
	"encoding/json"
	"fmt"

	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

// TroopCounts 兵种到数量的映射。键是封闭枚举：反序列化遇到未知兵种直接失败，
// 不允许静默带着脏数据继续跑。
type TroopCounts map[troopcfg.TroopType]int

func (tc *TroopCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TroopCounts, len(raw))
	for k, v := range raw {
		t, err := troopcfg.Parse(k)
		if err != nil {
			return fmt.Errorf("troop counts: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("troop counts: negative count %d for %q", v, k)
		}
		out[t] = v
	}
	*tc = out
	return nil
}

func (tc TroopCounts) Total() int {
	sum := 0
	for _, v := range tc {
		sum += v
	}
	return sum
}

func (tc TroopCounts) Clone() TroopCounts {
	out := make(TroopCounts, len(tc))
	for k, v := range tc {
		out[k] = v
	}
	return out
}

// AddAll 累加另一组兵力（用于合并驻防部队）。
func (tc TroopCounts) AddAll(o TroopCounts) {
	for k, v := range o {
		tc[k] += v
	}
}

// CarryCapacity 部队总负重。
func (tc TroopCounts) CarryCapacity() int {
	sum := 0
	for t, n := range tc {
		if d, ok := troopcfg.Get(t); ok {
			sum += d.CarryCapacity * n
		}
	}
	return sum
}

// CropUpkeep 部队每小时粮耗。
func (tc TroopCounts) CropUpkeep() float64 {
	sum := 0
	for t, n := range tc {
		if d, ok := troopcfg.Get(t); ok {
			sum += d.CropConsumption * n
		}
	}
	return float64(sum)
}

// SlowestSpeed 最慢兵种速度（格/小时）决定行军时长；空部队回退为 6。
func (tc TroopCounts) SlowestSpeed() int {
	slowest := 0
	for t, n := range tc {
		if n <= 0 {
			continue
		}
		d, ok := troopcfg.Get(t)
		if !ok {
			continue
		}
		if slowest == 0 || d.Speed < slowest {
			slowest = d.Speed
		}
	}
	if slowest == 0 {
		return 6
	}
	return slowest
}

// DominantTribe 部队的主导部族：按兵力最多的部族取，战斗时的部族
// 系数跟着主导部族走。并列或空部队按特殊部族处理（系数 1.0）。
func DominantTribe(tc TroopCounts) troopcfg.Tribe {
	counts := make(map[troopcfg.Tribe]int)
	for t, n := range tc {
		if n > 0 {
			counts[t.Tribe()] += n
		}
	}
	best := troopcfg.TribeSpecial
	bestCount := 0
	ordered := []troopcfg.Tribe{troopcfg.TribePhasuttha, troopcfg.TribeNava, troopcfg.TribeKiri}
	for _, tr := range ordered {
		if counts[tr] > bestCount {
			best, bestCount = tr, counts[tr]
		} else if counts[tr] == bestCount && bestCount > 0 {
			// 并列不给任何一方加成
			best = troopcfg.TribeSpecial
		}
	}
	return best
}
