package troopcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// TroopType 是封闭的兵种枚举：反序列化时遇到未知兵种直接报错，绝不静默吞掉。
type TroopType string

const (
	// 帕素塔（内陆部族）
	Infantry     TroopType = "infantry"
	Spearman     TroopType = "spearman"
	WarElephant  TroopType = "war_elephant"
	BuffaloWagon TroopType = "buffalo_wagon"
	// 纳瓦（海洋部族）
	KrisWarrior  TroopType = "kris_warrior"
	SeaDiver     TroopType = "sea_diver"
	WarPrahu     TroopType = "war_prahu"
	MerchantShip TroopType = "merchant_ship"
	// 基里（高地部族）
	Crossbowman     TroopType = "crossbowman"
	MountainWarrior TroopType = "mountain_warrior"
	HighlandPony    TroopType = "highland_pony"
	TrapMaker       TroopType = "trap_maker"
	// 特殊兵种
	SwampDragon         TroopType = "swamp_dragon"
	LocustSwarm         TroopType = "locust_swarm"
	BattleDuck          TroopType = "battle_duck"
	PortugueseMusketeer TroopType = "portuguese_musketeer"
	// 酋长（征服时降低忠诚度）
	RoyalAdvisor TroopType = "royal_advisor"
	HarborMaster TroopType = "harbor_master"
	ElderChief   TroopType = "elder_chief"
)

type Tribe string

const (
	TribePhasuttha Tribe = "phasuttha"
	TribeNava      Tribe = "nava"
	TribeKiri      Tribe = "kiri"
	TribeSpecial   Tribe = "special"
)

var allTroopTypes = map[TroopType]struct{}{
	Infantry: {}, Spearman: {}, WarElephant: {}, BuffaloWagon: {},
	KrisWarrior: {}, SeaDiver: {}, WarPrahu: {}, MerchantShip: {},
	Crossbowman: {}, MountainWarrior: {}, HighlandPony: {}, TrapMaker: {},
	SwampDragon: {}, LocustSwarm: {}, BattleDuck: {}, PortugueseMusketeer: {},
	RoyalAdvisor: {}, HarborMaster: {}, ElderChief: {},
}

// Parse 校验兵种名是否在封闭枚举内。
func Parse(s string) (TroopType, error) {
	t := TroopType(s)
	if _, ok := allTroopTypes[t]; !ok {
		return "", fmt.Errorf("unknown troop type %q", s)
	}
	return t, nil
}

func (t TroopType) Valid() bool {
	_, ok := allTroopTypes[t]
	return ok
}

func (t *TroopType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TroopType) Tribe() Tribe {
	switch t {
	case Infantry, Spearman, WarElephant, BuffaloWagon, RoyalAdvisor:
		return TribePhasuttha
	case KrisWarrior, SeaDiver, WarPrahu, MerchantShip, HarborMaster:
		return TribeNava
	case Crossbowman, MountainWarrior, HighlandPony, TrapMaker, ElderChief:
		return TribeKiri
	default:
		return TribeSpecial
	}
}

// 部族战斗系数沿用均衡/偏防/偏攻的划分：
// 帕苏塔均衡，纳瓦善守不善攻，基里善攻不善守，特殊单位无部族加成。

func (tr Tribe) AttackBonus() float64 {
	switch tr {
	case TribeNava:
		return 0.9
	case TribeKiri:
		return 1.1
	default:
		return 1.0
	}
}

func (tr Tribe) DefenseBonus() float64 {
	switch tr {
	case TribeNava:
		return 1.1
	case TribeKiri:
		return 0.9
	default:
		return 1.0
	}
}

// IsCavalry 决定该兵种进攻时吃防守方的哪条防御线（骑兵防御）。
func (t TroopType) IsCavalry() bool {
	switch t {
	case WarElephant, BuffaloWagon, HighlandPony, WarPrahu, MerchantShip:
		return true
	default:
		return false
	}
}

func (t TroopType) IsInfantry() bool {
	return !t.IsCavalry()
}

// IsChief 酋长类兵种：征服任务到达且获胜时降低目标忠诚度。
func (t TroopType) IsChief() bool {
	switch t {
	case RoyalAdvisor, HarborMaster, ElderChief:
		return true
	default:
		return false
	}
}

// Definition 兵种静态数据，引擎只读不写。
type Definition struct {
	Type                TroopType `json:"type"`
	Name                string    `json:"name"`
	Attack              int       `json:"attack"`
	DefenseInfantry     int       `json:"defense_infantry"`
	DefenseCavalry      int       `json:"defense_cavalry"`
	Speed               int       `json:"speed"` // 格/小时，侦察任务中兼作侦察效力
	CarryCapacity       int       `json:"carry_capacity"`
	CropConsumption     int       `json:"crop_consumption"`
	TrainingTimeSeconds int       `json:"training_time_seconds"`
	WoodCost            int       `json:"wood_cost"`
	ClayCost            int       `json:"clay_cost"`
	IronCost            int       `json:"iron_cost"`
	CropCost            int       `json:"crop_cost"`
	RequiredBuilding    string    `json:"required_building"`
	RequiredBuildingLvl int       `json:"required_building_level"`
	LoyaltyReduction    int       `json:"loyalty_reduction"`
}

const troopDataFile = "Troops.json"

type troopConf struct {
	List        []Definition `json:"list"`
	definitions map[TroopType]*Definition
}

var TroopConf = &troopConf{}

func Load() {
	TroopConf.Load()
}

func (c *troopConf) Load() {
	if c == nil {
		panic("load Troops config failed: TroopConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Troops config failed: runtime.Caller(0) error")
	}

	path := filepath.Join(filepath.Dir(file), troopDataFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("load Troops config failed: read %q: %w", path, err))
	}
	// TroopType 的 UnmarshalJSON 会对未知兵种直接报错。
	if err := json.Unmarshal(raw, c); err != nil {
		panic(fmt.Errorf("load Troops config failed: unmarshal %q: %w", path, err))
	}

	c.definitions = make(map[TroopType]*Definition, len(c.List))
	for i := range c.List {
		d := &c.List[i]
		if !d.Type.Valid() {
			panic(fmt.Errorf("load Troops config failed: unknown troop type %q", d.Type))
		}
		if _, exists := c.definitions[d.Type]; exists {
			panic(fmt.Errorf("load Troops config failed: duplicate troop type %q", d.Type))
		}
		c.definitions[d.Type] = d
	}
	for t := range allTroopTypes {
		if _, ok := c.definitions[t]; !ok {
			panic(fmt.Errorf("load Troops config failed: missing definition for %q", t))
		}
	}
}

func (c *troopConf) Get(t TroopType) (*Definition, bool) {
	if c == nil || c.definitions == nil {
		return nil, false
	}
	d, ok := c.definitions[t]
	return d, ok
}

func Get(t TroopType) (*Definition, bool) {
	return TroopConf.Get(t)
}

// All 返回全部兵种定义（遍历用，勿修改返回值）。
func All() []Definition {
	return TroopConf.List
}
