package buildingcfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
)

// BuildingType 是封闭的建筑枚举，未知建筑在反序列化时直接报错。
type BuildingType string

const (
	// 村庄建筑
	MainBuilding BuildingType = "main_building"
	Warehouse    BuildingType = "warehouse"
	Granary      BuildingType = "granary"
	Barracks     BuildingType = "barracks"
	Stable       BuildingType = "stable"
	Workshop     BuildingType = "workshop"
	Academy      BuildingType = "academy"
	Smithy       BuildingType = "smithy"
	RallyPoint   BuildingType = "rally_point"
	Market       BuildingType = "market"
	Embassy      BuildingType = "embassy"
	TownHall     BuildingType = "town_hall"
	Residence    BuildingType = "residence"
	Palace       BuildingType = "palace"
	Treasury     BuildingType = "treasury"
	TradeOffice  BuildingType = "trade_office"
	Wall         BuildingType = "wall"
	// 资源田
	Woodcutter BuildingType = "woodcutter"
	ClayPit    BuildingType = "clay_pit"
	IronMine   BuildingType = "iron_mine"
	CropField  BuildingType = "crop_field"
)

var allBuildingTypes = map[BuildingType]struct{}{
	MainBuilding: {}, Warehouse: {}, Granary: {}, Barracks: {}, Stable: {},
	Workshop: {}, Academy: {}, Smithy: {}, RallyPoint: {}, Market: {},
	Embassy: {}, TownHall: {}, Residence: {}, Palace: {}, Treasury: {},
	TradeOffice: {}, Wall: {},
	Woodcutter: {}, ClayPit: {}, IronMine: {}, CropField: {},
}

func Parse(s string) (BuildingType, error) {
	t := BuildingType(s)
	if _, ok := allBuildingTypes[t]; !ok {
		return "", fmt.Errorf("unknown building type %q", s)
	}
	return t, nil
}

func (t BuildingType) Valid() bool {
	_, ok := allBuildingTypes[t]
	return ok
}

func (t *BuildingType) UnmarshalJSON(data []byte) error {
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

// IsResourceField 资源田升级会改变村庄对应资源的小时产量。
func (t BuildingType) IsResourceField() bool {
	switch t {
	case Woodcutter, ClayPit, IronMine, CropField:
		return true
	default:
		return false
	}
}

func (t BuildingType) MaxLevel() int {
	return 20
}

type Cost struct {
	Wood        int `json:"wood"`
	Clay        int `json:"clay"`
	Iron        int `json:"iron"`
	Crop        int `json:"crop"`
	TimeSeconds int `json:"time_seconds"`
}

var baseCostOverrides = map[BuildingType]Cost{}

const overrideDataFile = "Buildings.json"

// LoadOverrides 读取同目录下的 Buildings.json 覆盖一级造价，
// 文件不存在时沿用内置数值，内容非法直接 panic。启动期调用一次。
func LoadOverrides() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Buildings config failed: runtime.Caller(0) error")
	}
	path := filepath.Join(filepath.Dir(file), overrideDataFile)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		panic(fmt.Errorf("load Buildings config failed: read %q: %w", path, err))
	}
	if err := applyOverrides(raw); err != nil {
		panic(fmt.Errorf("load Buildings config failed: %w", err))
	}
}

func applyOverrides(raw []byte) error {
	var in map[string]Cost
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	out := make(map[BuildingType]Cost, len(in))
	for k, c := range in {
		t, err := Parse(k)
		if err != nil {
			return err
		}
		out[t] = c
	}
	baseCostOverrides = out
	return nil
}

// BaseCost 一级造价。Buildings.json 里的覆盖值优先。
func (t BuildingType) BaseCost() Cost {
	if c, ok := baseCostOverrides[t]; ok {
		return c
	}
	switch t {
	case MainBuilding:
		return Cost{Wood: 70, Clay: 40, Iron: 60, Crop: 20, TimeSeconds: 300}
	case Warehouse:
		return Cost{Wood: 130, Clay: 160, Iron: 90, Crop: 40, TimeSeconds: 400}
	case Granary:
		return Cost{Wood: 80, Clay: 100, Iron: 70, Crop: 20, TimeSeconds: 350}
	case Barracks:
		return Cost{Wood: 210, Clay: 140, Iron: 260, Crop: 120, TimeSeconds: 600}
	case RallyPoint:
		return Cost{Wood: 110, Clay: 160, Iron: 90, Crop: 70, TimeSeconds: 250}
	case Market:
		return Cost{Wood: 80, Clay: 70, Iron: 120, Crop: 70, TimeSeconds: 400}
	case Woodcutter:
		return Cost{Wood: 40, Clay: 100, Iron: 50, Crop: 60, TimeSeconds: 260}
	case ClayPit:
		return Cost{Wood: 80, Clay: 40, Iron: 80, Crop: 50, TimeSeconds: 220}
	case IronMine:
		return Cost{Wood: 100, Clay: 80, Iron: 30, Crop: 60, TimeSeconds: 450}
	case CropField:
		return Cost{Wood: 70, Clay: 90, Iron: 70, Crop: 20, TimeSeconds: 150}
	default:
		return Cost{Wood: 100, Clay: 100, Iron: 100, Crop: 50, TimeSeconds: 300}
	}
}

// CostAtLevel 升到 level 级的造价：逐级按 1.28 指数放大。
func (t BuildingType) CostAtLevel(level int) Cost {
	base := t.BaseCost()
	m := math.Pow(1.28, float64(level-1))
	return Cost{
		Wood:        int(float64(base.Wood) * m),
		Clay:        int(float64(base.Clay) * m),
		Iron:        int(float64(base.Iron) * m),
		Crop:        int(float64(base.Crop) * m),
		TimeSeconds: int(float64(base.TimeSeconds) * m),
	}
}

// ProductionPerHour 资源田小时产量；非资源田恒为 0。
func (t BuildingType) ProductionPerHour(level int) int {
	if !t.IsResourceField() {
		return 0
	}
	if level <= 0 {
		return 0
	}
	l := float64(level - 1)
	return int(3 * math.Pow(1.63, l) * math.Pow(1.0034, l*l))
}

// StorageCapacity 仓库/粮仓在给定等级下的容量；0 级为基础容量 800。
func (t BuildingType) StorageCapacity(level int) int {
	if level == 0 {
		return 800
	}
	switch t {
	case Warehouse, Granary:
		return int(400 * math.Pow(1.2, float64(level)))
	default:
		return 0
	}
}

// WallBonus 城墙防御加成系数：每级 +3%。
func WallBonus(wallLevel int) float64 {
	if wallLevel <= 0 {
		return 0
	}
	return 0.03 * float64(wallLevel)
}
