package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type ArmyID int64

// MissionKind 封闭的任务枚举。
type MissionKind string

const (
	MissionRaid    MissionKind = "raid"
	MissionAttack  MissionKind = "attack"
	MissionConquer MissionKind = "conquer"
	MissionSupport MissionKind = "support"
	MissionScout   MissionKind = "scout"
	MissionSettle  MissionKind = "settle"
)

var allMissionKinds = map[MissionKind]struct{}{
	MissionRaid: {}, MissionAttack: {}, MissionConquer: {},
	MissionSupport: {}, MissionScout: {}, MissionSettle: {},
}

func ParseMissionKind(s string) (MissionKind, error) {
	m := MissionKind(s)
	if _, ok := allMissionKinds[m]; !ok {
		return "", fmt.Errorf("unknown mission kind %q", s)
	}
	return m, nil
}

func (m MissionKind) Valid() bool {
	_, ok := allMissionKinds[m]
	return ok
}

func (m *MissionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMissionKind(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsHostile 是否走战斗结算。
func (m MissionKind) IsHostile() bool {
	switch m {
	case MissionRaid, MissionAttack, MissionConquer:
		return true
	default:
		return false
	}
}

// Army 一次行军。到达结算前不可变；结算后要么删除、要么转为驻防、要么挂上返程。
// 不变式：兵力总数 > 0。
type Army struct {
	ID            ArmyID
	PlayerID      PlayerID
	FromVillageID VillageID
	ToVillageID   VillageID // 0 表示目标是空地
	ToX           int
	ToY           int
	Mission       MissionKind
	Troops        TroopCounts
	Carried       Resources
	DepartedAt    time.Time
	ArrivesAt     time.Time
	ReturningAt   time.Time // 零值表示尚未踏上返程
	Stationed     bool      // support 到达后驻防，等待召回
	Returning     bool
}

// Distance 欧氏距离（格）。
func Distance(x1, y1, x2, y2 int) float64 {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	return math.Sqrt(dx*dx + dy*dy)
}

// TravelDuration 行军时长 = 距离 / 最慢兵种速度（格/小时），至少 1 分钟。
func TravelDuration(distance float64, troops TroopCounts) time.Duration {
	speed := troops.SlowestSpeed()
	seconds := int64(distance / float64(speed) * 3600)
	if seconds < 60 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}
