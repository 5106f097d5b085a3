package domain

import "time"

type ReportID string

// BattleWinner 战报胜负标签。
type BattleWinner string

const (
	WinnerAttacker BattleWinner = "attacker"
	WinnerDefender BattleWinner = "defender"
	WinnerDraw     BattleWinner = "draw"
)

// BattleReport 战斗战报：双方战前快照、损失与掠夺，落档后不再修改，
// 只有双方的已读标记可翻转。
type BattleReport struct {
	ID              ReportID
	AttackerID      PlayerID
	DefenderID      PlayerID
	FromVillageID   VillageID
	TargetVillageID VillageID
	Mission         MissionKind
	AttackerTroops  TroopCounts
	DefenderTroops  TroopCounts
	AttackerLosses  TroopCounts
	DefenderLosses  TroopCounts
	Loot            Resources
	Winner          BattleWinner
	LoyaltyReduced  int
	Conquered       bool
	AttackerRead    bool
	DefenderRead    bool
	OccurredAt      time.Time
}

// ScoutIntel 侦察成功时附带的目标情报快照。
type ScoutIntel struct {
	Resources Resources   `json:"resources"`
	Troops    TroopCounts `json:"troops"`
}

type ScoutReport struct {
	ID              ReportID
	AttackerID      PlayerID
	DefenderID      PlayerID
	FromVillageID   VillageID
	TargetVillageID VillageID
	AttackerCount   int
	DefenderCount   int
	AttackerLosses  int
	DefenderLosses  int
	Success         bool
	Intel           *ScoutIntel // 失败时为 nil，只记损失
	AttackerRead    bool
	DefenderRead    bool
	OccurredAt      time.Time
}

// StarvationReport 饥荒裁军报告。饥荒是正常的游戏状态，不是错误。
type StarvationReport struct {
	ID          ReportID
	VillageID   VillageID
	PlayerID    PlayerID
	TroopsLost  TroopCounts
	CropDeficit float64
	Read        bool
	OccurredAt  time.Time
}
