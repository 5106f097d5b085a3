package model

import "time"

// 战报文档。归档后不可变，只有 read 标记会被更新。
type BattleReportDoc struct {
	ID              string         `bson:"_id"`
	AttackerID      int64          `bson:"attacker_id"`
	DefenderID      int64          `bson:"defender_id"`
	FromVillageID   int64          `bson:"from_village_id"`
	TargetVillageID int64          `bson:"target_village_id"`
	Mission         string         `bson:"mission"`
	AttackerTroops  map[string]int `bson:"attacker_troops"`
	DefenderTroops  map[string]int `bson:"defender_troops"`
	AttackerLosses  map[string]int `bson:"attacker_losses"`
	DefenderLosses  map[string]int `bson:"defender_losses"`
	LootWood        float64        `bson:"loot_wood"`
	LootClay        float64        `bson:"loot_clay"`
	LootIron        float64        `bson:"loot_iron"`
	LootCrop        float64        `bson:"loot_crop"`
	Winner          string         `bson:"winner"`
	LoyaltyReduced  int            `bson:"loyalty_reduced"`
	Conquered       bool           `bson:"conquered"`
	AttackerRead    bool           `bson:"attacker_read"`
	DefenderRead    bool           `bson:"defender_read"`
	OccurredAt      time.Time      `bson:"occurred_at"`
}

type ScoutIntelDoc struct {
	Wood   float64        `bson:"wood"`
	Clay   float64        `bson:"clay"`
	Iron   float64        `bson:"iron"`
	Crop   float64        `bson:"crop"`
	Troops map[string]int `bson:"troops"`
}

type ScoutReportDoc struct {
	ID              string         `bson:"_id"`
	AttackerID      int64          `bson:"attacker_id"`
	DefenderID      int64          `bson:"defender_id"`
	FromVillageID   int64          `bson:"from_village_id"`
	TargetVillageID int64          `bson:"target_village_id"`
	AttackerCount   int            `bson:"attacker_count"`
	DefenderCount   int            `bson:"defender_count"`
	AttackerLosses  int            `bson:"attacker_losses"`
	DefenderLosses  int            `bson:"defender_losses"`
	Success         bool           `bson:"success"`
	Intel           *ScoutIntelDoc `bson:"intel,omitempty"`
	AttackerRead    bool           `bson:"attacker_read"`
	DefenderRead    bool           `bson:"defender_read"`
	OccurredAt      time.Time      `bson:"occurred_at"`
}

type StarvationReportDoc struct {
	ID          string         `bson:"_id"`
	VillageID   int64          `bson:"village_id"`
	PlayerID    int64          `bson:"player_id"`
	TroopsLost  map[string]int `bson:"troops_lost"`
	CropDeficit float64        `bson:"crop_deficit"`
	Read        bool           `bson:"read"`
	OccurredAt  time.Time      `bson:"occurred_at"`
}
