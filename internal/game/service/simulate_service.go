package service

import (
	"context"

	"SiamKingdoms/internal/game/domain"
)

// SimulateService 战斗模拟预览：与真实结算共用同一个纯函数，
// 不触碰任何持久状态，同样输入必得同样结果。
type SimulateService struct{}

func NewSimulateService() *SimulateService {
	return &SimulateService{}
}

type SimulateBattleReq struct {
	Mission           domain.MissionKind `json:"mission"`
	Attacker          domain.TroopCounts `json:"attacker"`
	Defender          domain.TroopCounts `json:"defender"`
	DefenderWallLevel int                `json:"defender_wall_level"`
}

type SimulateBattleResp struct {
	AttackerWins      bool               `json:"attacker_wins"`
	Draw              bool               `json:"draw"`
	AttackerPower     float64            `json:"attacker_power"`
	DefenderPower     float64            `json:"defender_power"`
	AttackerLosses    domain.TroopCounts `json:"attacker_losses"`
	DefenderLosses    domain.TroopCounts `json:"defender_losses"`
	AttackerSurvivors domain.TroopCounts `json:"attacker_survivors"`
	DefenderSurvivors domain.TroopCounts `json:"defender_survivors"`
}

func (s *SimulateService) SimulateBattle(ctx context.Context, req SimulateBattleReq) (*SimulateBattleResp, error) {
	mission := req.Mission
	if mission == "" {
		mission = domain.MissionAttack
	}
	if !mission.Valid() || !mission.IsHostile() {
		return nil, ErrInvalidRequest.WithData("reason", "仅支持敌对任务的模拟")
	}

	// 部族系数与真实结算同源：按双方主导部族取
	res, err := domain.ResolveBattle(domain.BattleInput{
		Mission:              mission,
		Attacker:             req.Attacker,
		Defender:             req.Defender,
		DefenderWallLevel:    req.DefenderWallLevel,
		AttackerAttackBonus:  domain.DominantTribe(req.Attacker).AttackBonus(),
		DefenderDefenseBonus: domain.DominantTribe(req.Defender).DefenseBonus(),
	})
	if err != nil {
		return nil, ErrEmptyForce.WithCause(err)
	}

	return &SimulateBattleResp{
		AttackerWins:      res.AttackerWins,
		Draw:              res.Draw,
		AttackerPower:     res.AttackerPower,
		DefenderPower:     res.DefenderPower,
		AttackerLosses:    res.AttackerLosses,
		DefenderLosses:    res.DefenderLosses,
		AttackerSurvivors: res.AttackerSurvivors,
		DefenderSurvivors: res.DefenderSurvivors,
	}, nil
}
