package service

import (
	"context"
	"errors"
	"time"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
)

// VillageService 村庄只读视角：对外暴露“按流逝时间补算后”的当前资源量，
// 不写库，落库推进由资源结算节拍负责。
type VillageService struct {
	store port.Store
	now   func() time.Time
}

func NewVillageService(store port.Store) *VillageService {
	return &VillageService{store: store, now: time.Now}
}

type VillageView struct {
	ID           domain.VillageID `json:"id"`
	PlayerID     domain.PlayerID  `json:"player_id"`
	Name         string           `json:"name"`
	X            int              `json:"x"`
	Y            int              `json:"y"`
	IsCapital    bool             `json:"is_capital"`
	Resources    domain.Resources `json:"resources"`
	WoodRate     float64          `json:"wood_rate"`
	ClayRate     float64          `json:"clay_rate"`
	IronRate     float64          `json:"iron_rate"`
	CropRate     float64          `json:"crop_rate"`
	CropUpkeep   float64          `json:"crop_upkeep"`
	WarehouseCap float64          `json:"warehouse_cap"`
	GranaryCap   float64          `json:"granary_cap"`
	WallLevel    int              `json:"wall_level"`
	Loyalty      int              `json:"loyalty"`
}

type BuildingView struct {
	ID    domain.BuildingID `json:"id"`
	Type  string            `json:"type"`
	Slot  int               `json:"slot"`
	Level int               `json:"level"`
}

type GarrisonView struct {
	Type      string `json:"type"`
	Count     int    `json:"count"`
	InVillage int    `json:"in_village"`
	OnMission int    `json:"on_mission"`
}

func (s *VillageService) GetVillage(ctx context.Context, id domain.VillageID) (*VillageView, error) {
	v, err := s.store.Villages().Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVillageNotFound) {
			return nil, ErrVillageNotFound.WithData("village_id", id)
		}
		return nil, ErrUnavailable.WithCause(err)
	}

	return &VillageView{
		ID:           v.ID,
		PlayerID:     v.PlayerID,
		Name:         v.Name,
		X:            v.X,
		Y:            v.Y,
		IsCapital:    v.IsCapital,
		Resources:    v.ResourcesAt(s.now()),
		WoodRate:     v.WoodRate,
		ClayRate:     v.ClayRate,
		IronRate:     v.IronRate,
		CropRate:     v.CropRate,
		CropUpkeep:   v.CropUpkeep,
		WarehouseCap: v.WarehouseCap,
		GranaryCap:   v.GranaryCap,
		WallLevel:    v.WallLevel,
		Loyalty:      v.Loyalty,
	}, nil
}

func (s *VillageService) ListBuildings(ctx context.Context, id domain.VillageID) ([]BuildingView, error) {
	buildings, err := s.store.Buildings().ListByVillage(ctx, id)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	out := make([]BuildingView, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, BuildingView{
			ID:    b.ID,
			Type:  string(b.Type),
			Slot:  b.Slot,
			Level: b.Level,
		})
	}
	return out, nil
}

func (s *VillageService) ListGarrison(ctx context.Context, id domain.VillageID) ([]GarrisonView, error) {
	garrisons, err := s.store.Troops().GarrisonByVillage(ctx, id)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	out := make([]GarrisonView, 0, len(garrisons))
	for _, g := range garrisons {
		out = append(out, GarrisonView{
			Type:      string(g.Type),
			Count:     g.Count,
			InVillage: g.InVillage,
			OnMission: g.Count - g.InVillage,
		})
	}
	return out, nil
}
