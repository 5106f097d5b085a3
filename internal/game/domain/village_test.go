package domain

import (
	"testing"
	"time"
)

func baseVillage(t0 time.Time) *Village {
	return &Village{
		ID:           1,
		PlayerID:     100,
		WoodRate:     60,
		ClayRate:     60,
		IronRate:     60,
		CropRate:     30,
		WarehouseCap: 800,
		GranaryCap:   800,
		Loyalty:      LoyaltyMax,
		LastSyncAt:   t0,
	}
}

func TestAccrueTo_按流逝时间产资源(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := baseVillage(t0)

	v.AccrueTo(t0.Add(time.Hour))
	if v.Resources.Wood != 60 || v.Resources.Clay != 60 || v.Resources.Iron != 60 {
		t.Fatalf("resources after 1h = %+v, want 60/60/60", v.Resources)
	}
	if v.Resources.Crop != 30 {
		t.Fatalf("crop after 1h = %v, want 30", v.Resources.Crop)
	}
}

func TestAccrueTo_幂等且不倒流(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := baseVillage(t0)
	now := t0.Add(time.Hour)

	v.AccrueTo(now)
	snapshot := v.Resources
	// 同一时刻重复结算不再变化
	v.AccrueTo(now)
	if v.Resources != snapshot {
		t.Fatalf("second accrual changed resources: %+v -> %+v", snapshot, v.Resources)
	}
	// 时间回拨也不产生变化
	v.AccrueTo(now.Add(-30 * time.Minute))
	if v.Resources != snapshot {
		t.Fatalf("backwards accrual changed resources: %+v", v.Resources)
	}
}

func TestAccrueTo_仓库容量封顶(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := baseVillage(t0)

	v.AccrueTo(t0.Add(100 * time.Hour))
	if v.Resources.Wood != 800 {
		t.Fatalf("wood = %v, want capped at 800", v.Resources.Wood)
	}
	if v.Resources.Crop != 800 {
		t.Fatalf("crop = %v, want capped at 800", v.Resources.Crop)
	}
}

func TestAccrueTo_粮耗超产出允许负粮(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := baseVillage(t0)
	v.Resources.Crop = 10
	v.CropRate = 0
	v.CropUpkeep = 130

	v.AccrueTo(t0.Add(time.Hour))
	if v.Resources.Crop != -120 {
		t.Fatalf("crop = %v, want -120（负粮是饥荒信号，不抹零）", v.Resources.Crop)
	}
	// 木/泥/铁仍被夹在下限 0
	if v.Resources.Wood < 0 {
		t.Fatalf("wood = %v, want >= 0", v.Resources.Wood)
	}
}

func TestResourcesAt_只读不落库(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := baseVillage(t0)

	got := v.ResourcesAt(t0.Add(time.Hour))
	if got.Wood != 60 {
		t.Fatalf("read view wood = %v, want 60", got.Wood)
	}
	if v.Resources.Wood != 0 || !v.LastSyncAt.Equal(t0) {
		t.Fatalf("aggregate mutated by read view: %+v sync=%v", v.Resources, v.LastSyncAt)
	}
}

func TestReduceLoyalty_降到零触发征服(t *testing.T) {
	v := baseVillage(time.Now())
	v.Loyalty = 40

	if conquered := v.ReduceLoyalty(25); conquered {
		t.Fatal("loyalty 15 should not be conquered yet")
	}
	if v.Loyalty != 15 {
		t.Fatalf("loyalty = %d, want 15", v.Loyalty)
	}
	if conquered := v.ReduceLoyalty(30); !conquered {
		t.Fatal("loyalty reaching 0 should trigger conquest")
	}
	if v.Loyalty != 0 {
		t.Fatalf("loyalty = %d, want 0", v.Loyalty)
	}
}

func TestTransferOwnership_忠诚度重置二十五(t *testing.T) {
	v := baseVillage(time.Now())
	v.ReduceLoyalty(LoyaltyMax)
	v.TransferOwnership(200)

	if v.PlayerID != 200 {
		t.Fatalf("owner = %d, want 200", v.PlayerID)
	}
	if v.Loyalty != LoyaltyAfterConquer {
		t.Fatalf("loyalty = %d, want %d", v.Loyalty, LoyaltyAfterConquer)
	}
}
