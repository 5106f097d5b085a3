package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"SiamKingdoms/internal/game/domain"
)

type fakeReportRepo struct {
	battles map[domain.ReportID]*domain.BattleReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{battles: make(map[domain.ReportID]*domain.BattleReport)}
}

func (r *fakeReportRepo) SaveBattleReport(ctx context.Context, br *domain.BattleReport) error {
	r.battles[br.ID] = br
	return nil
}

func (r *fakeReportRepo) SaveScoutReport(ctx context.Context, sr *domain.ScoutReport) error {
	return nil
}

func (r *fakeReportRepo) SaveStarvationReport(ctx context.Context, sr *domain.StarvationReport) error {
	return nil
}

func (r *fakeReportRepo) ListBattleReports(ctx context.Context, playerID domain.PlayerID, limit int) ([]*domain.BattleReport, error) {
	var out []*domain.BattleReport
	for _, br := range r.battles {
		if br.AttackerID == playerID || br.DefenderID == playerID {
			out = append(out, br)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReportRepo) GetBattleReport(ctx context.Context, id domain.ReportID) (*domain.BattleReport, error) {
	br, ok := r.battles[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return br, nil
}

func (r *fakeReportRepo) MarkBattleReportRead(ctx context.Context, id domain.ReportID, playerID domain.PlayerID) error {
	br, ok := r.battles[id]
	if !ok {
		return domain.ErrReportNotFound
	}
	switch playerID {
	case br.AttackerID:
		br.AttackerRead = true
	case br.DefenderID:
		br.DefenderRead = true
	default:
		return domain.ErrReportNotFound
	}
	return nil
}

func (r *fakeReportRepo) CountUnreadBattleReports(ctx context.Context, playerID domain.PlayerID) (int64, error) {
	var n int64
	for _, br := range r.battles {
		if (br.AttackerID == playerID && !br.AttackerRead) ||
			(br.DefenderID == playerID && !br.DefenderRead) {
			n++
		}
	}
	return n, nil
}

func battleReport(id domain.ReportID, attacker, defender domain.PlayerID) *domain.BattleReport {
	return &domain.BattleReport{
		ID:         id,
		AttackerID: attacker,
		DefenderID: defender,
		Mission:    domain.MissionAttack,
		Winner:     domain.WinnerAttacker,
		OccurredAt: time.Now(),
	}
}

func TestListBattleReports_只看到当事战报(t *testing.T) {
	repo := newFakeReportRepo()
	repo.battles["r1"] = battleReport("r1", 100, 200)
	repo.battles["r2"] = battleReport("r2", 300, 100)
	repo.battles["r3"] = battleReport("r3", 300, 400)

	svc := NewReportService(repo)
	out, err := svc.ListBattleReports(context.Background(), 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("reports = %d, want 2", len(out))
	}
}

func TestGetBattleReport_非当事人拒绝(t *testing.T) {
	repo := newFakeReportRepo()
	repo.battles["r1"] = battleReport("r1", 100, 200)

	svc := NewReportService(repo)
	if _, err := svc.GetBattleReport(context.Background(), 100, "r1"); err != nil {
		t.Fatalf("attacker should read own report: %v", err)
	}
	if _, err := svc.GetBattleReport(context.Background(), 999, "r1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestGetBattleReport_战报不存在(t *testing.T) {
	svc := NewReportService(newFakeReportRepo())
	_, err := svc.GetBattleReport(context.Background(), 100, "missing")
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("err = %v, want ErrReportNotFound", err)
	}
}

func TestMarkBattleReportRead_只翻自己的标记(t *testing.T) {
	repo := newFakeReportRepo()
	br := battleReport("r1", 100, 200)
	repo.battles["r1"] = br

	svc := NewReportService(repo)
	if err := svc.MarkBattleReportRead(context.Background(), 200, "r1"); err != nil {
		t.Fatal(err)
	}
	if !br.DefenderRead {
		t.Fatal("defender read flag not set")
	}
	if br.AttackerRead {
		t.Fatal("attacker read flag should stay untouched")
	}
}

func TestUnreadBattleReports_只数自己的未读(t *testing.T) {
	repo := newFakeReportRepo()
	repo.battles["r1"] = battleReport("r1", 100, 200)
	repo.battles["r2"] = battleReport("r2", 100, 300)
	read := battleReport("r3", 400, 100)
	read.DefenderRead = true
	repo.battles["r3"] = read

	svc := NewReportService(repo)
	n, err := svc.UnreadBattleReports(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	// r1、r2 是攻方未读，r3 守方标记已翻
	if n != 2 {
		t.Fatalf("unread = %d, want 2", n)
	}
}
