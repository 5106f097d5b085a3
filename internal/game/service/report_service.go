package service

import (
	"context"
	"errors"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
)

// ReportService 战报查询与已读标记。战报归档后不可变，只有已读标记可翻。
type ReportService struct {
	reports port.ReportRepository
}

func NewReportService(reports port.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

const defaultReportLimit = 50

func (s *ReportService) ListBattleReports(ctx context.Context, playerID domain.PlayerID, limit int) ([]*domain.BattleReport, error) {
	if limit <= 0 || limit > defaultReportLimit {
		limit = defaultReportLimit
	}
	out, err := s.reports.ListBattleReports(ctx, playerID, limit)
	if err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}
	return out, nil
}

func (s *ReportService) GetBattleReport(ctx context.Context, playerID domain.PlayerID, id domain.ReportID) (*domain.BattleReport, error) {
	r, err := s.reports.GetBattleReport(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			return nil, ErrReportNotFound.WithData("report_id", id)
		}
		return nil, ErrUnavailable.WithCause(err)
	}
	if r.AttackerID != playerID && r.DefenderID != playerID {
		return nil, ErrNotOwner.WithData("report_id", id)
	}
	return r, nil
}

// UnreadBattleReports 当事人未读战报数，客户端角标用。
func (s *ReportService) UnreadBattleReports(ctx context.Context, playerID domain.PlayerID) (int64, error) {
	n, err := s.reports.CountUnreadBattleReports(ctx, playerID)
	if err != nil {
		return 0, ErrUnavailable.WithCause(err)
	}
	return n, nil
}

// MarkBattleReportRead 只翻当事一方自己的已读标记。
func (s *ReportService) MarkBattleReportRead(ctx context.Context, playerID domain.PlayerID, id domain.ReportID) error {
	r, err := s.GetBattleReport(ctx, playerID, id)
	if err != nil {
		return err
	}
	if err := s.reports.MarkBattleReportRead(ctx, r.ID, playerID); err != nil {
		return ErrUnavailable.WithCause(err)
	}
	return nil
}
