package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/modules/kit/logx"
)

// StarvationProcessor 饥荒处理：负粮村庄从最廉价兵种开始裁军，
// 直到粮耗回到产量以内，然后把粮清零。饥荒是游戏状态，不是错误。
type StarvationProcessor struct {
	store   port.Store
	reports port.ReportRepository
	pub     port.Publisher
	log     logx.Logger
	now     func() time.Time
}

func NewStarvationProcessor(store port.Store, reports port.ReportRepository, pub port.Publisher, l logx.Logger) *StarvationProcessor {
	return &StarvationProcessor{store: store, reports: reports, pub: pub, log: l, now: time.Now}
}

func (p *StarvationProcessor) Name() string { return "starvation" }

func (p *StarvationProcessor) Run(ctx context.Context) error {
	const op = "engine.StarvationProcessor.Run"

	ids, err := p.store.Villages().ListIDs(ctx)
	if err != nil {
		return errs.Wrap(op, errs.KindInfra, err, nil)
	}

	now := p.now()
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report, ev, err := p.checkOne(ctx, id, now)
		if err != nil {
			if errors.Is(err, domain.ErrVillageNotFound) {
				continue
			}
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"village_id": id})
		}
		if report == nil {
			continue
		}
		if err := p.reports.SaveStarvationReport(ctx, report); err != nil {
			p.log.Error("archive starvation report failed",
				zap.String("report_id", string(report.ID)), zap.Error(err))
		}
		p.pub.Publish(hub.VillageChannel(id), ev)
	}
	return nil
}

func (p *StarvationProcessor) checkOne(ctx context.Context, id domain.VillageID, now time.Time) (*domain.StarvationReport, domain.Event, error) {
	var report *domain.StarvationReport
	var ev domain.Event

	err := p.store.WithTx(ctx, func(tx port.Store) error {
		v, err := tx.Villages().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		v.AccrueTo(now)
		if v.Resources.Crop >= 0 {
			// 没有饥荒也要把结算落库，保持 LastSyncAt 前移
			return tx.Villages().Save(ctx, v)
		}

		deficit := -v.Resources.Crop

		garrisons, err := tx.Troops().GarrisonByVillage(ctx, v.ID)
		if err != nil {
			return err
		}
		counts := make(domain.TroopCounts)
		for _, g := range garrisons {
			if g.InVillage > 0 {
				counts[g.Type] = g.InVillage
			}
		}

		losses := domain.CullForStarvation(counts, deficit)
		for t, n := range losses {
			if err := tx.Troops().KillTroops(ctx, v.ID, t, n); err != nil {
				return err
			}
		}

		v.Resources.Crop = 0
		if err := syncCropUpkeep(ctx, tx, v); err != nil {
			return err
		}
		if err := tx.Villages().Save(ctx, v); err != nil {
			return err
		}

		if losses.Total() > 0 {
			report = &domain.StarvationReport{
				ID:          domain.ReportID(uuid.NewString()),
				VillageID:   v.ID,
				PlayerID:    v.PlayerID,
				TroopsLost:  losses,
				CropDeficit: deficit,
				OccurredAt:  now,
			}
			ev = domain.NewResourceUpdateEvent(domain.ResourceUpdateData{
				VillageID: v.ID,
				Resources: v.Resources,
				WoodRate:  v.WoodRate,
				ClayRate:  v.ClayRate,
				IronRate:  v.IronRate,
				CropRate:  v.CropRate,
			}, now)
		}
		return nil
	})
	return report, ev, err
}
