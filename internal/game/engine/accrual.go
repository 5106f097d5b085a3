package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"SiamKingdoms/internal/game/app/port"
	"SiamKingdoms/internal/game/domain"
	"SiamKingdoms/internal/game/errs"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/modules/kit/logx"
)

// AccrualProcessor 资源结算：把每个村庄的资源存量推进到当前时刻。
// 幂等：同一时刻跑两遍，第二遍 elapsed 为零，不产生任何变化。
type AccrualProcessor struct {
	store port.Store
	pub   port.Publisher
	log   logx.Logger
	now   func() time.Time
}

func NewAccrualProcessor(store port.Store, pub port.Publisher, l logx.Logger) *AccrualProcessor {
	return &AccrualProcessor{store: store, pub: pub, log: l, now: time.Now}
}

func (p *AccrualProcessor) Name() string { return "resource_accrual" }

func (p *AccrualProcessor) Run(ctx context.Context) error {
	const op = "engine.AccrualProcessor.Run"

	ids, err := p.store.Villages().ListIDs(ctx)
	if err != nil {
		return errs.Wrap(op, errs.KindInfra, err, nil)
	}

	now := p.now()
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ev, err := p.accrueOne(ctx, id, now)
		if err != nil {
			if errors.Is(err, domain.ErrVillageNotFound) {
				// 批次扫描和结算之间村庄被删：跳过即可
				continue
			}
			// 瞬时持久层错误中止整批，下一轮重试
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"village_id": id})
		}
		p.pub.Publish(hub.VillageChannel(id), ev)
	}
	return nil
}

func (p *AccrualProcessor) accrueOne(ctx context.Context, id domain.VillageID, now time.Time) (domain.Event, error) {
	var ev domain.Event
	err := p.store.WithTx(ctx, func(tx port.Store) error {
		v, err := tx.Villages().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		v.AccrueTo(now)
		if err := tx.Villages().Save(ctx, v); err != nil {
			return err
		}
		ev = domain.NewResourceUpdateEvent(domain.ResourceUpdateData{
			VillageID: v.ID,
			Resources: v.Resources,
			WoodRate:  v.WoodRate,
			ClayRate:  v.ClayRate,
			IronRate:  v.IronRate,
			CropRate:  v.CropRate,
		}, now)
		return nil
	})
	if err != nil {
		p.log.Error("accrue village failed", zap.Int64("village_id", int64(id)), zap.Error(err))
	}
	return ev, err
}
