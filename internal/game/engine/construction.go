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

// ConstructionProcessor 完成到期的建筑升级，并推动该村的下一个排队条目。
type ConstructionProcessor struct {
	store port.Store
	pub   port.Publisher
	log   logx.Logger
	now   func() time.Time
}

func NewConstructionProcessor(store port.Store, pub port.Publisher, l logx.Logger) *ConstructionProcessor {
	return &ConstructionProcessor{store: store, pub: pub, log: l, now: time.Now}
}

func (p *ConstructionProcessor) Name() string { return "construction_queue" }

func (p *ConstructionProcessor) Run(ctx context.Context) error {
	const op = "engine.ConstructionProcessor.Run"

	now := p.now()
	due, err := p.store.Buildings().DueConstruction(ctx, now)
	if err != nil {
		return errs.Wrap(op, errs.KindInfra, err, nil)
	}

	for _, entry := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ev, err := p.completeOne(ctx, entry, now)
		if err != nil {
			if errs.KindOf(err) == errs.KindIntegrity {
				// 数据完整性问题只影响单个条目，批次其余部分照常
				p.log.Error("construction entry skipped",
					zap.Int64("entry_id", int64(entry.ID)), zap.Error(err))
				continue
			}
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"entry_id": entry.ID})
		}
		p.pub.Publish(hub.VillageChannel(entry.VillageID), ev)
	}
	return nil
}

func (p *ConstructionProcessor) completeOne(ctx context.Context, entry *domain.ConstructionQueueEntry, now time.Time) (domain.Event, error) {
	const op = "engine.ConstructionProcessor.completeOne"

	var ev domain.Event
	// 悬空条目的清理必须随事务提交，跳过原因带到事务外再返回
	var skip error
	err := p.store.WithTx(ctx, func(tx port.Store) error {
		v, err := tx.Villages().GetForUpdate(ctx, entry.VillageID)
		if err != nil {
			if errors.Is(err, domain.ErrVillageNotFound) {
				// 条目指向已删除的村庄：清掉条目本身
				skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrDanglingEntity,
					map[string]any{"village_id": entry.VillageID})
				return tx.Buildings().DeleteQueueEntry(ctx, entry.ID)
			}
			return err
		}

		b, err := tx.Buildings().Get(ctx, entry.BuildingID)
		if err != nil {
			return err
		}

		// 升级生效前先把资源结算推进到现在，避免新产量吃到旧时段
		v.AccrueTo(now)

		b.Level++
		if err := tx.Buildings().Save(ctx, b); err != nil {
			return err
		}
		if err := tx.Buildings().DeleteQueueEntry(ctx, entry.ID); err != nil {
			return err
		}

		buildings, err := tx.Buildings().ListByVillage(ctx, v.ID)
		if err != nil {
			return err
		}
		recomputeDerivedStats(v, buildings)
		if err := tx.Villages().Save(ctx, v); err != nil {
			return err
		}

		// 还有排队条目就提升下一个。资源在入队时已扣，这里不重新校验
		next, err := tx.Buildings().NextQueued(ctx, v.ID)
		if err != nil {
			return err
		}
		if next != nil {
			next.Promote(now)
			if err := tx.Buildings().SaveQueueEntry(ctx, next); err != nil {
				return err
			}
		}

		ev = domain.NewBuildingCompleteEvent(domain.BuildingCompleteData{
			VillageID:  v.ID,
			BuildingID: b.ID,
			Type:       string(b.Type),
			Level:      b.Level,
		}, now)
		return nil
	})
	if err != nil {
		return ev, err
	}
	return ev, skip
}
