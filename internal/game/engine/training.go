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

// TrainingProcessor 完成到期的训练条目，把新兵补进驻军。
type TrainingProcessor struct {
	store port.Store
	pub   port.Publisher
	log   logx.Logger
	now   func() time.Time
}

func NewTrainingProcessor(store port.Store, pub port.Publisher, l logx.Logger) *TrainingProcessor {
	return &TrainingProcessor{store: store, pub: pub, log: l, now: time.Now}
}

func (p *TrainingProcessor) Name() string { return "troop_training" }

func (p *TrainingProcessor) Run(ctx context.Context) error {
	const op = "engine.TrainingProcessor.Run"

	now := p.now()
	due, err := p.store.Troops().DueTraining(ctx, now)
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
				p.log.Error("training entry skipped",
					zap.Int64("entry_id", int64(entry.ID)), zap.Error(err))
				continue
			}
			return errs.Wrap(op, errs.KindInfra, err, map[string]any{"entry_id": entry.ID})
		}
		p.pub.Publish(hub.VillageChannel(entry.VillageID), ev)
	}
	return nil
}

func (p *TrainingProcessor) completeOne(ctx context.Context, entry *domain.TrainingQueueEntry, now time.Time) (domain.Event, error) {
	const op = "engine.TrainingProcessor.completeOne"

	var ev domain.Event
	// 悬空条目的清理必须随事务提交，跳过原因带到事务外再返回
	var skip error
	err := p.store.WithTx(ctx, func(tx port.Store) error {
		v, err := tx.Villages().GetForUpdate(ctx, entry.VillageID)
		if err != nil {
			if errors.Is(err, domain.ErrVillageNotFound) {
				skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrDanglingEntity,
					map[string]any{"village_id": entry.VillageID})
				return tx.Troops().DeleteTraining(ctx, entry.ID)
			}
			return err
		}
		if entry.Count <= 0 {
			skip = errs.Wrap(op, errs.KindIntegrity, domain.ErrNegativeCount,
				map[string]any{"count": entry.Count})
			return tx.Troops().DeleteTraining(ctx, entry.ID)
		}

		// 新增粮耗从现在才开始算：先把旧粮耗时段结算掉
		v.AccrueTo(now)

		if err := tx.Troops().AddTroops(ctx, v.ID, entry.Type, entry.Count); err != nil {
			return err
		}
		if err := tx.Troops().DeleteTraining(ctx, entry.ID); err != nil {
			return err
		}

		if err := syncCropUpkeep(ctx, tx, v); err != nil {
			return err
		}
		if err := tx.Villages().Save(ctx, v); err != nil {
			return err
		}

		// 该村还有排队的训练就从现在重新起表
		next, err := tx.Troops().NextTraining(ctx, v.ID)
		if err != nil {
			return err
		}
		if next != nil {
			next.Restart(now)
			if err := tx.Troops().SaveTraining(ctx, next); err != nil {
				return err
			}
		}

		ev = domain.NewTroopCompleteEvent(domain.TroopCompleteData{
			VillageID: v.ID,
			Type:      string(entry.Type),
			Count:     entry.Count,
		}, now)
		return nil
	})
	if err != nil {
		return ev, err
	}
	return ev, skip
}
