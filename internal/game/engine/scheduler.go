package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"SiamKingdoms/modules/kit/logx"
)

// Processor 一个节拍任务。Run 按批处理，必须可安全重跑：
// 所有处理器都基于“当前流逝时间”计算，上一轮失败由下一轮自然补上。
type Processor interface {
	Name() string
	Run(ctx context.Context) error
}

type job struct {
	proc     Processor
	interval time.Duration
}

// Scheduler 驱动多个独立节拍并发推进游戏时间。
// 每个任务独占一个 goroutine：单个任务内天然串行，上一批没跑完时
// 本批的 tick 被跳过（ticker 丢 tick），任务之间互不等待。
// 关停时停止开新批次，等在跑的批次收尾，没有批次会在提交中途被掐断。
type Scheduler struct {
	jobs   []job
	log    logx.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	start  sync.Once
}

func NewScheduler(l logx.Logger) *Scheduler {
	return &Scheduler{log: l}
}

func (s *Scheduler) Register(p Processor, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{proc: p, interval: interval})
}

func (s *Scheduler) Start(parent context.Context) {
	s.start.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		for _, j := range s.jobs {
			s.wg.Add(1)
			go s.runLoop(ctx, j)
		}
	})
}

func (s *Scheduler) runLoop(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.log.Info("engine job started",
		zap.String("job", j.proc.Name()),
		zap.Duration("interval", j.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("engine job stopped", zap.String("job", j.proc.Name()))
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("engine job panic",
				zap.String("job", j.proc.Name()),
				zap.Any("panic", r))
		}
	}()

	started := time.Now()
	if err := j.proc.Run(ctx); err != nil {
		// 批次失败只记录：处理器可重跑，下一个节拍自动重试
		s.log.Error("engine job batch failed",
			zap.String("job", j.proc.Name()),
			zap.Error(err))
	}
	elapsed := time.Since(started)
	if elapsed > j.interval {
		s.log.Warn("engine job overran its interval, next ticks skipped",
			zap.String("job", j.proc.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", j.interval))
	}
}

// Stop 停止调度并等待在跑批次完成。ctx 控制最长等待时间。
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
