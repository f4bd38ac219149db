// Package scheduler 定时推进播放进度
package scheduler

import (
	"context"
	"time"

	"SyncMusic/core/dispatch"
	"SyncMusic/core/errcode"
	"SyncMusic/core/pipeline"
	"SyncMusic/core/session"
	"SyncMusic/core/state"
	"SyncMusic/logger"
	"SyncMusic/model"
)

// Fillers 空闲补位的歌曲来源
type Fillers interface {
	Pick() (string, bool)
}

// Scheduler 每个周期检查当前歌曲是否结束：到点换歌，空闲时补位，并写入恢复文件
type Scheduler struct {
	state     *state.State
	pipeline  *pipeline.Pipeline
	sessions  *session.Registry
	notifier  dispatch.Notifier
	fillers   Fillers
	recovery  *state.Recovery
	nicknames dispatch.Nicknames

	interval time.Duration
	epsilon  time.Duration
}

func New(st *state.State, p *pipeline.Pipeline, sessions *session.Registry, notifier dispatch.Notifier,
	fillers Fillers, recovery *state.Recovery, nicknames dispatch.Nicknames, interval, epsilon time.Duration) *Scheduler {
	return &Scheduler{
		state:     st,
		pipeline:  p,
		sessions:  sessions,
		notifier:  notifier,
		fillers:   fillers,
		recovery:  recovery,
		nicknames: nicknames,
		interval:  interval,
		epsilon:   epsilon,
	}
}

// Run 阻塞运行直到 ctx 结束。存储不可用时立即返回错误
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("播放调度已启动", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("播放调度已停止")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick 执行一次调度
func (s *Scheduler) Tick(ctx context.Context) error {
	tick, err := s.state.Advance(ctx, s.epsilon)
	if err != nil {
		return err
	}

	switch {
	case tick.Advanced:
		logger.Info("开始播放",
			logger.String("id", tick.Current.ID),
			logger.String("name", tick.Current.Name),
			logger.Float64("duration", tick.Current.Duration))
		s.notifier.Broadcast(model.NewMusicMessage(tick.Current, tick.Snapshot.Elapsed))
		s.notifier.Broadcast(dispatch.RenderList(tick.Snapshot, s.nicknames))

	case tick.NeedFiller:
		if err := s.fill(ctx); err != nil {
			return err
		}
	}

	if s.recovery != nil {
		if err := s.recovery.Save(s.state.Snapshot()); err != nil {
			logger.Warn("写入恢复文件失败", logger.ErrorField(err))
		}
	}
	return nil
}

// fill 有人在线时随机点一首歌，成功后本轮空闲不再补位
func (s *Scheduler) fill(ctx context.Context) error {
	if s.sessions.Count() == 0 || s.fillers == nil {
		return nil
	}
	id, ok := s.fillers.Pick()
	if !ok {
		return nil
	}

	res := s.pipeline.Resolve(ctx, pipeline.Request{Query: id, User: model.SystemIdentity})
	switch {
	case res.Err == nil:
		s.state.MarkFiller()
		s.notifier.Broadcast(dispatch.RenderList(res.Snapshot, s.nicknames))
	case errcode.Is(res.Err, errcode.StoreUnavailable):
		return res.Err
	default:
		// 下个周期重试
		logger.Warn("空闲补位失败", logger.String("id", id), logger.ErrorField(res.Err))
	}
	return nil
}
