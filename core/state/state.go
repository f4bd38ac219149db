package state

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"SyncMusic/core/errcode"
	"SyncMusic/model"
)

// Store 状态持久化后端。Load 在空存储上返回空快照，任何 I/O 错误都必须原样返回
type Store interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
	Close() error
}

// State 共享播放状态，所有读写经过同一把锁，写入先落存储再提交到内存
type State struct {
	mu    sync.Mutex
	store Store
	data  *model.Snapshot
	now   func() time.Time

	resolving    bool // 点歌锁
	fillerPlayed bool // 本轮空闲是否已补位
}

// Option 构造选项
type Option func(*State)

// WithClock 替换时钟，测试使用
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// New 创建状态，需随后调用 Load
func New(store Store, opts ...Option) *State {
	s := &State{
		store: store,
		data:  &model.Snapshot{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 从存储加载状态，存储不可用时返回 STORE_UNAVAILABLE，不会退化为空状态
func (s *State) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return errcode.Wrap(errcode.StoreUnavailable, fmt.Errorf("load state: %w", err))
	}
	if snap == nil {
		snap = &model.Snapshot{}
	}

	s.mu.Lock()
	s.data = snap
	s.mu.Unlock()
	return nil
}

// Restore 在状态为空时用恢复文件填充队列
func (s *State) Restore(ctx context.Context, queue, display []model.Track) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.IsEmpty() || (len(queue) == 0 && len(display) == 0) {
		return false, nil
	}
	_, err := s.update(ctx, func(next *model.Snapshot) error {
		next.Queue = append([]model.Track(nil), queue...)
		if len(display) == len(queue)+1 {
			cur := display[0]
			next.Current = &cur
		}
		return nil
	})
	return err == nil, err
}

// update 在持锁状态下执行：复制、修改、保存，成功后才替换内存状态
func (s *State) update(ctx context.Context, fn func(next *model.Snapshot) error) (*model.Snapshot, error) {
	next := s.data.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, errcode.Wrap(errcode.StoreUnavailable, fmt.Errorf("save state: %w", err))
	}
	s.data = next
	return next.Clone(), nil
}

// Snapshot 当前已提交状态的副本
func (s *State) Snapshot() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Display 展示列表
func (s *State) Display() []model.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Display()
}

// Current 当前播放的歌曲与已播放秒数
func (s *State) Current() (*model.Track, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Current == nil {
		return nil, 0
	}
	cur := *s.data.Current
	return &cur, s.data.Elapsed
}

// ========== 管理员 ==========

func (s *State) IsAdmin(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Admin != "" && s.data.Admin == identity
}

// SetAdmin 单一管理员，最后一次登录生效
func (s *State) SetAdmin(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, func(next *model.Snapshot) error {
		next.Admin = identity
		return nil
	})
	return err
}

// ========== 禁言 ==========

func (s *State) IsBanned(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.data.Bans, identity)
}

func (s *State) Bans() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data.Bans...)
}

func (s *State) Ban(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, func(next *model.Snapshot) error {
		if contains(next.Bans, identity) {
			return errcode.New(errcode.AlreadyBanned)
		}
		next.Bans = append(next.Bans, identity)
		return nil
	})
	return err
}

func (s *State) Unban(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, func(next *model.Snapshot) error {
		idx := indexOf(next.Bans, identity)
		if idx < 0 {
			return errcode.New(errcode.NotBanned)
		}
		next.Bans = append(next.Bans[:idx], next.Bans[idx+1:]...)
		return nil
	})
	return err
}

// ========== 黑名单 ==========

func (s *State) AddBlacklist(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return errcode.New(errcode.EmptyArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, func(next *model.Snapshot) error {
		if !contains(next.Blacklist, keyword) {
			next.Blacklist = append(next.Blacklist, keyword)
		}
		return nil
	})
	return err
}

// IsBlocked 任一字段包含黑名单关键字即拦截，不区分大小写
func (s *State) IsBlocked(fields ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kw := range s.data.Blacklist {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), k) {
				return true
			}
		}
	}
	return false
}

// ========== 队列 ==========

// QueueContains 队列中是否已有该歌曲
func (s *State) QueueContains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queueIndex(s.data.Queue, id) >= 0
}

// PendingCount 某身份在队列中等待的歌曲数
func (s *State) PendingCount(identity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.data.Queue {
		if t.User == identity {
			n++
		}
	}
	return n
}

// Enqueue 追加到队列尾部，展示列表随之变化
func (s *State) Enqueue(ctx context.Context, t model.Track) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, func(next *model.Snapshot) error {
		if queueIndex(next.Queue, t.ID) >= 0 {
			return errcode.New(errcode.Duplicate)
		}
		next.Queue = append(next.Queue, t)
		return nil
	})
}

// Swap 交换展示列表第 n 项与下一首（展示槽位 1）
func (s *State) Swap(ctx context.Context, n int) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, func(next *model.Snapshot) error {
		if n == 0 {
			return errcode.Newf(errcode.InvalidIndex, "正在播放的音乐不能切换")
		}
		if n < 0 || n > len(next.Queue) {
			return errcode.Newf(errcode.InvalidIndex, "歌曲序号超出范围")
		}
		next.Queue[0], next.Queue[n-1] = next.Queue[n-1], next.Queue[0]
		return nil
	})
}

// Remove 删除展示列表第 n 项
func (s *State) Remove(ctx context.Context, n int) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(ctx, func(next *model.Snapshot) error {
		if n <= 0 {
			return errcode.Newf(errcode.InvalidIndex, "正在播放的音乐不能删除")
		}
		if n > len(next.Queue) {
			return errcode.Newf(errcode.InvalidIndex, "歌曲序号超出范围")
		}
		next.Queue = append(next.Queue[:n-1], next.Queue[n:]...)
		return nil
	})
}

// ========== 切歌 ==========

// VoteResult 投票结果
type VoteResult struct {
	Count  int
	Online int
	First  bool // 本轮第一票
	Passed bool // 达到半数并已切歌
}

// Vote 记录一票，达到在线人数一半时切歌并清空投票
func (s *State) Vote(ctx context.Context, identity string, online int) (VoteResult, error) {
	if online < 1 {
		online = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res VoteResult
	_, err := s.update(ctx, func(next *model.Snapshot) error {
		if contains(next.Votes, identity) {
			return errcode.New(errcode.AlreadyVoted)
		}
		res = VoteResult{
			Count:  len(next.Votes) + 1,
			Online: online,
			First:  len(next.Votes) == 0,
		}
		if res.Count*2 >= online {
			res.Passed = true
			s.skipLocked(next)
			return nil
		}
		next.Votes = append(next.Votes, identity)
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}
	if res.Passed {
		s.fillerPlayed = false
	}
	return res, nil
}

// ForceSkip 管理员切歌
func (s *State) ForceSkip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.update(ctx, func(next *model.Snapshot) error {
		s.skipLocked(next)
		return nil
	})
	if err == nil {
		s.fillerPlayed = false
	}
	return err
}

// skipLocked 把结束时间提前到下一秒，由调度器在下一次 tick 换歌
func (s *State) skipLocked(next *model.Snapshot) {
	now := s.now().Unix()
	next.TrackEnd = now + 1
	next.TrackStart = now
	next.Elapsed = 0
	next.Votes = nil
}

// ========== 调度 ==========

// Tick 一次调度推进的结果
type Tick struct {
	Advanced   bool
	Current    *model.Track
	Snapshot   *model.Snapshot
	NeedFiller bool
}

// Advance 调度器每次 tick 调用：到点则出队换歌，空闲则请求补位，并保存快照
func (s *State) Advance(ctx context.Context, epsilon time.Duration) (Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	threshold := now + int64(epsilon/time.Second)

	var tick Tick
	snap, err := s.update(ctx, func(next *model.Snapshot) error {
		ended := next.TrackEnd < threshold
		switch {
		case len(next.Queue) > 0 && ended:
			head := next.Queue[0]
			next.Current = &head
			next.Queue = next.Queue[1:]
			next.TrackStart = now
			next.TrackEnd = now + int64(math.Round(head.Duration))
			next.Votes = nil
			tick.Advanced = true
			cur := head
			tick.Current = &cur
		case len(next.Queue) == 0 && ended && !s.fillerPlayed:
			tick.NeedFiller = true
		}
		if next.TrackStart > 0 {
			next.Elapsed = now - next.TrackStart
		}
		return nil
	})
	if err != nil {
		return Tick{}, err
	}
	if tick.Advanced {
		s.fillerPlayed = false
	}
	tick.Snapshot = snap
	return tick, nil
}

// MarkFiller 标记本轮空闲已补位，直到下次换歌
func (s *State) MarkFiller() {
	s.mu.Lock()
	s.fillerPlayed = true
	s.mu.Unlock()
}

// ========== 点歌锁 ==========

// TryAcquireResolution 获取点歌锁，已被占用时返回 false
func (s *State) TryAcquireResolution() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolving {
		return false
	}
	s.resolving = true
	return true
}

func (s *State) ReleaseResolution() {
	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()
}

// Resolving 点歌锁是否被占用
func (s *State) Resolving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolving
}

func contains(list []string, v string) bool {
	return indexOf(list, v) >= 0
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}

func queueIndex(queue []model.Track, id string) int {
	for i, t := range queue {
		if t.ID == id {
			return i
		}
	}
	return -1
}
