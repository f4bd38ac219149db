package session

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Session 一个连接对应的会话
type Session struct {
	ID          string
	Identity    string // 远端 IP
	ConnectedAt time.Time

	lastChat time.Time
	limiter  *rate.Limiter
}

// LastChat 最后一次被接受的发言时间
func (s *Session) LastChat() time.Time {
	return s.lastChat
}

// Registry 连接到身份的映射，附带发言频率限制
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	minWait  time.Duration
}

// NewRegistry minWait 为同一会话两次发言的最小间隔
func NewRegistry(minWait time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		minWait:  minWait,
	}
}

func (r *Registry) newLimiter() *rate.Limiter {
	if r.minWait <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(r.minWait), 1)
}

// Register 登记新连接
func (r *Registry) Register(connID, identity string) *Session {
	s := &Session{
		ID:          connID,
		Identity:    identity,
		ConnectedAt: time.Now(),
		limiter:     r.newLimiter(),
	}

	r.mu.Lock()
	r.sessions[connID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Lookup(connID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	return s, ok
}

// Allow 检查发言间隔，通过时记录发言时间
func (r *Registry) Allow(connID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	if !s.limiter.AllowN(now, 1) {
		return false
	}
	s.lastChat = now
	return true
}

// MarkChat 直接记录发言时间，并让限速从该时刻重新计算
func (r *Registry) MarkChat(connID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connID]; ok {
		s.lastChat = now
		s.limiter = r.newLimiter()
		s.limiter.AllowN(now, 1)
	}
}

// Unregister 断开连接，不影响队列与投票
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	delete(r.sessions, connID)
	r.mu.Unlock()
}

// Count 在线连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// IDs 所有连接 ID，按字典序
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
