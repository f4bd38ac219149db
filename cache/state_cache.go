package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"SyncMusic/model"

	"github.com/go-redis/redis/v8"
)

const (
	keyQueue     = "syncmusic-list"  // 待播队列
	keyDisplay   = "syncmusic-show"  // 展示列表
	keyCurrent   = "music-current"   // 当前歌曲
	keyTrackEnd  = "music-time"      // 结束时间戳
	keyStart     = "music-start"     // 开始时间戳
	keyElapsed   = "music-play"      // 已播放秒数
	keyVotes     = "music-vote"      // 切歌投票
	keyBans      = "music-banned"    // 禁言列表
	keyBlacklist = "music-blacklist" // 黑名单关键字
	keyAdmin     = "music-admin"     // 管理员身份
)

// RedisStore 以固定键布局保存播放状态，每次保存在一个 MULTI 中完成
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) keys() []string {
	names := []string{keyQueue, keyCurrent, keyTrackEnd, keyStart, keyElapsed, keyVotes, keyBans, keyBlacklist, keyAdmin}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = s.key(n)
	}
	return out
}

// Load 读取全部键，键不存在时对应字段为零值
func (s *RedisStore) Load(ctx context.Context) (*model.Snapshot, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	vals, err := s.client.MGet(ctx, s.keys()...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	str := func(i int) string {
		if v, ok := vals[i].(string); ok {
			return v
		}
		return ""
	}

	snap := &model.Snapshot{}
	if err := decode(str(0), &snap.Queue); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyQueue, err)
	}
	if raw := str(1); raw != "" {
		var cur model.Track
		if err := json.Unmarshal([]byte(raw), &cur); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keyCurrent, err)
		}
		snap.Current = &cur
	}
	if snap.TrackEnd, err = parseInt(str(2)); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyTrackEnd, err)
	}
	if snap.TrackStart, err = parseInt(str(3)); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyStart, err)
	}
	if snap.Elapsed, err = parseInt(str(4)); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyElapsed, err)
	}
	if err := decode(str(5), &snap.Votes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyVotes, err)
	}
	if err := decode(str(6), &snap.Bans); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyBans, err)
	}
	if err := decode(str(7), &snap.Blacklist); err != nil {
		return nil, fmt.Errorf("decode %s: %w", keyBlacklist, err)
	}
	snap.Admin = str(8)
	return snap, nil
}

// Save 写入全部键
func (s *RedisStore) Save(ctx context.Context, snap *model.Snapshot) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	queue, err := encode(snap.Queue)
	if err != nil {
		return err
	}
	display, err := encode(snap.Display())
	if err != nil {
		return err
	}
	votes, err := encode(snap.Votes)
	if err != nil {
		return err
	}
	bans, err := encode(snap.Bans)
	if err != nil {
		return err
	}
	blacklist, err := encode(snap.Blacklist)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyQueue), queue, 0)
		pipe.Set(ctx, s.key(keyDisplay), display, 0)
		if snap.Current != nil {
			cur, err := json.Marshal(snap.Current)
			if err != nil {
				return err
			}
			pipe.Set(ctx, s.key(keyCurrent), cur, 0)
		} else {
			pipe.Del(ctx, s.key(keyCurrent))
		}
		pipe.Set(ctx, s.key(keyTrackEnd), snap.TrackEnd, 0)
		pipe.Set(ctx, s.key(keyStart), snap.TrackStart, 0)
		pipe.Set(ctx, s.key(keyElapsed), snap.Elapsed, 0)
		pipe.Set(ctx, s.key(keyVotes), votes, 0)
		pipe.Set(ctx, s.key(keyBans), bans, 0)
		pipe.Set(ctx, s.key(keyBlacklist), blacklist, 0)
		pipe.Set(ctx, s.key(keyAdmin), snap.Admin, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Close 客户端由调用方管理
func (s *RedisStore) Close() error {
	return nil
}

func encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	return string(data), nil
}

func decode(raw string, out interface{}) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func parseInt(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
