package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"SyncMusic/db"
	"SyncMusic/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	entryQueue     = "syncmusic-list"
	entryDisplay   = "syncmusic-show"
	entryCurrent   = "music-current"
	entryTrackEnd  = "music-time"
	entryStart     = "music-start"
	entryElapsed   = "music-play"
	entryVotes     = "music-vote"
	entryBans      = "music-banned"
	entryBlacklist = "music-blacklist"
	entryAdmin     = "music-admin"
)

// StateRepository 播放状态的 MySQL 存储，实现 state.Store
type StateRepository struct {
	db *gorm.DB
}

// NewStateRepository 创建仓库并迁移 state_entries 表
func NewStateRepository(gdb *gorm.DB) (*StateRepository, error) {
	if err := db.AutoMigrateModels(gdb, &model.StateEntry{}); err != nil {
		return nil, err
	}
	return &StateRepository{db: gdb}, nil
}

// Load 读取全部状态行
func (r *StateRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	var entries []model.StateEntry
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return SnapshotFromEntries(entries)
}

// Save 在一个事务中 upsert 全部状态行
func (r *StateRepository) Save(ctx context.Context, snap *model.Snapshot) error {
	entries, err := EntriesFromSnapshot(snap)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
	})
}

// Close 连接由调用方管理
func (r *StateRepository) Close() error {
	return nil
}

// EntriesFromSnapshot 快照拆分为键值行，没有当前歌曲时 music-current 为空串
func EntriesFromSnapshot(snap *model.Snapshot) ([]model.StateEntry, error) {
	values := map[string]interface{}{
		entryQueue:     snap.Queue,
		entryDisplay:   snap.Display(),
		entryVotes:     snap.Votes,
		entryBans:      snap.Bans,
		entryBlacklist: snap.Blacklist,
	}

	entries := make([]model.StateEntry, 0, 10)
	for _, key := range []string{entryQueue, entryDisplay, entryVotes, entryBans, entryBlacklist} {
		data, err := json.Marshal(values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		entries = append(entries, model.StateEntry{Key: key, Value: string(data)})
	}

	current := ""
	if snap.Current != nil {
		data, err := json.Marshal(snap.Current)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", entryCurrent, err)
		}
		current = string(data)
	}

	return append(entries,
		model.StateEntry{Key: entryCurrent, Value: current},
		model.StateEntry{Key: entryTrackEnd, Value: strconv.FormatInt(snap.TrackEnd, 10)},
		model.StateEntry{Key: entryStart, Value: strconv.FormatInt(snap.TrackStart, 10)},
		model.StateEntry{Key: entryElapsed, Value: strconv.FormatInt(snap.Elapsed, 10)},
		model.StateEntry{Key: entryAdmin, Value: snap.Admin},
	), nil
}

// SnapshotFromEntries 由键值行还原快照，缺失的行取零值
func SnapshotFromEntries(entries []model.StateEntry) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	for _, e := range entries {
		var err error
		switch e.Key {
		case entryQueue:
			err = decodeList(e.Value, &snap.Queue)
		case entryVotes:
			err = decodeList(e.Value, &snap.Votes)
		case entryBans:
			err = decodeList(e.Value, &snap.Bans)
		case entryBlacklist:
			err = decodeList(e.Value, &snap.Blacklist)
		case entryCurrent:
			if e.Value != "" {
				var cur model.Track
				if err = json.Unmarshal([]byte(e.Value), &cur); err == nil {
					snap.Current = &cur
				}
			}
		case entryTrackEnd:
			snap.TrackEnd, err = parseInt(e.Value)
		case entryStart:
			snap.TrackStart, err = parseInt(e.Value)
		case entryElapsed:
			snap.Elapsed, err = parseInt(e.Value)
		case entryAdmin:
			snap.Admin = e.Value
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Key, err)
		}
	}
	return snap, nil
}

func decodeList(raw string, out interface{}) error {
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
