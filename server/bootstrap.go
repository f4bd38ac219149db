package server

import (
	"fmt"
	"path/filepath"

	"SyncMusic/cache"
	"SyncMusic/config"
	"SyncMusic/core/migu"
	"SyncMusic/core/netease"
	"SyncMusic/core/plugin"
	"SyncMusic/core/state"
	"SyncMusic/db"
	"SyncMusic/logger"
	"SyncMusic/repository"
	"SyncMusic/storage"
)

// openStore 按 STATE_BACKEND 选择状态存储，返回的关闭函数负责释放连接
func openStore(cfg *config.Config) (state.Store, func(), error) {
	switch cfg.StateBackend {
	case "", "memory":
		return state.NewMemoryStore(), func() {}, nil

	case "redis":
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("使用 Redis 状态存储", logger.String("prefix", cfg.RedisKeyPrefix))
		return cache.NewRedisStore(client, cfg.RedisKeyPrefix), func() { cache.CloseRedis() }, nil

	case "badger":
		store, err := storage.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("使用 badger 状态存储", logger.String("path", cfg.BadgerPath))
		return store, func() { store.Close() }, nil

	case "mysql":
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewStateRepository(gdb)
		if err != nil {
			db.CloseGormDB()
			return nil, nil, err
		}
		logger.Info("使用 MySQL 状态存储", logger.String("db", cfg.DBName))
		return repo, func() { db.CloseGormDB() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown state backend: %s", cfg.StateBackend)
	}
}

// NewPlugins 注册网易云（默认）与咪咕
func NewPlugins(cfg *config.Config) *plugin.MusicPluginManager {
	manager := plugin.NewMusicPluginManager(plugin.SourceNetease)
	manager.Register(plugin.NewNeteasePlugin(netease.NewClient(cfg.MusicAPI, cfg.NeteaseLyricAPI)))
	manager.Register(plugin.NewMiguPlugin(migu.NewClient(cfg.MiguAPI, cfg.MiguListenAPI)))
	return manager
}

// newMediaCache MinIO 连接失败时只使用本地缓存
func newMediaCache(cfg *config.Config) (*storage.MediaCache, error) {
	mirror, err := storage.NewMinioMirror(cfg)
	if err != nil {
		logger.Warn("MinIO 镜像不可用，仅使用本地缓存", logger.ErrorField(err))
		mirror = nil
	}
	return storage.NewMediaCache(cfg.CacheDir, mirror)
}

func dataFile(cfg *config.Config, name string) string {
	return filepath.Join(cfg.DataDir, name)
}
