package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"SyncMusic/core/utils"
	"SyncMusic/logger"
)

// DefaultLyrics 没有歌词时写入的占位内容
const DefaultLyrics = "[00:01.00]暂无歌词"

// MediaCache 本地 {id}.mp3 / {id}.lrc 缓存，可选 MinIO 镜像
type MediaCache struct {
	dir        string
	mirror     *MinioMirror
	httpClient *http.Client
}

// NewMediaCache mirror 可以为 nil
func NewMediaCache(dir string, mirror *MinioMirror) (*MediaCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	return &MediaCache{
		dir:        dir,
		mirror:     mirror,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Path 媒体文件的本地路径
func (c *MediaCache) Path(id string) string {
	return filepath.Join(c.dir, filepath.Base(id)+".mp3")
}

func (c *MediaCache) lyricPath(id string) string {
	return filepath.Join(c.dir, filepath.Base(id)+".lrc")
}

// Fetch 确保媒体文件在本地，返回路径与大小。大小为 0 表示下载失败
func (c *MediaCache) Fetch(ctx context.Context, id, url string) (string, int64, error) {
	path := c.Path(id)
	if size := utils.FileSize(path); size > 0 {
		logger.Debug("命中本地媒体缓存", logger.String("id", id))
		return path, size, nil
	}

	if c.mirror != nil {
		ok, err := c.mirror.Fetch(ctx, filepath.Base(path), path)
		if err != nil {
			logger.Warn("从 MinIO 恢复媒体失败", logger.String("id", id), logger.ErrorField(err))
		} else if ok {
			if size := utils.FileSize(path); size > 0 {
				logger.Info("从 MinIO 恢复媒体缓存", logger.String("id", id))
				return path, size, nil
			}
		}
	}

	size, err := utils.DownloadFile(ctx, c.httpClient, url, path)
	if err != nil {
		return path, 0, err
	}
	if size == 0 {
		os.Remove(path)
		return path, 0, nil
	}

	if c.mirror != nil {
		if err := c.mirror.Put(ctx, filepath.Base(path), path); err != nil {
			logger.Warn("上传媒体到 MinIO 失败", logger.String("id", id), logger.ErrorField(err))
		}
	}
	return path, size, nil
}

// Lyrics 读取缓存歌词，没有时调用 fetch 并写入缓存。fetch 失败或为空时返回占位歌词
func (c *MediaCache) Lyrics(ctx context.Context, id string, fetch func(ctx context.Context) (string, error)) string {
	path := c.lyricPath(id)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		return string(data)
	}

	lrc, err := fetch(ctx)
	if err != nil {
		logger.Warn("获取歌词失败", logger.String("id", id), logger.ErrorField(err))
	}
	if strings.TrimSpace(lrc) == "" {
		lrc = DefaultLyrics
	}
	if err := os.WriteFile(path, []byte(lrc), 0644); err != nil {
		logger.Warn("写入歌词缓存失败", logger.String("id", id), logger.ErrorField(err))
	}
	return lrc
}

// Open 打开本地媒体文件，本地没有时尝试从镜像恢复
func (c *MediaCache) Open(ctx context.Context, id string) (*os.File, error) {
	path := c.Path(id)
	if utils.FileSize(path) == 0 && c.mirror != nil {
		if _, err := c.mirror.Fetch(ctx, filepath.Base(path), path); err != nil {
			return nil, err
		}
	}
	return os.Open(path)
}
