package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"SyncMusic/logger"

	"github.com/fsnotify/fsnotify"
)

// settle 文件最后一次变化后等待多久再重新加载
const settle = 100 * time.Millisecond

// Reloader 可热加载的文件
type Reloader interface {
	Reload() error
}

// Watcher 监听数据目录，文件写入稳定后调用对应的 Reload
type Watcher struct {
	dir     string
	files   map[string]Reloader // 文件名 -> 加载器
	watcher *fsnotify.Watcher
}

// NewWatcher 先加载一次全部文件，再开始监听目录
func NewWatcher(dir string, files map[string]Reloader) (*Watcher, error) {
	for name, r := range files {
		if err := r.Reload(); err != nil {
			logger.Warn("加载数据文件失败", logger.String("file", name), logger.ErrorField(err))
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}

	return &Watcher{dir: dir, files: files, watcher: w}, nil
}

// Run 阻塞直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	checkTicker := time.NewTicker(settle / 2)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if _, watched := w.files[name]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("文件监听出错", logger.ErrorField(err))

		case <-checkTicker.C:
			now := time.Now()
			for name, last := range pending {
				if now.Sub(last) < settle {
					continue // 可能还在写入
				}
				delete(pending, name)
				if err := w.files[name].Reload(); err != nil {
					logger.Warn("重新加载数据文件失败", logger.String("file", name), logger.ErrorField(err))
					continue
				}
				logger.Info("数据文件已重新加载", logger.String("file", name))
			}
		}
	}
}
