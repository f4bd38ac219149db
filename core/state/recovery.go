package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"SyncMusic/model"
)

const (
	queueFile   = "musiclist.json"
	displayFile = "musicshow.json"
)

// Recovery 把队列与展示列表写入数据目录，用于崩溃后恢复
type Recovery struct {
	dir string
}

func NewRecovery(dir string) *Recovery {
	return &Recovery{dir: dir}
}

// Save 原子写入两个文件
func (r *Recovery) Save(snap *model.Snapshot) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := writeJSON(filepath.Join(r.dir, queueFile), snap.Queue); err != nil {
		return err
	}
	return writeJSON(filepath.Join(r.dir, displayFile), snap.Display())
}

// Load 读取恢复文件，文件不存在时返回空
func (r *Recovery) Load() (queue, display []model.Track, err error) {
	if queue, err = readJSON(filepath.Join(r.dir, queueFile)); err != nil {
		return nil, nil, err
	}
	if display, err = readJSON(filepath.Join(r.dir, displayFile)); err != nil {
		return nil, nil, err
	}
	return queue, display, nil
}

func writeJSON(path string, tracks []model.Track) error {
	if tracks == nil {
		tracks = []model.Track{}
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

func readJSON(path string) ([]model.Track, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var tracks []model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return tracks, nil
}
