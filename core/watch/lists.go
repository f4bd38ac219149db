package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// FillerList 空闲补位用的歌曲 ID 列表，每行一个，# 开头为注释
type FillerList struct {
	path string

	mu  sync.RWMutex
	ids []string
}

func NewFillerList(path string) *FillerList {
	return &FillerList{path: path}
}

// Reload 重新读取文件，文件不存在时列表为空
func (l *FillerList) Reload() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("读取补位列表失败: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}

	l.mu.Lock()
	l.ids = ids
	l.mu.Unlock()
	return nil
}

// Pick 随机取一个 ID，列表为空时返回 false
func (l *FillerList) Pick() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.ids) == 0 {
		return "", false
	}
	return l.ids[rand.Intn(len(l.ids))], true
}

func (l *FillerList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

// Nicknames IP 到昵称的映射
type Nicknames struct {
	path string

	mu    sync.RWMutex
	names map[string]string
}

func NewNicknames(path string) *Nicknames {
	return &Nicknames{path: path, names: map[string]string{}}
}

// Reload 重新读取 JSON 文件，解析失败时保留旧数据
func (n *Nicknames) Reload() error {
	data, err := os.ReadFile(n.path)
	if errors.Is(err, os.ErrNotExist) {
		n.mu.Lock()
		n.names = map[string]string{}
		n.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取昵称文件失败: %w", err)
	}

	names := map[string]string{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &names); err != nil {
			return fmt.Errorf("解析昵称文件失败: %w", err)
		}
	}

	n.mu.Lock()
	n.names = names
	n.mu.Unlock()
	return nil
}

// Lookup 查询昵称
func (n *Nicknames) Lookup(identity string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.names[identity]
}
