package plugin

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const (
	SourceNetease = "netease"
	SourceMigu    = "migu"
)

// UnknownArtist 没有歌手信息时的展示
const UnknownArtist = "未知歌手"

// Candidate 搜索得到的候选歌曲
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	ArtworkRef string   `json:"artworkRef"` // 网易云为 pic_id，咪咕为图片地址
	LyricRef   string   `json:"lyricRef"`   // 网易云为歌曲 ID，咪咕为歌词地址
	Source     string   `json:"source"`
}

// MusicPlugin 音乐源插件
type MusicPlugin interface {
	// Search 返回第一条结果，没有结果时返回 nil, nil
	Search(ctx context.Context, query string) (*Candidate, error)

	// PlaybackURL 获取可下载的播放地址
	PlaybackURL(ctx context.Context, c *Candidate) (string, error)

	// Lyrics 获取歌词文本
	Lyrics(ctx context.Context, c *Candidate) (string, error)

	// Artwork 获取封面地址
	Artwork(ctx context.Context, c *Candidate) (string, error)

	// JoinArtists 歌手名拼接
	JoinArtists(names []string) string

	// GetSource 插件来源标识
	GetSource() string
}

// JoinArtistNames 逗号拼接，没有歌手时返回未知歌手
func JoinArtistNames(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return UnknownArtist
	}
	return strings.Join(parts, ",")
}

// MusicPluginManager 音乐插件管理器
type MusicPluginManager struct {
	mu            sync.RWMutex
	plugins       map[string]MusicPlugin
	defaultSource string
}

// NewMusicPluginManager 创建插件管理器，defaultSource 为未指定来源时使用的插件
func NewMusicPluginManager(defaultSource string) *MusicPluginManager {
	return &MusicPluginManager{
		plugins:       make(map[string]MusicPlugin),
		defaultSource: defaultSource,
	}
}

// Register 注册插件
func (m *MusicPluginManager) Register(p MusicPlugin) {
	m.mu.Lock()
	m.plugins[p.GetSource()] = p
	m.mu.Unlock()
}

// Get 获取插件，source 为空时返回默认插件
func (m *MusicPluginManager) Get(source string) (MusicPlugin, error) {
	if source == "" {
		source = m.defaultSource
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[source]
	if !ok {
		return nil, fmt.Errorf("music plugin not registered: %s", source)
	}
	return p, nil
}

// Sources 已注册的来源
func (m *MusicPluginManager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.plugins))
	for s := range m.plugins {
		out = append(out, s)
	}
	return out
}

// 点歌参数中的来源前缀
var sourcePrefixes = []struct {
	prefix string
	source string
}{
	{"咪咕 ", SourceMigu},
}

// ParseQuery 拆出来源前缀，返回来源（空为默认）与去掉前缀后的关键字
func ParseQuery(text string) (source, query string) {
	for _, p := range sourcePrefixes {
		if strings.HasPrefix(text, p.prefix) {
			return p.source, strings.TrimSpace(strings.TrimPrefix(text, p.prefix))
		}
	}
	return "", strings.TrimSpace(text)
}
