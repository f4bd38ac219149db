package model

// SystemIdentity 系统点歌（空闲补位）使用的身份
const SystemIdentity = "system"

// Track 队列中的一首歌曲，只由点歌流程成功后创建
type Track struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Artists  string  `json:"artists"`
	Album    string  `json:"album"`
	Image    string  `json:"image"`
	File     string  `json:"file"`   // 对外的媒体地址
	Path     string  `json:"path"`   // 本地缓存路径
	Lyrics   string  `json:"lrcs"`   // 缓存的歌词文本
	Duration float64 `json:"time"`   // 秒
	User     string  `json:"user"`   // 点歌人身份
	Source   string  `json:"source"` // netease / migu
}

// DisplayRow 播放列表中展示的一行
type DisplayRow struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Album   string `json:"album"`
	User    string `json:"user"`
}
