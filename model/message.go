package model

// MessageType 消息类型
type MessageType string

const (
	MsgTypeMsg       MessageType = "msg"       // 提示消息 / 客户端发言
	MsgTypeHeartbeat MessageType = "heartbeat" // 心跳
	MsgTypeChat      MessageType = "chat"      // 聊天
	MsgTypeList      MessageType = "list"      // 播放列表
	MsgTypeMusic     MessageType = "music"     // 正在播放
	MsgTypeOnline    MessageType = "online"    // 在线人数
)

// InboundMessage 客户端发来的消息
type InboundMessage struct {
	Type MessageType `json:"type"`
	Data string      `json:"data"`
}

// NoticeMessage 发给单个客户端的提示
type NoticeMessage struct {
	Type MessageType `json:"type"`
	Data string      `json:"data"`
}

// ChatMessage 聊天广播
type ChatMessage struct {
	Type MessageType `json:"type"`
	User string      `json:"user"`
	Time string      `json:"time"`
	Data string      `json:"data"`
}

// ListMessage 播放列表广播，Data 为 HTML 表格，Rows 为结构化数据
type ListMessage struct {
	Type MessageType  `json:"type"`
	Data string       `json:"data"`
	Rows []DisplayRow `json:"rows"`
}

// MusicMessage 正在播放推送
type MusicMessage struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	File    string      `json:"file"`
	Album   string      `json:"album"`
	Artists string      `json:"artists"`
	Image   string      `json:"image"`
	Lrcs    string      `json:"lrcs"`
	User    string      `json:"user"`
	Current int64       `json:"current"`
}

// OnlineMessage 在线人数
type OnlineMessage struct {
	Type MessageType `json:"type"`
	Data int         `json:"data"`
}

func Notice(text string) *NoticeMessage {
	return &NoticeMessage{Type: MsgTypeMsg, Data: text}
}

// NewMusicMessage 由歌曲构造播放推送，current 为已播放秒数
func NewMusicMessage(t *Track, current int64) *MusicMessage {
	return &MusicMessage{
		Type:    MsgTypeMusic,
		ID:      t.ID,
		Name:    t.Name,
		File:    t.File,
		Album:   t.Album,
		Artists: t.Artists,
		Image:   t.Image,
		Lrcs:    t.Lyrics,
		User:    t.User,
		Current: current,
	}
}
