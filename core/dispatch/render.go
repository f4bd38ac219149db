package dispatch

import (
	"fmt"
	"html"
	"strings"
	"time"

	"SyncMusic/model"
)

const (
	adminAlias    = "管理员"
	anonymousName = "匿名用户"
	systemName    = "System"
	unknownName   = "Unknown"

	maxNameRunes = 32
	cutNameRunes = 30

	chatTimeLayout = "2006-01-02 15:04:05"
)

// Nicknames 昵称查询
type Nicknames interface {
	Lookup(identity string) string
}

// MaskIdentity 把 IPv4 的后两段替换为等长的星号，其余返回 Unknown
func MaskIdentity(identity string) string {
	parts := strings.Split(identity, ".")
	if len(parts) < 4 {
		return unknownName
	}
	return fmt.Sprintf("%s.%s.%s.%s", parts[0], parts[1],
		strings.Repeat("*", len(parts[2])), strings.Repeat("*", len(parts[3])))
}

func withNickname(nick, name string) string {
	if nick == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", nick, name)
}

func lookupNick(n Nicknames, identity string) string {
	if n == nil {
		return ""
	}
	return n.Lookup(identity)
}

// chatName 发言人在某个观看者处的显示名：管理员观看者看到原始 IP
func chatName(sender, nick string, senderAdmin, viewerAdmin bool) string {
	name := MaskIdentity(sender)
	if senderAdmin {
		name = adminAlias
	}
	if viewerAdmin {
		name = sender
	}
	return html.EscapeString(withNickname(nick, name))
}

func newChat(user, text string, now time.Time) *model.ChatMessage {
	return &model.ChatMessage{
		Type: model.MsgTypeChat,
		User: user,
		Time: now.Format(chatTimeLayout),
		Data: html.EscapeString(text),
	}
}

func requesterName(n Nicknames, identity string) string {
	if identity == model.SystemIdentity {
		return systemName
	}
	nick := lookupNick(n, identity)
	if nick == "" {
		nick = anonymousName
	}
	return withNickname(nick, MaskIdentity(identity))
}

func shortName(name string) string {
	r := []rune(name)
	if len(r) > maxNameRunes {
		return string(r[:cutNameRunes]) + "..."
	}
	return name
}

// RenderList 生成播放列表消息。序号与换歌/删除音乐使用的序号一致，没有正在播放的歌曲时从 1 开始
func RenderList(snap *model.Snapshot, n Nicknames) *model.ListMessage {
	offset := 1
	if snap.Current != nil {
		offset = 0
	}

	var b strings.Builder
	b.WriteString("<tr>\n\t<th>ID</th>\n\t<th>歌名</th>\n\t<th>歌手</th>\n\t<th>专辑</th>\n\t<th>点歌人</th>\n</tr>")

	display := snap.Display()
	rows := make([]model.DisplayRow, 0, len(display))
	for i, t := range display {
		row := model.DisplayRow{
			Index:   i + offset,
			ID:      t.ID,
			Name:    t.Name,
			Artists: t.Artists,
			Album:   t.Album,
			User:    requesterName(n, t.User),
		}
		rows = append(rows, row)

		fmt.Fprintf(&b, "\n<tr>\n\t<td>%d</td>\n\t<td>%s</td>\n\t<td>%s</td>\n\t<td>%s</td>\n\t<td>%s</td>\n</tr>",
			row.Index,
			html.EscapeString(shortName(row.Name)),
			html.EscapeString(row.Artists),
			html.EscapeString(row.Album),
			html.EscapeString(row.User))
	}

	return &model.ListMessage{Type: model.MsgTypeList, Data: b.String(), Rows: rows}
}
