package dispatch

import (
	"strings"

	"SyncMusic/core/plugin"
)

// 命令关键字，属于客户端协议的一部分
const (
	KeywordSkip       = "切歌"
	KeywordVoteSkip   = "投票切歌"
	KeywordBanList    = "禁言列表"
	KeywordBan        = "禁言 "
	KeywordUnban      = "解禁 "
	KeywordSwap       = "换歌 "
	KeywordRemove     = "删除音乐 "
	KeywordAdminLogin = "房管登录 "
	KeywordBlacklist  = "加黑名单 "
	KeywordRequest    = "点歌 "
)

// Command 一条解析后的客户端命令
type Command interface {
	command()
}

type (
	SkipCommand     struct{}
	VoteSkipCommand struct{}
	BanListCommand  struct{}

	BanCommand struct {
		Identity string
	}
	UnbanCommand struct {
		Identity string
	}
	SwapCommand struct {
		Index string
	}
	RemoveCommand struct {
		Index string
	}
	AdminLoginCommand struct {
		Password string
	}
	BlacklistCommand struct {
		Keyword string
	}
	RequestCommand struct {
		Source string
		Query  string
		Text   string // 原始消息，用于聊天回显
	}
	ChatCommand struct {
		Text string
	}
)

func (SkipCommand) command()       {}
func (VoteSkipCommand) command()   {}
func (BanListCommand) command()    {}
func (BanCommand) command()        {}
func (UnbanCommand) command()      {}
func (SwapCommand) command()       {}
func (RemoveCommand) command()     {}
func (AdminLoginCommand) command() {}
func (BlacklistCommand) command()  {}
func (RequestCommand) command()    {}
func (ChatCommand) command()       {}

// Parse 每条消息只解析一次。带参数的命令必须在关键字后还有内容，否则按聊天处理；
// 参数去掉首尾空白，是否为空由各命令自行校验
func Parse(text string) Command {
	switch text {
	case KeywordSkip:
		return SkipCommand{}
	case KeywordVoteSkip:
		return VoteSkipCommand{}
	case KeywordBanList:
		return BanListCommand{}
	}

	if arg, ok := argument(text, KeywordBan); ok {
		return BanCommand{Identity: arg}
	}
	if arg, ok := argument(text, KeywordUnban); ok {
		return UnbanCommand{Identity: arg}
	}
	if arg, ok := argument(text, KeywordSwap); ok {
		return SwapCommand{Index: arg}
	}
	if arg, ok := argument(text, KeywordRemove); ok {
		return RemoveCommand{Index: arg}
	}
	if arg, ok := argument(text, KeywordAdminLogin); ok {
		return AdminLoginCommand{Password: arg}
	}
	if arg, ok := argument(text, KeywordBlacklist); ok {
		return BlacklistCommand{Keyword: arg}
	}
	if arg, ok := argument(text, KeywordRequest); ok {
		source, query := plugin.ParseQuery(arg)
		return RequestCommand{Source: source, Query: query, Text: text}
	}

	return ChatCommand{Text: text}
}

func argument(text, keyword string) (string, bool) {
	if !strings.HasPrefix(text, keyword) || len(text) == len(keyword) {
		return "", false
	}
	return strings.TrimSpace(text[len(keyword):]), true
}
