// Package dispatch 解析客户端消息并执行对应的命令
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"SyncMusic/core/auth"
	"SyncMusic/core/errcode"
	"SyncMusic/core/pipeline"
	"SyncMusic/core/session"
	"SyncMusic/core/state"
	"SyncMusic/logger"
	"SyncMusic/model"
)

// Notifier 消息下发
type Notifier interface {
	// Push 发给单个连接
	Push(connID string, msg interface{})
	// Broadcast 发给所有连接
	Broadcast(msg interface{})
	// BroadcastEach 按连接分别构造消息，返回 nil 表示不发送
	BroadcastEach(build func(connID string) interface{})
}

// Config 发言与点歌限制
type Config struct {
	MaxChatLength int
	MaxUserMusic  int
}

// Dispatcher 命令分发
type Dispatcher struct {
	state     *state.State
	pipeline  *pipeline.Pipeline
	sessions  *session.Registry
	notifier  Notifier
	admin     *auth.AdminPassword
	nicknames Nicknames
	cfg       Config

	now   func() time.Time
	fatal func(error)
}

func New(st *state.State, p *pipeline.Pipeline, sessions *session.Registry, notifier Notifier,
	admin *auth.AdminPassword, nicknames Nicknames, cfg Config) *Dispatcher {
	return &Dispatcher{
		state:     st,
		pipeline:  p,
		sessions:  sessions,
		notifier:  notifier,
		admin:     admin,
		nicknames: nicknames,
		cfg:       cfg,
		now:       time.Now,
		fatal: func(err error) {
			logger.Fatal("状态存储不可用", logger.ErrorField(err))
		},
	}
}

// SetFatal 替换存储故障时的处理，默认记录日志并退出进程
func (d *Dispatcher) SetFatal(fn func(error)) {
	d.fatal = fn
}

// SetClock 替换时钟
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// HandleConnect 登记会话并推送欢迎消息、当前歌曲与播放列表
func (d *Dispatcher) HandleConnect(connID, identity string) {
	d.sessions.Register(connID, identity)
	logger.Info("客户端已连接",
		logger.String("conn", connID),
		logger.String("ip", identity),
		logger.Int("online", d.sessions.Count()))

	d.notifier.Push(connID, model.Notice("你已经成功连接到服务器！"))

	snap := d.state.Snapshot()
	if snap.Current != nil {
		d.notifier.Push(connID, model.NewMusicMessage(snap.Current, snap.Elapsed+1))
	}
	d.notifier.Push(connID, RenderList(snap, d.nicknames))
}

// HandleDisconnect 注销会话，不影响队列与投票
func (d *Dispatcher) HandleDisconnect(connID string) {
	d.sessions.Unregister(connID)
	logger.Info("客户端已断开", logger.String("conn", connID), logger.Int("online", d.sessions.Count()))
}

// HandleMessage 处理一条原始消息。ctx 需要在点歌流程结束前保持有效
func (d *Dispatcher) HandleMessage(ctx context.Context, connID string, raw []byte) {
	sess, ok := d.sessions.Lookup(connID)
	if !ok {
		return
	}

	var in model.InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
		logger.Debug("无法解析的消息", logger.String("conn", connID))
		return
	}

	switch in.Type {
	case model.MsgTypeHeartbeat:
		d.notifier.Push(connID, &model.OnlineMessage{Type: model.MsgTypeOnline, Data: d.sessions.Count()})

	case model.MsgTypeMsg:
		if d.state.IsBanned(sess.Identity) {
			d.notifier.Push(connID, model.Notice("你没有权限发言"))
			return
		}
		if !d.sessions.Allow(connID, d.now()) {
			d.reply(connID, errcode.New(errcode.RateLimited))
			return
		}
		logger.Info("客户端发送消息", logger.String("conn", connID), logger.String("data", in.Data))
		d.execute(ctx, sess, Parse(in.Data))

	default:
		logger.Debug("未知的消息类型", logger.String("type", string(in.Type)))
	}
}

func (d *Dispatcher) execute(ctx context.Context, sess *session.Session, cmd Command) {
	switch c := cmd.(type) {
	case SkipCommand:
		d.skip(ctx, sess)
	case VoteSkipCommand:
		d.voteSkip(ctx, sess)
	case BanListCommand:
		d.banList(sess)
	case BanCommand:
		d.ban(ctx, sess, c)
	case UnbanCommand:
		d.unban(ctx, sess, c)
	case SwapCommand:
		d.swap(ctx, sess, c)
	case RemoveCommand:
		d.remove(ctx, sess, c)
	case AdminLoginCommand:
		d.adminLogin(ctx, sess, c)
	case BlacklistCommand:
		d.blacklist(ctx, sess, c)
	case RequestCommand:
		d.request(ctx, sess, c)
	case ChatCommand:
		d.chat(sess, c)
	default:
		logger.Warn("未处理的命令", logger.String("type", fmt.Sprintf("%T", cmd)))
	}
}

// reply 把错误转换为提示发给发送者，存储故障交给 fatal
func (d *Dispatcher) reply(connID string, err error) {
	if errcode.Is(err, errcode.StoreUnavailable) {
		d.fatal(err)
		return
	}
	d.notifier.Push(connID, model.Notice(errcode.Message(err)))
}

func (d *Dispatcher) requireAdmin(sess *session.Session) bool {
	if d.state.IsAdmin(sess.Identity) {
		return true
	}
	d.reply(sess.ID, errcode.New(errcode.PermissionDenied))
	return false
}

func (d *Dispatcher) broadcastList(snap *model.Snapshot) {
	d.notifier.Broadcast(RenderList(snap, d.nicknames))
}

// broadcastChat 以发送者身份广播一条聊天，aliasAdmin 为 true 时管理员显示为“管理员”
func (d *Dispatcher) broadcastChat(sender *session.Session, text string, aliasAdmin bool) {
	senderAdmin := aliasAdmin && d.state.IsAdmin(sender.Identity)
	nick := lookupNick(d.nicknames, sender.Identity)
	now := d.now()

	d.notifier.BroadcastEach(func(connID string) interface{} {
		viewerAdmin := false
		if viewer, ok := d.sessions.Lookup(connID); ok {
			viewerAdmin = d.state.IsAdmin(viewer.Identity)
		}
		return newChat(chatName(sender.Identity, nick, senderAdmin, viewerAdmin), text, now)
	})
}

func (d *Dispatcher) tooLong(text string) bool {
	return d.cfg.MaxChatLength > 0 && utf8.RuneCountInString(text) > d.cfg.MaxChatLength
}

func (d *Dispatcher) rejectTooLong(connID string) {
	d.reply(connID, errcode.Newf(errcode.MessageTooLong, "消息过长，最多 %d 字符", d.cfg.MaxChatLength))
}

// ========== 切歌 ==========

func (d *Dispatcher) skip(ctx context.Context, sess *session.Session) {
	if !d.requireAdmin(sess) {
		return
	}
	if err := d.state.ForceSkip(ctx); err != nil {
		d.reply(sess.ID, err)
		return
	}
	logger.Info("管理员切歌", logger.String("ip", sess.Identity))
	d.notifier.Push(sess.ID, model.Notice("成功切歌"))
}

func (d *Dispatcher) voteSkip(ctx context.Context, sess *session.Session) {
	online := d.sessions.Count()
	res, err := d.state.Vote(ctx, sess.Identity, online)
	if err != nil {
		d.reply(sess.ID, err)
		return
	}

	if res.First {
		d.notifier.Broadcast(model.Notice("有人希望切歌，支持请输入 “投票切歌”"))
	}
	d.notifier.Push(sess.ID, model.Notice("投票成功"))

	if res.Passed {
		logger.Info("投票切歌通过", logger.Int("votes", res.Count), logger.Int("online", res.Online))
		d.notifier.Push(sess.ID, model.Notice("成功切歌"))
	} else {
		d.notifier.Broadcast(model.Notice(fmt.Sprintf("当前投票人数：%d/%d", res.Count, res.Online)))
	}

	d.broadcastChat(sess, KeywordVoteSkip, false)
}

// ========== 禁言 ==========

func (d *Dispatcher) banList(sess *session.Session) {
	if !d.requireAdmin(sess) {
		return
	}
	text := "禁言 IP 列表：" + strings.Join(d.state.Bans(), ";")
	d.notifier.Push(sess.ID, newChat(systemName, text, d.now()))
}

func (d *Dispatcher) ban(ctx context.Context, sess *session.Session, c BanCommand) {
	if !d.requireAdmin(sess) {
		return
	}
	if c.Identity == "" {
		d.reply(sess.ID, errcode.Newf(errcode.EmptyArgument, "禁言的 IP 不能为空！"))
		return
	}
	if err := d.state.Ban(ctx, c.Identity); err != nil {
		d.reply(sess.ID, err)
		return
	}
	logger.Info("禁言", logger.String("target", c.Identity))
	d.notifier.Push(sess.ID, model.Notice("成功禁止此 IP 点歌和发言"))
}

func (d *Dispatcher) unban(ctx context.Context, sess *session.Session, c UnbanCommand) {
	if !d.requireAdmin(sess) {
		return
	}
	if c.Identity == "" {
		d.reply(sess.ID, errcode.Newf(errcode.EmptyArgument, "解禁的 IP 不能为空！"))
		return
	}
	if err := d.state.Unban(ctx, c.Identity); err != nil {
		d.reply(sess.ID, err)
		return
	}
	logger.Info("解除禁言", logger.String("target", c.Identity))
	d.notifier.Push(sess.ID, model.Notice("成功解禁此 IP 的禁言"))
}

// ========== 列表管理 ==========

func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errcode.New(errcode.InvalidIndex)
	}
	return n, nil
}

func (d *Dispatcher) swap(ctx context.Context, sess *session.Session, c SwapCommand) {
	if !d.requireAdmin(sess) {
		return
	}
	if c.Index == "" {
		d.reply(sess.ID, errcode.Newf(errcode.EmptyArgument, "要切换的歌曲不能为空"))
		return
	}
	n, err := parseIndex(c.Index)
	if err != nil {
		d.reply(sess.ID, err)
		return
	}
	snap, err := d.state.Swap(ctx, n)
	if err != nil {
		d.reply(sess.ID, err)
		return
	}
	d.broadcastList(snap)
	d.notifier.Push(sess.ID, model.Notice("音乐切换成功"))
}

func (d *Dispatcher) remove(ctx context.Context, sess *session.Session, c RemoveCommand) {
	if !d.requireAdmin(sess) {
		return
	}
	if c.Index == "" {
		d.reply(sess.ID, errcode.Newf(errcode.EmptyArgument, "要删除的歌曲不能为空"))
		return
	}
	n, err := parseIndex(c.Index)
	if err != nil {
		d.reply(sess.ID, err)
		return
	}
	snap, err := d.state.Remove(ctx, n)
	if err != nil {
		d.reply(sess.ID, err)
		return
	}
	d.broadcastList(snap)
	d.notifier.Push(sess.ID, model.Notice("音乐删除成功"))
}

// ========== 管理员 ==========

func (d *Dispatcher) adminLogin(ctx context.Context, sess *session.Session, c AdminLoginCommand) {
	if !d.admin.Verify(c.Password) {
		logger.Warn("房管密码错误", logger.String("ip", sess.Identity))
		d.notifier.Push(sess.ID, model.Notice("房管密码错误"))
		return
	}
	if err := d.state.SetAdmin(ctx, sess.Identity); err != nil {
		d.reply(sess.ID, err)
		return
	}
	logger.Info("房管登录成功", logger.String("ip", sess.Identity))
	d.notifier.Push(sess.ID, model.Notice("房管登录成功"))
}

func (d *Dispatcher) blacklist(ctx context.Context, sess *session.Session, c BlacklistCommand) {
	if !d.requireAdmin(sess) {
		return
	}
	if err := d.state.AddBlacklist(ctx, c.Keyword); err != nil {
		d.reply(sess.ID, err)
		return
	}
	d.notifier.Push(sess.ID, model.Notice("已增加新的黑名单"))
}

// ========== 点歌与聊天 ==========

func (d *Dispatcher) request(ctx context.Context, sess *session.Session, c RequestCommand) {
	if c.Query == "" {
		d.reply(sess.ID, errcode.Newf(errcode.EmptyArgument, "歌曲名不能为空！"))
		return
	}
	if d.cfg.MaxUserMusic > 0 && d.state.PendingCount(sess.Identity) >= d.cfg.MaxUserMusic {
		d.reply(sess.ID, errcode.New(errcode.QuotaExceeded))
		return
	}
	if d.tooLong(c.Query) {
		d.rejectTooLong(sess.ID)
		return
	}

	connID := sess.ID
	req := pipeline.Request{Query: c.Query, Source: c.Source, User: sess.Identity}
	err := d.pipeline.Submit(ctx, req, func(res pipeline.Result) {
		if res.Err != nil {
			d.reply(connID, res.Err)
			return
		}
		d.broadcastList(res.Snapshot)
		d.notifier.Push(connID, model.Notice("点歌成功"))
	})
	if err != nil {
		d.reply(sess.ID, err)
		return
	}

	d.broadcastChat(sess, c.Text, false)
}

func (d *Dispatcher) chat(sess *session.Session, c ChatCommand) {
	if d.tooLong(c.Text) {
		d.rejectTooLong(sess.ID)
		return
	}
	d.broadcastChat(sess, c.Text, true)
}
