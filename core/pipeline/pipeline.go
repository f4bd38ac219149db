// Package pipeline 点歌流程：搜索、去重、取地址、黑名单、下载、歌词、封面、时长，最后入队
package pipeline

import (
	"context"
	"fmt"
	"time"

	"SyncMusic/core/audio"
	"SyncMusic/core/errcode"
	"SyncMusic/core/plugin"
	"SyncMusic/core/state"
	"SyncMusic/logger"
	"SyncMusic/model"
)

// DefaultTimeout 单次点歌流程的最长耗时
const DefaultTimeout = 3 * time.Minute

// Media 媒体与歌词缓存
type Media interface {
	Fetch(ctx context.Context, id, url string) (path string, size int64, err error)
	Lyrics(ctx context.Context, id string, fetch func(ctx context.Context) (string, error)) string
}

// Request 一次点歌请求
type Request struct {
	Query  string
	Source string // 空为默认来源
	User   string // 点歌人身份，补位时为 model.SystemIdentity
}

// Result 点歌结果，Err 为 nil 时 Track 与 Snapshot 有效
type Result struct {
	Track    *model.Track
	Snapshot *model.Snapshot
	Err      error
}

// Pipeline 同一时间只允许一个点歌流程运行
type Pipeline struct {
	state     *state.State
	plugins   *plugin.MusicPluginManager
	media     Media
	prober    audio.Prober
	maxLength int // 秒
	urlPrefix string
	timeout   time.Duration
}

func New(st *state.State, plugins *plugin.MusicPluginManager, media Media, prober audio.Prober, maxLength int, urlPrefix string) *Pipeline {
	return &Pipeline{
		state:     st,
		plugins:   plugins,
		media:     media,
		prober:    prober,
		maxLength: maxLength,
		urlPrefix: urlPrefix,
		timeout:   DefaultTimeout,
	}
}

// Submit 同步获取点歌锁，已被占用时立即返回 BUSY；流程在后台运行，结束后调用 done
func (p *Pipeline) Submit(ctx context.Context, req Request, done func(Result)) error {
	if !p.state.TryAcquireResolution() {
		return errcode.New(errcode.Busy)
	}

	go func() {
		defer p.state.ReleaseResolution()

		res := p.run(ctx, req)
		if done != nil {
			done(res)
		}
	}()
	return nil
}

// Resolve 同步执行，调度器补位使用
func (p *Pipeline) Resolve(ctx context.Context, req Request) Result {
	if !p.state.TryAcquireResolution() {
		return Result{Err: errcode.New(errcode.Busy)}
	}
	defer p.state.ReleaseResolution()

	return p.run(ctx, req)
}

func (p *Pipeline) run(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	track, snap, err := p.resolve(ctx, req)
	if err != nil {
		logger.Info("点歌失败",
			logger.String("query", req.Query),
			logger.String("user", req.User),
			logger.String("code", string(errcode.CodeOf(err))),
			logger.ErrorField(err))
		return Result{Err: err}
	}

	logger.Info("点歌成功",
		logger.String("id", track.ID),
		logger.String("name", track.Name),
		logger.String("user", req.User),
		logger.Float64("duration", track.Duration),
		logger.Duration("cost", time.Since(start)))
	return Result{Track: track, Snapshot: snap}
}

func (p *Pipeline) resolve(ctx context.Context, req Request) (*model.Track, *model.Snapshot, error) {
	mp, err := p.plugins.Get(req.Source)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.NotFound, err)
	}

	// 1. 搜索
	c, err := mp.Search(ctx, req.Query)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.NotFound, err)
	}
	if c == nil || c.ID == "" {
		return nil, nil, errcode.New(errcode.NotFound)
	}

	// 2. 去重，在任何下载之前
	if p.state.QueueContains(c.ID) {
		return nil, nil, errcode.New(errcode.Duplicate)
	}

	artists := mp.JoinArtists(c.Artists)

	// 3. 播放地址
	url, err := mp.PlaybackURL(ctx, c)
	if err != nil {
		logger.Warn("获取播放地址失败", logger.String("id", c.ID), logger.ErrorField(err))
		url = ""
	}

	// 4. 黑名单
	if p.state.IsBlocked(c.ID, c.Name, artists) {
		return nil, nil, errcode.New(errcode.Blocked)
	}

	if url == "" {
		return nil, nil, errcode.New(errcode.URLEmpty)
	}

	// 5. 下载
	path, size, err := p.media.Fetch(ctx, c.ID, url)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.FileEmpty, err)
	}
	if size == 0 {
		return nil, nil, errcode.New(errcode.FileEmpty)
	}

	// 6. 歌词与封面失败不影响点歌
	lyrics := p.media.Lyrics(ctx, c.ID, func(ctx context.Context) (string, error) {
		return mp.Lyrics(ctx, c)
	})
	image, err := mp.Artwork(ctx, c)
	if err != nil {
		logger.Warn("获取封面失败", logger.String("id", c.ID), logger.ErrorField(err))
		image = ""
	}

	// 7. 时长
	duration, err := p.prober.Duration(ctx, path)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.DurationZero, err)
	}
	if duration <= 0 {
		return nil, nil, errcode.New(errcode.DurationZero)
	}
	if p.maxLength > 0 && duration > float64(p.maxLength) {
		return nil, nil, errcode.Newf(errcode.TooLong, "歌曲太长影响他人体验，不能超过 %d 秒", p.maxLength)
	}

	track := model.Track{
		ID:       c.ID,
		Name:     c.Name,
		Artists:  artists,
		Album:    c.Album,
		Image:    image,
		File:     fmt.Sprintf("%s%s.mp3", p.urlPrefix, c.ID),
		Path:     path,
		Lyrics:   lyrics,
		Duration: duration,
		User:     req.User,
		Source:   mp.GetSource(),
	}

	// 8. 入队，期间可能有人点了同一首
	snap, err := p.state.Enqueue(ctx, track)
	if err != nil {
		return nil, nil, err
	}
	return &track, snap, nil
}
