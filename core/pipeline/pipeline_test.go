package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SyncMusic/core/errcode"
	"SyncMusic/core/plugin"
	"SyncMusic/core/state"
)

type fakePlugin struct {
	candidate *plugin.Candidate
	searchErr error
	url       string

	urlCalls int32
	block    chan struct{} // 非空时 Search 阻塞直到关闭
}

func (f *fakePlugin) GetSource() string { return plugin.SourceNetease }

func (f *fakePlugin) Search(ctx context.Context, query string) (*plugin.Candidate, error) {
	if f.block != nil {
		<-f.block
	}
	if f.candidate == nil {
		return nil, f.searchErr
	}
	c := *f.candidate
	return &c, f.searchErr
}

func (f *fakePlugin) PlaybackURL(ctx context.Context, c *plugin.Candidate) (string, error) {
	atomic.AddInt32(&f.urlCalls, 1)
	return f.url, nil
}

func (f *fakePlugin) Lyrics(ctx context.Context, c *plugin.Candidate) (string, error) {
	return "[00:00.00]lyric", nil
}

func (f *fakePlugin) Artwork(ctx context.Context, c *plugin.Candidate) (string, error) {
	return "http://img/" + c.ArtworkRef, nil
}

func (f *fakePlugin) JoinArtists(names []string) string { return plugin.JoinArtistNames(names) }

type fakeMedia struct {
	size       int64
	err        error
	fetchCalls int32
}

func (m *fakeMedia) Fetch(ctx context.Context, id, url string) (string, int64, error) {
	atomic.AddInt32(&m.fetchCalls, 1)
	return "/tmp/" + id + ".mp3", m.size, m.err
}

func (m *fakeMedia) Lyrics(ctx context.Context, id string, fetch func(ctx context.Context) (string, error)) string {
	lrc, _ := fetch(ctx)
	return lrc
}

type fakeProber struct {
	duration float64
	err      error
}

func (p fakeProber) Duration(ctx context.Context, file string) (float64, error) {
	return p.duration, p.err
}

type fixture struct {
	state  *state.State
	plugin *fakePlugin
	media  *fakeMedia
	prober *fakeProber
	pipe   *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := state.New(state.NewMemoryStore())
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	fp := &fakePlugin{
		candidate: &plugin.Candidate{ID: "100", Name: "晴天", Artists: []string{"周杰伦"}, Album: "叶惠美", ArtworkRef: "pic"},
		url:       "http://cdn/100.mp3",
	}
	manager := plugin.NewMusicPluginManager(plugin.SourceNetease)
	manager.Register(fp)

	media := &fakeMedia{size: 1024}
	prober := &fakeProber{duration: 269.5}

	f := &fixture{state: st, plugin: fp, media: media, prober: prober}
	f.pipe = New(st, manager, media, prober, 600, "/media/")
	return f
}

func (f *fixture) resolve() Result {
	return f.pipe.Resolve(context.Background(), Request{Query: "晴天", User: "1.2.3.4"})
}

func TestResolveSuccess(t *testing.T) {
	f := newFixture(t)

	res := f.resolve()
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	tr := res.Track
	if tr.ID != "100" || tr.Artists != "周杰伦" || tr.File != "/media/100.mp3" || tr.User != "1.2.3.4" {
		t.Errorf("unexpected track %+v", tr)
	}
	if tr.Image != "http://img/pic" || tr.Lyrics != "[00:00.00]lyric" || tr.Duration != 269.5 {
		t.Errorf("unexpected metadata %+v", tr)
	}
	if len(res.Snapshot.Queue) != 1 {
		t.Errorf("expected track enqueued, queue=%d", len(res.Snapshot.Queue))
	}
	if f.state.Resolving() {
		t.Error("lock should be released")
	}
}

func TestResolveFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *fixture)
		want  errcode.Code
	}{
		{"not found", func(f *fixture) { f.plugin.candidate = nil }, errcode.NotFound},
		{"search error", func(f *fixture) { f.plugin.searchErr = errors.New("timeout") }, errcode.NotFound},
		{"blocked by name", func(f *fixture) { f.state.AddBlacklist(context.Background(), "晴天") }, errcode.Blocked},
		{"blocked by artist", func(f *fixture) { f.state.AddBlacklist(context.Background(), "周杰") }, errcode.Blocked},
		{"url empty", func(f *fixture) { f.plugin.url = "" }, errcode.URLEmpty},
		{"file empty", func(f *fixture) { f.media.size = 0 }, errcode.FileEmpty},
		{"download error", func(f *fixture) { f.media.err = errors.New("reset") }, errcode.FileEmpty},
		{"duration zero", func(f *fixture) { f.prober.duration = 0 }, errcode.DurationZero},
		{"probe error", func(f *fixture) { f.prober.err = errors.New("exit 1") }, errcode.DurationZero},
		{"too long", func(f *fixture) { f.prober.duration = 601 }, errcode.TooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f)

			res := f.resolve()
			if !errcode.Is(res.Err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, res.Err)
			}
			if n := len(f.state.Snapshot().Queue); n != 0 {
				t.Errorf("queue should be untouched, got %d", n)
			}
			if f.state.Resolving() {
				t.Error("lock should be released on failure")
			}
		})
	}
}

func TestTooLongMessage(t *testing.T) {
	f := newFixture(t)
	f.prober.duration = 700

	res := f.resolve()
	if got := errcode.Message(res.Err); got != "歌曲太长影响他人体验，不能超过 600 秒" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestDuplicateSkipsDownload(t *testing.T) {
	f := newFixture(t)
	if res := f.resolve(); res.Err != nil {
		t.Fatalf("first resolve: %v", res.Err)
	}
	urlCalls := atomic.LoadInt32(&f.plugin.urlCalls)
	fetchCalls := atomic.LoadInt32(&f.media.fetchCalls)

	res := f.resolve()
	if !errcode.Is(res.Err, errcode.Duplicate) {
		t.Fatalf("expected DUPLICATE, got %v", res.Err)
	}
	if atomic.LoadInt32(&f.plugin.urlCalls) != urlCalls || atomic.LoadInt32(&f.media.fetchCalls) != fetchCalls {
		t.Error("duplicate must be detected before url lookup and download")
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	f := newFixture(t)
	f.plugin.block = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	var got Result
	err := f.pipe.Submit(context.Background(), Request{Query: "晴天", User: "a"}, func(r Result) {
		got = r
		wg.Done()
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// 第一个流程还没结束，其余请求都应立即得到 BUSY
	for i := 0; i < 5; i++ {
		err := f.pipe.Submit(context.Background(), Request{Query: "x", User: "b"}, func(Result) {
			t.Error("busy request must not run")
		})
		if !errcode.Is(err, errcode.Busy) {
			t.Fatalf("expected BUSY, got %v", err)
		}
	}
	if res := f.pipe.Resolve(context.Background(), Request{Query: "x"}); !errcode.Is(res.Err, errcode.Busy) {
		t.Fatalf("expected BUSY from Resolve, got %v", res.Err)
	}

	close(f.plugin.block)
	wg.Wait()
	if got.Err != nil {
		t.Fatalf("first request failed: %v", got.Err)
	}

	deadline := time.Now().Add(time.Second)
	for f.state.Resolving() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.state.Resolving() {
		t.Fatal("lock should be released after completion")
	}
	if err := f.pipe.Submit(context.Background(), Request{Query: "晴天", User: "c"}, nil); err != nil {
		t.Errorf("submit after release: %v", err)
	}
}
