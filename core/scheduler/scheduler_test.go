package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SyncMusic/core/errcode"
	"SyncMusic/core/pipeline"
	"SyncMusic/core/plugin"
	"SyncMusic/core/session"
	"SyncMusic/core/state"
	"SyncMusic/model"
)

type recorder struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (r *recorder) Push(connID string, msg interface{}) {}

func (r *recorder) Broadcast(msg interface{}) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) BroadcastEach(build func(connID string) interface{}) {}

func (r *recorder) music() []*model.MusicMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MusicMessage
	for _, m := range r.msgs {
		if mm, ok := m.(*model.MusicMessage); ok {
			out = append(out, mm)
		}
	}
	return out
}

func (r *recorder) lists() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if _, ok := m.(*model.ListMessage); ok {
			n++
		}
	}
	return n
}

type fakePlugin struct {
	searches int32
	url      string
}

func (p *fakePlugin) GetSource() string { return plugin.SourceNetease }

func (p *fakePlugin) Search(ctx context.Context, query string) (*plugin.Candidate, error) {
	atomic.AddInt32(&p.searches, 1)
	return &plugin.Candidate{ID: query, Name: "filler " + query}, nil
}

func (p *fakePlugin) PlaybackURL(ctx context.Context, c *plugin.Candidate) (string, error) {
	return p.url, nil
}

func (p *fakePlugin) Lyrics(ctx context.Context, c *plugin.Candidate) (string, error) { return "", nil }

func (p *fakePlugin) Artwork(ctx context.Context, c *plugin.Candidate) (string, error) { return "", nil }

func (p *fakePlugin) JoinArtists(names []string) string { return plugin.JoinArtistNames(names) }

type fakeMedia struct{}

func (fakeMedia) Fetch(ctx context.Context, id, url string) (string, int64, error) {
	return "/tmp/" + id + ".mp3", 10, nil
}

func (fakeMedia) Lyrics(ctx context.Context, id string, fetch func(ctx context.Context) (string, error)) string {
	return ""
}

type fakeProber struct{}

func (fakeProber) Duration(ctx context.Context, file string) (float64, error) { return 60, nil }

type staticFillers []string

func (f staticFillers) Pick() (string, bool) {
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}

type failingStore struct {
	*state.MemoryStore
	fail bool
}

func (f *failingStore) Save(ctx context.Context, snap *model.Snapshot) error {
	if f.fail {
		return errors.New("connection refused")
	}
	return f.MemoryStore.Save(ctx, snap)
}

type harness struct {
	now      time.Time
	state    *state.State
	store    *failingStore
	sessions *session.Registry
	rec      *recorder
	plugin   *fakePlugin
	recovery *state.Recovery
	sched    *Scheduler
}

func newHarness(t *testing.T, fillers Fillers) *harness {
	t.Helper()
	h := &harness{now: time.Unix(1000, 0)}
	h.store = &failingStore{MemoryStore: state.NewMemoryStore()}
	h.state = state.New(h.store, state.WithClock(func() time.Time { return h.now }))
	if err := h.state.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	h.plugin = &fakePlugin{url: "http://cdn/x.mp3"}
	manager := plugin.NewMusicPluginManager(plugin.SourceNetease)
	manager.Register(h.plugin)
	p := pipeline.New(h.state, manager, fakeMedia{}, fakeProber{}, 600, "/media/")

	h.sessions = session.NewRegistry(0)
	h.rec = &recorder{}
	h.recovery = state.NewRecovery(t.TempDir())
	h.sched = New(h.state, p, h.sessions, h.rec, fillers, h.recovery, nil, time.Second, 3*time.Second)
	return h
}

func TestTickAdvancesTimeline(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.state.Enqueue(ctx, model.Track{ID: "a", Duration: 200})
	h.state.Enqueue(ctx, model.Track{ID: "b", Duration: 50})

	if err := h.sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	snap := h.state.Snapshot()
	if snap.Current == nil || snap.Current.ID != "a" || snap.TrackEnd != 1200 {
		t.Fatalf("expected a to end at 1200, got %+v", snap)
	}
	if m := h.rec.music(); len(m) != 1 || m[0].ID != "a" {
		t.Fatalf("expected music broadcast for a, got %+v", m)
	}
	if h.rec.lists() != 1 {
		t.Errorf("expected list broadcast, got %d", h.rec.lists())
	}

	h.now = time.Unix(1100, 0)
	h.sched.Tick(ctx)
	if snap := h.state.Snapshot(); snap.Current.ID != "a" || snap.Elapsed != 100 {
		t.Errorf("a should still play with elapsed 100, got %+v", snap)
	}

	h.now = time.Unix(1198, 0)
	h.sched.Tick(ctx)
	snap = h.state.Snapshot()
	if snap.Current.ID != "b" || snap.TrackEnd != 1248 || len(snap.Queue) != 0 {
		t.Errorf("expected b to start, got %+v", snap)
	}
}

func TestTickWritesRecoveryFiles(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.state.Enqueue(ctx, model.Track{ID: "a", Duration: 200})
	h.state.Enqueue(ctx, model.Track{ID: "b", Duration: 50})

	h.sched.Tick(ctx)

	queue, display, err := h.recovery.Load()
	if err != nil {
		t.Fatalf("load recovery: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != "b" || len(display) != 2 || display[0].ID != "a" {
		t.Errorf("unexpected recovery files queue=%+v display=%+v", queue, display)
	}
}

func TestFillerNeedsOnlineUsers(t *testing.T) {
	h := newHarness(t, staticFillers{"42"})
	ctx := context.Background()

	h.sched.Tick(ctx)
	if n := atomic.LoadInt32(&h.plugin.searches); n != 0 {
		t.Fatalf("filler must not run with nobody online, searches=%d", n)
	}

	h.sessions.Register("c1", "1.2.3.4")
	h.sched.Tick(ctx)
	q := h.state.Snapshot().Queue
	if len(q) != 1 || q[0].ID != "42" || q[0].User != model.SystemIdentity {
		t.Fatalf("expected filler enqueued, got %+v", q)
	}
	if h.rec.lists() != 1 {
		t.Errorf("expected list broadcast after filler, got %d", h.rec.lists())
	}

	// 下一个周期播放补位歌曲
	h.sched.Tick(ctx)
	if cur := h.state.Snapshot().Current; cur == nil || cur.ID != "42" {
		t.Errorf("expected filler to play, got %+v", cur)
	}
}

func TestFillerRetriedAfterFailure(t *testing.T) {
	h := newHarness(t, staticFillers{"42"})
	ctx := context.Background()
	h.sessions.Register("c1", "1.2.3.4")
	h.plugin.url = ""

	h.sched.Tick(ctx)
	h.sched.Tick(ctx)
	if n := atomic.LoadInt32(&h.plugin.searches); n != 2 {
		t.Errorf("failed filler should be retried every tick, searches=%d", n)
	}
	if len(h.state.Snapshot().Queue) != 0 {
		t.Error("failed filler must not enqueue")
	}
}

func TestFillerSkippedWhileBusy(t *testing.T) {
	h := newHarness(t, staticFillers{"42"})
	h.sessions.Register("c1", "1.2.3.4")
	h.state.TryAcquireResolution()
	defer h.state.ReleaseResolution()

	if err := h.sched.Tick(context.Background()); err != nil {
		t.Fatalf("busy pipeline must not fail the tick: %v", err)
	}
	if n := atomic.LoadInt32(&h.plugin.searches); n != 0 {
		t.Errorf("filler must wait for the running request, searches=%d", n)
	}
}

func TestTickStoreFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.store.fail = true

	err := h.sched.Tick(context.Background())
	if !errcode.Is(err, errcode.StoreUnavailable) {
		t.Fatalf("expected STORE_UNAVAILABLE, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, nil)
	h.sched.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.sched.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
