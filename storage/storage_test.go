package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"SyncMusic/model"
)

func TestBadgerStoreRoundTrip(t *testing.T) {
	store, err := OpenBadgerStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if !empty.IsEmpty() {
		t.Fatalf("expected empty snapshot, got %+v", empty)
	}

	snap := &model.Snapshot{
		Current:   &model.Track{ID: "1", Name: "a", Duration: 12.5},
		Queue:     []model.Track{{ID: "2", Name: "b", User: "1.2.3.4"}},
		TrackEnd:  100,
		Bans:      []string{"5.6.7.8"},
		Blacklist: []string{"kw"},
		Admin:     "9.9.9.9",
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Current == nil || got.Current.ID != "1" || len(got.Queue) != 1 || got.Queue[0].User != "1.2.3.4" {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if got.TrackEnd != 100 || got.Admin != "9.9.9.9" || got.Bans[0] != "5.6.7.8" {
		t.Errorf("scalar fields not restored: %+v", got)
	}
}

func TestMediaCacheFetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/empty" {
			return
		}
		w.Write([]byte("ID3-data"))
	}))
	defer srv.Close()

	cache, err := NewMediaCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()

	path, size, err := cache.Fetch(ctx, "42", srv.URL+"/song.mp3")
	if err != nil || size != 8 {
		t.Fatalf("expected 8 bytes, got %d (%v)", size, err)
	}
	if path != cache.Path("42") {
		t.Errorf("unexpected path %s", path)
	}

	// 第二次命中本地缓存
	if _, size, _ = cache.Fetch(ctx, "42", srv.URL+"/song.mp3"); size != 8 || atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected cache hit, size=%d hits=%d", size, hits)
	}

	_, size, err = cache.Fetch(ctx, "43", srv.URL+"/empty")
	if err != nil || size != 0 {
		t.Errorf("expected empty download, got %d (%v)", size, err)
	}
	if _, err := os.Stat(cache.Path("43")); !os.IsNotExist(err) {
		t.Error("empty file should be removed")
	}
}

func TestMediaCacheLyrics(t *testing.T) {
	cache, err := NewMediaCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	calls := 0

	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "[00:00.00]hello", nil
	}
	if got := cache.Lyrics(ctx, "1", fetch); got != "[00:00.00]hello" {
		t.Errorf("unexpected lyrics %q", got)
	}
	if got := cache.Lyrics(ctx, "1", fetch); got != "[00:00.00]hello" || calls != 1 {
		t.Errorf("expected cached lyrics, calls=%d", calls)
	}

	failing := func(ctx context.Context) (string, error) { return "", errors.New("boom") }
	if got := cache.Lyrics(ctx, "2", failing); got != DefaultLyrics {
		t.Errorf("expected default lyrics, got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d): expected %s, got %s", in, want, got)
		}
	}
}
