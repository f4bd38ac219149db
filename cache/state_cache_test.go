package cache

import (
	"context"
	"testing"

	"SyncMusic/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestStore(t *testing.T, prefix string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, prefix), mr
}

func TestRedisStoreEmpty(t *testing.T) {
	store, _ := newTestStore(t, "")

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !snap.IsEmpty() || snap.TrackEnd != 0 || snap.Admin != "" {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t, "room1:")
	ctx := context.Background()

	snap := &model.Snapshot{
		Current:    &model.Track{ID: "1", Name: "first", Duration: 200},
		Queue:      []model.Track{{ID: "2", Name: "second", User: "10.0.0.1"}},
		TrackStart: 1000,
		TrackEnd:   1200,
		Elapsed:    15,
		Votes:      []string{"10.0.0.2"},
		Bans:       []string{"10.0.0.3"},
		Blacklist:  []string{"bad"},
		Admin:      "10.0.0.4",
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got, _ := mr.Get("room1:music-time"); got != "1200" {
		t.Errorf("expected music-time 1200, got %q", got)
	}
	if !mr.Exists("room1:syncmusic-show") {
		t.Error("display list key should be written")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Current == nil || got.Current.ID != "1" {
		t.Fatalf("current not restored: %+v", got.Current)
	}
	if len(got.Queue) != 1 || got.Queue[0].User != "10.0.0.1" {
		t.Errorf("queue not restored: %+v", got.Queue)
	}
	if got.TrackStart != 1000 || got.Elapsed != 15 || got.Admin != "10.0.0.4" {
		t.Errorf("scalars not restored: %+v", got)
	}
	if len(got.Votes) != 1 || len(got.Bans) != 1 || got.Blacklist[0] != "bad" {
		t.Errorf("lists not restored: %+v", got)
	}

	// 清空当前歌曲后键被删除
	snap.Current = nil
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists("room1:music-current") {
		t.Error("music-current should be removed")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t, "")
	mr.Close()

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("expected load error when redis is down")
	}
	if err := store.Save(context.Background(), &model.Snapshot{}); err == nil {
		t.Error("expected save error when redis is down")
	}
}
