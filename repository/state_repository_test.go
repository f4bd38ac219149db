package repository

import (
	"testing"

	"SyncMusic/model"
)

func TestEntriesRoundTrip(t *testing.T) {
	snap := &model.Snapshot{
		Current:    &model.Track{ID: "1", Name: "now"},
		Queue:      []model.Track{{ID: "2"}, {ID: "3"}},
		TrackStart: 10,
		TrackEnd:   250,
		Elapsed:    5,
		Votes:      []string{"a"},
		Bans:       []string{"b"},
		Blacklist:  []string{"c"},
		Admin:      "d",
	}

	entries, err := EntriesFromSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}

	got, err := SnapshotFromEntries(entries)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Current == nil || got.Current.ID != "1" || len(got.Queue) != 2 {
		t.Errorf("tracks not restored: %+v", got)
	}
	if got.TrackEnd != 250 || got.TrackStart != 10 || got.Elapsed != 5 || got.Admin != "d" {
		t.Errorf("scalars not restored: %+v", got)
	}
}

func TestSnapshotFromEntriesEmpty(t *testing.T) {
	got, err := SnapshotFromEntries(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty snapshot, got %+v", got)
	}

	noCurrent, _ := EntriesFromSnapshot(&model.Snapshot{})
	got, err = SnapshotFromEntries(noCurrent)
	if err != nil || got.Current != nil {
		t.Errorf("expected nil current, got %+v (%v)", got.Current, err)
	}
}

func TestSnapshotFromEntriesCorrupt(t *testing.T) {
	_, err := SnapshotFromEntries([]model.StateEntry{{Key: entryTrackEnd, Value: "abc"}})
	if err == nil {
		t.Error("expected decode error")
	}
}
