package state_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"SyncMusic/core/state"
	"SyncMusic/model"
)

func TestRecoveryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := state.NewRecovery(dir)

	cur := track("a", 10)
	snap := &model.Snapshot{Current: &cur, Queue: []model.Track{track("b", 20), track("c", 30)}}
	if err := r.Save(snap); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "musicshow.json")); err != nil {
		t.Fatalf("expected musicshow.json: %v", err)
	}

	queue, display, err := r.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(queue), []string{"b", "c"}) {
		t.Errorf("unexpected queue %v", ids(queue))
	}
	if !reflect.DeepEqual(ids(display), []string{"a", "b", "c"}) {
		t.Errorf("unexpected display %v", ids(display))
	}
}

func TestRecoveryMissingFiles(t *testing.T) {
	queue, display, err := state.NewRecovery(t.TempDir()).Load()
	if err != nil {
		t.Fatal(err)
	}
	if queue != nil || display != nil {
		t.Errorf("expected nothing, got %v %v", queue, display)
	}
}
