package audio

import (
	"context"
	"testing"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration([]byte(`{"format":{"duration":"215.146000"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if d < 215.14 || d > 215.15 {
		t.Errorf("unexpected duration %v", d)
	}

	for _, raw := range []string{`{"format":{}}`, `not json`, `{"format":{"duration":"N/A"}}`} {
		if _, err := parseDuration([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestMissingBinary(t *testing.T) {
	p := NewFFprobe("/nonexistent/ffprobe-binary")
	d, err := p.Duration(context.Background(), "x.mp3")
	if err == nil || d != 0 {
		t.Errorf("expected failure, got %v %v", d, err)
	}
}
