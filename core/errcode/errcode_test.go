package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrappedCodeSurvives(t *testing.T) {
	base := Wrap(StoreUnavailable, errors.New("dial tcp: refused"))
	err := fmt.Errorf("save snapshot: %w", base)

	if !Is(err, StoreUnavailable) {
		t.Fatalf("expected STORE_UNAVAILABLE, got %q", CodeOf(err))
	}
	if Message(err) != "服务器存储异常" {
		t.Errorf("unexpected message %q", Message(err))
	}
}

func TestPlainErrorHasNoCode(t *testing.T) {
	err := errors.New("boom")
	if CodeOf(err) != "" {
		t.Errorf("expected empty code, got %q", CodeOf(err))
	}
	if Is(nil, NotFound) {
		t.Error("nil must not match any code")
	}
}

func TestNewfOverridesText(t *testing.T) {
	err := Newf(TooLong, "歌曲太长影响他人体验，不能超过 %d 秒", 600)
	if Message(err) != "歌曲太长影响他人体验，不能超过 600 秒" {
		t.Errorf("unexpected message %q", Message(err))
	}
}
