package observability

import (
	"context"
	"testing"
	"time"
)

type recordingGeneratorHooks struct {
	runs       int
	placements int
	backtracks int
	completes  int
}

func (h *recordingGeneratorHooks) OnRunStart(string, uint64, int)        { h.runs++ }
func (h *recordingGeneratorHooks) OnPlacement(string, string, int)       { h.placements++ }
func (h *recordingGeneratorHooks) OnBacktrack(int, int)                  { h.backtracks++ }
func (h *recordingGeneratorHooks) OnRunComplete(int, int, time.Duration, error) {
	h.completes++
}

type recordingStoreHooks struct {
	saves, loads, deletes int
}

func (h *recordingStoreHooks) OnSave(context.Context, string, string)       { h.saves++ }
func (h *recordingStoreHooks) OnLoad(context.Context, string, string, bool) { h.loads++ }
func (h *recordingStoreHooks) OnDelete(context.Context, string, string)     { h.deletes++ }

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// No panics, no effects.
	Generator().OnRunStart("catacomb", 1, 10)
	Generator().OnPlacement("passages", "crossing", 1)
	Generator().OnBacktrack(1, 1)
	Generator().OnRunComplete(10, 0, time.Second, nil)
	Store().OnSave(context.Background(), "memory", "id")
	Store().OnLoad(context.Background(), "memory", "id", true)
	Store().OnDelete(context.Background(), "memory", "id")
}

func TestSetGeneratorHooks(t *testing.T) {
	defer Reset()

	h := &recordingGeneratorHooks{}
	SetGeneratorHooks(h)

	Generator().OnRunStart("catacomb", 1, 10)
	Generator().OnPlacement("passages", "crossing", 1)
	Generator().OnBacktrack(1, 1)
	Generator().OnRunComplete(10, 1, time.Second, nil)

	if h.runs != 1 || h.placements != 1 || h.backtracks != 1 || h.completes != 1 {
		t.Errorf("hook counts = %+v, want all 1", *h)
	}
}

func TestSetStoreHooks(t *testing.T) {
	defer Reset()

	h := &recordingStoreHooks{}
	SetStoreHooks(h)

	ctx := context.Background()
	Store().OnSave(ctx, "file", "a")
	Store().OnLoad(ctx, "file", "a", true)
	Store().OnDelete(ctx, "file", "a")

	if h.saves != 1 || h.loads != 1 || h.deletes != 1 {
		t.Errorf("hook counts = %+v, want all 1", *h)
	}
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	defer Reset()

	h := &recordingGeneratorHooks{}
	SetGeneratorHooks(h)
	SetGeneratorHooks(nil)

	Generator().OnRunStart("x", 0, 1)
	if h.runs != 1 {
		t.Error("nil registration should not replace existing hooks")
	}
}

func TestReset(t *testing.T) {
	h := &recordingGeneratorHooks{}
	SetGeneratorHooks(h)
	Reset()

	Generator().OnRunStart("x", 0, 1)
	if h.runs != 0 {
		t.Error("Reset should restore no-op hooks")
	}
}
