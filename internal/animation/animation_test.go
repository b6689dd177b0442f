package animation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/types"
)

type fakePositioner struct {
	mu     sync.Mutex
	frames map[types.WindowID]types.Rect
	calls  int
	fail   map[types.WindowID]bool
}

func newFakePositioner() *fakePositioner {
	return &fakePositioner{
		frames: make(map[types.WindowID]types.Rect),
		fail:   make(map[types.WindowID]bool),
	}
}

func (f *fakePositioner) SetFrame(ctx context.Context, id types.WindowID, frame types.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[id] {
		return errors.New("window gone")
	}
	f.frames[id] = frame
	return nil
}

func (f *fakePositioner) frame(id types.WindowID) types.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[id]
}

func TestEasingEndpoints(t *testing.T) {
	funcs := map[string]Func{
		"linear":      Linear,
		"ease-in":     EaseIn,
		"ease-out":    EaseOut,
		"ease-in-out": EaseInOut,
		"spring":      Spring(180, 20),
	}

	for name, fn := range funcs {
		if got := fn(0); math.Abs(got) > 1e-9 && name != "spring" {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := fn(1); math.Abs(got-1) > 1e-9 {
			t.Errorf("%s(1) = %v, want exactly 1", name, got)
		}
	}
}

func TestEasingMonotonicAtEnds(t *testing.T) {
	// Ease-out must decelerate: first half covers more than half the span
	if EaseOut(0.5) <= 0.5 {
		t.Errorf("EaseOut(0.5) = %v, want > 0.5", EaseOut(0.5))
	}
	if EaseIn(0.5) >= 0.5 {
		t.Errorf("EaseIn(0.5) = %v, want < 0.5", EaseIn(0.5))
	}
}

func TestByNameFallsBackToEaseOut(t *testing.T) {
	fn := ByName("bogus", 0, 0)
	if fn(0.5) != EaseOut(0.5) {
		t.Error("unknown easing name should fall back to ease-out")
	}
}

func TestAnimateReachesTargets(t *testing.T) {
	pos := newFakePositioner()
	a := New(pos, 30*time.Millisecond, Linear)

	moves := []Move{
		{WindowID: 1, From: types.Rect{Width: 100, Height: 100}, To: types.Rect{X: 500, Y: 300, Width: 800, Height: 600}},
		{WindowID: 2, From: types.Rect{X: 900, Width: 400, Height: 400}, To: types.Rect{X: 0, Width: 400, Height: 400}},
	}

	failed, err := a.Animate(context.Background(), moves)
	if err != nil {
		t.Fatalf("Animate failed: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("failed windows = %v, want none", failed)
	}

	// Final frames are the exact targets, not an epsilon approximation
	for _, m := range moves {
		if got := pos.frame(m.WindowID); got != m.To {
			t.Errorf("window %d final frame = %+v, want exact target %+v", m.WindowID, got, m.To)
		}
	}
}

func TestAnimateSuperseded(t *testing.T) {
	pos := newFakePositioner()
	a := New(pos, 500*time.Millisecond, Linear)

	moves := []Move{{WindowID: 1, From: types.Rect{Width: 100, Height: 100}, To: types.Rect{X: 1000, Width: 100, Height: 100}}}

	done := make(chan error, 1)
	go func() {
		_, err := a.Animate(context.Background(), moves)
		done <- err
	}()

	// Let the first animation start ticking, then supersede it
	time.Sleep(40 * time.Millisecond)
	a.Supersede()

	select {
	case err := <-done:
		if !errors.Is(err, errs.ErrAnimationCancelled) {
			t.Errorf("superseded animation returned %v, want ErrAnimationCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded animation did not exit")
	}
}

func TestAnimateSupersededByNewerCall(t *testing.T) {
	pos := newFakePositioner()
	a := New(pos, 120*time.Millisecond, Linear)

	first := []Move{{WindowID: 1, From: types.Rect{Width: 100, Height: 100}, To: types.Rect{X: 1000, Width: 100, Height: 100}}}
	second := []Move{{WindowID: 1, From: types.Rect{X: 300, Width: 100, Height: 100}, To: types.Rect{X: 50, Y: 80, Width: 640, Height: 480}}}

	done := make(chan error, 1)
	go func() {
		_, err := a.Animate(context.Background(), first)
		done <- err
	}()

	// A relayout mid-animation starts a new pass on the same animator.
	// The old loop keeps ticking until it observes the bumped generation,
	// so both runs briefly overlap.
	time.Sleep(20 * time.Millisecond)
	failed, err := a.Animate(context.Background(), second)
	if err != nil {
		t.Fatalf("second Animate failed: %v", err)
	}
	if len(failed) != 0 {
		t.Errorf("failed windows = %v, want none", failed)
	}

	select {
	case err := <-done:
		if !errors.Is(err, errs.ErrAnimationCancelled) {
			t.Errorf("first animation returned %v, want ErrAnimationCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first animation did not exit")
	}

	// The second pass owns the final geometry
	if got := pos.frame(1); got != second[0].To {
		t.Errorf("final frame = %+v, want %+v", got, second[0].To)
	}
}

func TestAnimateReportsFailedWindows(t *testing.T) {
	pos := newFakePositioner()
	pos.fail[2] = true
	a := New(pos, 20*time.Millisecond, Linear)

	moves := []Move{
		{WindowID: 1, From: types.Rect{Width: 100, Height: 100}, To: types.Rect{X: 200, Width: 100, Height: 100}},
		{WindowID: 2, From: types.Rect{Width: 100, Height: 100}, To: types.Rect{X: 400, Width: 100, Height: 100}},
	}

	failed, err := a.Animate(context.Background(), moves)
	if err != nil {
		t.Fatalf("Animate failed: %v", err)
	}
	if len(failed) != 1 || failed[0] != 2 {
		t.Errorf("failed windows = %v, want [2]", failed)
	}
	// The healthy window still arrived
	if got := pos.frame(1); got.X != 200 {
		t.Errorf("window 1 frame = %+v, want x=200", got)
	}
}

func TestAnimateEmptyMoves(t *testing.T) {
	a := New(newFakePositioner(), DefaultDuration, nil)
	failed, err := a.Animate(context.Background(), nil)
	if err != nil || failed != nil {
		t.Errorf("empty animation = (%v, %v), want (nil, nil)", failed, err)
	}
}

func TestAnimateContextCancel(t *testing.T) {
	pos := newFakePositioner()
	a := New(pos, time.Second, Linear)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := a.Animate(ctx, []Move{{WindowID: 1, To: types.Rect{X: 100, Width: 50, Height: 50}}})
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled animation returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled animation did not exit")
	}
}
