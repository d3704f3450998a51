package render

import (
	"context"
	"testing"
	"time"

	"github.com/hyperjump/starmap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestLoop(t *testing.T) (*Loop, *ManualScheduler) {
	t.Helper()
	s := newTestScene()
	sched := NewManualScheduler()
	l := Start(context.Background(), s, newTestRenderer(), sched, nil)
	t.Cleanup(l.Stop)
	return l, sched
}

func TestLoop_publishesSnapshots(t *testing.T) {
	l, sched := startTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Nil(t, l.Snapshot())

	require.NoError(t, l.Exec(ctx, func(s *Scene) {
		s.SetDataset(&models.Dataset{Points: linePoints()})
		s.SetHovered(0)
	}))
	require.NoError(t, sched.Tick(ctx))
	// commands are served after the frame that was already taken
	require.NoError(t, l.Exec(ctx, func(*Scene) {}))

	snap := l.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Frame)
	assert.Equal(t, 3, snap.Stats.Drawn)
	assert.Equal(t, 0, snap.Hovered)
	assert.Equal(t, 800, snap.Image.Bounds().Dx())

	require.NoError(t, sched.Tick(ctx))
	require.NoError(t, l.Exec(ctx, func(*Scene) {}))
	next := l.Snapshot()
	assert.Equal(t, uint64(2), next.Frame)
	assert.NotSame(t, snap.Image, next.Image, "published images are never reused")
}

func TestLoop_commandsAppliedBeforeFrame(t *testing.T) {
	l, sched := startTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, l.Do(func(s *Scene) { s.Camera().SetZoom(2) }))
	require.NoError(t, sched.Tick(ctx))
	require.NoError(t, l.Exec(ctx, func(*Scene) {}))

	assert.Equal(t, 2.0, l.Snapshot().Camera.Zoom)
}

func TestLoop_recoversFromPanics(t *testing.T) {
	l, _ := startTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, l.Exec(ctx, func(*Scene) { panic("boom") }))

	var zoom float64
	require.NoError(t, l.Exec(ctx, func(s *Scene) { zoom = s.Camera().Zoom() }))
	assert.Equal(t, 1.0, zoom)
}

func TestLoop_idleTicksRenderNothing(t *testing.T) {
	l, sched := startTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// the first tick always renders
	require.NoError(t, sched.Tick(ctx))
	require.NoError(t, l.View(ctx, func(*Scene) {}))
	first := l.Snapshot()
	require.NotNil(t, first)

	for i := 0; i < 3; i++ {
		require.NoError(t, sched.Tick(ctx))
	}
	var zoom float64
	require.NoError(t, l.View(ctx, func(s *Scene) { zoom = s.Camera().Zoom() }))
	assert.Equal(t, 1.0, zoom)
	require.NoError(t, sched.Tick(ctx))
	require.NoError(t, l.View(ctx, func(*Scene) {}))
	assert.Same(t, first, l.Snapshot(), "idle ticks and read-only commands must not publish frames")

	require.NoError(t, l.Do(func(s *Scene) { s.Camera().SetZoom(3) }))
	require.NoError(t, sched.Tick(ctx))
	require.NoError(t, l.View(ctx, func(*Scene) {}))
	next := l.Snapshot()
	assert.Equal(t, uint64(2), next.Frame)
	assert.Equal(t, 3.0, next.Camera.Zoom)
	assert.NotSame(t, first.Image, next.Image)

	assert.ErrorIs(t, func() error { l.Stop(); return l.View(ctx, func(*Scene) {}) }(), ErrStopped)
}

func TestLoop_stop(t *testing.T) {
	l, _ := startTestLoop(t)
	l.Stop()
	l.Stop()

	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	assert.ErrorIs(t, l.Do(func(*Scene) {}), ErrStopped)
	assert.ErrorIs(t, l.Exec(context.Background(), func(*Scene) {}), ErrStopped)
}

func TestLoop_contextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := Start(ctx, newTestScene(), newTestRenderer(), NewManualScheduler(), nil)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}

func TestTickerScheduler(t *testing.T) {
	s := NewTickerScheduler(100)
	defer s.Stop()
	select {
	case <-s.Frames():
	case <-time.After(5 * time.Second):
		t.Fatal("no tick")
	}
}
