package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/canvas"
	"go.uber.org/zap"
)

// ErrStopped is returned when work is submitted to a loop that has shut down.
var ErrStopped = errors.New("render loop stopped")

// Scheduler delivers frame ticks. It is the host's frame clock.
type Scheduler interface {
	Frames() <-chan time.Time
	Stop()
}

// TickerScheduler ticks at a fixed rate.
type TickerScheduler struct {
	t *time.Ticker
}

// NewTickerScheduler ticks fps times per second; fps <= 0 means 30.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 30
	}
	return &TickerScheduler{t: time.NewTicker(time.Second / time.Duration(fps))}
}

func (s *TickerScheduler) Frames() <-chan time.Time { return s.t.C }
func (s *TickerScheduler) Stop()                    { s.t.Stop() }

// ManualScheduler ticks only when Tick is called. Used for tests and one-shot rendering.
type ManualScheduler struct {
	ch chan time.Time
}

// NewManualScheduler returns a scheduler with no pending ticks.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{ch: make(chan time.Time)}
}

// Tick requests one frame and blocks until the loop takes it or ctx ends.
func (s *ManualScheduler) Tick(ctx context.Context) error {
	select {
	case s.ch <- time.Now():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ManualScheduler) Frames() <-chan time.Time { return s.ch }
func (s *ManualScheduler) Stop()                    {}

// Snapshot is the immutable result of one frame, published after the frame completes.
type Snapshot struct {
	Frame   uint64       `json:"frame"`
	Image   *image.RGBA  `json:"-"`
	Stats   FrameStats   `json:"stats"`
	Camera  camera.State `json:"camera"`
	Hovered int          `json:"hovered"`
	At      time.Time    `json:"at"`
}

// Loop drives a Scene from a single goroutine: host commands are applied between frames,
// and a tick renders a fresh frame which is then published as a Snapshot. Ticks with no
// command applied since the last frame render nothing, so idle loops do not allocate.
// Published images are never drawn into again.
type Loop struct {
	scene    *Scene
	renderer *Renderer
	sched    Scheduler
	logger   *zap.Logger

	cmds     chan command
	snapshot atomic.Pointer[Snapshot]
	frames   uint64
	dirty    bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Start launches the loop goroutine and returns its handle. The loop runs until Stop is
// called or ctx is cancelled; it never stops on its own.
func Start(ctx context.Context, scene *Scene, r *Renderer, sched Scheduler, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Loop{
		scene:    scene,
		renderer: r,
		sched:    sched,
		logger:   logger,
		cmds:     make(chan command, 64),
		cancel:   cancel,
		done:     make(chan struct{}),
		dirty:    true,
	}
	go l.run(ctx)
	return l
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer l.sched.Stop()
	l.logger.Debug("render loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("render loop stopped", zap.Uint64("frames", l.frames))
			return
		case cmd := <-l.cmds:
			l.apply(cmd)
		case <-l.sched.Frames():
			l.drain()
			l.frame()
		}
	}
}

// drain applies every queued command so the frame sees all writes made before the tick.
func (l *Loop) drain() {
	for {
		select {
		case cmd := <-l.cmds:
			l.apply(cmd)
		default:
			return
		}
	}
}

// command is one queued scene access. Read-only commands do not schedule a frame.
type command struct {
	fn       func(*Scene)
	readOnly bool
}

func (l *Loop) apply(cmd command) {
	if !cmd.readOnly {
		l.dirty = true
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("render loop command panicked", zap.Any("panic", r))
		}
	}()
	cmd.fn(l.scene)
}

func (l *Loop) frame() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("frame panicked", zap.Any("panic", r))
		}
	}()
	if !l.dirty {
		return
	}
	vp := l.scene.Camera().Viewport()
	surface := canvas.NewRaster(int(vp.Width), int(vp.Height))
	stats := l.renderer.Frame(l.scene, surface)
	l.frames++
	l.snapshot.Store(&Snapshot{
		Frame:   l.frames,
		Image:   surface.Image(),
		Stats:   stats,
		Camera:  l.scene.Camera().State(),
		Hovered: l.scene.Hovered(),
		At:      time.Now(),
	})
	l.dirty = false
}

// Do queues fn to run on the loop goroutine before the next frame.
func (l *Loop) Do(fn func(*Scene)) error {
	return l.send(command{fn: fn})
}

func (l *Loop) send(cmd command) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.cmds <- cmd:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Exec runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Exec(ctx context.Context, fn func(*Scene)) error {
	return l.wait(ctx, fn, false)
}

// View is Exec for fn that only reads the scene; it does not cause a new frame.
func (l *Loop) View(ctx context.Context, fn func(*Scene)) error {
	return l.wait(ctx, fn, true)
}

func (l *Loop) wait(ctx context.Context, fn func(*Scene), readOnly bool) error {
	finished := make(chan struct{})
	if err := l.send(command{fn: func(s *Scene) {
		defer close(finished)
		fn(s)
	}, readOnly: readOnly}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("waiting for render loop: %w", ctx.Err())
	}
}

// Snapshot returns the most recently published frame, or nil before the first frame.
func (l *Loop) Snapshot() *Snapshot { return l.snapshot.Load() }

// Stop ends the loop and waits for its goroutine to exit. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(l.cancel)
	<-l.done
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }
