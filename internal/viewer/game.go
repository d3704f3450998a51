// Package viewer is the desktop host: an ebiten game that owns a Scene on the game goroutine,
// feeds mouse and wheel input into the interaction controller and renders every frame.
package viewer

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/interaction"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
	"github.com/hyperjump/starmap/pkg/utils"
)

// Command mutates the scene on the game goroutine.
type Command func(*render.Scene, *interaction.Controller)

// Game implements ebiten.Game.
type Game struct {
	scene    *render.Scene
	renderer *render.Renderer
	ctrl     *interaction.Controller
	canvas   *screenCanvas
	logger   *zap.Logger

	cmds  chan Command
	stats render.FrameStats

	width, height int
	pressed       bool
	inside        bool
	lastX, lastY  int
	selected      int
}

// NewGame wires a game around scene. The controller's hover and click callbacks are taken
// over by the game.
func NewGame(scene *render.Scene, renderer *render.Renderer, ctrl *interaction.Controller, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	vp := scene.Camera().Viewport()
	g := &Game{
		scene:    scene,
		renderer: renderer,
		ctrl:     ctrl,
		canvas:   newScreenCanvas(),
		logger:   logger,
		cmds:     make(chan Command, 16),
		width:    int(vp.Width),
		height:   int(vp.Height),
		selected: -1,
	}
	ctrl.OnClick = g.onClick
	return g
}

// Do queues cmd to run before the next update. Safe to call from any goroutine; it drops the
// command when the queue is full rather than block the caller.
func (g *Game) Do(cmd Command) bool {
	select {
	case g.cmds <- cmd:
		return true
	default:
		g.logger.Warn("viewer command queue full, dropping command")
		return false
	}
}

// SetDataset queues a dataset replacement.
func (g *Game) SetDataset(ds *models.Dataset) bool {
	return g.Do(func(s *render.Scene, _ *interaction.Controller) { s.SetDataset(ds) })
}

// SetSimilarities queues a similarity map, auto-centring the camera like any host update.
func (g *Game) SetSimilarities(sims models.SimilarityMap) bool {
	return g.Do(func(_ *render.Scene, c *interaction.Controller) { c.SetSimilarities(sims) })
}

// Selected returns the index of the last clicked point, or -1.
func (g *Game) Selected() int { return g.selected }

func (g *Game) onClick(i int) {
	g.selected = i
	if p := g.scene.Points(); i >= 0 && i < len(p) {
		g.logger.Info("point selected", zap.String("id", p[i].ID), zap.String("label", p[i].Label))
	}
}

// Update applies queued commands and then this tick's input.
func (g *Game) Update() error {
	g.drain()

	if isKeyJustPressed(ebiten.KeyEscape) {
		g.ctrl.SetSimilarities(nil)
		g.selected = -1
	}

	if _, wy := wheel(); wy != 0 {
		// ebiten reports scrolling up as positive; the controller zooms in for negative dy
		g.ctrl.Wheel(-wy)
	}

	mx, my := cursorPosition()
	inside := mx >= 0 && my >= 0 && mx < g.width && my < g.height
	if !inside {
		if g.inside {
			g.ctrl.Leave()
		}
		g.inside = false
		g.pressed = false
		return nil
	}
	g.inside = true

	x, y := float64(mx), float64(my)
	moved := mx != g.lastX || my != g.lastY
	g.lastX, g.lastY = mx, my

	pressed := isMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case pressed && !g.pressed:
		g.ctrl.PointerDown(x, y)
	case !pressed && g.pressed:
		g.ctrl.PointerUp(x, y)
		g.ctrl.Click(x, y)
	case moved:
		g.ctrl.PointerMove(x, y)
	}
	g.pressed = pressed
	return nil
}

func (g *Game) drain() {
	for {
		select {
		case cmd := <-g.cmds:
			g.apply(cmd)
		default:
			return
		}
	}
}

func (g *Game) apply(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("viewer command panicked", zap.Any("panic", r))
		}
	}()
	cmd(g.scene, g.ctrl)
}

// Draw renders the scene and a small overlay with the hovered point's label.
func (g *Game) Draw(screen *ebiten.Image) {
	g.canvas.target = screen
	g.stats = g.renderer.Frame(g.scene, g.canvas)

	if h := g.scene.Hovered(); h >= 0 {
		p := g.scene.Points()[h]
		label := p.Label
		if label == "" {
			label = p.ID
		}
		ebitenutil.DebugPrintAt(screen, utils.Truncate(label, 48), g.lastX+12, g.lastY+8)
	}
	ebitenutil.DebugPrintAt(screen, g.status(), 8, 8)
}

func (g *Game) status() string {
	cam := g.scene.Camera().State()
	search := ""
	if g.scene.Similarities().Active() {
		search = "  search (esc clears)"
	}
	return fmt.Sprintf("%d points  zoom %.2f  %.0f fps%s", g.stats.Points, cam.Zoom, ebiten.ActualFPS(), search)
}

// Layout follows the window size; the renderer resizes the scene to match on the next Draw.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Run opens a resizable window and blocks until it is closed.
func Run(g *Game, title string) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}
