package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Input sources. Overridden in tests.
var (
	cursorPosition       = ebiten.CursorPosition
	wheel                = ebiten.Wheel
	isMouseButtonPressed = ebiten.IsMouseButtonPressed
	isKeyJustPressed     = inpututil.IsKeyJustPressed
)
