package app

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/junctionbox"
	"github.com/phanxgames/junctionbox/touch"
)

const windowTitle = "junctionbox"

var (
	idleColor   = color.RGBA{R: 80, G: 180, B: 255, A: 160}
	activeColor = color.RGBA{R: 255, G: 180, B: 50, A: 200}
	toggleColor = color.RGBA{R: 120, G: 230, B: 120, A: 200}
)

// window draws the Junctions of a Dispatcher and feeds mouse and touch input
// back into it.
type window struct {
	ctx    context.Context
	d      *junctionbox.Dispatcher
	poller *touch.EbitenPoller
	pixel  *ebiten.Image
	w, h   int
	status string
}

func newWindow(ctx context.Context, d *junctionbox.Dispatcher) *window {
	bw, bh := d.BoxSize()
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &window{
		ctx:    ctx,
		d:      d,
		poller: touch.NewEbitenPoller(d),
		pixel:  pixel,
		w:      int(bw),
		h:      int(bh),
	}
}

func (g *window) Update() error {
	if g.ctx.Err() != nil {
		g.poller.Release()
		return ebiten.Termination
	}
	g.poller.Poll()
	g.handleKeys()
	return nil
}

// handleKeys maps R, P, L and S to record, play, loop and stop.
func (g *window) handleKeys() {
	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if g.d.Timeline().IsRecording() {
			err = g.d.StopRecording()
		} else {
			err = g.d.StartRecording()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		err = g.d.StartPlaying()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		err = g.d.LoopPlaying()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.d.StopPlaying()
	}
	if err != nil {
		g.status = err.Error()
	}
}

func (g *window) Draw(screen *ebiten.Image) {
	for _, j := range g.d.Junctions() {
		g.drawJunction(screen, j)
	}
	tl := g.d.Timeline()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  events: %d  TPS: %.0f",
		tl.State(), tl.EventCount(), ebiten.ActualTPS()), 4, 4)
	ebitenutil.DebugPrintAt(screen, "R record  P play  L loop  S stop  "+g.status, 4, 20)
}

func (g *window) drawJunction(screen *ebiten.Image, j *junctionbox.Junction) {
	b := j.Bounds()
	clr := idleColor
	if j.Toggle() {
		clr = toggleColor
	}
	if j.ContactCount() > 0 {
		clr = activeColor
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Translate(-0.5, -0.5)
	op.GeoM.Scale(b.Width, b.Height)
	op.GeoM.Rotate(b.Angle)
	op.GeoM.Translate(b.CenterX, b.CenterY)
	op.ColorScale.ScaleWithColor(clr)
	screen.DrawImage(g.pixel, &op)

	ebitenutil.DebugPrintAt(screen, j.Label(), int(b.CenterX-b.Width/2)+4, int(b.CenterY-b.Height/2)+2)
	for _, c := range j.Junctions() {
		g.drawJunction(screen, c)
	}
}

func (g *window) Layout(_, _ int) (int, int) {
	return g.w, g.h
}

// runWindow opens the input window and blocks until it is closed or ctx is
// done.
func runWindow(ctx context.Context, d *junctionbox.Dispatcher) error {
	g := newWindow(ctx, d)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(g.w, g.h)
	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
