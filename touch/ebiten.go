package touch

import "github.com/hajimehoshi/ebiten/v2"

// MouseID is the contact id used for the left mouse button. Touch ids are
// offset by one so they never collide with it.
const MouseID = 0

// input is the subset of Ebitengine input the poller reads.
type input interface {
	AppendTouchIDs(ids []ebiten.TouchID) []ebiten.TouchID
	TouchPosition(id ebiten.TouchID) (int, int)
	CursorPosition() (int, int)
	LeftPressed() bool
}

type ebitenInput struct{}

func (ebitenInput) AppendTouchIDs(ids []ebiten.TouchID) []ebiten.TouchID {
	return ebiten.AppendTouchIDs(ids)
}

func (ebitenInput) TouchPosition(id ebiten.TouchID) (int, int) {
	return ebiten.TouchPosition(id)
}

func (ebitenInput) CursorPosition() (int, int) {
	return ebiten.CursorPosition()
}

func (ebitenInput) LeftPressed() bool {
	return ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
}

// EbitenPoller feeds Ebitengine mouse and touch input to a Tracker. Call
// Poll once per Update.
type EbitenPoller struct {
	// ScreenToBox maps screen pixels into the Dispatcher bounding box. When
	// nil, screen coordinates are used as they are.
	ScreenToBox func(x, y float64) (float64, float64)

	tracker  *Tracker
	in       input
	touchIDs []ebiten.TouchID
	frame    []Point
}

// NewEbitenPoller creates a poller that forwards contacts to target.
func NewEbitenPoller(target Target) *EbitenPoller {
	return &EbitenPoller{tracker: NewTracker(target), in: ebitenInput{}}
}

// Poll reads the current input state and applies it as one frame.
func (p *EbitenPoller) Poll() {
	p.frame = p.frame[:0]
	if p.in.LeftPressed() {
		x, y := p.in.CursorPosition()
		p.frame = append(p.frame, p.point(MouseID, x, y))
	}
	p.touchIDs = p.in.AppendTouchIDs(p.touchIDs[:0])
	for _, tid := range p.touchIDs {
		x, y := p.in.TouchPosition(tid)
		p.frame = append(p.frame, p.point(int(tid)+1, x, y))
	}
	p.tracker.Frame(p.frame)
}

// Release removes every contact the poller added.
func (p *EbitenPoller) Release() {
	p.tracker.Release()
}

func (p *EbitenPoller) point(id, x, y int) Point {
	fx, fy := float64(x), float64(y)
	if p.ScreenToBox != nil {
		fx, fy = p.ScreenToBox(fx, fy)
	}
	return Point{ID: id, X: fx, Y: fy}
}
