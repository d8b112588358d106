package junctionbox

import (
	"math"
	"slices"
	"strings"
	"testing"
)

// --- Construction ---

func TestNewJunctionClampsGeometry(t *testing.T) {
	j := NewJunction(100, 100, 150, -5, 500, 0)

	assertNear(t, "centerX", j.CenterX(), 100)
	assertNear(t, "centerY", j.CenterY(), 0)
	assertNear(t, "width", j.Width(), 100)
	assertNear(t, "height", j.Height(), 1)
}

func TestNewJunctionDefaults(t *testing.T) {
	j := NewJunction(100, 100, 50, 50, 20, 20)

	if !j.IsLive() || !j.IsRecordable() || !j.IsSavable() {
		t.Error("new junction should be live, recordable and savable")
	}
	if j.Shape() != ShapeRect {
		t.Errorf("Shape = %v, want rect", j.Shape())
	}
	cfg := j.Config()
	if cfg.Translatable || cfg.Rotatable() || cfg.Scalable {
		t.Error("no gesture should be enabled by default")
	}
	if j.IsActive() || j.ContactCount() != 0 {
		t.Error("new junction should hold no contacts")
	}
}

// --- Translation ---

func TestSetCenterSignals(t *testing.T) {
	r := newTestRelay()
	j := NewJunction(100, 100, 10, 10, 20, 20)
	j.SetTarget(r)
	j.MapMessage(ActionTranslateX, "/x")
	j.MapMessage(ActionTranslate, "/xy")

	j.SetCenter(50, 25)

	if got, _ := r.last("/x"); !slices.Equal(got, []any{float32(0.5)}) {
		t.Errorf("/x = %v, want [0.5]", got)
	}
	if got, _ := r.last("/xy"); !slices.Equal(got, []any{float32(0.5), float32(0.25)}) {
		t.Errorf("/xy = %v, want [0.5 0.25]", got)
	}

	r.reset()
	j.SetCenter(50, 25)
	if n := r.count("/xy"); n != 0 {
		t.Errorf("unchanged center sent %d messages, want 0", n)
	}
}

func TestSetCenterRespectsAxisFlags(t *testing.T) {
	j := NewJunction(100, 100, 10, 10, 20, 20)
	j.AllowTranslationX(false)

	j.SetCenter(60, 70)

	assertNear(t, "centerX", j.CenterX(), 10)
	assertNear(t, "centerY", j.CenterY(), 70)
}

func TestLimitTranslation(t *testing.T) {
	j := NewJunction(100, 100, 50, 50, 20, 20)
	j.LimitTranslationX(20, 40)

	// Changing the limits re-clamps the current center.
	assertNear(t, "centerX after limit", j.CenterX(), 40)

	j.SetCenterX(0)
	assertNear(t, "centerX", j.CenterX(), 20)
}

// --- Scale ---

func TestChangeScaleKeepsProportion(t *testing.T) {
	cfg := DefaultConfig(100, 100)
	cfg.MinWidth, cfg.MaxWidth = 10, 100
	cfg.MinHeight, cfg.MaxHeight = 10, 50

	tests := []struct {
		name           string
		dw, dh         float64
		wantW, wantH   float64
		startW, startH float64
	}{
		{"height at max blocks width growth", 10, 10, 40, 50, 40, 50},
		{"shrink both", -5, -5, 35, 45, 40, 50},
		{"grow both below limits", 5, 5, 35, 35, 30, 30},
		{"width clamps to max", 200, 0, 100, 30, 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJunctionWithConfig(cfg, 50, 50, tt.startW, tt.startH)
			j.ChangeScale(tt.dw, tt.dh)
			assertNear(t, "width", j.Width(), tt.wantW)
			assertNear(t, "height", j.Height(), tt.wantH)
		})
	}
}

func TestSetWidthOnlyClamps(t *testing.T) {
	cfg := DefaultConfig(100, 100)
	cfg.MaxHeight = 50
	j := NewJunctionWithConfig(cfg, 50, 50, 40, 50)

	j.SetWidth(60)
	assertNear(t, "width", j.Width(), 60)

	j.SetWidth(500)
	assertNear(t, "clamped width", j.Width(), 100)
}

func TestSetScaleSignals(t *testing.T) {
	r := newTestRelay()
	cfg := DefaultConfig(100, 100)
	cfg.MinWidth, cfg.MinHeight = 0, 0
	j := NewJunctionWithConfig(cfg, 50, 50, 20, 20)
	j.SetTarget(r)
	j.MapMessage(ActionScale, "/s")
	j.MapMessage(ActionScaleWidth, "/w")

	j.SetScale(50, 20)

	if got, _ := r.last("/s"); !slices.Equal(got, []any{float32(0.5), float32(0.2)}) {
		t.Errorf("/s = %v, want [0.5 0.2]", got)
	}
	if n := r.count("/w"); n != 1 {
		t.Errorf("/w sent %d times, want 1", n)
	}
}

// --- Rotation ---

func TestSetAngleWrapsAndCounts(t *testing.T) {
	r := newTestRelay()
	j := NewJunction(100, 100, 50, 50, 20, 20)
	j.SetTarget(r)
	j.AllowRotation(true)
	j.MapMessage(ActionRotate, "/r")
	j.MapMessage(ActionCountRotations, "/turns")

	j.SetAngle(7)

	assertNear(t, "angle", j.Angle(), 7-TwoPi)
	if j.RotationCount() != 1 {
		t.Errorf("RotationCount = %d, want 1", j.RotationCount())
	}
	if got, _ := r.last("/turns"); !slices.Equal(got, []any{int32(1)}) {
		t.Errorf("/turns = %v, want [1]", got)
	}

	j.SetAngle(-7)
	assertNear(t, "angle", j.Angle(), -7+TwoPi)
	if j.RotationCount() != 0 {
		t.Errorf("RotationCount = %d, want 0", j.RotationCount())
	}
}

func TestSetAngleRequiresRotation(t *testing.T) {
	j := NewJunction(100, 100, 50, 50, 20, 20)
	j.SetAngle(1)
	assertNear(t, "angle", j.Angle(), 0)
}

func TestLimitRotation(t *testing.T) {
	r := newTestRelay()
	j := NewJunction(100, 100, 50, 50, 20, 20)
	j.SetTarget(r)
	j.AllowRotation(true)
	j.LimitRotation(0, math.Pi)
	j.MapMessage(ActionRotate, "/r")

	j.ChangeAngle(4)

	assertNear(t, "angle", j.Angle(), math.Pi)
	if got, _ := r.last("/r"); !slices.Equal(got, []any{float32(1)}) {
		t.Errorf("/r = %v, want [1]", got)
	}
}

func TestSetAngleClampsToLimits(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		want  float64
		msg   float32
	}{
		{"above max", 5, math.Pi, 1},
		{"below min", -1, 0, 0},
		{"inside", math.Pi / 2, math.Pi / 2, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRelay()
			j := NewJunction(100, 100, 50, 50, 20, 20)
			j.SetTarget(r)
			j.AllowRotation(true)
			j.LimitRotation(0, math.Pi)
			j.MapMessage(ActionRotate, "/r")
			j.SetAngle(0.25)

			j.SetAngle(tt.angle)

			assertNear(t, "angle", j.Angle(), tt.want)
			if got, _ := r.last("/r"); !slices.Equal(got, []any{tt.msg}) {
				t.Errorf("/r = %v, want [%v]", got, tt.msg)
			}
		})
	}
}

func TestSettersIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(j *Junction)
		call  func(j *Junction)
	}{
		{"SetCenter current", nil, func(j *Junction) { j.SetCenter(50, 50) }},
		{"SetCenterX clamped at max", func(j *Junction) { j.SetCenterX(100) }, func(j *Junction) { j.SetCenterX(250) }},
		{"SetCenterY clamped at min", func(j *Junction) { j.SetCenterY(0) }, func(j *Junction) { j.SetCenterY(-30) }},
		{"SetWidth current", nil, func(j *Junction) { j.SetWidth(20) }},
		{"SetWidth clamped at max", func(j *Junction) { j.SetWidth(100) }, func(j *Junction) { j.SetWidth(500) }},
		{"SetHeight current", nil, func(j *Junction) { j.SetHeight(20) }},
		{"SetHeight clamped at min", func(j *Junction) { j.SetHeight(1) }, func(j *Junction) { j.SetHeight(-5) }},
		{"SetScale current", nil, func(j *Junction) { j.SetScale(20, 20) }},
		{"SetScale clamped at max", func(j *Junction) { j.SetScale(100, 100) }, func(j *Junction) { j.SetScale(1000, 1000) }},
		{"ChangeScale zero", nil, func(j *Junction) { j.ChangeScale(0, 0) }},
		{"SetAngle current", func(j *Junction) { j.SetAngle(1) }, func(j *Junction) { j.SetAngle(1) }},
		{"SetAngle clamped at max", func(j *Junction) { j.SetAngle(math.Pi) }, func(j *Junction) { j.SetAngle(5) }},
		{"SetAngle clamped at min", nil, func(j *Junction) { j.SetAngle(-1) }},
		{"ChangeAngle zero", nil, func(j *Junction) { j.ChangeAngle(0) }},
		{"ChangeAngle past max", func(j *Junction) { j.SetAngle(math.Pi) }, func(j *Junction) { j.ChangeAngle(0.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRelay()
			j := NewJunction(100, 100, 50, 50, 20, 20)
			j.SetTarget(r)
			j.AllowRotation(true)
			j.AllowScaling(true)
			j.LimitRotation(0, math.Pi)
			for a := Action(0); a < actionCount; a++ {
				j.MapMessage(a, "/"+a.String())
			}
			if tt.setup != nil {
				tt.setup(j)
			}
			r.reset()

			tt.call(j)

			if n := r.total(); n != 0 {
				t.Errorf("sent %d messages, want 0", n)
			}
		})
	}
}

// --- Message bindings ---

func TestMapMessage(t *testing.T) {
	r := newTestRelay()
	j := NewJunction(100, 100, 50, 50, 20, 20)
	j.SetTarget(r)

	j.MapMessage(ActionToggle, "/a")
	j.MapMessage(ActionToggle, "/b")
	j.MapMessage(ActionToggle, "/a")

	if !j.IsArmed(ActionToggle) {
		t.Fatal("mapped action should be armed")
	}
	if got := j.Messages(ActionToggle); !slices.Equal(got, []string{"/a", "/b"}) {
		t.Errorf("Messages = %v, want [/a /b]", got)
	}
	if !slices.Contains(r.registered, "/a") {
		t.Error("address should be registered with the relay")
	}

	j.ArmAction(ActionToggle, false)
	if j.IsArmed(ActionToggle) || j.Messages(ActionToggle) != nil {
		t.Error("disarmed action should have no active messages")
	}
	j.ArmAction(ActionToggle, true)

	j.UnmapMessage(ActionToggle, "/a")
	j.UnmapMessage(ActionToggle, "/b")
	if j.IsArmed(ActionToggle) {
		t.Error("action with no addresses should be disarmed")
	}

	j.MapMessage(ActionRotate, "/r")
	j.MapMessage(ActionScale, "/s")
	j.ClearMessages()
	if j.IsArmed(ActionRotate) || j.IsArmed(ActionScale) {
		t.Error("ClearMessages should disarm every action")
	}
	j.MapMessage(ActionRotate, "/r2")
	if got := j.Messages(ActionRotate); !slices.Equal(got, []string{"/r2"}) {
		t.Errorf("Messages after clear = %v, want [/r2]", got)
	}
}

func TestParseAction(t *testing.T) {
	for a := Action(0); a < actionCount; a++ {
		got, ok := ParseAction(a.String())
		if !ok || got != a {
			t.Errorf("ParseAction(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if _, ok := ParseAction("nope"); ok {
		t.Error("unknown name should not parse")
	}
}

// --- Hierarchy ---

func TestAddJunctionInherits(t *testing.T) {
	r := newTestRelay()
	parent := NewJunction(200, 200, 100, 100, 200, 200)
	parent.SetTarget(r)
	parent.AllowScaling(true)

	child := NewJunction(200, 200, 50, 50, 40, 40)
	parent.AddJunction(child)

	if child.Parent() != parent {
		t.Error("child parent not set")
	}
	if !child.Config().Scalable {
		t.Error("child should copy parent config")
	}
	if child.Target() != Relay(r) {
		t.Error("child should inherit parent relay")
	}
}

func TestAddJunctionReparents(t *testing.T) {
	a := NewJunction(100, 100, 50, 50, 100, 100)
	b := NewJunction(100, 100, 50, 50, 100, 100)
	c := NewJunction(100, 100, 50, 50, 10, 10)

	a.AddJunction(c)
	b.AddJunction(c)

	if a.JunctionCount() != 0 {
		t.Errorf("old parent has %d children, want 0", a.JunctionCount())
	}
	if c.Parent() != b {
		t.Error("child should be attached to new parent")
	}

	b.RemoveJunction(c)
	if c.Parent() != nil || b.JunctionCount() != 0 {
		t.Error("RemoveJunction should detach child")
	}
}

func TestAddJunctionPanics(t *testing.T) {
	tests := []struct {
		name  string
		setup func() (*Junction, *Junction)
		want  string
	}{
		{"nil", func() (*Junction, *Junction) {
			return NewJunction(10, 10, 5, 5, 5, 5), nil
		}, "nil"},
		{"self", func() (*Junction, *Junction) {
			j := NewJunction(10, 10, 5, 5, 5, 5)
			return j, j
		}, "cycle"},
		{"ancestor", func() (*Junction, *Junction) {
			a := NewJunction(10, 10, 5, 5, 5, 5)
			b := NewJunction(10, 10, 5, 5, 5, 5)
			a.AddJunction(b)
			return b, a
		}, "cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent, child := tt.setup()
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				if msg, _ := r.(string); !strings.Contains(msg, tt.want) {
					t.Errorf("panic = %v, want mention of %q", r, tt.want)
				}
			}()
			parent.AddJunction(child)
		})
	}
}

func TestCapabilityPropagation(t *testing.T) {
	parent := NewJunction(100, 100, 50, 50, 100, 100)
	child := NewJunction(100, 100, 50, 50, 10, 10)
	parent.AddJunction(child)

	parent.AllowRotation(true)
	if !child.Config().Rotatable1 || !child.Config().Rotatable2 {
		t.Error("AllowRotation should reach children")
	}

	parent.AllowRotationWith(false, true)
	if !child.Config().Rotatable1 {
		t.Error("AllowRotationWith should not reach children")
	}

	parent.LimitScalingWidth(5, 50)
	if child.Config().MaxWidth != 100 {
		t.Errorf("child MaxWidth = %v, LimitScalingWidth should not reach children", child.Config().MaxWidth)
	}

	parent.AllowTranslationRange(true, 2, 3)
	cfg := child.Config()
	if !cfg.Translatable || cfg.MinTranslationContacts != 2 || cfg.MaxTranslationContacts != 3 {
		t.Errorf("child translation = %v %d..%d, want true 2..3",
			cfg.Translatable, cfg.MinTranslationContacts, cfg.MaxTranslationContacts)
	}
}

func TestSetLiveRecursive(t *testing.T) {
	parent := NewJunction(100, 100, 50, 50, 100, 100)
	child := NewJunction(100, 100, 50, 50, 10, 10)
	parent.AddJunction(child)

	parent.SetLive(false)
	if parent.IsLive() || child.IsLive() {
		t.Error("SetLive(false) should reach children")
	}
}

func TestContainsIncludesChildren(t *testing.T) {
	parent := NewJunction(200, 200, 50, 50, 20, 20)
	child := NewJunction(200, 200, 150, 150, 20, 20)
	parent.AddJunction(child)

	if !parent.Contains(150, 150) {
		t.Error("parent should contain points inside a child")
	}
	if parent.Contains(100, 100) {
		t.Error("point outside both should not be contained")
	}
}
