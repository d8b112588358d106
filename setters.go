package junctionbox

// --- Translation ---

// SetCenterX moves the horizontal center, clamped to the translation limits.
// Signals ActionTranslateX when the stored value changes.
func (j *Junction) SetCenterX(x float64) {
	if changed, v := j.setCenterX(x); changed {
		j.emit(ActionTranslateX, v)
	}
}

// SetCenterY moves the vertical center, clamped to the translation limits.
// Signals ActionTranslateY when the stored value changes.
func (j *Junction) SetCenterY(y float64) {
	if changed, v := j.setCenterY(y); changed {
		j.emit(ActionTranslateY, v)
	}
}

// SetCenter moves both axes. ActionTranslate carries both normalized
// coordinates and is signaled when either axis changes.
func (j *Junction) SetCenter(x, y float64) {
	cx, nx := j.setCenterX(x)
	if cx {
		j.emit(ActionTranslateX, nx)
	}
	cy, ny := j.setCenterY(y)
	if cy {
		j.emit(ActionTranslateY, ny)
	}
	if cx || cy {
		j.mu.Lock()
		nx = normal(j.centerX, j.cfg.MinTranslateX, j.cfg.MaxTranslateX)
		ny = normal(j.centerY, j.cfg.MinTranslateY, j.cfg.MaxTranslateY)
		j.mu.Unlock()
		j.emit(ActionTranslate, nx, ny)
	}
}

// ChangeCenter moves the center by (dx, dy).
func (j *Junction) ChangeCenter(dx, dy float64) {
	x, y := j.Center()
	j.SetCenter(x+dx, y+dy)
}

func (j *Junction) setCenterX(x float64) (bool, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := &j.cfg
	if !c.TranslatableX {
		return false, 0
	}
	old := j.centerX
	j.centerX = clamp(x, c.MinTranslateX, c.MaxTranslateX)
	return j.centerX != old, normal(j.centerX, c.MinTranslateX, c.MaxTranslateX)
}

func (j *Junction) setCenterY(y float64) (bool, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := &j.cfg
	if !c.TranslatableY {
		return false, 0
	}
	old := j.centerY
	j.centerY = clamp(y, c.MinTranslateY, c.MaxTranslateY)
	return j.centerY != old, normal(j.centerY, c.MinTranslateY, c.MaxTranslateY)
}

// --- Scale ---

// SetWidth sets the width, clamped to the width limits. Signals
// ActionScaleWidth when the stored value changes.
func (j *Junction) SetWidth(w float64) {
	if changed, v := j.setWidth(w, false); changed {
		j.emit(ActionScaleWidth, v)
	}
}

// SetHeight sets the height, clamped to the height limits. Signals
// ActionScaleHeight when the stored value changes.
func (j *Junction) SetHeight(h float64) {
	if changed, v := j.setHeight(h, false); changed {
		j.emit(ActionScaleHeight, v)
	}
}

// SetScale sets width and height. ActionScale carries both normalized values
// and is signaled when either dimension changes.
func (j *Junction) SetScale(w, h float64) {
	j.scaleTo(w, h, false)
}

// ChangeScale grows or shrinks the Junction by (dw, dh) while keeping its
// proportion at the limits: the width only grows while the height can still
// grow and only shrinks while the height can still shrink, and the reverse
// for the height.
func (j *Junction) ChangeScale(dw, dh float64) {
	j.mu.Lock()
	w, h := j.width+dw, j.height+dh
	j.mu.Unlock()
	j.scaleTo(w, h, true)
}

func (j *Junction) scaleTo(w, h float64, proportional bool) {
	cw, nw := j.setWidth(w, proportional)
	if cw {
		j.emit(ActionScaleWidth, nw)
	}
	ch, nh := j.setHeight(h, proportional)
	if ch {
		j.emit(ActionScaleHeight, nh)
	}
	if cw || ch {
		j.mu.Lock()
		nw = normal(j.width, j.cfg.MinWidth, j.cfg.MaxWidth)
		nh = normal(j.height, j.cfg.MinHeight, j.cfg.MaxHeight)
		j.mu.Unlock()
		j.emit(ActionScale, nw, nh)
	}
}

func (j *Junction) setWidth(w float64, proportional bool) (bool, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := &j.cfg
	if !c.ScalableWidth {
		return false, 0
	}
	old := j.width
	switch {
	case w > c.MaxWidth:
		j.width = c.MaxWidth
	case w < c.MinWidth:
		j.width = c.MinWidth
	case !proportional:
		j.width = w
	case w > j.width && j.height < c.MaxHeight:
		j.width = w
	case w < j.width && j.height > c.MinHeight:
		j.width = w
	}
	return j.width != old, normal(j.width, c.MinWidth, c.MaxWidth)
}

func (j *Junction) setHeight(h float64, proportional bool) (bool, float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := &j.cfg
	if !c.ScalableHeight {
		return false, 0
	}
	old := j.height
	switch {
	case h > c.MaxHeight:
		j.height = c.MaxHeight
	case h < c.MinHeight:
		j.height = c.MinHeight
	case !proportional:
		j.height = h
	case h > j.height && j.width < c.MaxWidth:
		j.height = h
	case h < j.height && j.width > c.MinWidth:
		j.height = h
	}
	return j.height != old, normal(j.height, c.MinHeight, c.MaxHeight)
}

// --- Rotation ---

// SetAngle sets the angle in radians. Values past ±2π wrap once and move the
// rotation count by one in the same direction, then the angle is clamped to
// the rotation limits when set. Has no effect unless a rotation gesture is
// enabled.
//
// ActionRotate is signaled when the stored angle changes; ActionRotate1 and
// ActionRotate2 additionally when one or two contacts are held.
// ActionCountRotations is signaled when the rotation count changes.
func (j *Junction) SetAngle(a float64) {
	j.setAngle(a, j.contacts.len())
}

// ChangeAngle rotates by da radians, clamped to the rotation limits when set.
func (j *Junction) ChangeAngle(da float64) {
	j.changeAngle(da, j.contacts.len())
}

func (j *Junction) changeAngle(da float64, count int) {
	j.mu.Lock()
	c := j.cfg
	a := j.angle + da
	j.mu.Unlock()
	if !c.Rotatable() {
		return
	}
	j.setAngle(a, count)
}

func (j *Junction) setAngle(a float64, count int) {
	j.mu.Lock()
	c := &j.cfg
	if !c.Rotatable() {
		j.mu.Unlock()
		return
	}
	oldAngle, oldCount := j.angle, j.rotationCount
	switch {
	case a > TwoPi:
		j.angle = a - TwoPi
		j.rotationCount++
	case a < -TwoPi:
		j.angle = a + TwoPi
		j.rotationCount--
	default:
		j.angle = a
	}
	if c.LimitAngle {
		j.angle = clamp(j.angle, c.MinAngle, c.MaxAngle)
	}
	angleChanged := j.angle != oldAngle
	countChanged := j.rotationCount != oldCount
	var v float64
	if c.LimitAngle {
		v = normal(j.angle, c.MinAngle, c.MaxAngle)
	} else {
		v = normal(j.angle, 0, TwoPi)
	}
	turns := j.rotationCount
	j.mu.Unlock()

	if angleChanged {
		j.emit(ActionRotate, v)
		switch count {
		case 1:
			j.emit(ActionRotate1, v)
		case 2:
			j.emit(ActionRotate2, v)
		}
	}
	if countChanged {
		j.emit(ActionCountRotations, turns)
	}
}
