package app

import (
	"strings"

	"github.com/phanxgames/junctionbox"
)

// defaultLabel names the Junction created when no scene is given.
const defaultLabel = "surface"

// buildLayout creates a Junction for every scene record whose label is not
// yet present, so a following Restore has something to apply to.
func buildLayout(d *junctionbox.Dispatcher, doc junctionbox.Document) {
	for _, rec := range doc.Junctions {
		if rec.Label == "" || d.JunctionByLabel(rec.Label) != nil {
			continue
		}
		j := d.CreateJunction(rec.CenterX, rec.CenterY, rec.Width, rec.Height)
		j.SetLabel(rec.Label)
		configure(j)
	}
}

// defaultLayout creates one Junction covering the whole bounding box.
func defaultLayout(d *junctionbox.Dispatcher) {
	w, h := d.BoxSize()
	j := d.CreateJunction(w/2, h/2, w, h)
	j.SetLabel(defaultLabel)
	configure(j)
}

// configure enables every gesture on j and maps its actions under
// /<label>/.
func configure(j *junctionbox.Junction) {
	j.AllowTranslation(true)
	j.AllowRotation(true)
	j.AllowScaling(true)

	prefix := "/" + strings.Trim(j.Label(), "/")
	for _, m := range []struct {
		action junctionbox.Action
		suffix string
	}{
		{junctionbox.ActionActivate, "/active"},
		{junctionbox.ActionToggle, "/toggle"},
		{junctionbox.ActionTranslate, "/xy"},
		{junctionbox.ActionRotate, "/angle"},
		{junctionbox.ActionScale, "/size"},
		{junctionbox.ActionContact, "/contact"},
		{junctionbox.ActionCountContacts, "/count"},
	} {
		j.MapMessage(m.action, prefix+m.suffix)
	}
}
