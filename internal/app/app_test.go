package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/hypebeast/go-osc/osc"

	"github.com/phanxgames/junctionbox"
	"github.com/phanxgames/junctionbox/internal/config"
)

// captureSender records the address of every packet sent.
type captureSender struct {
	mu        sync.Mutex
	addresses []string
}

func (c *captureSender) Send(p osc.Packet) error {
	if m, ok := p.(*osc.Message); ok {
		c.mu.Lock()
		c.addresses = append(c.addresses, m.Address)
		c.mu.Unlock()
	}
	return nil
}

func (c *captureSender) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.addresses)
}

func testConfig() config.Config {
	return config.Config{
		Width:      200,
		Height:     100,
		TargetHost: "127.0.0.1",
		TargetPort: 9000,
		LogLevel:   "error",
		LogFormat:  "text",
	}
}

func runTest(t *testing.T, cfg config.Config, sender *captureSender) (string, error) {
	t.Helper()
	var out bytes.Buffer
	r := &runner{
		cfg:    cfg,
		out:    &out,
		sender: sender,
		window: func(context.Context, *junctionbox.Dispatcher) error {
			t.Error("window opened without -window")
			return nil
		},
	}
	err := r.run(context.Background(), io.Discard)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultLayout(t *testing.T) {
	d := junctionbox.NewDispatcher(200, 100)
	defaultLayout(d)

	j := d.JunctionByLabel(defaultLabel)
	if j == nil {
		t.Fatal("no surface junction")
	}
	if j.CenterX() != 100 || j.CenterY() != 50 || j.Width() != 200 || j.Height() != 100 {
		t.Errorf("bounds = %+v, want the whole box", j.Bounds())
	}
	tests := []struct {
		action junctionbox.Action
		want   string
	}{
		{junctionbox.ActionActivate, "/surface/active"},
		{junctionbox.ActionToggle, "/surface/toggle"},
		{junctionbox.ActionTranslate, "/surface/xy"},
		{junctionbox.ActionRotate, "/surface/angle"},
		{junctionbox.ActionScale, "/surface/size"},
		{junctionbox.ActionContact, "/surface/contact"},
		{junctionbox.ActionCountContacts, "/surface/count"},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			if got := j.Messages(tt.action); !slices.Equal(got, []string{tt.want}) {
				t.Errorf("Messages = %q, want [%q]", got, tt.want)
			}
		})
	}
}

func TestBuildLayoutSkipsKnownLabels(t *testing.T) {
	d := junctionbox.NewDispatcher(200, 100)
	existing := d.CreateJunction(10, 10, 5, 5)
	existing.SetLabel("knob")

	buildLayout(d, junctionbox.Document{Junctions: []junctionbox.JunctionRecord{
		{Label: "knob", CenterX: 50, CenterY: 50, Width: 20, Height: 20},
		{Label: "fader", CenterX: 150, CenterY: 50, Width: 20, Height: 80},
		{Label: "", CenterX: 1, CenterY: 1, Width: 1, Height: 1},
	}})

	if n := len(d.Junctions()); n != 2 {
		t.Fatalf("got %d junctions, want 2", n)
	}
	if existing.CenterX() != 10 {
		t.Error("existing junction should be left for Restore")
	}
	fader := d.JunctionByLabel("fader")
	if fader == nil {
		t.Fatal("fader not created")
	}
	if fader.Width() != 20 || fader.Height() != 80 {
		t.Errorf("fader size = %vx%v, want 20x80", fader.Width(), fader.Height())
	}
}

const tapScript = `{"steps": [
  {"action": "record"},
  {"action": "tap", "id": 1, "x": 100, "y": 50},
  {"action": "stop"}
]}`

func TestRunScriptSavesTake(t *testing.T) {
	cfg := testConfig()
	cfg.Script = writeFile(t, "tap.json", tapScript)
	cfg.TakesDB = filepath.Join(t.TempDir(), "takes.db")
	cfg.SaveTake = "tap"
	sender := &captureSender{}

	out, err := runTest(t, cfg, sender)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "saved take") {
		t.Errorf("output = %q, want a saved take line", out)
	}
	sent := sender.sent()
	for _, addr := range []string{"/surface/active", "/surface/toggle", "/surface/count"} {
		if !slices.Contains(sent, addr) {
			t.Errorf("no %s in %q", addr, sent)
		}
	}

	list := testConfig()
	list.TakesDB = cfg.TakesDB
	list.ListTakes = true
	out, err = runTest(t, list, &captureSender{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "tap") || !strings.Contains(out, "2 events") {
		t.Errorf("list output = %q", out)
	}
}

func TestRunLoadsScene(t *testing.T) {
	cfg := testConfig()
	cfg.Scene = writeFile(t, "scene.yaml", `junctions:
  - order: 0
    label: pad
    center_x: 40
    center_y: 40
    width: 20
    height: 20
    angle: 0
`)
	cfg.Script = writeFile(t, "tap.json", `{"steps": [{"action": "tap", "id": 1, "x": 40, "y": 40}]}`)
	sender := &captureSender{}

	if _, err := runTest(t, cfg, sender); err != nil {
		t.Fatalf("run: %v", err)
	}
	sent := sender.sent()
	if !slices.Contains(sent, "/pad/active") {
		t.Errorf("no /pad/active in %q", sent)
	}
	if slices.Contains(sent, "/surface/active") {
		t.Error("surface junction should not exist when a scene is given")
	}
}

func TestRunSavesPeers(t *testing.T) {
	cfg := testConfig()
	cfg.Peers = filepath.Join(t.TempDir(), "peers.yaml")
	if _, err := runTest(t, cfg, &captureSender{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(cfg.Peers); err != nil {
		t.Errorf("peers file not written: %v", err)
	}
}

func TestRunWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Window = true
	var opened bool
	r := &runner{
		cfg:    cfg,
		out:    io.Discard,
		sender: &captureSender{},
		window: func(_ context.Context, d *junctionbox.Dispatcher) error {
			opened = true
			if d.JunctionByLabel(defaultLabel) == nil {
				t.Error("window got a dispatcher without a layout")
			}
			return nil
		},
	}
	if err := r.run(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}
	if !opened {
		t.Error("window was not opened")
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"missing scene", func(c *config.Config) { c.Scene = filepath.Join(t.TempDir(), "none.yaml") }},
		{"unknown scene format", func(c *config.Config) { c.Scene = writeFile(t, "scene.txt", "") }},
		{"missing script", func(c *config.Config) { c.Script = filepath.Join(t.TempDir(), "none.json") }},
		{"bad script", func(c *config.Config) { c.Script = writeFile(t, "bad.json", `{"steps": []}`) }},
		{"bad peers", func(c *config.Config) { c.Peers = writeFile(t, "peers.yaml", "peers:\n  - host: ''\n") }},
		{"unknown take", func(c *config.Config) {
			c.TakesDB = filepath.Join(t.TempDir(), "takes.db")
			c.LoadTake = "00000000-0000-0000-0000-000000000000"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := runTest(t, cfg, &captureSender{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{cfg: cfg, out: io.Discard, sender: &captureSender{}}

	errc := make(chan error, 1)
	go func() { errc <- r.run(ctx, io.Discard) }()
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("run = %v", err)
	}
}
