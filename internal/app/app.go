// Package app wires the junctionbox runner: a Dispatcher driving an OSC
// target, with optional scene files, take storage, NDEF peers, a gesture
// script and an input window.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/junctionbox"
	"github.com/phanxgames/junctionbox/codec"
	"github.com/phanxgames/junctionbox/internal/config"
	"github.com/phanxgames/junctionbox/internal/logging"
	"github.com/phanxgames/junctionbox/nexus"
	"github.com/phanxgames/junctionbox/relay"
	"github.com/phanxgames/junctionbox/storage/sqlite"
	"github.com/phanxgames/junctionbox/watch"
)

// shutdownTimeout bounds how long Run waits for playback to stop on exit.
const shutdownTimeout = 2 * time.Second

// runner holds the pieces Run assembles. sender and window are replaced in
// tests.
type runner struct {
	cfg    config.Config
	out    io.Writer
	log    *slog.Logger
	sender relay.Sender
	window func(ctx context.Context, d *junctionbox.Dispatcher) error

	d      *junctionbox.Dispatcher
	target *relay.Relay
	store  *sqlite.Store
	nexus  *nexus.Nexus
}

// Run starts the runner described by cfg and blocks until its work is done
// or ctx is canceled. Output meant for the user goes to out; logs go to
// errOut.
func Run(ctx context.Context, cfg config.Config, out, errOut io.Writer) error {
	r := &runner{cfg: cfg, out: out, window: runWindow}
	return r.run(ctx, errOut)
}

func (r *runner) run(ctx context.Context, errOut io.Writer) (err error) {
	cfg := r.cfg
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: errOut})
	if err != nil {
		return err
	}
	r.log = logger
	junctionbox.SetLogger(logger)
	junctionbox.SetDebugMode(cfg.Debug)

	if cfg.TakesDB != "" {
		store, err := sqlite.Open(cfg.TakesDB)
		if err != nil {
			return err
		}
		defer store.Close()
		r.store = store
	}
	if cfg.ListTakes {
		return r.listTakes(ctx)
	}

	r.d = junctionbox.NewDispatcher(cfg.Width, cfg.Height)
	r.target = relay.New(cfg.TargetHost, cfg.TargetPort, relay.Options{Logger: logger, Sender: r.sender})
	defer r.target.Close()
	r.target.SetLabel("junctionbox")
	r.d.SetTarget(r.target)

	if err := r.loadLayout(ctx); err != nil {
		return err
	}

	r.nexus = nexus.New(nexus.Options{
		DefaultHost: cfg.TargetHost,
		DefaultPort: cfg.TargetPort,
		Logger:      logger,
	})
	defer r.nexus.Close()
	r.nexus.SetLocal(r.target)
	if err := r.loadPeers(); err != nil {
		return err
	}

	defer func() {
		if ferr := r.finish(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()
	return r.serve(ctx)
}

// --- Startup ---

func (r *runner) listTakes(ctx context.Context) error {
	takes, err := r.store.ListTakes(ctx)
	if err != nil {
		return err
	}
	if len(takes) == 0 {
		fmt.Fprintln(r.out, "no takes")
		return nil
	}
	for _, t := range takes {
		fmt.Fprintf(r.out, "%s  %-20s  %s  %d junctions  %d events  %s\n",
			t.ID, t.Name, t.CreatedAt.Format(time.RFC3339), t.Junctions, t.Events, t.Duration)
	}
	return nil
}

// loadLayout creates the Junctions named by the scene, or a single surface
// Junction when there is no scene, then applies a stored take on top.
func (r *runner) loadLayout(ctx context.Context) error {
	if r.cfg.Scene == "" {
		defaultLayout(r.d)
	} else {
		doc, err := readScene(r.cfg.Scene)
		if err != nil {
			return err
		}
		buildLayout(r.d, doc)
		if err := r.d.Restore(doc); err != nil {
			return fmt.Errorf("restore scene: %w", err)
		}
		r.log.Info("scene loaded", "path", r.cfg.Scene, "junctions", len(doc.Junctions), "events", len(doc.Events))
	}

	if r.cfg.LoadTake != "" {
		doc, err := r.store.LoadTake(ctx, r.cfg.LoadTake)
		if err != nil {
			return fmt.Errorf("load take %s: %w", r.cfg.LoadTake, err)
		}
		buildLayout(r.d, doc)
		if err := r.d.Restore(doc); err != nil {
			return fmt.Errorf("restore take: %w", err)
		}
		r.log.Info("take loaded", "id", r.cfg.LoadTake, "events", len(doc.Events))
	}
	return nil
}

func readScene(path string) (junctionbox.Document, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return junctionbox.Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return junctionbox.Document{}, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	doc, err := c.Parse(f)
	if err != nil {
		return junctionbox.Document{}, fmt.Errorf("load scene %s: %w", path, err)
	}
	return doc, nil
}

func (r *runner) loadPeers() error {
	if r.cfg.Peers == "" {
		return nil
	}
	f, err := os.Open(r.cfg.Peers)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open peers: %w", err)
	}
	defer f.Close()
	if err := r.nexus.Load(f); err != nil {
		return err
	}
	r.log.Info("peers loaded", "path", r.cfg.Peers, "count", r.nexus.RelayCount())
	return nil
}

// --- Serving ---

// serve runs the listener, watcher, script and window until they finish or
// ctx is canceled.
func (r *runner) serve(ctx context.Context) error {
	cfg := r.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	background := false

	if cfg.ListenAddr != "" {
		conn, err := net.ListenPacket("udp", cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
		}
		r.advertise(conn.LocalAddr())
		g.Go(func() error { return r.nexus.Serve(gctx, conn) })
		background = true
	}
	if cfg.Connect != "" {
		host, port := r.nexus.Default()
		r.nexus.SendConnectionRequest(host, port, cfg.Connect)
	}
	if cfg.Watch {
		w := watch.New(cfg.Scene, watch.Reloader(cfg.Scene, r.d, r.log), r.log)
		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		background = true
	}

	var script *junctionbox.ScriptRunner
	if cfg.Script != "" {
		data, err := os.ReadFile(cfg.Script)
		if err != nil {
			cancel()
			return errors.Join(fmt.Errorf("read script: %w", err), g.Wait())
		}
		script, err = junctionbox.LoadScript(data)
		if err != nil {
			cancel()
			return errors.Join(err, g.Wait())
		}
	}

	var err error
	switch {
	case cfg.Window:
		if script != nil {
			g.Go(func() error { return r.runScript(gctx, script) })
		}
		err = r.window(gctx, r.d)
	case script != nil:
		err = r.runScript(gctx, script)
		if err == nil && background {
			<-gctx.Done()
		}
	case background:
		<-gctx.Done()
	}
	cancel()
	return errors.Join(err, g.Wait())
}

func (r *runner) runScript(ctx context.Context, s *junctionbox.ScriptRunner) error {
	r.log.Info("running script", "path", r.cfg.Script, "steps", s.Len())
	if err := s.Run(ctx, r.d); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.log.Info("script finished")
	return nil
}

// advertise sets the socket peers are told to answer on.
func (r *runner) advertise(addr net.Addr) {
	ua, ok := addr.(*net.UDPAddr)
	if !ok {
		return
	}
	host := ua.IP.String()
	if ua.IP.IsUnspecified() {
		host = nexus.LocalAddress()
	}
	r.nexus.SetListenSocket(host, ua.Port)
}

// --- Shutdown ---

// finish stops playback and recording, then saves the take and peers.
func (r *runner) finish() error {
	r.d.StopPlaying()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.d.Wait(ctx); err != nil {
		r.log.Warn("playback did not stop", "error", err)
	}
	if r.d.Timeline().IsRecording() {
		if err := r.d.StopRecording(); err != nil {
			r.log.Warn("stop recording", "error", err)
		}
	}
	r.d.ClearContacts()

	var errs []error
	if r.cfg.SaveTake != "" {
		id, err := r.store.SaveTake(ctx, r.cfg.SaveTake, r.d.Snapshot())
		if err != nil {
			errs = append(errs, fmt.Errorf("save take: %w", err))
		} else {
			fmt.Fprintf(r.out, "saved take %s (%s)\n", id, r.cfg.SaveTake)
		}
	}
	if r.cfg.Peers != "" {
		if err := r.savePeers(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *runner) savePeers() error {
	f, err := os.Create(r.cfg.Peers)
	if err != nil {
		return fmt.Errorf("create peers: %w", err)
	}
	if err := r.nexus.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
