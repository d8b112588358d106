// Package nexus implements the NDEF peer handshake that lets remote OSC
// applications register themselves and their message tables with a
// junctionbox instance.
//
// Every NDEF message starts with the sender's host (string) and port (int).
// A [Nexus] keeps one [relay.Relay] per accepted peer and applies incoming
// label, ping, echo and message-table operations to it. Malformed messages
// are never fatal: they are appended to a reject log and otherwise ignored.
package nexus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/junctionbox/relay"
)

// NDEF address patterns.
const (
	ConnectionRequest = "/ndef/connection/request"
	ConnectionAccept  = "/ndef/connection/accept"
	ConnectionLabel   = "/ndef/connection/label"
	ConnectionMark    = "/ndef/connection/mark"
	ConnectionPing    = "/ndef/connection/ping"
	ConnectionEcho    = "/ndef/connection/echo"
	MessageRequest    = "/ndef/message/request"
	MessageReply      = "/ndef/message/reply"
	MessageCount      = "/ndef/message/count"
	MessageTally      = "/ndef/message/tally"
	MessageAdd        = "/ndef/message/add"
	MessageRemove     = "/ndef/message/remove"
	MessageReplace    = "/ndef/message/replace"
)

// inbound lists the patterns the listener dispatches to AcceptMessage.
var inbound = []string{
	ConnectionRequest, ConnectionAccept, ConnectionLabel, ConnectionMark,
	ConnectionPing, ConnectionEcho, MessageRequest, MessageReply,
	MessageCount, MessageTally, MessageAdd, MessageRemove, MessageReplace,
}

// Options configures a Nexus.
type Options struct {
	// DefaultHost and DefaultPort address the peer used by the Send*
	// shorthands.
	DefaultHost string
	DefaultPort int
	// Logger receives rejected messages. Defaults to slog.Default().
	Logger *slog.Logger
	// Dial creates the relay used for a peer. Defaults to relay.New.
	Dial func(host string, port int) *relay.Relay
}

// Nexus is a registry of peer relays driven by NDEF messages.
type Nexus struct {
	mu         sync.Mutex
	relays     []*relay.Relay
	rejected   []string
	local      *relay.Relay
	listenHost string
	listenPort int

	defaultHost string
	defaultPort int
	dial        func(host string, port int) *relay.Relay
	log         *slog.Logger
}

// New creates an empty Nexus.
func New(opts Options) *Nexus {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	n := &Nexus{
		defaultHost: opts.DefaultHost,
		defaultPort: opts.DefaultPort,
		dial:        opts.Dial,
		log:         opts.Logger.With("component", "nexus"),
	}
	if n.dial == nil {
		n.dial = func(host string, port int) *relay.Relay {
			return relay.New(host, port, relay.Options{Logger: opts.Logger})
		}
	}
	return n
}

// Close closes every peer relay and empties the registry.
func (n *Nexus) Close() {
	n.mu.Lock()
	relays := n.relays
	n.relays = nil
	n.mu.Unlock()
	for _, r := range relays {
		r.Close()
	}
}

// SetLocal sets the relay whose message table answers message requests and
// message counts from peers.
func (n *Nexus) SetLocal(r *relay.Relay) {
	n.mu.Lock()
	n.local = r
	n.mu.Unlock()
}

// SetListenSocket sets the host and port advertised in outbound messages.
// Listen sets them from the bound socket when they are unset.
func (n *Nexus) SetListenSocket(host string, port int) {
	n.mu.Lock()
	n.listenHost, n.listenPort = host, port
	n.mu.Unlock()
}

// ListenSocket returns the advertised host and port.
func (n *Nexus) ListenSocket() (string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listenHost, n.listenPort
}

// --- Registry ---

// Relays returns the peer relays in registration order.
func (n *Nexus) Relays() []*relay.Relay {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.relays)
}

// Relay returns the i-th peer relay, or nil when i is out of range.
func (n *Nexus) Relay(i int) *relay.Relay {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i < 0 || i >= len(n.relays) {
		return nil
	}
	return n.relays[i]
}

// RelayCount returns the number of registered peers.
func (n *Nexus) RelayCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.relays)
}

// IsConnected reports whether a peer at host:port is registered.
func (n *Nexus) IsConnected(host string, port int) bool {
	return n.find(host, port) != nil
}

func (n *Nexus) find(host string, port int) *relay.Relay {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.findLocked(host, port)
}

func (n *Nexus) findLocked(host string, port int) *relay.Relay {
	for _, r := range n.relays {
		if r.Is(host, port) {
			return r
		}
	}
	return nil
}

// register returns the relay for host:port, creating it when needed.
func (n *Nexus) register(host string, port int) *relay.Relay {
	n.mu.Lock()
	defer n.mu.Unlock()
	if r := n.findLocked(host, port); r != nil {
		return r
	}
	r := n.dial(host, port)
	n.relays = append(n.relays, r)
	return r
}

// RejectedMessages returns the reject log. Each entry is the address followed
// by the arguments, separated by spaces.
func (n *Nexus) RejectedMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.rejected)
}

// ClearRejectedMessages empties the reject log.
func (n *Nexus) ClearRejectedMessages() {
	n.mu.Lock()
	n.rejected = nil
	n.mu.Unlock()
}

func (n *Nexus) reject(address string, args []any) {
	var b strings.Builder
	b.WriteString(address)
	for _, a := range args {
		b.WriteByte(' ')
		fmt.Fprint(&b, a)
	}
	entry := b.String()
	n.mu.Lock()
	n.rejected = append(n.rejected, entry)
	n.mu.Unlock()
	n.log.Warn("rejected message", "message", entry)
}

// --- Inbound ---

// AcceptMessage applies one NDEF message. Messages with fewer than two
// arguments, a non-string host, a non-integer port, or the wrong argument
// count or type for their pattern are rejected. Empty and unknown addresses
// are ignored.
func (n *Nexus) AcceptMessage(address string, args []any) {
	if address == "" {
		return
	}
	if len(args) < 2 {
		n.reject(address, args)
		return
	}
	host, ok := args[0].(string)
	port, pok := toInt(args[1])
	if !ok || !pok {
		n.reject(address, args)
		return
	}

	if !n.apply(address, host, port, args[2:]) {
		n.reject(address, args)
	}
}

// apply handles one message from host:port with its extra arguments. It
// returns false when the message is malformed.
func (n *Nexus) apply(address, host string, port int, extra []any) bool {
	switch address {
	case ConnectionRequest, ConnectionAccept:
		label := ""
		if len(extra) == 1 {
			s, ok := extra[0].(string)
			if !ok {
				return false
			}
			label = s
		} else if len(extra) > 1 {
			return false
		}
		r := n.register(host, port)
		r.SetLabel(label)
		if address == ConnectionRequest {
			n.sendTo(host, port, ConnectionAccept)
		}

	case ConnectionLabel:
		label, ok := oneString(extra)
		if !ok {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.SetLabel(label)
		}

	case ConnectionMark:
		if len(extra) == 0 {
			return true
		}
		label, ok := oneString(extra)
		if !ok {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.SetRemoteLabel(label)
		}

	case ConnectionPing:
		if n.IsConnected(host, port) {
			n.SendConnectionEcho(host, port)
		}

	case ConnectionEcho:
		if r := n.find(host, port); r != nil {
			r.SetRemoteEcho(true)
		}

	case MessageRequest:
		if !n.IsConnected(host, port) {
			return true
		}
		for _, m := range n.localMessages() {
			n.sendTo(host, port, MessageReply, m)
		}

	case MessageCount:
		if !n.IsConnected(host, port) {
			return true
		}
		n.sendTo(host, port, MessageTally, int32(len(n.localMessages())))

	case MessageTally:
		if len(extra) != 1 {
			return false
		}
		tally, ok := toInt(extra[0])
		if !ok {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.SetRemoteMessageCount(tally)
		}

	case MessageReply, MessageAdd:
		m, ok := oneString(extra)
		if !ok {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.AddMessage(m)
		}

	case MessageRemove:
		m, ok := oneString(extra)
		if !ok {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.RemoveMessage(m)
		}

	case MessageReplace:
		if len(extra) != 2 {
			return false
		}
		oldM, ok1 := extra[0].(string)
		newM, ok2 := extra[1].(string)
		if !ok1 || !ok2 {
			return false
		}
		if r := n.find(host, port); r != nil {
			r.ReplaceMessage(oldM, newM)
		}
	}
	return true
}

func (n *Nexus) localMessages() []string {
	n.mu.Lock()
	local := n.local
	n.mu.Unlock()
	if local == nil {
		return nil
	}
	return local.Messages()
}

func oneString(extra []any) (string, bool) {
	if len(extra) != 1 {
		return "", false
	}
	s, ok := extra[0].(string)
	return s, ok
}

func toInt(v any) (int, bool) {
	switch i := v.(type) {
	case int32:
		return int(i), true
	case int:
		return i, true
	case int64:
		return int(i), true
	}
	return 0, false
}

// --- Outbound ---

// sendTo sends address to host:port through a one-shot relay. The first two
// arguments are always the advertised listen socket.
func (n *Nexus) sendTo(host string, port int, address string, extra ...any) {
	lh, lp := n.ListenSocket()
	r := n.dial(host, port)
	r.AddString(address, lh)
	r.AddInt(address, int32(lp))
	for _, v := range extra {
		switch x := v.(type) {
		case string:
			r.AddString(address, x)
		case int32:
			r.AddInt(address, x)
		}
	}
	r.Send(address)
	r.Close()
}

// SendConnectionRequest asks host:port to accept this instance, optionally
// under label.
func (n *Nexus) SendConnectionRequest(host string, port int, label string) {
	if label == "" {
		n.sendTo(host, port, ConnectionRequest)
		return
	}
	n.sendTo(host, port, ConnectionRequest, label)
}

// SendConnectionLabel names this instance on host:port.
func (n *Nexus) SendConnectionLabel(host string, port int, label string) {
	n.sendTo(host, port, ConnectionLabel, label)
}

// SendConnectionPing pings host:port. The matching peer's echo flag is
// cleared until its echo arrives.
func (n *Nexus) SendConnectionPing(host string, port int) {
	n.sendTo(host, port, ConnectionPing)
	if r := n.find(host, port); r != nil {
		r.SetRemoteEcho(false)
	}
}

// SendConnectionEcho answers a ping from host:port.
func (n *Nexus) SendConnectionEcho(host string, port int) {
	n.sendTo(host, port, ConnectionEcho)
}

// SendMessageRequest asks host:port for its message table.
func (n *Nexus) SendMessageRequest(host string, port int) {
	n.sendTo(host, port, MessageRequest)
}

// SendMessageCount asks host:port for the size of its message table.
func (n *Nexus) SendMessageCount(host string, port int) {
	n.sendTo(host, port, MessageCount)
}

// SendMessageAdd asks host:port to add message to its table.
func (n *Nexus) SendMessageAdd(host string, port int, message string) {
	n.sendTo(host, port, MessageAdd, message)
}

// SendMessageRemove asks host:port to remove message from its table.
func (n *Nexus) SendMessageRemove(host string, port int, message string) {
	n.sendTo(host, port, MessageRemove, message)
}

// SendMessageReplace asks host:port to rename oldMessage to newMessage.
func (n *Nexus) SendMessageReplace(host string, port int, oldMessage, newMessage string) {
	n.sendTo(host, port, MessageReplace, oldMessage, newMessage)
}

// Default returns the default peer socket.
func (n *Nexus) Default() (string, int) {
	return n.defaultHost, n.defaultPort
}

// --- Listener ---

// Listen receives NDEF messages on addr until ctx is done. The advertised
// listen socket is filled in from the bound address when unset.
func (n *Nexus) Listen(ctx context.Context, addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("nexus listen %s: %w", addr, err)
	}
	return n.Serve(ctx, conn)
}

// Serve receives NDEF messages on conn until ctx is done. conn is closed on
// return.
func (n *Nexus) Serve(ctx context.Context, conn net.PacketConn) error {
	if h, p := n.ListenSocket(); h == "" || p == 0 {
		if ua, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			host := h
			if host == "" {
				host = ua.IP.String()
				if ua.IP.IsUnspecified() {
					host = LocalAddress()
				}
			}
			n.SetListenSocket(host, ua.Port)
		}
	}

	d := osc.NewStandardDispatcher()
	for _, pattern := range inbound {
		if err := d.AddMsgHandler(pattern, func(m *osc.Message) {
			n.AcceptMessage(m.Address, m.Arguments)
		}); err != nil {
			conn.Close()
			return fmt.Errorf("nexus handler %s: %w", pattern, err)
		}
	}
	srv := &osc.Server{Addr: conn.LocalAddr().String(), Dispatcher: d}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	h, p := n.ListenSocket()
	n.log.Info("listening", "host", h, "port", p)
	for {
		err := srv.Serve(conn)
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) {
			return fmt.Errorf("nexus serve: %w", err)
		}
		// Undecodable packet; keep listening.
		n.log.Warn("bad packet", "error", err)
	}
}

// LocalAddress returns the last non-loopback IPv4 interface address, or
// "127.0.0.1" when there is none.
func LocalAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	found := "127.0.0.1"
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() || ipn.IP.To4() == nil {
			continue
		}
		found = ipn.IP.String()
	}
	return found
}

// --- Persistence ---

// Peer is the saved form of one registered relay.
type Peer struct {
	Label    string   `yaml:"label"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Messages []string `yaml:"messages,omitempty"`
}

type peerFile struct {
	Peers []Peer `yaml:"peers"`
}

// Peers returns the saved form of every registered relay.
func (n *Nexus) Peers() []Peer {
	relays := n.Relays()
	peers := make([]Peer, 0, len(relays))
	for _, r := range relays {
		peers = append(peers, Peer{
			Label:    r.Label(),
			Host:     r.Host(),
			Port:     r.Port(),
			Messages: r.Messages(),
		})
	}
	return peers
}

// Save writes the peer registry as YAML.
func (n *Nexus) Save(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(peerFile{Peers: n.Peers()}); err != nil {
		return fmt.Errorf("failed to encode peers: %w", err)
	}
	return nil
}

// Load reads a YAML peer registry and registers every peer in it. Known
// peers are relabeled and gain the saved messages. Nothing is applied when
// the document fails to decode.
func (n *Nexus) Load(r io.Reader) error {
	var pf peerFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse peers: %w", err)
	}
	for i, p := range pf.Peers {
		if p.Host == "" || p.Port <= 0 {
			return fmt.Errorf("peer %d: invalid socket %q", i, net.JoinHostPort(p.Host, strconv.Itoa(p.Port)))
		}
	}
	for _, p := range pf.Peers {
		rl := n.register(p.Host, p.Port)
		rl.SetLabel(p.Label)
		for _, m := range p.Messages {
			rl.AddMessage(m)
		}
	}
	return nil
}
