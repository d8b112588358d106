// Package relay sends Junction parameter messages as Open Sound Control
// packets over UDP.
//
// A [Relay] keeps a table of messages keyed by address. Arguments are appended
// to a named message and the message is sent as a snapshot, so a Junction can
// reset and rebuild a message while an earlier copy is still in flight. Sends
// never block: packets are queued and written in order by one worker
// goroutine, and packets that do not fit in the queue are dropped and logged.
package relay

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

// Sender writes an OSC packet to the network. *osc.Client implements it.
type Sender interface {
	Send(packet osc.Packet) error
}

// Options configures a Relay.
type Options struct {
	// QueueSize is the number of packets that may wait for the network.
	// Defaults to 256.
	QueueSize int
	// Logger receives send failures and dropped packets. Defaults to
	// slog.Default().
	Logger *slog.Logger
	// Sender overrides the UDP client, for loopback or tests.
	Sender Sender
}

const defaultQueueSize = 256

// Relay is an OSC message table bound to one target host and port.
type Relay struct {
	mu       sync.Mutex
	host     string
	port     int
	sender   Sender
	injected bool // sender came from Options and survives SetSocket
	messages map[string]*osc.Message

	label              string
	remoteLabel        string
	remoteMessageCount int
	remoteEcho         bool

	queue  chan *osc.Message
	done   chan struct{}
	closed bool
	log    *slog.Logger
}

// New creates a Relay that sends to host:port and starts its send worker.
// Call Close to stop the worker.
func New(host string, port int, opts Options) *Relay {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := opts.Sender
	if s == nil {
		s = osc.NewClient(host, port)
	}
	r := &Relay{
		host:     host,
		port:     port,
		sender:   s,
		injected: opts.Sender != nil,
		messages: make(map[string]*osc.Message),
		queue:    make(chan *osc.Message, opts.QueueSize),
		done:     make(chan struct{}),
		log:      opts.Logger.With("relay", host, "port", port),
	}
	go r.run()
	return r
}

func (r *Relay) run() {
	defer close(r.done)
	for m := range r.queue {
		r.mu.Lock()
		s := r.sender
		r.mu.Unlock()
		if err := s.Send(m); err != nil {
			r.log.Warn("send failed", "address", m.Address, "error", err)
		}
	}
}

// Close stops accepting sends, flushes queued packets and stops the worker.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

// --- Target ---

// Host returns the target host.
func (r *Relay) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Port returns the target port.
func (r *Relay) Port() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port
}

// Is reports whether the Relay targets host:port.
func (r *Relay) Is(host string, port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host == host && r.port == port
}

// SetSocket retargets the Relay. Queued packets go to the new target. A
// Sender given in Options is kept; only the recorded host and port change.
func (r *Relay) SetSocket(host string, port int) {
	r.mu.Lock()
	r.host, r.port = host, port
	if !r.injected {
		r.sender = osc.NewClient(host, port)
	}
	r.mu.Unlock()
}

// --- Peer state ---

// Label returns the name given to this Relay.
func (r *Relay) Label() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.label
}

// SetLabel names this Relay.
func (r *Relay) SetLabel(l string) {
	r.mu.Lock()
	r.label = l
	r.mu.Unlock()
}

// RemoteLabel returns the label the remote peer marked itself with.
func (r *Relay) RemoteLabel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remoteLabel
}

// SetRemoteLabel records the remote peer's label.
func (r *Relay) SetRemoteLabel(l string) {
	r.mu.Lock()
	r.remoteLabel = l
	r.mu.Unlock()
}

// RemoteMessageCount returns the message tally reported by the remote peer.
func (r *Relay) RemoteMessageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remoteMessageCount
}

// SetRemoteMessageCount records the remote peer's message tally.
func (r *Relay) SetRemoteMessageCount(n int) {
	r.mu.Lock()
	r.remoteMessageCount = n
	r.mu.Unlock()
}

// RemoteEcho reports whether the remote peer answered the last ping.
func (r *Relay) RemoteEcho() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remoteEcho
}

// SetRemoteEcho records whether the remote peer answered the last ping.
func (r *Relay) SetRemoteEcho(e bool) {
	r.mu.Lock()
	r.remoteEcho = e
	r.mu.Unlock()
}

// --- Message table ---

// AddMessage adds an empty message. Existing messages are kept as they are.
func (r *Relay) AddMessage(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[address]; !ok {
		r.messages[address] = osc.NewMessage(address)
	}
}

// ContainsMessage reports whether address is in the table.
func (r *Relay) ContainsMessage(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.messages[address]
	return ok
}

// ResetMessage clears the arguments of an existing message.
func (r *Relay) ResetMessage(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[address]; ok {
		r.messages[address] = osc.NewMessage(address)
	}
}

// ReplaceMessage renames a message, keeping its arguments. Unknown addresses
// are ignored.
func (r *Relay) ReplaceMessage(oldAddress, newAddress string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[oldAddress]
	if !ok {
		return
	}
	delete(r.messages, oldAddress)
	m.Address = newAddress
	r.messages[newAddress] = m
}

// RemoveMessage deletes a message.
func (r *Relay) RemoveMessage(address string) {
	r.mu.Lock()
	delete(r.messages, address)
	r.mu.Unlock()
}

// ClearMessages deletes every message.
func (r *Relay) ClearMessages() {
	r.mu.Lock()
	clear(r.messages)
	r.mu.Unlock()
}

// Messages returns the message addresses in sorted order.
func (r *Relay) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.messages))
}

// MessageCount returns the number of messages in the table.
func (r *Relay) MessageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Arguments returns a copy of the arguments currently held by a message.
func (r *Relay) Arguments(address string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[address]; ok {
		return slices.Clone(m.Arguments)
	}
	return nil
}

// --- Arguments ---

// appendArg adds v to the message at address, creating the message when it
// does not exist.
func (r *Relay) appendArg(address string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[address]
	if !ok {
		m = osc.NewMessage(address)
		r.messages[address] = m
	}
	m.Append(v)
}

// appendAll adds v to every message in the table.
func (r *Relay) appendAll(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		m.Append(v)
	}
}

// AddInt appends a 32-bit integer.
func (r *Relay) AddInt(address string, v int32) { r.appendArg(address, v) }

// AddLong appends a 64-bit integer.
func (r *Relay) AddLong(address string, v int64) { r.appendArg(address, v) }

// AddFloat appends a 32-bit float.
func (r *Relay) AddFloat(address string, v float32) { r.appendArg(address, v) }

// AddFloatMapped appends a normalized value scaled into [lo, hi].
func (r *Relay) AddFloatMapped(address string, v, lo, hi float32) {
	r.appendArg(address, mapRange(v, lo, hi))
}

// AddString appends a string.
func (r *Relay) AddString(address, v string) { r.appendArg(address, v) }

// AddBlob appends a blob. The bytes are copied.
func (r *Relay) AddBlob(address string, b []byte) { r.appendArg(address, slices.Clone(b)) }

// AddIntAll appends a 32-bit integer to every message.
func (r *Relay) AddIntAll(v int32) { r.appendAll(v) }

// AddFloatAll appends a 32-bit float to every message.
func (r *Relay) AddFloatAll(v float32) { r.appendAll(v) }

// AddStringAll appends a string to every message.
func (r *Relay) AddStringAll(v string) { r.appendAll(v) }

func mapRange(v, lo, hi float32) float32 {
	return v*(hi-lo) + lo
}

// --- Sending ---

// Send queues a snapshot of the message at address. Unknown addresses are
// ignored.
func (r *Relay) Send(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[address]; ok {
		r.enqueueLocked(m)
	}
}

// SendAll queues every message in address order.
func (r *Relay) SendAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := slices.SortedFunc(maps.Values(r.messages), func(a, b *osc.Message) int {
		return cmp.Compare(a.Address, b.Address)
	})
	for _, m := range ms {
		r.enqueueLocked(m)
	}
}

// SendList queues the listed messages in order. Unknown addresses are
// skipped.
func (r *Relay) SendList(addresses []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range addresses {
		if m, ok := r.messages[a]; ok {
			r.enqueueLocked(m)
		}
	}
}

func (r *Relay) enqueueLocked(m *osc.Message) {
	if r.closed {
		return
	}
	snap := osc.NewMessage(m.Address, slices.Clone(m.Arguments)...)
	select {
	case r.queue <- snap:
	default:
		r.log.Warn("send queue full, packet dropped", "address", m.Address)
	}
}
