package junctionbox

import (
	"slices"
	"sync"
)

// sentMessage is one message delivered to a testRelay.
type sentMessage struct {
	Address string
	Args    []any
}

// testRelay records every sent message. Safe for concurrent use so playback
// tests can inspect it while the playback goroutine writes.
type testRelay struct {
	mu         sync.Mutex
	pending    map[string][]any
	sent       []sentMessage
	registered []string
}

func newTestRelay() *testRelay {
	return &testRelay{pending: make(map[string][]any)}
}

func (r *testRelay) ResetMessage(address string) {
	r.mu.Lock()
	r.pending[address] = nil
	r.mu.Unlock()
}

func (r *testRelay) AddInt(address string, v int32) {
	r.mu.Lock()
	r.pending[address] = append(r.pending[address], v)
	r.mu.Unlock()
}

func (r *testRelay) AddFloat(address string, v float32) {
	r.mu.Lock()
	r.pending[address] = append(r.pending[address], v)
	r.mu.Unlock()
}

func (r *testRelay) Send(address string) {
	r.mu.Lock()
	r.sent = append(r.sent, sentMessage{Address: address, Args: slices.Clone(r.pending[address])})
	r.mu.Unlock()
}

func (r *testRelay) AddMessage(address string) {
	r.mu.Lock()
	r.registered = append(r.registered, address)
	r.mu.Unlock()
}

// messages returns the argument lists sent to address, in order.
func (r *testRelay) messages(address string) [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]any
	for _, m := range r.sent {
		if m.Address == address {
			out = append(out, m.Args)
		}
	}
	return out
}

// last returns the most recent argument list sent to address.
func (r *testRelay) last(address string) ([]any, bool) {
	msgs := r.messages(address)
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs[len(msgs)-1], true
}

func (r *testRelay) count(address string) int {
	return len(r.messages(address))
}

// total returns the number of messages sent to any address.
func (r *testRelay) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *testRelay) reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

// countArgs counts messages to address whose arguments equal args.
func (r *testRelay) countArgs(address string, args ...any) int {
	n := 0
	for _, m := range r.messages(address) {
		if slices.Equal(m, args) {
			n++
		}
	}
	return n
}
