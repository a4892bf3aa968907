package server

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// pushTimeout bounds a single notification write. Broadcasts run on the
// classifier's dispatch path, so a stalled client must not hold it.
const pushTimeout = 2 * time.Second

// Gesture notification methods.
const (
	MethodDown               = "gesture.down"
	MethodUp                 = "gesture.up"
	MethodClick              = "gesture.click"
	MethodLongPress          = "gesture.longPress"
	MethodContinuedLongPress = "gesture.continuedLongPress"
	MethodTooShort           = "gesture.tooShort"
	MethodAmbiguous          = "gesture.ambiguous"
	MethodTooLong            = "gesture.tooLong"
)

// GestureNotification is the params object of every gesture notification.
type GestureNotification struct {
	Key       string `json:"key"`
	ElapsedMs int64  `json:"elapsedMs,omitempty"`
	Repeat    int    `json:"repeat,omitempty"`
	AgeMs     int64  `json:"ageMs,omitempty"`
}

// RPCNotifier maintains a set of connected jrpc2 WebSocket servers
// and broadcasts push notifications to all of them. It is registered on
// the classifier as both a button and a noise listener.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

// NewRPCNotifier creates a new notifier.
func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     logger.OrNop(l),
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers.
// Servers that fail to receive (e.g., disconnected) are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		err := srv.Notify(ctx, method, params)
		cancel()
		if err != nil {
			n.log.Warning("RPC push failed: %v", err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers (for testing).
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

func (n *RPCNotifier) HandleButtonDown(b button.Button) {
	n.Broadcast(MethodDown, &GestureNotification{Key: b.String()})
}

func (n *RPCNotifier) HandleButtonUp(b button.Button) {
	n.Broadcast(MethodUp, &GestureNotification{Key: b.String()})
}

func (n *RPCNotifier) HandleClick(b button.Button) {
	n.Broadcast(MethodClick, &GestureNotification{Key: b.String()})
}

func (n *RPCNotifier) HandleLongPress(b button.Button) {
	n.Broadcast(MethodLongPress, &GestureNotification{Key: b.String()})
}

func (n *RPCNotifier) HandleContinuedLongPress(b button.Button, elapsed time.Duration, repeat int) {
	n.Broadcast(MethodContinuedLongPress, &GestureNotification{
		Key:       b.String(),
		ElapsedMs: elapsed.Milliseconds(),
		Repeat:    repeat,
	})
}

func (n *RPCNotifier) HandleTooShort(b button.Button, age time.Duration) {
	n.Broadcast(MethodTooShort, &GestureNotification{Key: b.String(), AgeMs: age.Milliseconds()})
}

func (n *RPCNotifier) HandleAmbiguous(b button.Button, age time.Duration) {
	n.Broadcast(MethodAmbiguous, &GestureNotification{Key: b.String(), AgeMs: age.Milliseconds()})
}

func (n *RPCNotifier) HandleTooLong(b button.Button, age time.Duration) {
	n.Broadcast(MethodTooLong, &GestureNotification{Key: b.String(), AgeMs: age.Milliseconds()})
}

var (
	_ gesture.ButtonListener = (*RPCNotifier)(nil)
	_ gesture.NoiseListener  = (*RPCNotifier)(nil)
)
