package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-bridge/internal/collection"
)

// ErrSessionClosed indicates the session's stream connection has gone away.
var ErrSessionClosed = errors.New("session closed")

// envelope is one outbound SSE frame queued for the stream connection.
type envelope struct {
	event string
	data  []byte
}

// Session is one logical duplex MCP channel: a FIFO outbound queue drained by
// exactly one long lived GET connection, and an inbound sink fed by POSTed
// messages. Server initiated requests are correlated with POSTed responses by
// message id.
type Session struct {
	id        string
	queue     chan *envelope
	pending   *collection.SyncMap[string, chan *jsonrpc.Response]
	handler   Handler
	inboundMu sync.Mutex
	counter   uint64
	closed    chan struct{}
	closeOnce sync.Once
}

func newSession(id string, queueSize int) *Session {
	return &Session{
		id:      id,
		queue:   make(chan *envelope, queueSize),
		pending: collection.NewSyncMap[string, chan *jsonrpc.Response](),
		closed:  make(chan struct{}),
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string {
	return s.id
}

// Notify enqueues a server to client notification; it satisfies
// transport.Notifier so session scoped handlers can push messages.
func (s *Session) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	notification.Jsonrpc = jsonrpc.Version
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, &envelope{event: messageEvent, data: data})
}

// Send issues a server to client request over the stream and waits for the
// client to POST the matching response back.
func (s *Session) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	request.Jsonrpc = jsonrpc.Version
	id := atomic.AddUint64(&s.counter, 1)
	request.Id = id
	key := fmt.Sprintf("%d", id)
	waiter := make(chan *jsonrpc.Response, 1)
	s.pending.Put(key, waiter)
	defer s.pending.Delete(key)

	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, &envelope{event: messageEvent, data: data}); err != nil {
		return nil, err
	}
	select {
	case response := <-waiter:
		return response, nil
	case <-s.closed:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve completes a pending Send with a POSTed response; it reports whether
// the response matched an outstanding request.
func (s *Session) resolve(response *jsonrpc.Response) bool {
	key := idKey(response.Id)
	waiter, ok := s.pending.Get(key)
	if !ok {
		return false
	}
	select {
	case waiter <- response:
	default:
	}
	return true
}

func (s *Session) enqueue(ctx context.Context, env *envelope) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case s.queue <- env:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the session down; queued events are discarded and subsequent
// enqueues or sends fail with ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

func idKey(id interface{}) string {
	switch actual := id.(type) {
	case string:
		return actual
	case json.RawMessage:
		return string(actual)
	default:
		return fmt.Sprintf("%v", actual)
	}
}
