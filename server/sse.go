package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-bridge/internal/collection"
	"github.com/viant/mcp-bridge/openai"
)

const (
	endpointEvent = "endpoint"
	messageEvent  = "message"

	defaultQueueSize      = 64
	maxInboundMessageSize = 4 * 1024 * 1024
)

// Handler processes inbound JSON-RPC messages for one session.
type Handler interface {
	Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response)
	OnNotification(ctx context.Context, notification *jsonrpc.Notification)
}

// NewHandler creates a session scoped message handler; the session doubles as
// the notifier carrying server to client messages.
type NewHandler func(ctx context.Context, session *Session) Handler

// Transport multiplexes the two HTTP faces of the MCP SSE protocol onto
// sessions: a long lived GET drains one session's outbound queue, POSTs deliver
// inbound messages tagged with the session id.
type Transport struct {
	uri        string
	messageURI string
	newHandler NewHandler
	sessions   *collection.SyncMap[string, *Session]
	logger     zerolog.Logger
	queueSize  int
}

// TransportOption configures a Transport.
type TransportOption func(t *Transport)

// WithStreamURI sets the GET stream endpoint path.
func WithStreamURI(uri string) TransportOption {
	return func(t *Transport) {
		t.uri = uri
	}
}

// WithMessageURI sets the POST message endpoint path.
func WithMessageURI(uri string) TransportOption {
	return func(t *Transport) {
		t.messageURI = uri
	}
}

// WithTransportLogger sets the transport logger.
func WithTransportLogger(logger zerolog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithQueueSize sets the per session outbound queue capacity.
func WithQueueSize(size int) TransportOption {
	return func(t *Transport) {
		t.queueSize = size
	}
}

// NewTransport creates an SSE transport dispatching inbound messages to
// handlers built by newHandler.
func NewTransport(newHandler NewHandler, options ...TransportOption) *Transport {
	ret := &Transport{
		uri:        "/mcp-server/sse",
		messageURI: "/mcp-server/sse/messages",
		newHandler: newHandler,
		sessions:   collection.NewSyncMap[string, *Session](),
		logger:     zerolog.Nop(),
		queueSize:  defaultQueueSize,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// URI returns the stream endpoint path.
func (t *Transport) URI() string {
	return t.uri
}

// MessageURI returns the message endpoint path.
func (t *Transport) MessageURI() string {
	return t.messageURI
}

// ServeHTTP routes the stream and message endpoints sharing this transport.
func (t *Transport) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path == t.messageURI {
		t.handleMessage(writer, request)
		return
	}
	t.handleStream(writer, request)
}

// handleStream allocates a session and drains its outbound queue onto the
// response until the peer disconnects. Disconnect and cancellation are normal
// termination, never surfaced as server errors.
func (t *Transport) handleStream(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	eventWriter, err := openai.NewEventWriter(writer)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	session := newSession(uuid.NewString(), t.queueSize)
	session.handler = t.newHandler(request.Context(), session)
	t.sessions.Put(session.ID(), session)
	t.logger.Info().Str("sessionId", session.ID()).Msg("new incoming SSE connection established")
	defer func() {
		t.sessions.Delete(session.ID())
		session.Close()
		t.logger.Info().Str("sessionId", session.ID()).Msg("SSE connection closed")
	}()

	// the first event tells the peer where to POST its messages
	endpoint := fmt.Sprintf("%s?session_id=%s", t.messageURI, session.ID())
	if err := eventWriter.SendEvent(endpointEvent, []byte(endpoint)); err != nil {
		return
	}
	ctx := request.Context()
	for {
		select {
		case env := <-session.queue:
			if err := eventWriter.SendEvent(env.event, env.data); err != nil {
				// peer went away mid write
				return
			}
		case <-ctx.Done():
			return
		case <-session.closed:
			return
		}
	}
}

// handleMessage delivers one POSTed message to its session. The HTTP exchange
// only acknowledges receipt; protocol replies travel over the GET stream.
func (t *Transport) handleMessage(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := request.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(writer, "session_id is required", http.StatusBadRequest)
		return
	}
	session, ok := t.sessions.Get(sessionID)
	if !ok {
		http.Error(writer, fmt.Sprintf("invalid or expired session: %v", sessionID), http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(request.Body, maxInboundMessageSize))
	if err != nil {
		http.Error(writer, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := t.dispatch(request.Context(), session, body); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}
	writer.WriteHeader(http.StatusAccepted)
}

// inboundMessage probes the generic JSON-RPC message shape to classify it.
type inboundMessage struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Id      json.RawMessage `json:"id"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonrpc.Error  `json:"error"`
}

// dispatch delivers one inbound message body: requests run through the handler
// one at a time and their responses join the outbound queue, notifications are
// handed to the handler, responses resolve pending server initiated requests.
// Notifications bypass the request serialization so a cancellation can reach
// the handler while the request it targets is still in flight.
func (t *Transport) dispatch(ctx context.Context, session *Session, body []byte) error {
	probe := &inboundMessage{}
	if err := json.Unmarshal(body, probe); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}
	switch {
	case probe.Method != "" && len(probe.Id) > 0:
		var id interface{}
		if err := json.Unmarshal(probe.Id, &id); err != nil {
			return fmt.Errorf("malformed message id: %w", err)
		}
		request := &jsonrpc.Request{Jsonrpc: probe.Jsonrpc, Method: probe.Method, Params: probe.Params, Id: id}
		response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: id}
		session.inboundMu.Lock()
		session.handler.Serve(ctx, request, response)
		session.inboundMu.Unlock()
		data, err := json.Marshal(response)
		if err != nil {
			return err
		}
		if err := session.enqueue(ctx, &envelope{event: messageEvent, data: data}); err != nil {
			return fmt.Errorf("session is no longer live: %w", err)
		}
		return nil
	case probe.Method != "":
		notification := &jsonrpc.Notification{Jsonrpc: probe.Jsonrpc, Method: probe.Method, Params: probe.Params}
		session.handler.OnNotification(ctx, notification)
		return nil
	case len(probe.Id) > 0:
		var id interface{}
		if err := json.Unmarshal(probe.Id, &id); err != nil {
			return fmt.Errorf("malformed message id: %w", err)
		}
		response := &jsonrpc.Response{Jsonrpc: probe.Jsonrpc, Id: id, Result: probe.Result, Error: probe.Error}
		if !session.resolve(response) {
			t.logger.Debug().Str("sessionId", session.ID()).Msg("response without matching request")
		}
		return nil
	default:
		return fmt.Errorf("malformed message: neither request, notification nor response")
	}
}

// Sessions returns the number of live sessions.
func (t *Transport) Sessions() int {
	return t.sessions.Size()
}

// Shutdown closes every live session.
func (t *Transport) Shutdown() {
	t.sessions.Range(func(id string, session *Session) bool {
		session.Close()
		t.sessions.Delete(id)
		return true
	})
}
