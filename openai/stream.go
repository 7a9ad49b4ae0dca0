package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnexpectedContentType indicates the inference backend did not answer with an event stream.
var ErrUnexpectedContentType = errors.New("unexpected Content-Type")

// doneSentinel terminates an SSE chat completion stream.
const doneSentinel = "[DONE]"

// TerminationReason explains how a streamed response ended.
type TerminationReason int

const (
	// TerminationCompleted means the backend sent the [DONE] sentinel.
	TerminationCompleted TerminationReason = iota
	// TerminationPeerClosed means the backend closed the connection without a sentinel.
	TerminationPeerClosed
	// TerminationCancelled means the local context was cancelled mid stream.
	TerminationCancelled
	// TerminationProtocolError means the backend violated the streaming contract.
	TerminationProtocolError
)

// Client posts chat completion requests to an inference backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(c *Client)

// WithAPIKey sets the bearer token sent to the backend.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an inference backend client for the supplied base URL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	ret := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// StreamChatCompletion opens one SSE subscription for the supplied request.
// Stream is forced on. A response whose Content-Type is not an event stream is a
// protocol error: the body is read for diagnostics and the subscription fails.
func (c *Client) StreamChatCompletion(ctx context.Context, request *ChatCompletionRequest) (*Stream, error) {
	request.Stream = true
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "text/event-stream")
	httpRequest.Header.Set("Cache-Control", "no-cache")
	if c.apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	contentType := response.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/event-stream") {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 16*1024))
		_ = response.Body.Close()
		c.logger.Error().
			Str("url", httpRequest.URL.String()).
			Int("status", response.StatusCode).
			Str("contentType", contentType).
			Bytes("requestData", data).
			Bytes("responseData", body).
			Msg("unexpected content type from inference backend")
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedContentType, contentType)
	}
	scanner := bufio.NewScanner(response.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Stream{body: response.Body, scanner: scanner, logger: c.logger}, nil
}

// Stream iterates decoded chunks of one SSE chat completion response.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  zerolog.Logger
	reason  TerminationReason
	closed  bool
}

// Next returns the next decoded chunk; ok is false once the stream terminated.
// A chunk that fails to decode ends the stream with TerminationProtocolError and
// a non-nil error, since it indicates an upstream contract violation.
func (s *Stream) Next(ctx context.Context) (*StreamResponse, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			s.reason = TerminationCancelled
			return nil, false, nil
		}
		data, ok := s.nextData()
		if !ok {
			if err := s.scanner.Err(); err != nil {
				if errors.Is(err, context.Canceled) {
					s.reason = TerminationCancelled
					return nil, false, nil
				}
				// the connection broke mid stream, a truncated answer must
				// never pass as a completed one
				s.reason = TerminationProtocolError
				return nil, false, fmt.Errorf("upstream stream failed: %w", err)
			}
			// clean EOF without the sentinel
			s.reason = TerminationPeerClosed
			return nil, false, nil
		}
		if data == doneSentinel {
			s.reason = TerminationCompleted
			return nil, false, nil
		}
		chunk := &StreamResponse{}
		if err := json.Unmarshal([]byte(data), chunk); err != nil {
			s.logger.Error().Str("data", data).Err(err).Msg("malformed streaming chunk")
			s.reason = TerminationProtocolError
			return nil, false, fmt.Errorf("malformed streaming chunk: %w", err)
		}
		// some providers report finish_reason in uppercase
		for i := range chunk.Choices {
			chunk.Choices[i].FinishReason = strings.ToLower(chunk.Choices[i].FinishReason)
		}
		return chunk, true, nil
	}
}

// nextData reads SSE lines up to the next dispatched event and returns its data payload.
func (s *Stream) nextData() (string, bool) {
	var data []string
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if len(data) > 0 {
				return strings.Join(data, "\n"), true
			}
			continue
		}
		if strings.HasPrefix(line, ":") { // comment/heartbeat
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
		// event:, id: and retry: fields carry no payload for this protocol
	}
	if len(data) > 0 {
		return strings.Join(data, "\n"), true
	}
	return "", false
}

// Reason reports how the stream terminated; valid once Next returned ok=false.
func (s *Stream) Reason() TerminationReason {
	return s.reason
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
