package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sseServer(t *testing.T, frames []string, checkRequest func(r *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if checkRequest != nil {
			checkRequest(request)
		}
		writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		for _, frame := range frames {
			_, _ = fmt.Fprint(writer, frame)
		}
	}))
}

func TestStreamChatCompletion(t *testing.T) {
	server := sseServer(t, []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
		": heartbeat\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"STOP\"}]}\n\n",
		"data: [DONE]\n\n",
	}, func(request *http.Request) {
		assert.Equal(t, "/v1/chat/completions", request.URL.Path)
		assert.Equal(t, "Bearer secret", request.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", request.Header.Get("Accept"))
	})
	defer server.Close()

	client := NewClient(server.URL+"/v1", WithAPIKey("secret"))
	stream, err := client.StreamChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	assert.Nil(t, err)
	defer stream.Close()

	chunk, ok, err := stream.Next(context.Background())
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hel", chunk.FirstChoice().Delta.Content)

	chunk, ok, err = stream.Next(context.Background())
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "lo", chunk.FirstChoice().Delta.Content)
	// uppercase finish reasons are normalized
	assert.Equal(t, FinishReasonStop, chunk.FirstChoice().FinishReason)

	_, ok, err = stream.Next(context.Background())
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Equal(t, TerminationCompleted, stream.Reason())
}

func TestStreamPeerClose(t *testing.T) {
	server := sseServer(t, []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n",
	}, nil)
	defer server.Close()

	client := NewClient(server.URL)
	stream, err := client.StreamChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	assert.Nil(t, err)
	defer stream.Close()

	_, ok, err := stream.Next(context.Background())
	assert.Nil(t, err)
	assert.True(t, ok)
	_, ok, err = stream.Next(context.Background())
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Equal(t, TerminationPeerClosed, stream.Reason())
}

func TestStreamTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(writer, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		writer.(http.Flusher).Flush()
		// drop the connection without terminating the response body
		conn, _, err := writer.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	stream, err := client.StreamChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	assert.Nil(t, err)
	defer stream.Close()

	chunk, ok, err := stream.Next(context.Background())
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hel", chunk.FirstChoice().Delta.Content)

	// the broken connection must surface as an error, never as completion
	_, ok, err = stream.Next(context.Background())
	assert.NotNil(t, err)
	assert.False(t, ok)
	assert.Equal(t, TerminationProtocolError, stream.Reason())
}

func TestStreamMalformedChunk(t *testing.T) {
	server := sseServer(t, []string{
		"data: {not json}\n\n",
	}, nil)
	defer server.Close()

	client := NewClient(server.URL)
	stream, err := client.StreamChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	assert.Nil(t, err)
	defer stream.Close()

	_, ok, err := stream.Next(context.Background())
	assert.NotNil(t, err)
	assert.False(t, ok)
	assert.Equal(t, TerminationProtocolError, stream.Reason())
}

func TestStreamCancelled(t *testing.T) {
	server := sseServer(t, []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n",
	}, nil)
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.StreamChatCompletion(ctx, &ChatCompletionRequest{Model: "m"})
	assert.Nil(t, err)
	defer stream.Close()
	cancel()

	_, ok, err := stream.Next(ctx)
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Equal(t, TerminationCancelled, stream.Reason())
}

func TestStreamUnexpectedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"error":"no streaming here"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.StreamChatCompletion(context.Background(), &ChatCompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrUnexpectedContentType)
}

func TestEventWriter(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewEventWriter(recorder)
	assert.Nil(t, err)
	assert.False(t, writer.Wrote())

	assert.Nil(t, writer.SendEvent("endpoint", []byte("/messages?session_id=abc")))
	assert.Nil(t, writer.SendJSON(map[string]string{"k": "v"}))
	assert.Nil(t, writer.Done())
	assert.True(t, writer.Wrote())

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	expected := "event: endpoint\ndata: /messages?session_id=abc\n\n" +
		"data: {\"k\":\"v\"}\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, expected, recorder.Body.String())
}
