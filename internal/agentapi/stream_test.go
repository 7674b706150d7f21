package agentapi

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, payload string) []StreamEvent {
	t.Helper()
	body := io.NopCloser(strings.NewReader(payload))
	var events []StreamEvent
	for ev := range ReadStream(context.Background(), body) {
		events = append(events, ev)
	}
	return events
}

func TestReadStreamForwardsEventsInOrder(t *testing.T) {
	payload := strings.Join([]string{
		`data: {"type":"log","message":"fetching site"}`,
		`data: {"type":"text","text":"chunk-1"}`,
		`data: {"type":"text","text":"chunk-2"}`,
		`data: {"type":"complete","content":"{\"introduction\":\"hi\"}"}`,
	}, "\n")

	events := collectEvents(t, payload)
	require.Len(t, events, 4)
	assert.Equal(t, EventLog, events[0].Type)
	assert.Equal(t, "fetching site", events[0].Message)
	assert.Equal(t, EventText, events[1].Type)
	assert.Equal(t, "chunk-1", events[1].Message)
	assert.Equal(t, EventComplete, events[3].Type)
	assert.Equal(t, `{"introduction":"hi"}`, events[3].Message)
}

func TestReadStreamErrorIsTerminal(t *testing.T) {
	payload := strings.Join([]string{
		`data: {"type":"error","message":"agent crashed"}`,
		`data: {"type":"text","text":"should never arrive"}`,
	}, "\n")

	events := collectEvents(t, payload)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "agent crashed", events[0].Message)
}

func TestReadStreamCompleteWithoutContentUsesBufferedText(t *testing.T) {
	payload := strings.Join([]string{
		`data: {"type":"text","text":"part-a"}`,
		`data: {"type":"text","text":"part-b"}`,
		`data: {"type":"complete"}`,
	}, "\n")

	events := collectEvents(t, payload)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, "part-apart-b", last.Message)
}

func TestReadStreamFlushesPartialTextAtEOF(t *testing.T) {
	payload := strings.Join([]string{
		`data: {"type":"text","text":"half a "}`,
		`data: {"type":"text","text":"plan"}`,
	}, "\n")

	events := collectEvents(t, payload)
	require.Len(t, events, 3)
	assert.Equal(t, EventComplete, events[2].Type)
	assert.Equal(t, "half a plan", events[2].Message)
}

func TestReadStreamNonJSONLinesAreTextChunks(t *testing.T) {
	payload := "plain text line\ndata: [DONE]\n"

	events := collectEvents(t, payload)
	require.Len(t, events, 2)
	assert.Equal(t, EventText, events[0].Type)
	assert.Equal(t, "plain text line", events[0].Message)
	assert.Equal(t, EventComplete, events[1].Type)
	assert.Equal(t, "plain text line", events[1].Message)
}

func TestReadStreamEmptyBodyClosesWithoutEvents(t *testing.T) {
	events := collectEvents(t, "")
	assert.Empty(t, events)
}

func TestReadStreamCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := io.NopCloser(strings.NewReader(`data: {"type":"log","message":"x"}` + "\n"))
	ch := ReadStream(ctx, body)
	// Drain: the channel must close even though the context is done.
	for range ch {
	}
}
