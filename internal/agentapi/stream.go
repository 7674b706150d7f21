package agentapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// StreamEventType enumerates the discrete events a streaming analysis emits.
type StreamEventType string

const (
	EventLog      StreamEventType = "log"
	EventText     StreamEventType = "text"
	EventError    StreamEventType = "error"
	EventComplete StreamEventType = "complete"
)

// StreamEvent is one event forwarded to the caller as it arrives.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Message string          `json:"message"`
}

type rawStreamEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// ReadStream consumes an agent event stream and forwards events on the
// returned channel. The stream closes on the first terminal event: a
// complete event carrying content, or an explicit error. If the upstream
// stream ends without a terminal event, buffered partial text is flushed
// as a final complete event before the channel closes.
//
// The channel is always closed; the body is always closed.
func ReadStream(ctx context.Context, body io.ReadCloser) <-chan StreamEvent {
	events := make(chan StreamEvent, 8)

	go func() {
		defer close(events)
		defer body.Close()

		var buffered strings.Builder
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		emit := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			line = strings.TrimPrefix(line, "data: ")
			if line == "[DONE]" {
				break
			}

			var raw rawStreamEvent
			if err := json.Unmarshal([]byte(line), &raw); err != nil {
				// Not an event envelope: treat the line as a text chunk.
				buffered.WriteString(line)
				if !emit(StreamEvent{Type: EventText, Message: line}) {
					return
				}
				continue
			}

			switch raw.Type {
			case "log":
				if !emit(StreamEvent{Type: EventLog, Message: raw.Message}) {
					return
				}
			case "text", "delta":
				text := raw.Text
				if text == "" {
					text = raw.Message
				}
				buffered.WriteString(text)
				if !emit(StreamEvent{Type: EventText, Message: text}) {
					return
				}
			case "error":
				msg := raw.Message
				if msg == "" {
					msg = "agent stream reported an error"
				}
				emit(StreamEvent{Type: EventError, Message: msg})
				return // terminal
			case "complete", "result":
				content := raw.Content
				if content == "" {
					content = buffered.String()
				}
				emit(StreamEvent{Type: EventComplete, Message: content})
				return // terminal
			}
		}

		// Stream ended without a terminal event: flush whatever text we
		// collected so the caller isn't left with nothing.
		if buffered.Len() > 0 {
			emit(StreamEvent{Type: EventComplete, Message: buffered.String()})
		}
	}()

	return events
}
