package generation

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
)

type streamBackend struct {
	fakeBackend
	payload string
	prompt  string
	openErr error
}

func (b *streamBackend) OpenStream(_ context.Context, prompt string) (io.ReadCloser, error) {
	b.prompt = prompt
	if b.openErr != nil {
		return nil, b.openErr
	}
	return io.NopCloser(strings.NewReader(b.payload)), nil
}

func TestStreamForwardsAgentEvents(t *testing.T) {
	backend := &streamBackend{payload: strings.Join([]string{
		`data: {"type":"log","message":"crawling site"}`,
		`data: {"type":"text","text":"Acme is "}`,
		`data: {"type":"text","text":"a freight company."}`,
		`data: {"type":"complete","content":"Acme is a freight company."}`,
	}, "\n")}
	o := New(testConfig(), newFakeStore(), backend)

	ch, err := o.Stream(context.Background(), domain.GenerationRequest{
		Domain: "WWW.Acme.IO", Language: domain.LanguageFR,
	})
	require.NoError(t, err)

	var events []agentapi.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 4)
	assert.Equal(t, agentapi.EventLog, events[0].Type)
	assert.Equal(t, agentapi.EventComplete, events[3].Type)
	assert.Contains(t, backend.prompt, "acme.io")
	assert.Contains(t, backend.prompt, "en français")
}

func TestStreamRejectsPlaceholderDomain(t *testing.T) {
	o := New(testConfig(), newFakeStore(), &streamBackend{})

	_, err := o.Stream(context.Background(), domain.GenerationRequest{Domain: "test.com"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "domain", ve.Field)
}

func TestStreamUnsupportedBackend(t *testing.T) {
	o := New(testConfig(), newFakeStore(), &fakeBackend{})

	_, err := o.Stream(context.Background(), domain.GenerationRequest{Domain: "acme.io"})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "streaming")
}
