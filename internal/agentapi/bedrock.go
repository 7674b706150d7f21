package agentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/logger"
)

// BedrockBackend runs plan generation on AWS Bedrock instead of the hosted
// agent service. Jobs execute in-process: CreateJob starts the model call
// in the background and JobStatus reads its outcome, so the orchestrator
// drives both backends identically.
type BedrockBackend struct {
	client  *bedrockruntime.Client
	modelID string

	mu   sync.Mutex
	jobs map[string]*bedrockJob
}

type bedrockJob struct {
	status  Status
	content json.RawMessage
	errMsg  string
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockMessage struct {
	Role    string         `json:"role"`
	Content []bedrockBlock `json:"content"`
}

type bedrockBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockBackend creates a Bedrock-powered backend using the default AWS
// credential chain.
func NewBedrockBackend(ctx context.Context, modelID string) (*BedrockBackend, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	logger.Info("bedrock backend initialized", "model", modelID, "region", region)
	return &BedrockBackend{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		jobs:    make(map[string]*bedrockJob),
	}, nil
}

// CreateJob starts the model invocation in the background and returns a
// local job handle immediately.
func (b *BedrockBackend) CreateJob(_ context.Context, in CreateJobInput) (domain.JobHandle, error) {
	jobID := uuid.NewString()

	b.mu.Lock()
	b.jobs[jobID] = &bedrockJob{status: StatusInProgress}
	b.mu.Unlock()

	// Detached from the caller's context: the HTTP request that started
	// the job may finish long before the model does.
	go b.run(context.Background(), jobID, in.Prompt)

	return domain.JobHandle{JobID: jobID, CreatedAt: time.Now().UTC()}, nil
}

// JobStatus reports the outcome of a local job.
func (b *BedrockBackend) JobStatus(_ context.Context, jobID string) (StatusResult, error) {
	b.mu.Lock()
	job, ok := b.jobs[jobID]
	b.mu.Unlock()
	if !ok {
		return StatusResult{}, fmt.Errorf("unknown bedrock job %q", jobID)
	}

	result := StatusResult{Status: job.status, Content: job.content}
	if job.status == StatusError {
		result.ErrorMessage = job.errMsg
	}
	return result, nil
}

func (b *BedrockBackend) run(ctx context.Context, jobID, prompt string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	content, err := b.invoke(ctx, prompt)

	b.mu.Lock()
	defer b.mu.Unlock()
	job := b.jobs[jobID]
	if job == nil {
		return
	}
	if err != nil {
		job.status = StatusError
		job.errMsg = err.Error()
		logger.Error("bedrock generation failed", "job_id", jobID, "error", err.Error())
		return
	}
	job.status = StatusComplete
	job.content = content
}

func (b *BedrockBackend) invoke(ctx context.Context, prompt string) (json.RawMessage, error) {
	reqBody, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		Temperature:      0.4,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockBlock{{Type: "text", Text: prompt}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        reqBody,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("parse bedrock response: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("bedrock returned no text content")
	}

	// The model answers with JSON per the prompt. If it wrapped the JSON in
	// prose anyway, hand it over as a JSON string: the plan parser decodes
	// string payloads itself.
	if json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}
	encoded, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("encode bedrock text: %w", err)
	}
	return encoded, nil
}
