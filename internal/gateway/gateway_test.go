package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sugarwatch/pantry-cli/internal/config"
	"github.com/sugarwatch/pantry-cli/pkg/anthropic"
	"github.com/sugarwatch/pantry-cli/pkg/perplexity"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Perplexity Mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

var (
	_ anthropic.Client  = (*mockAnthropicClient)(nil)
	_ perplexity.Client = (*mockPerplexityClient)(nil)
)

func newTestService(ai anthropic.Client, web perplexity.Client) *Service {
	return New(ai, web, &config.Config{
		Anthropic:  config.AnthropicConfig{Model: "claude-test", MaxTokens: 512},
		Perplexity: config.PerplexityConfig{Model: "sonar-pro"},
		Gateway:    config.GatewayConfig{RequestsPerSecond: 1000, Burst: 1000},
	})
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ResponseBlock{{Type: "text", Text: text}},
	}
}

func groundedResponse(content string) *perplexity.ChatCompletionResponse {
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: content}}},
	}
}

func TestClassify_UngroundedUsesMessagesAPI(t *testing.T) {
	ai := &mockAnthropicClient{}
	web := &mockPerplexityClient{}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-test" && len(req.Messages) == 1
	})).Return(textResponse("YES"), nil)

	svc := newTestService(ai, web)
	got, err := svc.Classify(context.Background(), "is it safe?")
	require.NoError(t, err)
	assert.Equal(t, "YES", got)
	ai.AssertExpectations(t)
	web.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestClassify_GroundedUsesWebModel(t *testing.T) {
	ai := &mockAnthropicClient{}
	web := &mockPerplexityClient{}
	web.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return req.Model == "sonar-pro" && req.ResponseFormat == nil
	})).Return(groundedResponse("14.5"), nil)

	svc := newTestService(ai, web)
	got, err := svc.Classify(context.Background(), "sugar content?", WithGrounding())
	require.NoError(t, err)
	assert.Equal(t, "14.5", got)
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestClassify_ImageOverridesGrounding(t *testing.T) {
	ai := &mockAnthropicClient{}
	web := &mockPerplexityClient{}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		blocks := req.Messages[0].Content
		return len(blocks) == 2 && blocks[1].Type == "image" && len(blocks[1].ImageData) > 0
	})).Return(textResponse("Parle-G"), nil)

	svc := newTestService(ai, web)
	got, err := svc.Classify(context.Background(), "what is on the package?",
		WithGrounding(), WithImage(ImageRef{Data: []byte("jpeg"), MediaType: "image/jpeg"}))
	require.NoError(t, err)
	assert.Equal(t, "Parle-G", got)
	web.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestClassify_ImageByURL(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		blocks := req.Messages[0].Content
		return len(blocks) == 2 && blocks[1].ImageURL == "https://files.example/p.jpg"
	})).Return(textResponse("Frooti"), nil)

	svc := newTestService(ai, &mockPerplexityClient{})
	got, err := svc.Classify(context.Background(), "what is this?",
		WithImage(ImageRef{URL: "https://files.example/p.jpg"}))
	require.NoError(t, err)
	assert.Equal(t, "Frooti", got)
}

func TestClassify_BackendErrorIsUnavailable(t *testing.T) {
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	svc := newTestService(ai, &mockPerplexityClient{})
	_, err := svc.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassify_GroundedEmptyChoices(t *testing.T) {
	web := &mockPerplexityClient{}
	web.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(&perplexity.ChatCompletionResponse{}, nil)

	svc := newTestService(&mockAnthropicClient{}, web)
	_, err := svc.Classify(context.Background(), "anything", WithGrounding())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassifyStructured_GroundedSendsSchema(t *testing.T) {
	web := &mockPerplexityClient{}
	schema := Schema{Properties: []Property{
		{Name: "name", Type: "string"},
		{Name: "cost", Type: "number"},
	}}
	web.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return req.ResponseFormat != nil &&
			req.ResponseFormat.Type == "json_schema" &&
			strings.Contains(string(req.ResponseFormat.JSONSchema.Schema), `"name"`)
	})).Return(groundedResponse(`{"name":"Parle-G","cost":10}`), nil)

	var out struct {
		Name string  `json:"name"`
		Cost float64 `json:"cost"`
	}
	svc := newTestService(&mockAnthropicClient{}, web)
	err := svc.ClassifyStructured(context.Background(), "look it up", schema, &out, WithGrounding())
	require.NoError(t, err)
	assert.Equal(t, "Parle-G", out.Name)
	assert.Equal(t, 10.0, out.Cost)
}

func TestClassifyStructured_DirectEmbedsSchemaInPrompt(t *testing.T) {
	ai := &mockAnthropicClient{}
	schema := Schema{Properties: []Property{{Name: "name", Type: "string"}}}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		prompt := req.Messages[0].Content[0].Text
		return strings.Contains(prompt, "single JSON object") && strings.Contains(prompt, `"name"`)
	})).Return(textResponse(`{"name":"Frooti"}`), nil)

	var out struct {
		Name string `json:"name"`
	}
	svc := newTestService(ai, &mockPerplexityClient{})
	err := svc.ClassifyStructured(context.Background(), "identify", schema, &out)
	require.NoError(t, err)
	assert.Equal(t, "Frooti", out.Name)
}

func TestClassifyStructured_StripsMarkdownFences(t *testing.T) {
	web := &mockPerplexityClient{}
	web.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(groundedResponse("```json\n{\"name\":\"Maggi\"}\n```"), nil)

	var out struct {
		Name string `json:"name"`
	}
	svc := newTestService(&mockAnthropicClient{}, web)
	err := svc.ClassifyStructured(context.Background(), "look it up",
		Schema{Properties: []Property{{Name: "name", Type: "string"}}}, &out, WithGrounding())
	require.NoError(t, err)
	assert.Equal(t, "Maggi", out.Name)
}

func TestClassifyStructured_MalformedResponseIsUnavailable(t *testing.T) {
	web := &mockPerplexityClient{}
	web.On("ChatCompletion", mock.Anything, mock.Anything).
		Return(groundedResponse("I could not find that product."), nil)

	var out struct{}
	svc := newTestService(&mockAnthropicClient{}, web)
	err := svc.ClassifyStructured(context.Background(), "look it up", Schema{}, &out, WithGrounding())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSchemaJSON_PreservesPropertyOrder(t *testing.T) {
	schema := Schema{Properties: []Property{
		{Name: "name", Type: "string"},
		{Name: "cost", Type: "number"},
		{Name: "sugar", Type: "number"},
	}}
	assert.Equal(t,
		`{"type":"object","properties":{"name":{"type":"string"},"cost":{"type":"number"},"sugar":{"type":"number"}}}`,
		string(schema.JSON()))
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Here you go: {"a":1}. Hope that helps!`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
