// Package anthropic wraps the official anthropic-sdk-go behind the small
// surface the acquisition pipeline needs: single messages, optionally with
// an attached image.
package anthropic

import (
	"context"
	"encoding/base64"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the Anthropic API operations used by the gateway.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is our own request type for CreateMessage.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	Messages    []Message
	Temperature *float64
}

// Message is a single conversational message built from content blocks.
type Message struct {
	Role    string // "user" or "assistant"
	Content []ContentBlock
}

// ContentBlock is either a text block or an image block. An image block
// carries raw bytes (sent base64) or a URL the service can fetch.
type ContentBlock struct {
	Type      string // "text" or "image"
	Text      string
	ImageData []byte
	ImageURL  string
	MediaType string // e.g. "image/jpeg", required with ImageData
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ImageBlockFromData builds an image content block from raw bytes.
func ImageBlockFromData(data []byte, mediaType string) ContentBlock {
	return ContentBlock{Type: "image", ImageData: data, MediaType: mediaType}
}

// ImageBlockFromURL builds an image content block the service fetches itself.
func ImageBlockFromURL(url string) ContentBlock {
	return ContentBlock{Type: "image", ImageURL: url}
}

// MessageResponse is our own response type from CreateMessage.
type MessageResponse struct {
	ID         string
	Model      string
	Content    []ResponseBlock
	StopReason string
	Usage      TokenUsage
}

// ResponseBlock is a block of content in a response.
type ResponseBlock struct {
	Type string
	Text string
}

// Text concatenates all text blocks of the response.
func (r *MessageResponse) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// LogCost logs token usage with structured zap fields.
func (u TokenUsage) LogCost(model, operation string) {
	zap.L().Debug("token usage",
		zap.String("model", model),
		zap.String("operation", operation),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	return fromSDKMessage(msg), nil
}

// --- SDK type conversion helpers ---

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			blocks = append(blocks, toSDKBlock(b))
		}
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(blocks...)
		default:
			out[i] = sdk.NewUserMessage(blocks...)
		}
	}
	return out
}

func toSDKBlock(b ContentBlock) sdk.ContentBlockParamUnion {
	switch b.Type {
	case "image":
		if len(b.ImageData) > 0 {
			encoded := base64.StdEncoding.EncodeToString(b.ImageData)
			return sdk.NewImageBlockBase64(b.MediaType, encoded)
		}
		return sdk.NewImageBlock(sdk.URLImageSourceParam{URL: b.ImageURL})
	default:
		return sdk.NewTextBlock(b.Text)
	}
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	blocks := make([]ResponseBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		blocks = append(blocks, ResponseBlock{
			Type: b.Type,
			Text: b.Text,
		})
	}

	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Content:    blocks,
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}
