// Package gateway is the contract wrapper around the inference service. It
// exposes two narrow capabilities, free-text classification and
// schema-constrained classification, each optionally internet-grounded and
// optionally image-attached. Grounded calls are routed to the web-connected
// model; everything else, including vision calls, goes to the Anthropic
// messages API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sugarwatch/pantry-cli/internal/config"
	"github.com/sugarwatch/pantry-cli/pkg/anthropic"
	"github.com/sugarwatch/pantry-cli/pkg/perplexity"
)

// ErrUnavailable marks any inference service failure: unreachable service,
// timeout, or a malformed response. The gateway never substitutes a default
// for a failed call; callers test with errors.Is and decide the fallback.
var ErrUnavailable = eris.New("gateway: inference service unavailable")

// ImageRef references a captured image for a vision call. Data is preferred
// when present; URL lets the service fetch an uploaded copy.
type ImageRef struct {
	URL       string
	Data      []byte
	MediaType string
}

// CallConfig is the resolved option set for a single classify call.
type CallConfig struct {
	Grounded bool
	Image    *ImageRef
}

// CallOption configures a single classify call.
type CallOption func(*CallConfig)

// WithGrounding permits the call to use live external web data.
func WithGrounding() CallOption {
	return func(o *CallConfig) {
		o.Grounded = true
	}
}

// WithImage attaches a captured image to the call.
func WithImage(ref ImageRef) CallOption {
	return func(o *CallConfig) {
		o.Image = &ref
	}
}

// ResolveOptions folds options into a CallConfig.
func ResolveOptions(opts []CallOption) CallConfig {
	var cfg CallConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Property is one field of a structured response schema.
type Property struct {
	Name string
	Type string // JSON schema type: "string", "number", ...
}

// Schema declares the object shape a structured call must return. Property
// order is preserved in the rendered JSON schema.
type Schema struct {
	Properties []Property
}

// JSON renders the schema as a JSON schema object.
func (s Schema) JSON() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	for i, p := range s.Properties {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `%q:{"type":%q}`, p.Name, p.Type)
	}
	buf.WriteString(`}}`)
	return buf.Bytes()
}

// Gateway defines the two inference capabilities the pipeline consumes.
type Gateway interface {
	// Classify returns the model's free-text answer to the prompt. The
	// response is not validated for semantic correctness; that is the
	// caller's job.
	Classify(ctx context.Context, prompt string, opts ...CallOption) (string, error)
	// ClassifyStructured answers the prompt with an object matching the
	// declared schema, unmarshalled into out.
	ClassifyStructured(ctx context.Context, prompt string, schema Schema, out any, opts ...CallOption) error
}

// Service implements Gateway over the Anthropic and Perplexity clients.
type Service struct {
	ai      anthropic.Client
	web     perplexity.Client
	aiCfg   config.AnthropicConfig
	webCfg  config.PerplexityConfig
	limiter *rate.Limiter
}

// New creates a gateway. The rate limiter is shared across both backends so
// a burst of pipeline runs cannot stampede either service.
func New(ai anthropic.Client, web perplexity.Client, cfg *config.Config) *Service {
	rps := cfg.Gateway.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Gateway.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Service{
		ai:      ai,
		web:     web,
		aiCfg:   cfg.Anthropic,
		webCfg:  cfg.Perplexity,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *Service) Classify(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	o := ResolveOptions(opts)

	if err := s.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(ErrUnavailable, err.Error())
	}

	// Vision calls always go to the messages API; the grounded flag has no
	// effect when an image is attached.
	if o.Image == nil && o.Grounded {
		return s.classifyGrounded(ctx, prompt, nil)
	}
	return s.classifyDirect(ctx, prompt, o.Image)
}

func (s *Service) ClassifyStructured(ctx context.Context, prompt string, schema Schema, out any, opts ...CallOption) error {
	o := ResolveOptions(opts)

	if err := s.limiter.Wait(ctx); err != nil {
		return eris.Wrap(ErrUnavailable, err.Error())
	}

	var text string
	var err error
	if o.Image == nil && o.Grounded {
		text, err = s.classifyGrounded(ctx, prompt, schema.JSON())
	} else {
		// The messages API has no schema constraint; embed the schema in
		// the prompt and parse strictly.
		constrained := fmt.Sprintf("%s\n\nRespond with a single JSON object matching this schema, and nothing else:\n%s", prompt, schema.JSON())
		text, err = s.classifyDirect(ctx, constrained, o.Image)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
		return eris.Wrap(ErrUnavailable, fmt.Sprintf("malformed structured response: %v", err))
	}
	return nil
}

func (s *Service) classifyDirect(ctx context.Context, prompt string, image *ImageRef) (string, error) {
	blocks := []anthropic.ContentBlock{anthropic.TextBlock(prompt)}
	if image != nil {
		if len(image.Data) > 0 {
			blocks = append(blocks, anthropic.ImageBlockFromData(image.Data, image.MediaType))
		} else {
			blocks = append(blocks, anthropic.ImageBlockFromURL(image.URL))
		}
	}

	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.aiCfg.Model,
		MaxTokens: s.aiCfg.MaxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: blocks},
		},
	})
	if err != nil {
		zap.L().Warn("gateway: direct classify failed", zap.Error(err))
		return "", eris.Wrap(ErrUnavailable, err.Error())
	}
	resp.Usage.LogCost(s.aiCfg.Model, "classify")

	return resp.Text(), nil
}

func (s *Service) classifyGrounded(ctx context.Context, prompt string, schemaJSON []byte) (string, error) {
	req := perplexity.ChatCompletionRequest{
		Model: s.webCfg.Model,
		Messages: []perplexity.Message{
			{Role: "user", Content: prompt},
		},
	}
	if schemaJSON != nil {
		req.ResponseFormat = &perplexity.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &perplexity.JSONSchemaSpec{Schema: schemaJSON},
		}
	}

	resp, err := s.web.ChatCompletion(ctx, req)
	if err != nil {
		zap.L().Warn("gateway: grounded classify failed", zap.Error(err))
		return "", eris.Wrap(ErrUnavailable, err.Error())
	}
	content, ok := resp.Content()
	if !ok {
		return "", eris.Wrap(ErrUnavailable, "grounded response has no choices")
	}

	return content, nil
}

// cleanJSON strips markdown fences and surrounding prose from a model
// response so it can be unmarshalled.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
