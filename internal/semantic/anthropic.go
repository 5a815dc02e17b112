package semantic

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/asterisk-app/asterisk/internal/resilience"
)

// AnthropicConfig tunes the Claude-backed delegate.
type AnthropicConfig struct {
	Model     string
	MaxTokens int64
	// RequestsPerSecond bounds the outbound call rate; zero disables limiting.
	RequestsPerSecond float64
}

// AnthropicDelegate implements Delegate with one Claude messages call per
// field. Requests carry field metadata and candidate keys only.
type AnthropicDelegate struct {
	client  sdk.Client
	cfg     AnthropicConfig
	limiter *rate.Limiter
}

// NewAnthropic creates a Claude-backed delegate.
func NewAnthropic(apiKey string, cfg AnthropicConfig) *AnthropicDelegate {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &AnthropicDelegate{
		client:  sdk.NewClient(option.WithAPIKey(apiKey)),
		cfg:     cfg,
		limiter: limiter,
	}
}

func (d *AnthropicDelegate) AnalyzeField(ctx context.Context, req Request) (*Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "semantic: rate limit wait")
		}
	}

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "analyze_field")
	msg, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*sdk.Message, error) {
		return d.client.Messages.New(ctx, sdk.MessageNewParams{
			Model:     sdk.Model(d.cfg.Model),
			MaxTokens: d.cfg.MaxTokens,
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(req))),
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "semantic: create message")
	}

	text := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	return parseResponse(text)
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are analyzing a form field to determine which user data it expects.\n\n")
	b.WriteString("Field information:\n")
	b.WriteString("- Label: \"" + req.Label + "\"\n")
	b.WriteString("- Name attribute: \"" + req.Name + "\"\n")
	b.WriteString("- Input type: \"" + req.Type + "\"\n")
	placeholder := req.Placeholder
	if placeholder == "" {
		placeholder = "(none)"
	}
	b.WriteString("- Placeholder: " + placeholder + "\n\n")
	b.WriteString("Available vault data keys:\n")
	b.WriteString(strings.Join(req.CandidateKeys, ", "))
	b.WriteString("\n\nTask: Determine which vault key (if any) should be used to fill this field.\n\n")
	b.WriteString("Respond ONLY with valid JSON in this exact format:\n")
	b.WriteString(`{"matchedKey": "keyName", "confidence": 0.85, "reasoning": "explanation"}` + "\n\n")
	b.WriteString("Or if no match:\n")
	b.WriteString(`{"matchedKey": null, "confidence": 0.0, "reasoning": "explanation"}` + "\n\n")
	b.WriteString("Confidence scale:\n")
	b.WriteString("- 0.80-0.90: Strong semantic match\n")
	b.WriteString("- 0.60-0.80: Likely match but some ambiguity\n")
	b.WriteString("- 0.40-0.60: Possible match, low confidence\n")
	b.WriteString("- 0.0-0.40: No clear match\n\n")
	b.WriteString("If no vault key matches, set matchedKey to null. Be conservative with confidence scores.")
	return b.String()
}

// parseResponse decodes the classifier's JSON verdict. Key validation against
// the live snapshot happens in Analyze, not here.
func parseResponse(text string) (*Response, error) {
	text = strings.TrimSpace(text)
	// Tolerate fenced output from the model.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed struct {
		MatchedKey *string `json:"matchedKey"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, eris.Wrap(err, "semantic: parse classifier response")
	}

	resp := &Response{
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}
	if parsed.MatchedKey != nil {
		resp.MatchedKey = *parsed.MatchedKey
	}
	return resp, nil
}
