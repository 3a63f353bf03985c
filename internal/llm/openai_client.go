package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/goccy/go-json"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// insightsTemperature keeps the wording stable between requests for the same data.
const insightsTemperature = 0.3

var (
	// ErrOpenAIUnavailable indicates the OpenAI service is not configured or unavailable.
	ErrOpenAIUnavailable = errors.New("OpenAI service unavailable")
	// ErrOpenAIRequest indicates an error during the OpenAI API request.
	ErrOpenAIRequest = errors.New("OpenAI request failed")
	// ErrOpenAIResponse indicates an error parsing the OpenAI response.
	ErrOpenAIResponse = errors.New("failed to parse OpenAI response")
)

const systemPrompt = `You are a non-medical sleep tracking assistant.

You receive sleep statistics recorded by a bedside movement and sound tracker, together with a chronotype classification, for a single user. Sleep stages are estimated from movement and ambient sound, not measured. Base your conclusions only on the provided data.

Your goals:
- Describe the user's recent sleep in clear, neutral language.
- Highlight patterns in total sleep, efficiency, awakenings, restlessness, deep sleep share and bedtime regularity.
- Compare last night to the user's recent period and longer history.
- Mention the smart alarm when it woke the user before the target time.
- Factor in the user's chronotype when it helps explain patterns.
- Give practical, behavioral suggestions to improve sleep habits.

Rules:
- Do NOT provide medical advice or diagnoses.
- Do NOT mention diseases, disorders, doctors, or treatment.
- Focus only on behavior and routines (bedtime regularity, wind-down habits, bedroom noise, etc.).
- If data is limited or mixed, say that explicitly.
- Be concise and concrete.

You must respond as strict JSON with exactly this shape:

{
  "summary": "2-3 sentences summarizing the user's sleep, comparing last night to recent period and longer history.",
  "observations": [
    "3-6 bullet points about patterns in sleep duration, efficiency, awakenings, restlessness and regularity.",
    "At least one item comparing the recent window to the longer history.",
    "If relevant, one item about how their sleep aligns or conflicts with their chronotype."
  ],
  "guidance": [
    "3-5 concrete, non-medical suggestions tailored to these numbers.",
    "Include at least one suggestion about schedule regularity if bedtime variability is high.",
    "Include at least one suggestion about protecting total sleep if the average is below 7 hours."
  ]
}

No extra fields. No comments. No backticks.`

const userPromptTemplate = `Here is JSON describing this user's tracked sleep.

- "chronotype" describes their typical mid-sleep time and type.
- "history" and "recent" each contain:
  - "nightly", statistics over the tracked nights in that window (total sleep hours, efficiency, awakenings, restlessness, deep sleep share, bedtime in minutes after local midnight where values above 1440 fall after midnight, smart alarm wake-ups),
  - "scores", derived 0-100 scores (consistency, sufficiency, quality, overall_sleep_score).
- "last_night", when present, holds the stage minutes and quality metrics of the most recent session.

Use:
- "history" to understand the long-term baseline (about 30 nights),
- "recent" to see short-term changes (about 7 nights),
- "last_night" to judge how the most recent night compares to both.

JSON:

%s

Based on this data, respond in the required JSON format.`

// InsightsLLM generates narrative sleep insights from aggregated statistics.
type InsightsLLM interface {
	GenerateInsights(ctx context.Context, insightsCtx *domain.InsightsContext) (*domain.LLMInsightsOutput, error)
}

// OpenAIClient implements InsightsLLM with the chat completions API in JSON mode.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient returns nil when apiKey is empty. A nil client answers every
// call with ErrOpenAIUnavailable.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIClient) GenerateInsights(ctx context.Context, insightsCtx *domain.InsightsContext) (*domain.LLMInsightsOutput, error) {
	if c == nil {
		return nil, ErrOpenAIUnavailable
	}

	ctx, span := otel.Tracer("smart-sleep/llm").Start(ctx, "OpenAI.GenerateInsights")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	payload, err := json.MarshalIndent(insightsCtx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode context: %v", ErrOpenAIRequest, err)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, payload)),
		},
		Temperature: openai.Float(insightsTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion")
		return nil, fmt.Errorf("%w: %v", ErrOpenAIRequest, err)
	}
	span.SetAttributes(
		attribute.Int64("llm.usage.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int64("llm.usage.completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no choices")
		return nil, fmt.Errorf("%w: no choices in response", ErrOpenAIResponse)
	}

	out, err := parseInsights(resp.Choices[0].Message.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse insights")
		return nil, err
	}
	return out, nil
}

// parseInsights decodes the model output, tolerating a surrounding code fence.
func parseInsights(content string) (*domain.LLMInsightsOutput, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var out domain.LLMInsightsOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenAIResponse, err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrOpenAIResponse)
	}
	return &out, nil
}
