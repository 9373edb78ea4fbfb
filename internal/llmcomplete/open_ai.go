package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codalotl/drafter/internal/q/health"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

func getEnvWithPossibleDollar(key string) string {
	if key == "" {
		return ""
	}
	envVar := strings.TrimPrefix(key, "$")
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return ""
}

func getClientOpenAI(cfg Config) (*openai.Client, error) {
	// Priority 1: explicit key
	apiKey := cfg.APIKey

	// Priority 2: configured env var
	if apiKey == "" {
		apiKey = getEnvWithPossibleDollar(cfg.APIKeyEnv)
	}

	// Priority last:
	if apiKey == "" {
		apiKey = os.Getenv(DefaultAPIKeyEnv)
	}

	if apiKey == "" {
		env := cfg.APIKeyEnv
		if env == "" {
			env = DefaultAPIKeyEnv
		}
		return nil, fmt.Errorf("%w: set %s", ErrNoAPIKey, strings.TrimPrefix(env, "$"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &client, nil
}

// remote holds what Raw and Chat share.
type remote struct {
	cfg    Config
	client *openai.Client
	health health.Ctx
}

func newHealth(logger *slog.Logger, cfg Config) health.Ctx {
	return health.NewCtx(logger).With("model", cfg.Model, "kind", string(cfg.Kind))
}

// request starts logging for one request and returns the Ctx carrying its id.
func (r *remote) request(prompt string) (health.Ctx, time.Time) {
	h := r.health.With("request_id", uuid.NewString())
	h.Debug("completion request", "prompt_bytes", len(prompt), "prompt_tokens", CountTokens(prompt))
	return h, time.Now()
}

// Raw sends prompts to the legacy completion endpoint. With KindTemplate the prompt is wrapped in chat tags; with KindBase it is sent as-is.
type Raw struct {
	remote
}

func (r *Raw) prompt(prefix string) string {
	if r.cfg.Kind == KindTemplate {
		return templatePrompt(r.cfg.SystemPrompt, prefix, r.cfg.SlidingWindow)
	}
	return basePrompt(r.cfg.SystemPrompt, prefix, r.cfg.SlidingWindow)
}

func (r *Raw) params(prompt, suffix string) openai.CompletionNewParams {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(r.cfg.Model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(r.cfg.MaxTokens)),
		Temperature: openai.Float(r.cfg.Temperature),
	}
	if len(r.cfg.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: r.cfg.Stop}
	}
	if r.cfg.UseSuffix && suffix != "" {
		params.Suffix = openai.String(head(suffix, r.cfg.SlidingWindow))
	}
	return params
}

func (r *Raw) Complete(ctx context.Context, prefix, suffix string) (string, error) {
	prompt := r.prompt(prefix)
	h, start := r.request(prompt)
	params := r.params(prompt, suffix)

	var httpResp *http.Response
	resp, err := r.client.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return "", h.LogErr(classifyError(err), rateLimitAttrs(httpResp)...)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", h.LogErr(ErrNoResponse)
	}

	choice := resp.Choices[0]
	h.Log("completion response",
		append([]any{
			"elapsed", time.Since(start),
			"finish_reason", string(choice.FinishReason),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		}, rateLimitAttrs(httpResp)...)...,
	)
	return choice.Text, nil
}

// Chat sends the windowed prefix as the user message of a chat completion. The suffix is not used.
type Chat struct {
	remote
}

func (c *Chat) params(prefix string) openai.ChatCompletionNewParams {
	system := c.cfg.SystemPrompt
	if system == "" {
		system = defaultChatSystemPrompt
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(tail(prefix, c.cfg.SlidingWindow)),
		},
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
		Temperature: openai.Float(c.cfg.Temperature),
	}
	if len(c.cfg.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: c.cfg.Stop}
	}
	return params
}

func (c *Chat) Complete(ctx context.Context, prefix, _ string) (string, error) {
	h, start := c.request(tail(prefix, c.cfg.SlidingWindow))
	params := c.params(prefix)

	var httpResp *http.Response
	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return "", h.LogErr(classifyError(err), rateLimitAttrs(httpResp)...)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", h.LogErr(ErrNoResponse)
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	if text == "" && choice.Message.Refusal != "" {
		return "", h.LogNewErr("completion refused", "refusal", choice.Message.Refusal)
	}
	h.Log("completion response",
		append([]any{
			"elapsed", time.Since(start),
			"finish_reason", choice.FinishReason,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		}, rateLimitAttrs(httpResp)...)...,
	)
	return text, nil
}

// classifyError marks rate limits, server errors and network errors as retryable.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || (apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599) {
			return makeRetryable(err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return makeRetryable(err)
	}
	return err
}

// rateLimitAttrs returns slog args for the rate limit headers of resp, if present.
func rateLimitAttrs(resp *http.Response) []any {
	if resp == nil {
		return nil
	}
	var attrs []any
	for _, h := range []struct{ header, key string }{
		{"x-ratelimit-remaining-tokens", "tokens_remaining"},
		{"x-ratelimit-remaining-requests", "requests_remaining"},
	} {
		if n, ok := parseRateLimitInt(resp.Header.Get(h.header)); ok {
			attrs = append(attrs, h.key, n)
		}
	}
	if d, err := time.ParseDuration(resp.Header.Get("x-ratelimit-reset-requests")); err == nil {
		attrs = append(attrs, "requests_reset", d)
	}
	return attrs
}

func parseRateLimitInt(val string) (int, bool) {
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}
