// Package llmcomplete asks a language model to continue a piece of text. A Provider takes the text before and after the writer's cursor and returns the
// characters the model would write next. Remote providers speak the OpenAI wire protocol, so any compatible endpoint (OpenAI, Together, a local server)
// can be used by setting Config.BaseURL.
package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Provider produces a continuation of prefix. suffix is the text after the cursor; providers that can't use it ignore it.
type Provider interface {
	Complete(ctx context.Context, prefix, suffix string) (string, error)
}

// Kind selects how the prompt is sent to the model.
type Kind string

const (
	KindBase     Kind = "base"     // raw completion endpoint; the prompt is the text itself
	KindTemplate Kind = "template" // raw completion endpoint; the prompt is wrapped in chat tags
	KindChat     Kind = "chat"     // chat completion endpoint
)

// Kinds lists every valid Kind.
var Kinds = []Kind{KindBase, KindTemplate, KindChat}

// ParseKind parses s into a Kind. An empty s is an error; use InferKind to derive one from a model name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Kinds {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model kind %q (want one of base, template, chat)", s)
}

// InferKind guesses the Kind from a model name: names mentioning chat or instruct are tuned on chat tags and get KindTemplate, everything else KindBase.
func InferKind(model string) Kind {
	lower := strings.ToLower(model)
	if strings.Contains(lower, "chat") || strings.Contains(lower, "instruct") {
		return KindTemplate
	}
	return KindBase
}

const (
	DefaultModel       = "Qwen/Qwen1.5-32B"
	DefaultMaxTokens   = 15
	DefaultTemperature = 0.8
	DefaultAPIKeyEnv   = "OPENAI_API_KEY"
)

// Config configures a remote Provider.
type Config struct {
	Model string
	Kind  Kind // empty means InferKind(Model)

	MaxTokens   int     // maximum completion length in tokens; <= 0 means DefaultMaxTokens
	Temperature float64 // sampling temperature
	Stop        []string

	SlidingWindow int // if > 0, only the trailing SlidingWindow runes of the prefix are sent
	SystemPrompt  string
	UseSuffix     bool // send the text after the cursor as the completion suffix (fill-in-the-middle); raw kinds only

	APIKey    string // if empty, read from the APIKeyEnv environment variable
	APIKeyEnv string // if empty, DefaultAPIKeyEnv
	BaseURL   string // if empty, the OpenAI API
}

// DefaultConfig returns a Config with the stock model and sampling settings.
func DefaultConfig() Config {
	return Config{
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		APIKeyEnv:   DefaultAPIKeyEnv,
	}
}

var (
	ErrNoAPIKey   = errors.New("llmcomplete: no API key")
	ErrRetryable  = errors.New("llmcomplete: retryable")
	ErrNoResponse = errors.New("llmcomplete: empty response")
)

func makeRetryable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRetryable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// IsRetryable reports whether err is transient (rate limit, server error, network trouble). Nothing in this package retries; callers decide.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// New returns the remote Provider described by cfg. Requests and failures are logged to logger, which may be nil.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	if cfg.Model == "" {
		return nil, errors.New("llmcomplete: no model")
	}
	if cfg.Kind == "" {
		cfg.Kind = InferKind(cfg.Model)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	client, err := getClientOpenAI(cfg)
	if err != nil {
		return nil, err
	}

	base := remote{cfg: cfg, client: client, health: newHealth(logger, cfg)}
	switch cfg.Kind {
	case KindBase, KindTemplate:
		return &Raw{remote: base}, nil
	case KindChat:
		return &Chat{remote: base}, nil
	default:
		return nil, fmt.Errorf("llmcomplete: unknown model kind %q", cfg.Kind)
	}
}
