package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codalotl/drafter/internal/llmcomplete"
)

type startupValidationError struct {
	Model     string
	APIKeyEnv string
	BaseURL   string
}

func (e startupValidationError) Error() string {
	var b strings.Builder
	b.WriteString("drafter startup validation failed.\n")
	fmt.Fprintf(&b, "\nNo API key is configured for model %s", e.Model)
	if e.BaseURL != "" {
		fmt.Fprintf(&b, " at %s", e.BaseURL)
	}
	b.WriteString(".\n")

	b.WriteString("\nTo fix, set one of these ENV variables:\n")
	env := e.APIKeyEnv
	if env == "" {
		env = llmcomplete.DefaultAPIKeyEnv
	}
	b.WriteString("- ")
	b.WriteString(strings.TrimPrefix(env, "$"))
	b.WriteString("\n- DRAFTER_API_KEY\n")

	b.WriteString("\nOr add a config file:\n")
	b.WriteString("- Global: ")
	b.WriteString(globalConfigPath())
	b.WriteString("\n- Project: .drafter/config.toml\n")
	b.WriteString("\nExample config.toml:\n")
	b.WriteString("api_key_env = \"TOGETHER_API_KEY\"\nbase_url = \"https://api.together.xyz/v1\"\n")

	b.WriteString("\nOr run with --mock to try the editor offline.")
	return b.String()
}

// mockResponses drive --mock. Keys are matched against the text before the cursor.
var mockResponses = map[string]string{
	"once upon a time": " there lived a",
	"dear":             " Sir or Madam,\n",
	"func ":            "() error {\n",
	"the quick brown":  " fox jumps over",
}

// newProvider builds the completion provider for cfg, or an offline mock.
func newProvider(cfg Config, mock bool, logger *slog.Logger) (llmcomplete.Provider, error) {
	if mock {
		m := llmcomplete.NewMock(mockResponses)
		m.Default = " and so on"
		return m, nil
	}
	p, err := llmcomplete.New(cfg.providerConfig(), logger)
	if errors.Is(err, llmcomplete.ErrNoAPIKey) {
		return nil, startupValidationError{Model: cfg.Model, APIKeyEnv: cfg.APIKeyEnv, BaseURL: cfg.BaseURL}
	}
	if err != nil {
		return nil, fmt.Errorf("configure completion provider: %w", err)
	}
	return p, nil
}
