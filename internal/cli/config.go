package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/codalotl/drafter/internal/bindings"
	"github.com/codalotl/drafter/internal/llmcomplete"
	"github.com/codalotl/drafter/internal/q/cascade"
)

// Config is drafter's configuration loaded from a cascade of sources. Field keys come from the toml tags; json tags name the same keys for `drafter config`
// output.
type Config struct {
	Model         string   `toml:"model" json:"model"`
	ModelKind     string   `toml:"model_kind" json:"model_kind"` // "" infers from the model name
	BaseURL       string   `toml:"base_url" json:"base_url"`
	APIKey        string   `toml:"api_key" json:"api_key"`
	APIKeyEnv     string   `toml:"api_key_env" json:"api_key_env"`
	MaxTokens     int      `toml:"max_tokens" json:"max_tokens"`
	Temperature   float64  `toml:"temperature" json:"temperature"`
	Stop          []string `toml:"stop" json:"stop"`
	SlidingWindow int      `toml:"sliding_window" json:"sliding_window"`
	SystemPrompt  string   `toml:"system_prompt" json:"system_prompt"`
	UseSuffix     bool     `toml:"use_suffix" json:"use_suffix"`

	Timeout    time.Duration `toml:"timeout" json:"timeout"`
	MaxRetract int           `toml:"max_retract" json:"max_retract"`
	LogFile    string        `toml:"log_file" json:"log_file"`

	// Bindings overrides keys per action (ex: complete = ["ctrl+space"]).
	Bindings map[string][]string `toml:"bindings" json:"bindings"`
}

const (
	configDirName  = ".drafter"
	defaultRetract = 200
)

var configFileNames = []string{"config.toml", "config.json"}

func globalConfigPath() string {
	return cascade.ExpandPath(filepath.Join("~", configDirName, configFileNames[0]))
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"model":    "DRAFTER_MODEL",
	"base_url": "DRAFTER_BASE_URL",
	"api_key":  "DRAFTER_API_KEY",
	"log_file": "DRAFTER_LOG_FILE",
}

func configDefaults() map[string]any {
	return map[string]any{
		"model":       llmcomplete.DefaultModel,
		"api_key_env": llmcomplete.DefaultAPIKeyEnv,
		"max_tokens":  llmcomplete.DefaultMaxTokens,
		"temperature": llmcomplete.DefaultTemperature,
		"timeout":     llmcomplete.DefaultTimeout.String(),
		"max_retract": defaultRetract,
	}
}

// loadedConfig is a Config plus where each value came from.
type loadedConfig struct {
	Config
	provenance map[string]cascade.Providence
	files      []string
}

// loadConfig layers, lowest to highest priority: defaults, the global config in ~/.drafter, the nearest .drafter config walking up from dir, environment
// variables, then flags (config key → value).
func loadConfig(dir string, flags map[string]any) (loadedConfig, error) {
	loader := cascade.New().WithDefaults(configDefaults())
	for _, name := range configFileNames {
		loader = loader.WithFile(filepath.Join("~", configDirName, name))
	}
	nearest := make([]string, len(configFileNames))
	for i, name := range configFileNames {
		nearest[i] = filepath.Join(configDirName, name)
	}
	loader = loader.
		WithNearestFile(dir, nearest...).
		WithEnv(envKeys).
		WithMap("flags", flags).
		DisallowUnknownKeys()

	var cfg Config
	if err := loader.StrictlyLoad(&cfg); err != nil {
		return loadedConfig{}, fmt.Errorf("load configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return loadedConfig{}, err
	}
	return loadedConfig{Config: cfg, provenance: loader.Provenance(), files: loader.Files()}, nil
}

func validateConfig(cfg Config) error {
	var problems []string
	if strings.TrimSpace(cfg.Model) == "" {
		problems = append(problems, "model must not be empty")
	}
	if cfg.ModelKind != "" {
		if _, err := llmcomplete.ParseKind(cfg.ModelKind); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if cfg.MaxTokens <= 0 {
		problems = append(problems, fmt.Sprintf("max_tokens must be > 0 (got %d)", cfg.MaxTokens))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("temperature must be within [0, 2] (got %g)", cfg.Temperature))
	}
	if cfg.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be > 0 (got %v)", cfg.Timeout))
	}
	if cfg.MaxRetract < 0 {
		problems = append(problems, fmt.Sprintf("max_retract must be >= 0 (got %d)", cfg.MaxRetract))
	}
	if cfg.SlidingWindow < 0 {
		problems = append(problems, fmt.Sprintf("sliding_window must be >= 0 (got %d)", cfg.SlidingWindow))
	}
	if _, err := bindings.New(cfg.Bindings); err != nil {
		problems = append(problems, "bindings: "+err.Error())
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// providerConfig converts cfg into the settings of a remote provider.
func (cfg Config) providerConfig() llmcomplete.Config {
	kind, _ := llmcomplete.ParseKind(cfg.ModelKind)
	return llmcomplete.Config{
		Model:         cfg.Model,
		Kind:          kind,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   cfg.Temperature,
		Stop:          cfg.Stop,
		SlidingWindow: cfg.SlidingWindow,
		SystemPrompt:  cfg.SystemPrompt,
		UseSuffix:     cfg.UseSuffix,
		APIKey:        cfg.APIKey,
		APIKeyEnv:     cfg.APIKeyEnv,
		BaseURL:       cfg.BaseURL,
	}
}

// writeConfigJSON prints the effective configuration, where each set key came from, and the config files that were read. The API key is masked.
func writeConfigJSON(w io.Writer, lc loadedConfig) error {
	data, err := json.Marshal(lc.Config)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	values["timeout"] = lc.Timeout.String()
	if lc.APIKey != "" {
		values["api_key"] = maskSecret(lc.APIKey)
	}

	sources := make(map[string]string, len(lc.provenance))
	for _, k := range cascade.SortedKeys(lc.provenance) {
		sources[k] = lc.provenance[k].String()
	}
	files := lc.files
	if files == nil {
		files = []string{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Config  map[string]any    `json:"config"`
		Sources map[string]string `json:"sources"`
		Files   []string          `json:"files"`
	}{values, sources, files})
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:3] + "..." + s[len(s)-4:]
}
