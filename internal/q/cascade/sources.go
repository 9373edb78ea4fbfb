package cascade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// source supplies key/value data to the loader in normalized form:
//   - keys are lower cased and contain no "." (dots are expanded into nested maps)
//   - values are nil, string, bool, int, float64, []any of those, or map[string]any
type source interface {
	Name() string
	Providence() Providence
	ToMap() (map[string]any, error)

	// strict reports whether unknown keys in this source are errors (when the Loader disallows unknown keys at all).
	strict() bool
}

// sourceMap adapts a Go map. Keys may use dot-notation to create nested objects.
type sourceMap struct {
	isDefaults bool
	label      string
	m          map[string]any
}

func (s *sourceMap) Name() string {
	if s.isDefaults {
		return "Defaults"
	}
	if s.label != "" {
		return s.label
	}
	return "Go Map"
}

func (s *sourceMap) Providence() Providence {
	if s.isDefaults {
		return Providence{SourceType: "default"}
	}
	return Providence{SourceType: "map", SourceIdentifier: s.label}
}

func (s *sourceMap) strict() bool { return false }

func (s *sourceMap) ToMap() (map[string]any, error) {
	out := map[string]any{}
	for k, v := range s.m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("key '%s': %w", k, err)
		}
		if err := mergeIntoObject(out, strings.Split(k, "."), nv, k); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Format is a config file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf returns the Format implied by path's extension. Anything other than .toml is treated as JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// sourceFile reads a TOML or JSON file at load time. Empty or whitespace-only files contribute no values.
type sourceFile struct {
	path string
}

func (s *sourceFile) Name() string {
	return fmt.Sprintf("%s File: %s", strings.ToUpper(string(FormatOf(s.path))), s.path)
}

func (s *sourceFile) Providence() Providence {
	return Providence{SourceType: string(FormatOf(s.path)) + "_file", SourceIdentifier: ExpandPath(s.path)}
}

func (s *sourceFile) strict() bool { return true }

func (s *sourceFile) ToMap() (map[string]any, error) {
	if s.path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(ExpandPath(s.path))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	switch FormatOf(s.path) {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		var top any
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		obj, ok := top.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("top-level JSON must be an object")
		}
		raw = obj
	}

	nv, err := normalizeValue(raw)
	if err != nil {
		return nil, err
	}
	return nv.(map[string]any), nil
}

// sourceEnv maps configuration keys ("." allowed for nesting) to environment variable names.
type sourceEnv struct {
	envToKey map[string]string
}

func (s *sourceEnv) Name() string {
	return "ENV"
}

func (s *sourceEnv) Providence() Providence {
	return Providence{SourceType: "env"}
}

func (s *sourceEnv) strict() bool { return false }

// ToMap reads the mapped variables. Missing and empty variables do not set any key; an empty variable overriding a file setting is almost always an
// accident.
func (s *sourceEnv) ToMap() (map[string]any, error) {
	out := map[string]any{}
	for mapKey, envVar := range s.envToKey {
		if envVar == "" {
			continue
		}
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if err := mergeIntoObject(out, strings.Split(mapKey, "."), val, mapKey); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// normalizeValue lowercases map keys and converts decoded numbers to int or float64. Integral values decoded as float64 (JSON) stay float64; coercion
// handles them.
func normalizeValue(v any) (any, error) {
	switch vv := v.(type) {
	case nil, string, bool, float64, int:
		return vv, nil
	case int64:
		return int(vv), nil
	case int32:
		return int(vv), nil
	case float32:
		return float64(vv), nil
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("key '%s': %w", k, err)
			}
			lower := strings.ToLower(k)
			if _, dup := out[lower]; dup {
				return nil, fmt.Errorf("key conflict: key '%s' was already set", k)
			}
			out[lower] = ne
		}
		return out, nil
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			ne, err := normalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ne
		}
		return out, nil
	case []string:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = e
		}
		return out, nil
	case []int:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = e
		}
		return out, nil
	case []bool:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = e
		}
		return out, nil
	case map[string][]string:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			ne, _ := normalizeValue(e)
			out[strings.ToLower(k)] = ne
		}
		return out, nil
	default:
		return nil, fmt.Errorf("type %T is not allowed", v)
	}
}

// mergeIntoObject inserts value into obj along parts, lowercasing each segment. A map value at the leaf is deep-merged. Setting a leaf twice, or
// descending through a non-object, is a key conflict. fullKey is used only to annotate errors.
func mergeIntoObject(obj map[string]any, parts []string, value any, fullKey string) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid key")
	}
	part := strings.ToLower(parts[0])
	if len(parts) > 1 {
		existing, exists := obj[part]
		if !exists {
			child := map[string]any{}
			obj[part] = child
			return mergeIntoObject(child, parts[1:], value, fullKey)
		}
		if m, ok := existing.(map[string]any); ok {
			return mergeIntoObject(m, parts[1:], value, fullKey)
		}
		return fmt.Errorf("key conflict at '%s': '%s' is not an object", fullKey, part)
	}

	existing, exists := obj[part]
	if mv, ok := value.(map[string]any); ok {
		if !exists {
			obj[part] = mv
			return nil
		}
		dest, isMap := existing.(map[string]any)
		if !isMap {
			return fmt.Errorf("key conflict: key '%s' was already set", fullKey)
		}
		for k, v := range mv {
			if err := mergeIntoObject(dest, []string{k}, v, fullKey+"."+k); err != nil {
				return err
			}
		}
		return nil
	}
	if exists {
		return fmt.Errorf("key conflict: key '%s' was already set", fullKey)
	}
	obj[part] = value
	return nil
}
