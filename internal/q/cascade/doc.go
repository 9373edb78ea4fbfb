// Package cascade loads layered configuration into Go structs from multiple sources with predictable precedence.
//
// A Loader builds a prioritized cascade of sources and writes into a destination struct. Register sources from lowest to highest priority using the With*
// methods, then call StrictlyLoad. The zero value of Loader is ready to use; New exists for fluent chaining.
//
// Sources
//   - Defaults, or any other Go map, whose keys may use dot-notation to denote nesting.
//   - TOML or JSON files (chosen by extension) read at load time. WithFile registers a specific path. WithNearestFile searches upward from a starting
//     directory for the first non-empty file with one of the given relative names.
//   - Environment variables mapped to configuration keys via WithEnv; missing or empty variables are ignored.
//
// Keys are case-insensitive and matched against the cascade, toml, or json tag of each field (in that order), else the field name. Values are coerced
// when reasonable (strings to numbers/bools, numbers to strings, duration strings to time.Duration). Map fields with string keys are merged per key, so a
// higher source can override one entry without restating the rest.
//
// Example
//
//	var cfg Config
//	err := cascade.New().
//	    WithDefaults(map[string]any{"host": "localhost", "port": 8080}).
//	    WithNearestFile("", ".app/config.toml", ".app/config.json").
//	    WithEnv(map[string]string{"host": "APP_HOST"}).
//	    StrictlyLoad(&cfg)
package cascade
