package cascade

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Providence records which source last set a key.
type Providence struct {
	SourceType       string // ex: "default", "env", "toml_file", "json_file", "map"
	SourceIdentifier string // ex: "/path/to/config.toml". Can be "" for things without identifiers (defaults, env).
}

func (p Providence) IsSet() bool {
	return p.SourceType != ""
}

func (p Providence) Default() bool {
	return p.SourceType == "default"
}

func (p Providence) String() string {
	if p.SourceIdentifier == "" {
		return p.SourceType
	}
	return p.SourceType + " " + p.SourceIdentifier
}

// Loader builds a prioritized cascade of configuration sources and applies them to a destination struct. Register sources in call order from lowest to
// highest priority using the With* methods, then call StrictlyLoad.
type Loader struct {
	sources           []source // ordered from low to high priority
	disallowUnknown   bool
	provenance        map[string]Providence
	contributingFiles []string
}

// New returns a new Loader. It is equivalent to &Loader{} and exists to support fluent chaining.
func New() *Loader {
	return &Loader{}
}

// WithDefaults registers m as a source of default values. Keys may use dot-notation and are matched case-insensitively. A nil map contributes no values.
func (c *Loader) WithDefaults(m map[string]any) *Loader {
	c.sources = append(c.sources, &sourceMap{isDefaults: true, m: m})
	return c
}

// WithMap registers m as a source named label (ex: "flags"). Keys follow the same rules as WithDefaults.
func (c *Loader) WithMap(label string, m map[string]any) *Loader {
	c.sources = append(c.sources, &sourceMap{label: label, m: m})
	return c
}

// WithFile registers a TOML or JSON file (by extension). path is expanded with ExpandPath. The file is not read until StrictlyLoad; a missing or
// unreadable file contributes nothing.
func (c *Loader) WithFile(path string) *Loader {
	c.sources = append(c.sources, &sourceFile{path: path})
	return c
}

// WithNearestFile searches upward from start (a directory or file; if empty, the working directory) for the first non-empty file matching one of names,
// tried in order within each directory, and registers it. names must be relative. If nothing is found, the Loader is unchanged.
func (c *Loader) WithNearestFile(start string, names ...string) *Loader {
	for _, name := range names {
		if filepath.IsAbs(name) {
			panic("fileName shouldn't be absolute")
		}
	}
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd
		}
	}
	if start == "" {
		return c
	}
	if fi, err := os.Stat(start); err == nil && !fi.IsDir() {
		start = filepath.Dir(start)
	}

	for dir := start; ; dir = filepath.Dir(dir) {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if data, err := os.ReadFile(candidate); err == nil && strings.TrimSpace(string(data)) != "" {
				c.sources = append(c.sources, &sourceFile{path: candidate})
				return c
			}
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return c
}

// WithEnv registers an environment-variable-backed source. m associates a configuration key (dots denote nesting) with an environment variable name.
func (c *Loader) WithEnv(m map[string]string) *Loader {
	c.sources = append(c.sources, &sourceEnv{envToKey: m})
	return c
}

// DisallowUnknownKeys makes keys in files that match no field an error, so typos in config files are reported rather than silently ignored.
func (c *Loader) DisallowUnknownKeys() *Loader {
	c.disallowUnknown = true
	return c
}

// StrictlyLoad loads configuration from c's sources into dest, from low to high priority, with later sources overwriting earlier values. dest must be a
// non-nil pointer to a struct.
//
// If a readable source cannot be parsed or supplies a value that cannot be coerced to the field type, StrictlyLoad returns an error naming the source; it
// fails fast and does not continue to later sources. Missing sources, unreadable sources, and empty files are skipped.
func (c *Loader) StrictlyLoad(dest any) error {
	if dest == nil {
		return fmt.Errorf("dest must be a non-nil pointer to struct")
	}
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() {
		return fmt.Errorf("dest must be a non-nil pointer to struct")
	}
	structVal := destVal.Elem()
	if structVal.Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct, got %s", structVal.Kind())
	}

	c.provenance = map[string]Providence{}
	c.contributingFiles = nil

	for _, src := range c.sources {
		m, err := src.ToMap()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return fmt.Errorf("%s: %w", src.Name(), err)
		}
		if f, ok := src.(*sourceFile); ok && len(m) > 0 {
			c.contributingFiles = append(c.contributingFiles, ExpandPath(f.path))
		}
		st := &loadState{prov: src.Providence(), strict: c.disallowUnknown && src.strict(), provenance: c.provenance}
		if err := st.applyObject(structVal, m, ""); err != nil {
			return fmt.Errorf("%s: %w", src.Name(), err)
		}
	}
	return nil
}

// Provenance returns, for each key set by the last StrictlyLoad, the source that set it last. Keys are lowercase dot paths (ex: "bindings.save").
func (c *Loader) Provenance() map[string]Providence {
	out := make(map[string]Providence, len(c.provenance))
	for k, v := range c.provenance {
		out[k] = v
	}
	return out
}

// Files returns the files that contributed at least one key during the last StrictlyLoad, in priority order.
func (c *Loader) Files() []string {
	return append([]string(nil), c.contributingFiles...)
}

// SortedKeys returns the keys of p in order.
func SortedKeys(p map[string]Providence) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type loadState struct {
	prov       Providence
	strict     bool
	provenance map[string]Providence
}

func computeFieldKey(f reflect.StructField) string {
	for _, tagName := range []string{"cascade", "toml", "json"} {
		tag := f.Tag.Get(tagName)
		if tag == "" {
			continue
		}
		name := strings.TrimSpace(strings.Split(tag, ",")[0])
		if name == "-" && tagName == "cascade" {
			return "-"
		}
		if name != "" && name != "-" {
			return strings.ToLower(name)
		}
	}
	return strings.ToLower(f.Name)
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// applyObject writes m into structVal, matching keys to settable fields case-insensitively.
func (st *loadState) applyObject(structVal reflect.Value, m map[string]any, basePath string) error {
	structType := structVal.Type()
	fieldIndex := map[string]int{}
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		if !structVal.Field(i).CanSet() {
			continue
		}
		key := computeFieldKey(f)
		if key == "-" || key == "" {
			continue
		}
		if prevIdx, exists := fieldIndex[key]; exists {
			return fmt.Errorf("struct contains case-insensitive field key collision for %q: %s and %s", key, structType.Field(prevIdx).Name, f.Name)
		}
		fieldIndex[key] = i
	}

	// Sorted so errors are deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := joinPath(basePath, strings.ToLower(key))
		idx, ok := fieldIndex[strings.ToLower(key)]
		if !ok {
			if st.strict {
				return fmt.Errorf("unknown key %q", path)
			}
			continue
		}
		fVal := structVal.Field(idx)
		if err := st.set(fVal, m[key], path); err != nil {
			return err
		}
		if !isContainer(fVal) && m[key] != nil {
			st.provenance[path] = st.prov
		}
	}
	return nil
}

// isContainer reports whether v records provenance for its children rather than itself.
func isContainer(v reflect.Value) bool {
	t := v.Type()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Map
}

var durationType = reflect.TypeOf(time.Duration(0))

// set assigns raw to v, allocating pointers and coercing types. A nil raw leaves v unchanged.
func (st *loadState) set(v reflect.Value, raw any, path string) error {
	if raw == nil {
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return st.set(v.Elem(), raw, path)
	}

	if v.Type() == durationType {
		d, err := coerceDuration(raw, path)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object for struct field", path)
		}
		return st.applyObject(v, obj, path)

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%s: map keys must be strings", path)
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object for map field", path)
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
		for k, child := range obj {
			key := reflect.ValueOf(k).Convert(v.Type().Key())
			elem := reflect.New(v.Type().Elem()).Elem()
			if existing := v.MapIndex(key); existing.IsValid() {
				elem.Set(existing)
			}
			childPath := joinPath(path, k)
			if err := st.set(elem, child, childPath); err != nil {
				return err
			}
			v.SetMapIndex(key, elem)
			if !isContainer(elem) {
				st.provenance[childPath] = st.prov
			}
		}
		return nil

	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%s: cannot coerce %T to %s", path, raw, v.Type())
		}
		slice := reflect.MakeSlice(v.Type(), len(items), len(items))
		for i, item := range items {
			if err := st.set(slice.Index(i), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		v.Set(slice)
		return nil

	case reflect.String, reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		coerced, err := coerceScalar(raw, v.Kind(), path)
		if err != nil {
			return err
		}
		switch v.Kind() {
		case reflect.String:
			v.SetString(coerced.(string))
		case reflect.Bool:
			v.SetBool(coerced.(bool))
		case reflect.Float32, reflect.Float64:
			v.SetFloat(coerced.(float64))
		default:
			n := coerced.(int64)
			if v.OverflowInt(n) {
				return fmt.Errorf("%s: %d overflows %s", path, n, v.Type())
			}
			v.SetInt(n)
		}
		return nil

	default:
		return fmt.Errorf("%s: unsupported field kind %s", path, v.Kind())
	}
}

// coerceScalar converts raw into a value assignable to a field of targetKind. Strings are parsed for bool, int, and float targets (whitespace trimmed);
// numbers and bools are formatted for string targets; float64 is accepted for int targets only when integral. Int results are int64 and float results
// float64.
func coerceScalar(raw any, targetKind reflect.Kind, path string) (any, error) {
	switch targetKind {
	case reflect.String:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
		return nil, fmt.Errorf("%s: cannot coerce %T to string", path, raw)
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse bool from %q", path, v)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s: cannot coerce %T to bool", path, raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("%s: %v is not an integer", path, v)
			}
			return int64(v), nil
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse int from %q", path, v)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s: cannot coerce %T to int", path, raw)
	case reflect.Float32, reflect.Float64:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: cannot parse float from %q", path, v)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s: cannot coerce %T to float", path, raw)
	}
	return nil, fmt.Errorf("%s: unsupported scalar kind %s", path, targetKind)
}

// coerceDuration accepts Go duration strings ("2s", "1500ms") and plain numbers of seconds.
func coerceDuration(raw any, path string) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
		return 0, fmt.Errorf("%s: cannot parse duration from %q", path, v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("%s: cannot coerce %T to duration", path, raw)
}
