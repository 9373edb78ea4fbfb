package cascade

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

type testConfig struct {
	Name     string              `toml:"name" json:"name"`
	Port     int                 `toml:"port" json:"port"`
	Debug    bool                `toml:"debug" json:"debug"`
	Ratio    float64             `cascade:"ratio"`
	Tags     []string            `toml:"tags" json:"tags"`
	Timeout  time.Duration       `toml:"timeout" json:"timeout"`
	Bindings map[string][]string `toml:"bindings" json:"bindings"`
	Server   struct {
		Host string `toml:"host" json:"host"`
	} `toml:"server" json:"server"`
}

func TestCascadeBasics(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "config.toml", `
name = "fromtoml"
port = 8080
tags = ["t1", "t2"]
timeout = "1500ms"

[server]
host = "example.com"

[bindings]
save = ["ctrl+w"]
`)
	t.Setenv("CASCADE_TEST_NAME", "fromenv")
	t.Setenv("CASCADE_TEST_PORT", "")

	var cfg testConfig
	l := New().
		WithDefaults(map[string]any{
			"name":          "default",
			"port":          80,
			"ratio":         1.5,
			"timeout":       "2s",
			"bindings.quit": []string{"ctrl+q"},
		}).
		WithFile(tomlPath).
		WithEnv(map[string]string{"name": "CASCADE_TEST_NAME", "port": "CASCADE_TEST_PORT"}).
		WithMap("flags", map[string]any{"debug": true})
	require.NoError(t, l.StrictlyLoad(&cfg))

	assert.Equal(t, "fromenv", cfg.Name)
	assert.Equal(t, 8080, cfg.Port) // empty env var ignored
	assert.True(t, cfg.Debug)
	assert.InDelta(t, 1.5, cfg.Ratio, 1e-9)
	assert.Equal(t, []string{"t1", "t2"}, cfg.Tags)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "example.com", cfg.Server.Host)
	// Maps merge per key across sources.
	assert.Equal(t, map[string][]string{"quit": {"ctrl+q"}, "save": {"ctrl+w"}}, cfg.Bindings)

	prov := l.Provenance()
	assert.Equal(t, "env", prov["name"].SourceType)
	assert.Equal(t, "toml_file", prov["port"].SourceType)
	assert.Equal(t, tomlPath, prov["port"].SourceIdentifier)
	assert.True(t, prov["ratio"].Default())
	assert.Equal(t, "map", prov["debug"].SourceType)
	assert.Equal(t, "toml_file", prov["bindings.save"].SourceType)
	assert.True(t, prov["bindings.quit"].Default())
	assert.Equal(t, "toml_file", prov["server.host"].SourceType)
	assert.Equal(t, []string{tomlPath}, l.Files())
}

func TestJSONFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"Name": "fromjson", "port": 9090, "timeout": 3, "tags": []}`)

	var cfg testConfig
	require.NoError(t, New().WithFile(p).StrictlyLoad(&cfg))
	assert.Equal(t, "fromjson", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, []string{}, cfg.Tags)
}

func TestStrictlyLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		body    string
		strict  bool
		wantErr string
	}{
		{name: "bad toml", file: "a.toml", body: "name = ", wantErr: "parse toml"},
		{name: "bad json", file: "a.json", body: "{", wantErr: "parse json"},
		{name: "json array", file: "b.json", body: "[1]", wantErr: "top-level JSON must be an object"},
		{name: "wrong type", file: "c.toml", body: "port = \"eighty\"", wantErr: "cannot parse int"},
		{name: "fractional int", file: "d.json", body: `{"port": 1.5}`, wantErr: "not an integer"},
		{name: "bad duration", file: "e.toml", body: `timeout = "soon"`, wantErr: "cannot parse duration"},
		{name: "struct from scalar", file: "f.toml", body: `server = 3`, wantErr: "expected object"},
		{name: "unknown key strict", file: "g.toml", body: `nmae = "x"`, strict: true, wantErr: `unknown key "nmae"`},
		{name: "unknown nested key strict", file: "h.toml", body: "[server]\nhots = \"x\"", strict: true, wantErr: `unknown key "server.hots"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, tt.file, tt.body)
			l := New().WithFile(p)
			if tt.strict {
				l.DisallowUnknownKeys()
			}
			var cfg testConfig
			err := l.StrictlyLoad(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), p)
		})
	}
}

func TestUnknownKeysIgnoredByDefault(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.toml", "nmae = \"x\"\nname = \"y\"")
	var cfg testConfig
	require.NoError(t, New().WithFile(p).StrictlyLoad(&cfg))
	assert.Equal(t, "y", cfg.Name)
}

func TestMissingAndEmptyFilesSkipped(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.toml", "  \n")

	var cfg testConfig
	l := New().WithDefaults(map[string]any{"name": "d"}).WithFile(filepath.Join(dir, "missing.toml")).WithFile(empty)
	require.NoError(t, l.StrictlyLoad(&cfg))
	assert.Equal(t, "d", cfg.Name)
	assert.Empty(t, l.Files())
}

func TestStrictlyLoadDest(t *testing.T) {
	var cfg testConfig
	assert.Error(t, New().StrictlyLoad(nil))
	assert.Error(t, New().StrictlyLoad(cfg))
	n := 3
	assert.Error(t, New().StrictlyLoad(&n))
}

func TestWithNearestFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".app/config.json", `{"name": "root-json"}`)
	writeFile(t, root, "a/.app/config.toml", `name = "a-toml"`)
	writeFile(t, root, "a/.app/config.json", `{"name": "a-json"}`)
	writeFile(t, root, "a/b/.app/config.toml", "   ")
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	var cfg testConfig
	require.NoError(t, New().WithNearestFile(deep, ".app/config.toml", ".app/config.json").StrictlyLoad(&cfg))
	assert.Equal(t, "a-toml", cfg.Name)

	cfg = testConfig{}
	require.NoError(t, New().WithNearestFile(root, ".app/config.toml", ".app/config.json").StrictlyLoad(&cfg))
	assert.Equal(t, "root-json", cfg.Name)

	assert.Panics(t, func() { New().WithNearestFile(root, filepath.Join(root, "x.toml")) })
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("a/config.TOML"))
	assert.Equal(t, FormatJSON, FormatOf("a/config.json"))
	assert.Equal(t, FormatJSON, FormatOf("config"))
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, ".drafter", "config.toml"), ExpandPath("~/.drafter/config.toml"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rel"), ExpandPath("rel"))
}
