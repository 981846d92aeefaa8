package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestViperConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestViperConfigGetBool(t *testing.T) {
	v := viper.New()
	v.Set("enabled", true)
	cfg := New(v)

	if got := cfg.GetBool("enabled"); !got {
		t.Error("GetBool('enabled') = false, want true")
	}
}

func TestViperConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestViperConfigIsSet(t *testing.T) {
	v := viper.New()
	v.Set("exists", true)
	cfg := New(v)

	if !cfg.IsSet("exists") {
		t.Error("IsSet('exists') = false, want true")
	}
	if cfg.IsSet("missing") {
		t.Error("IsSet('missing') = true, want false")
	}
}

func TestViperConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("plugins.explore.enabled", true)
	v.Set("plugins.explore.page_size", 30)
	cfg := New(v)

	sub := cfg.Sub("plugins.explore")
	if sub == nil {
		t.Fatal("Sub('plugins.explore') = nil")
	}
	if got := sub.GetBool("enabled"); !got {
		t.Error("sub.GetBool('enabled') = false, want true")
	}
	if got := sub.GetInt("page_size"); got != 30 {
		t.Errorf("sub.GetInt('page_size') = %d, want %d", got, 30)
	}
}

func TestViperConfigSubMissing(t *testing.T) {
	v := viper.New()
	cfg := New(v)

	sub := cfg.Sub("nonexistent")
	if sub == nil {
		t.Fatal("Sub('nonexistent') should return empty Config, not nil")
	}
	// Should return zero values without panic.
	if got := cfg.GetString("anything"); got != "" {
		t.Errorf("empty config GetString() = %q, want empty", got)
	}
	_ = sub
}

func TestViperConfigUnmarshal(t *testing.T) {
	v := viper.New()
	v.Set("host", "localhost")
	v.Set("port", 9090)
	cfg := New(v)

	var target struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	if err := cfg.Unmarshal(&target); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if target.Host != "localhost" {
		t.Errorf("Host = %q, want %q", target.Host, "localhost")
	}
	if target.Port != 9090 {
		t.Errorf("Port = %d, want %d", target.Port, 9090)
	}
}

func TestNilViper(t *testing.T) {
	cfg := New(nil)
	// Should not panic and return zero values.
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil viper GetString() = %q, want empty", got)
	}
}

func TestViperConfigGetFloat64(t *testing.T) {
	v := viper.New()
	v.Set("api.rate_limit", 2.5)
	if got := New(v).GetFloat64("api.rate_limit"); got != 2.5 {
		t.Errorf("GetFloat64('api.rate_limit') = %v, want 2.5", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v, err := Load("")
	require.NoError(t, err)
	cfg := New(v)

	assert.Equal(t, "http://localhost:3000", cfg.GetString("api.base_url"))
	assert.Equal(t, 10*time.Second, cfg.GetDuration("api.timeout"))
	assert.Equal(t, 12, cfg.GetInt("query.page_size"))
	assert.Equal(t, 10*time.Minute, cfg.GetDuration("cache.max_age"))
	assert.True(t, cfg.GetBool("plugins.explore.enabled"))
	assert.True(t, cfg.GetBool("plugins.favorites.enabled"))
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "galleria.yaml")
	content := []byte(`api:
  base_url: https://api.example.com
query:
  page_size: 24
plugins:
  studio:
    enabled: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("GALLERIA_QUERY_PAGE_SIZE", "48")

	v, err := Load(path)
	require.NoError(t, err)
	cfg := New(v)

	assert.Equal(t, "https://api.example.com", cfg.GetString("api.base_url"))
	assert.Equal(t, 48, cfg.GetInt("query.page_size"), "environment overrides file")
	assert.False(t, cfg.GetBool("plugins.studio.enabled"))
	assert.True(t, cfg.GetBool("plugins.explore.enabled"))
}

func TestLoad_DiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galleria.yaml"), []byte("server:\n  port: \"9090\"\n"), 0o600))

	v, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", New(v).GetString("server.port"))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
