package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(envLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != DriverSQLite || cfg.DBPath != "/tmp/state.db" {
		t.Errorf("exp sqlite at /tmp/state.db, got %s at %s", cfg.StorageDriver, cfg.DBPath)
	}
	if cfg.SearchTimeout != 30*time.Second {
		t.Errorf("exp 30s search timeout, got %s", cfg.SearchTimeout)
	}
	if cfg.FetchConcurrency != 4 || cfg.APIPort != 8080 || cfg.FetchInterval != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.YoutubeAPIKey != "" || len(cfg.ChannelIDs) != 0 {
		t.Errorf("exp no key and no channels, got %q and %v", cfg.YoutubeAPIKey, cfg.ChannelIDs)
	}
}

func TestLoadEnv(t *testing.T) {
	cfg, err := load(envLookup(map[string]string{
		"YOUTUBE_API_KEY":   "secret",
		"CHANNEL_IDS":       " UC1, ,UC2 ,",
		"STORAGE_DRIVER":    "redis",
		"REDIS_ADDR":        "redis:6379",
		"REDIS_DB":          "2",
		"FETCH_INTERVAL":    "15m",
		"FETCH_CONCURRENCY": "8",
		"SEARCH_TIMEOUT":    "10s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exp := []string{"UC1", "UC2"}; !reflect.DeepEqual(cfg.ChannelIDs, exp) {
		t.Errorf("exp %v, got %v", exp, cfg.ChannelIDs)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.FetchInterval != 15*time.Minute || cfg.FetchConcurrency != 8 || cfg.SearchTimeout != 10*time.Second {
		t.Errorf("unexpected fetch config %+v", cfg)
	}
	if ch := cfg.Channels(); len(ch) != 2 || ch[1] != "UC2" {
		t.Errorf("unexpected channels %v", ch)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `youtube_api_key: from-file
channel_ids:
  - UCa
  - " UCb "
storage_driver: postgres
postgres:
  host: db
fetch_interval: 5m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(envLookup(map[string]string{
		"CONFIG_PATH":     path,
		"YOUTUBE_API_KEY": "from-env",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.YoutubeAPIKey != "from-env" {
		t.Errorf("exp env to win, got %q", cfg.YoutubeAPIKey)
	}
	if exp := []string{"UCa", "UCb"}; !reflect.DeepEqual(cfg.ChannelIDs, exp) {
		t.Errorf("exp %v, got %v", exp, cfg.ChannelIDs)
	}
	if cfg.Postgres.Host != "db" || cfg.Postgres.Port != "5432" {
		t.Errorf("exp file host with default port, got %+v", cfg.Postgres)
	}
	if cfg.FetchInterval != 5*time.Minute {
		t.Errorf("exp 5m interval, got %s", cfg.FetchInterval)
	}
}

func TestLoadInvalid(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"bad duration":    {"SEARCH_TIMEOUT": "soon"},
		"bad integer":     {"API_PORT": "eighty"},
		"unknown driver":  {"STORAGE_DRIVER": "mongo"},
		"zero workers":    {"FETCH_CONCURRENCY": "0"},
		"missing file":    {"CONFIG_PATH": "/does/not/exist.yaml"},
		"negative period": {"FETCH_INTERVAL": "-1m"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := load(envLookup(env)); err == nil {
				t.Errorf("exp error")
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{YoutubeAPIKey: "k", Postgres: Postgres{Password: "p"}}
	r := cfg.Redacted()
	if r.YoutubeAPIKey != "***" || r.Postgres.Password != "***" {
		t.Errorf("exp secrets redacted, got %+v", r)
	}
	if cfg.YoutubeAPIKey != "k" {
		t.Errorf("exp original untouched")
	}
}
