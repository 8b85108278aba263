package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m3rciful/polbot/bot/service"
	coreconfig "github.com/m3rciful/polbot/core/config"
	"github.com/m3rciful/polbot/core/storage"
)

const sample = `
telegram:
  token: "123:abc"
  owner_id: 1000
  run_mode: longpoll
storage:
  driver: file
  path: state.json
content:
  default_file_org: ORG7
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadInlineCoreAndBotSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.OwnerID != 1000 {
		t.Fatalf("core section not inlined: %+v", cfg.Telegram)
	}
	if cfg.Telegram.APIURL != coreconfig.DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.Telegram.APIURL)
	}
	if cfg.Storage.Driver != storage.DriverFile || cfg.Storage.Path != "state.json" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Content.DefaultFileOrg != "ORG7" {
		t.Fatalf("unexpected org: %q", cfg.Content.DefaultFileOrg)
	}
	if cfg.CoreConfig() != &cfg.Config {
		t.Fatal("CoreConfig must point at the embedded section")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OWNER_ID", "42")
	t.Setenv("STORAGE_PATH", "env.json")
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.OwnerID != 42 || cfg.Storage.Path != "env.json" {
		t.Fatalf("env not applied: owner=%d path=%q", cfg.Telegram.OwnerID, cfg.Storage.Path)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Content.DefaultFileOrg != service.DefaultFileOrganization {
		t.Fatalf("unexpected org default: %q", cfg.Content.DefaultFileOrg)
	}
	if cfg.Storage.Path != storage.DefaultPath {
		t.Fatalf("unexpected storage default: %q", cfg.Storage.Path)
	}
}

func TestNormalizeRejectsBadStorage(t *testing.T) {
	cfg := &Config{Storage: storage.Config{Driver: "redis"}}
	cfg.Telegram.Token = "t"
	cfg.Telegram.RunMode = "longpoll"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected storage validation error")
	}
}
