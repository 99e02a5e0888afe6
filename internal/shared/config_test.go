package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("parses a full file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[api]
base_url = "https://api.example.test"
stream_url = "wss://api.example.test/chat/stream"
timeout_seconds = 15
requests_per_second = 5.0

[storage]
signed_domains = ["cdn.example.test", "assets.example.test"]

[database]
path = "/tmp/test.db"

[upload]
poll_interval_ms = 250
max_wait_seconds = 60
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}

		if config.API.BaseURL != "https://api.example.test" {
			t.Errorf("unexpected base url %q", config.API.BaseURL)
		}
		if config.API.Timeout() != 15*time.Second {
			t.Errorf("unexpected timeout %v", config.API.Timeout())
		}
		if len(config.Storage.SignedDomains) != 2 {
			t.Errorf("unexpected signed domains %v", config.Storage.SignedDomains)
		}
		if config.Upload.PollInterval() != 250*time.Millisecond {
			t.Errorf("unexpected poll interval %v", config.Upload.PollInterval())
		}
		if config.Upload.MaxWait() != time.Minute {
			t.Errorf("unexpected max wait %v", config.Upload.MaxWait())
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := LoadConfig("/does/not/exist/config.toml"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed toml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		os.WriteFile(path, []byte("[api\nbase_url ="), 0o644)

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestDurationDefaults(t *testing.T) {
	var api APIConfig
	if api.Timeout() != 30*time.Second {
		t.Errorf("unexpected default timeout %v", api.Timeout())
	}
	if api.UploadTimeout() != time.Hour {
		t.Errorf("unexpected default upload timeout %v", api.UploadTimeout())
	}

	var upload UploadConfig
	if upload.PollInterval() != time.Second {
		t.Errorf("unexpected default poll interval %v", upload.PollInterval())
	}
	if upload.MaxWait() != 0 {
		t.Errorf("zero max wait should disable the ceiling, got %v", upload.MaxWait())
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.API.BaseURL == "" || config.API.StreamURL == "" {
		t.Errorf("embedded defaults incomplete: %+v", config.API)
	}
	if config.Database.Path == "" {
		t.Error("embedded defaults missing database path")
	}
	if config.Upload.PollInterval() != time.Second {
		t.Errorf("unexpected embedded poll interval %v", config.Upload.PollInterval())
	}
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("writes the example config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile failed: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("created config unparseable: %v", err)
		}
		if config.API.BaseURL == "" {
			t.Errorf("created config missing base url: %+v", config.API)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("keep me"), 0o644)

		if err := CreateConfigFile(path); err == nil {
			t.Fatal("expected error for existing file")
		}

		data, _ := os.ReadFile(path)
		if string(data) != "keep me" {
			t.Errorf("existing config clobbered: %q", data)
		}
	})
}
