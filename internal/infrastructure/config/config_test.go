package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:8470" {
		t.Errorf("unexpected default listen: %s", cfg.Listen)
	}
	if cfg.Suggest.TimeoutSeconds != 30 {
		t.Errorf("unexpected default timeout: %d", cfg.Suggest.TimeoutSeconds)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, draftdDir), 0700); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Listen = "127.0.0.1:9999"
	cfg.Suggest.BaseURL = "https://host.example.com"
	cfg.Suggest.Headers = map[string]string{"Authorization": "Bearer tok"}
	cfg.Save.WebhookURL = "https://host.example.com/save"
	cfg.Save.Secret = "s3cret"

	if err := Save(root, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Listen != "127.0.0.1:9999" {
		t.Errorf("listen did not round-trip: %s", loaded.Listen)
	}
	if loaded.Suggest.Headers["Authorization"] != "Bearer tok" {
		t.Error("headers did not round-trip")
	}
	if loaded.Save.WebhookURL != "https://host.example.com/save" || loaded.Save.Secret != "s3cret" {
		t.Error("save config did not round-trip")
	}
}

func TestSave_NilConfig(t *testing.T) {
	if err := Save(t.TempDir(), nil); err == nil {
		t.Error("expected error for nil config")
	}
}
