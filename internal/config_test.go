package internal

import (
	"path/filepath"
	"testing"
)

func TestVaultMapFromEnv(t *testing.T) {
	t.Setenv(VaultsEnvVar, "/data/vaults/work:/data/vaults/personal")

	cfg := NewDefaultConfig()
	got := cfg.VaultMap()
	if len(got) != 2 {
		t.Fatalf("vaults = %v", got)
	}
	if got["work"] != filepath.FromSlash("/data/vaults/work") {
		t.Errorf("work = %q", got["work"])
	}
	if got["personal"] != filepath.FromSlash("/data/vaults/personal") {
		t.Errorf("personal = %q", got["personal"])
	}
}

func TestVaultMapEnvOverridesFile(t *testing.T) {
	t.Setenv(VaultsEnvVar, "/env/vault")

	cfg := NewDefaultConfig()
	cfg.Vaults.Paths = []string{"/file/other"}
	got := cfg.VaultMap()
	if len(got) != 1 {
		t.Fatalf("vaults = %v", got)
	}
	if _, ok := got["vault"]; !ok {
		t.Errorf("vaults = %v, want env path only", got)
	}
}

func TestVaultMapSkipsBlankEntries(t *testing.T) {
	t.Setenv(VaultsEnvVar, "/a: :/b:")

	cfg := NewDefaultConfig()
	got := cfg.VaultMap()
	if len(got) != 2 {
		t.Errorf("vaults = %v, want 2", got)
	}
}

func TestVaultMapLaterPathWins(t *testing.T) {
	t.Setenv(VaultsEnvVar, "/first/notes:/second/notes")

	cfg := NewDefaultConfig()
	got := cfg.VaultMap()
	if len(got) != 1 {
		t.Fatalf("vaults = %v, want collapsed id", got)
	}
	if got["notes"] != filepath.FromSlash("/second/notes") {
		t.Errorf("notes = %q, want the later path", got["notes"])
	}
}

func TestVaultMapFromConfigFile(t *testing.T) {
	t.Setenv(VaultsEnvVar, "")

	cfg := NewDefaultConfig()
	cfg.Vaults.Paths = []string{"/data/kb"}
	got := cfg.VaultMap()
	if got["kb"] != filepath.FromSlash("/data/kb") {
		t.Errorf("vaults = %v", got)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.App.HTTP.Enabled {
		t.Error("HTTP should be disabled by default")
	}
	if !cfg.Embedder.Enabled {
		t.Error("embedder should be enabled by default")
	}
}

func TestHTTPConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Enabled = true
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled HTTP without port")
	}

	cfg.App.HTTP.Port = 8080
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for token mode without token")
	}

	cfg.Auth.Token = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !cfg.Auth.AuthEnabled() {
		t.Error("AuthEnabled should be true in token mode")
	}

	cfg.Auth.Mode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown auth mode")
	}
}
