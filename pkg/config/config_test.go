package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opclink/opclink-go/pkg/session"
)

const sampleYAML = `
endpoint:
  url: opc.tcp://192.168.0.5:4840
  connect_timeout: 2s
  security_policy: Basic256Sha256
  security_mode: SignAndEncrypt
  username: operator
  password: secret
  retry:
    max_attempts: 5
    initial_delay: 100ms
    multiplier: 2.0
    max_delay: 10s
alias_file: aliases.json
diagnostics:
  level: debug
  file: client.dlog
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Endpoint.URL != "opc.tcp://192.168.0.5:4840" {
		t.Errorf("URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.ConnectTimeout.Std() != 2*time.Second {
		t.Errorf("ConnectTimeout = %v, want 2s", cfg.Endpoint.ConnectTimeout.Std())
	}
	if cfg.Endpoint.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Endpoint.Retry.MaxAttempts)
	}
	if cfg.Endpoint.Retry.InitialDelay.Std() != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.Endpoint.Retry.InitialDelay.Std())
	}
	if cfg.AliasFile != "aliases.json" {
		t.Errorf("AliasFile = %q", cfg.AliasFile)
	}
	if cfg.Diagnostics.Level != "debug" || cfg.Diagnostics.File != "client.dlog" {
		t.Errorf("Diagnostics = %+v", cfg.Diagnostics)
	}
}

func TestParseKeepsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Parse([]byte("endpoint:\n  url: opc.tcp://plc:4840\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	def := Default()
	if cfg.Endpoint.ConnectTimeout != def.Endpoint.ConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want default %v",
			cfg.Endpoint.ConnectTimeout.Std(), def.Endpoint.ConnectTimeout.Std())
	}
	if cfg.Endpoint.Retry.MaxAttempts != session.DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want default %d",
			cfg.Endpoint.Retry.MaxAttempts, session.DefaultMaxAttempts)
	}
	if cfg.Diagnostics.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Diagnostics.Level)
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("endpoint:\n  url: x\n  connect_timeout: fast\n"))
	if err == nil {
		t.Error("Parse should reject an invalid duration")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Endpoint.Username != "operator" {
		t.Errorf("Username = %q, want operator", cfg.Endpoint.Username)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestSessionConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	sc, err := cfg.SessionConfig()
	if err != nil {
		t.Fatalf("SessionConfig failed: %v", err)
	}
	if sc.Endpoint.URL != cfg.Endpoint.URL {
		t.Errorf("URL = %q", sc.Endpoint.URL)
	}
	if sc.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", sc.Retry.MaxAttempts)
	}
	if sc.Endpoint.SecurityMode != "SignAndEncrypt" {
		t.Errorf("SecurityMode = %q", sc.Endpoint.SecurityMode)
	}
}

func TestSessionConfigValidates(t *testing.T) {
	cfg := Default() // no URL

	_, err := cfg.SessionConfig()
	if err == nil {
		t.Fatal("SessionConfig should fail without an endpoint URL")
	}
	if !errors.Is(err, session.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
