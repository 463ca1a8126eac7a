package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

// writeTestKey generates an ed25519 private key and writes it to a file.
func writeTestKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "test")
	if err != nil {
		t.Fatalf("failed to marshal test key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("failed to write test key: %v", err)
	}
	return path
}

func TestNewClient_Success(t *testing.T) {
	cfg := &Config{
		Host:    "192.168.1.100",
		User:    "root",
		KeyPath: writeTestKey(t),
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if client == nil {
		t.Fatal("expected client, got nil")
	}

	// Verify defaults were applied
	if client.config.Port != defaultPort { //nolint:staticcheck // t.Fatal above ensures client is not nil
		t.Errorf("expected port %d, got %d", defaultPort, client.config.Port)
	}
	if client.config.DialTimeout != defaultDialTimeout {
		t.Errorf("expected timeout %v, got %v", defaultDialTimeout, client.config.DialTimeout)
	}
	if client.config.MaxRetries != defaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", defaultMaxRetries, client.config.MaxRetries)
	}
}

func TestNewClient_ConfigNotMutated(t *testing.T) {
	cfg := &Config{
		Host:    "192.168.1.100",
		User:    "root",
		KeyPath: writeTestKey(t),
	}

	if _, err := NewClient(cfg); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != 0 {
		t.Errorf("caller config must not be mutated, port became %d", cfg.Port)
	}
}

func TestNewClient_InvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewClient(&Config{Host: "h", User: "root", KeyPath: path})
	if err == nil {
		t.Fatal("expected error for invalid private key, got nil")
	}
}

func TestNewClient_MissingKeyFile(t *testing.T) {
	_, err := NewClient(&Config{
		Host:    "h",
		User:    "root",
		KeyPath: filepath.Join(t.TempDir(), "absent"),
	})
	if err == nil {
		t.Fatal("expected error for missing key file, got nil")
	}
}

func TestNewClient_NilConfig(t *testing.T) {
	_, err := NewClient(nil)
	if err == nil {
		t.Fatal("expected error for nil config, got nil")
	}
	if err.Error() != "config cannot be nil" {
		t.Errorf("expected 'config cannot be nil' error, got: %v", err)
	}
}

func TestNewClient_RequiredFields(t *testing.T) {
	key := writeTestKey(t)

	cases := []struct {
		name string
		cfg  *Config
	}{
		{"empty host", &Config{User: "root", KeyPath: key}},
		{"empty user", &Config{Host: "h", KeyPath: key}},
		{"empty key path", &Config{Host: "h", User: "root"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(tc.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
