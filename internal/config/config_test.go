package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PROVENANT_DSN", "file:ledger.db")
	path := writeConfig(t, `
listen_addr: ":8080"
policy_path: policies.yaml
db:
  driver: sqlite
  dsn: ${TEST_PROVENANT_DSN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.DSN != "file:ledger.db" {
		t.Fatalf("dsn = %s", cfg.DB.DSN)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen_addr = %s", cfg.ListenAddr)
	}
}

func TestValidateRequirements(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing listen", Config{PolicyPath: "p.yaml"}, "listen_addr"},
		{"missing policy", Config{ListenAddr: ":8080"}, "policy_path"},
		{"bad driver", Config{ListenAddr: ":8080", PolicyPath: "p", DB: DBConfig{Driver: "oracle", DSN: "x"}}, "db.driver"},
		{"driver without dsn", Config{ListenAddr: ":8080", PolicyPath: "p", DB: DBConfig{Driver: "sqlite"}}, "db.dsn"},
		{"escalation without webhook", Config{ListenAddr: ":8080", PolicyPath: "p", Escalation: EscalationConfig{Enabled: true}}, "webhook_url"},
		{"key without id", Config{ListenAddr: ":8080", PolicyPath: "p", SigningKey: SigningKeyConfig{PrivateKeyPath: "k.pem"}}, "key_id"},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err = %v, want mention of %s", tc.name, err, tc.want)
		}
	}
}

func TestValidateMemoryOnlyOK(t *testing.T) {
	cfg := Config{ListenAddr: ":8080", PolicyPath: "p.yaml"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
