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
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: 127.0.0.1
  port: 8080
database:
  host: localhost
  port: 5432
  name: liftlog
  user: liftlog
  password: secret
`

// TestLoad verifies a valid YAML file parses into the expected config.
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Name != "liftlog" || cfg.Database.User != "liftlog" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Tailscale.Enabled {
		t.Error("tailscale enabled by default")
	}
}

// TestEnvOverrides verifies environment variables win over file values.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIFTLOG_SERVER_PORT", "9090")
	t.Setenv("LIFTLOG_DB_PASSWORD", "from-env")
	t.Setenv("LIFTLOG_TS_ENABLED", "true")
	t.Setenv("LIFTLOG_TS_HOSTNAME", "liftlog")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("password = %q, want from-env", cfg.Database.Password)
	}
	if !cfg.Tailscale.Enabled || cfg.Tailscale.Hostname != "liftlog" {
		t.Errorf("tailscale = %+v", cfg.Tailscale)
	}
}

// TestValidation verifies the required-field checks.
func TestValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing server port",
			yaml: `
database: {host: localhost, port: 5432, name: liftlog, user: liftlog}
`,
			wantErr: "server.port",
		},
		{
			name: "missing database host",
			yaml: `
server: {port: 8080}
database: {port: 5432, name: liftlog, user: liftlog}
`,
			wantErr: "database.host",
		},
		{
			name: "tailscale without hostname",
			yaml: `
server: {port: 8080}
database: {host: localhost, port: 5432, name: liftlog, user: liftlog}
tailscale: {enabled: true}
`,
			wantErr: "tailscale.hostname",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

// TestTailscaleOnlyNeedsNoPort verifies the port requirement is waived when
// serving over tailscale.
func TestTailscaleOnlyNeedsNoPort(t *testing.T) {
	yaml := `
database: {host: localhost, port: 5432, name: liftlog, user: liftlog}
tailscale: {enabled: true, hostname: liftlog}
`
	if _, err := Load(writeConfig(t, yaml)); err != nil {
		t.Errorf("Load: %v", err)
	}
}

// TestDSN verifies connection string assembly and the sslmode default.
func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "liftlog", User: "app", Password: "pw"}
	want := "postgres://app:pw@db:5432/liftlog?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	d.SSLMode = "require"
	if got := d.DSN(); !strings.HasSuffix(got, "sslmode=require") {
		t.Errorf("DSN = %q, want sslmode=require suffix", got)
	}
}
