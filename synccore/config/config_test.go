package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "synccore.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadExpandsEnvVarsAndValidates(t *testing.T) {
	t.Setenv("TEST_CRM_API_KEY", "secret-123")

	path := writeTempConfig(t, `
store:
  kind: sqlite
  dsn: /tmp/synccore.db

streams:
  - name: crm-contacts
    system: crm
    max_attempts: 5
    checkpoint_save_every: 50
    base_url: https://crm.example.com
    default_headers:
      Authorization: "Bearer ${TEST_CRM_API_KEY}"
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Store.Kind != "sqlite" || f.Store.DSN != "/tmp/synccore.db" {
		t.Fatalf("store = %+v, want sqlite/tmp path", f.Store)
	}
	if len(f.Streams) != 1 {
		t.Fatalf("len(Streams) = %d, want 1", len(f.Streams))
	}
	got := f.Streams[0].DefaultHeaders["Authorization"]
	if got != "Bearer secret-123" {
		t.Fatalf("Authorization header = %q, want expanded env var", got)
	}
}

func TestLoadRejectsUnknownStoreKind(t *testing.T) {
	path := writeTempConfig(t, `
store:
  kind: postgres
streams:
  - name: a
    system: s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unrecognized store kind")
	}
}

func TestLoadRejectsDuplicateStreamNames(t *testing.T) {
	path := writeTempConfig(t, `
store:
  kind: memory
streams:
  - name: dup
    system: s1
  - name: dup
    system: s2
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate stream name")
	}
}

func TestLoadRejectsMissingDSNForPersistentStore(t *testing.T) {
	path := writeTempConfig(t, `
store:
  kind: mysql
streams:
  - name: a
    system: s
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}
