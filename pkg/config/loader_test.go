package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
server:
  port: ":8080"
`)
	writeFile(t, dir, "prod.yaml", `
db:
  host: db.internal
`)

	cfg, err := LoadConfig("prod", dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	db, ok := cfg["db"].(map[string]interface{})
	if !ok {
		t.Fatalf("db section missing: %v", cfg)
	}
	if db["host"] != "db.internal" {
		t.Errorf("expected env override for host, got %v", db["host"])
	}
	if db["port"] != 5432 {
		t.Errorf("expected base port preserved, got %v", db["port"])
	}

	server, ok := cfg["server"].(map[string]interface{})
	if !ok || server["port"] != ":8080" {
		t.Errorf("expected base-only section preserved, got %v", cfg["server"])
	}
}

func TestLoadConfigSecretsSubstitution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  password: ${DB_PASSWORD}
`)
	writeFile(t, dir, "secrets.env", `
# comment
DB_PASSWORD = "s3cret"
`)

	cfg, err := LoadConfig("base", dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	db := cfg["db"].(map[string]interface{})
	if db["password"] != "s3cret" {
		t.Errorf("expected substituted password, got %v", db["password"])
	}
}

func TestLoadConfigMissingBase(t *testing.T) {
	if _, err := LoadConfig("base", t.TempDir()); err == nil {
		t.Error("expected error when base.yaml is missing")
	}
}

func TestLoadConfigMissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":8080\"\n")

	cfg, err := LoadConfig("staging", dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, ok := cfg["server"]; !ok {
		t.Error("expected base config returned when env file is absent")
	}
}
