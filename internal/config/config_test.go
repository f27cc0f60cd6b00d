package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CAMPUSON_API_URL", "")
	t.Setenv("CAMPUSON_TIMEOUT", "")
	t.Setenv("CAMPUSON_DB", filepath.Join(t.TempDir(), "h.db"))
	t.Setenv("CAMPUSON_CREDENTIALS", filepath.Join(t.TempDir(), "c.json"))

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != DefaultConfig().APIBaseURL {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CAMPUSON_API_URL", "http://localhost:8080/")
	t.Setenv("CAMPUSON_TIMEOUT", "3s")
	t.Setenv("CAMPUSON_DB", filepath.Join(t.TempDir(), "h.db"))
	t.Setenv("CAMPUSON_CREDENTIALS", filepath.Join(t.TempDir(), "c.json"))

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
}

func TestFromEnvBadTimeout(t *testing.T) {
	t.Setenv("CAMPUSON_TIMEOUT", "soon")

	if _, err := FromEnv(); err == nil {
		t.Error("expected error for unparseable timeout")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.APIBaseURL = "ftp://campuson"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-http URL")
	}

	cfg = DefaultConfig()
	cfg.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestLoadDepartmentsBuiltin(t *testing.T) {
	deps, err := LoadDepartments("")
	if err != nil {
		t.Fatalf("LoadDepartments: %v", err)
	}
	if len(deps) == 0 {
		t.Fatal("expected built-in departments")
	}
	for _, d := range deps {
		if d.ID == "" || d.Name == "" || d.TimeLimitMinutes <= 0 {
			t.Errorf("invalid built-in department: %+v", d)
		}
	}
}

func TestLoadDepartmentsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	yaml := `departments:
  - id: physics
    name: Physics
    question_count: 20
    time_limit_minutes: 40
    objectives:
      - Mechanics
      - Electromagnetism
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	deps, err := LoadDepartments(path)
	if err != nil {
		t.Fatalf("LoadDepartments: %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("departments = %d, want 1", len(deps))
	}
	if deps[0].ID != "physics" || deps[0].TimeLimitMinutes != 40 {
		t.Errorf("unexpected department: %+v", deps[0])
	}
	if len(deps[0].Objectives) != 2 {
		t.Errorf("objectives = %d, want 2", len(deps[0].Objectives))
	}
}

func TestLoadDepartmentsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	yaml := `departments:
  - id: physics
    name: Physics
    time_limit_minutes: 0
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDepartments(path); err == nil {
		t.Error("expected error for zero time limit")
	}
}
