package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveBasePath_JHHomeSet(t *testing.T) {
	// Test that JH_HOME env var takes precedence.
	tmpDir := t.TempDir()
	t.Setenv("JH_HOME", tmpDir)

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestResolveBasePath_FindsHarvestConfig(t *testing.T) {
	// Test that ResolveBasePath walks up to find .harvestconfig.
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(tmpDir, ".harvestconfig")
	if err := os.WriteFile(configPath, []byte("projects:\n  - SPARK\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(subDir); err != nil {
		t.Fatal(err)
	}

	// Unset JH_HOME so it doesn't interfere.
	os.Unsetenv("JH_HOME")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should find .harvestconfig in parent)", got, tmpDir)
	}
}

func TestResolveBasePath_FallbackToCwd(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("JH_HOME")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should fall back to cwd)", got, tmpDir)
	}
}

func TestNewApp_Success(t *testing.T) {
	tmpDir := t.TempDir()
	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if app == nil {
		t.Fatal("NewApp() returned nil app")
	}
	if app.BasePath != tmpDir {
		t.Errorf("app.BasePath = %q, want %q", app.BasePath, tmpDir)
	}
	// Verify that key services are wired.
	if app.Config == nil {
		t.Error("app.Config is nil")
	}
	if app.StateMgr == nil {
		t.Error("app.StateMgr is nil")
	}
	if app.Failures == nil {
		t.Error("app.Failures is nil")
	}
	if app.Dataset == nil {
		t.Error("app.Dataset is nil")
	}
	if app.Fetcher == nil {
		t.Error("app.Fetcher is nil")
	}
	if app.Pipeline == nil {
		t.Error("app.Pipeline is nil")
	}
	if app.EventLog == nil {
		t.Error("app.EventLog is nil")
	}
	if app.MetricsCalc == nil {
		t.Error("app.MetricsCalc is nil")
	}
}

func TestNewApp_DefaultsWithoutConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if len(app.Config.Projects) == 0 {
		t.Fatal("expected default projects")
	}
	if app.Config.Jira.PageSize != 50 {
		t.Errorf("default page size = %d, want 50", app.Config.Jira.PageSize)
	}
	// Relative output dir resolves under the base path.
	want := filepath.Join(tmpDir, app.Config.OutputDir)
	if got := app.Dataset.Path("SPARK"); !strings.HasPrefix(got, want) {
		t.Errorf("dataset path %q not under %q", got, want)
	}
}

func TestNewApp_ReadsConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	config := `projects:
  - HDFS
  - KAFKA
output_dir: data
jira:
  base_url: https://jira.example.com
  page_size: 25
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".harvestconfig"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if len(app.Config.Projects) != 2 || app.Config.Projects[0] != "HDFS" {
		t.Errorf("projects = %v, want [HDFS KAFKA]", app.Config.Projects)
	}
	if app.Config.Jira.BaseURL != "https://jira.example.com" {
		t.Errorf("base URL = %q", app.Config.Jira.BaseURL)
	}
	if app.Config.Jira.PageSize != 25 {
		t.Errorf("page size = %d, want 25", app.Config.Jira.PageSize)
	}
	// Unset keys keep their defaults.
	if app.Config.Jira.MaxRateLimitRetries != 5 {
		t.Errorf("max rate limit retries = %d, want default 5", app.Config.Jira.MaxRateLimitRetries)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	config := `projects:
  - lowercase
jira:
  page_size: 500
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".harvestconfig"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewApp(tmpDir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "lowercase") {
		t.Errorf("error should name the invalid project key: %v", err)
	}
	if !strings.Contains(err.Error(), "page_size") {
		t.Errorf("error should name the invalid page size: %v", err)
	}
}
