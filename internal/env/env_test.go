package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkDir(t *testing.T) {
	t.Setenv("LLMAN_HOME", "")
	workDir, err := WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() returned error: %v", err)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		t.Fatalf("os.UserCacheDir() returned error: %v", err)
	}
	if want := filepath.Join(userCacheDir, ".llman"); workDir != want {
		t.Errorf("WorkDir() = %q, want %q", workDir, want)
	}
}

func TestWorkDirOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("LLMAN_HOME", tempDir)
	if got, err := WorkDir(); err != nil || got != tempDir {
		t.Errorf("WorkDir() = %q, %v; want %q", got, err, tempDir)
	}
}

func TestConfigDirOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("LLMAN_CONFIG_DIR", tempDir)
	if got, err := ConfigDir(); err != nil || got != tempDir {
		t.Errorf("ConfigDir() = %q, %v; want %q", got, err, tempDir)
	}
}

func TestRecipeDir(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("LLMAN_HOME", tempDir)

	dir, err := RecipeDir()
	if err != nil {
		t.Fatalf("RecipeDir() returned error: %v", err)
	}
	if want := filepath.Join(tempDir, "recipes"); dir != want {
		t.Errorf("RecipeDir() = %q, want %q", dir, want)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("RecipeDir() created a file instead of a directory")
	}

	// Idempotent.
	dir2, err := RecipeDir()
	if err != nil || dir2 != dir {
		t.Errorf("second RecipeDir() = %q, %v", dir2, err)
	}
}
