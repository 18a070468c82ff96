package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "TEMPLATE_PATH", "OUTPUT_DIR", "WORKERS", "MAX_UPLOAD_MB", "PDF_DPI"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.TemplatePath != "" {
		t.Errorf("Expected built-in template, got %q", cfg.TemplatePath)
	}
	if cfg.OutputDirectory != filepath.Join(".", "output") {
		t.Errorf("Unexpected output dir %q", cfg.OutputDirectory)
	}
	if cfg.ProcessingWorkers != 0 || cfg.MaxUploadSize != 32 || cfg.PDFDPI != 300 {
		t.Errorf("Unexpected numeric defaults: %+v", cfg)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TEMPLATE_PATH", "/etc/omrscan/sheet.yaml")
	t.Setenv("WORKERS", "6")
	t.Setenv("MAX_UPLOAD_MB", "128")

	cfg := Load()

	if cfg.Port != 9090 || cfg.ProcessingWorkers != 6 || cfg.MaxUploadSize != 128 {
		t.Errorf("Environment not applied: %+v", cfg)
	}
	if cfg.TemplatePath != "/etc/omrscan/sheet.yaml" {
		t.Errorf("Unexpected template path %q", cfg.TemplatePath)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PDF_DPI=150\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(wd)

	// godotenv never overrides variables that are already set.
	t.Setenv("PDF_DPI", "")
	os.Unsetenv("PDF_DPI")

	cfg := Load()
	if cfg.PDFDPI != 150 {
		t.Errorf("Expected PDF_DPI from .env, got %d", cfg.PDFDPI)
	}
	os.Unsetenv("PDF_DPI")
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("OMRSCAN_TEST_INT", "twelve")
	if got := getEnvAsInt("OMRSCAN_TEST_INT", 5); got != 5 {
		t.Errorf("Expected fallback 5, got %d", got)
	}
	t.Setenv("OMRSCAN_TEST_INT64", "1.5")
	if got := getEnvAsInt64("OMRSCAN_TEST_INT64", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}
