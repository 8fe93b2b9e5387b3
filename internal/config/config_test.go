package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/pmdreview/internal/finding"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PMDInstallPath != "/opt/pmd/" {
		t.Errorf("Default pmdInstallPath = %q, want %q", cfg.PMDInstallPath, "/opt/pmd/")
	}
	if len(cfg.Rulesets) != 1 || cfg.Rulesets[0] != "java-basic" {
		t.Errorf("Default rulesets = %v, want [java-basic]", cfg.Rulesets)
	}
	if cfg.Markdown {
		t.Error("Default markdown should be false")
	}
	if !cfg.OpenIssues {
		t.Error("Default openIssues should be true")
	}
	if cfg.MaxPriorityForIssue != 1 {
		t.Errorf("Default maxPriorityForIssue = %d, want 1", cfg.MaxPriorityForIssue)
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestIssuePolicy(t *testing.T) {
	cfg := Default()
	cfg.MaxPriorityForIssue = 3
	cfg.IssueComparison = "gte"
	p := cfg.IssuePolicy()
	if !p.Enabled {
		t.Error("policy should be enabled")
	}
	if p.Threshold != 3 {
		t.Errorf("Threshold = %d, want 3", p.Threshold)
	}
	if p.Comparison != finding.AtLeast {
		t.Errorf("Comparison = %q, want %q", p.Comparison, finding.AtLeast)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("PMDREVIEW_PMD_INSTALL_PATH", "/usr/local/pmd")
	t.Setenv("PMDREVIEW_RULESETS", "java-basic, java-design")
	t.Setenv("PMDREVIEW_MARKDOWN", "true")
	t.Setenv("PMDREVIEW_MAX_PRIORITY_FOR_ISSUE", "2")
	t.Setenv("PMDREVIEW_FORMAT", "json")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if cfg.PMDInstallPath != "/usr/local/pmd" {
		t.Errorf("PMDInstallPath = %q, want %q", cfg.PMDInstallPath, "/usr/local/pmd")
	}
	if got := strings.Join(cfg.Rulesets, ","); got != "java-basic,java-design" {
		t.Errorf("Rulesets = %q, want %q", got, "java-basic,java-design")
	}
	if !cfg.Markdown {
		t.Error("Markdown should be true")
	}
	if cfg.MaxPriorityForIssue != 2 {
		t.Errorf("MaxPriorityForIssue = %d, want 2", cfg.MaxPriorityForIssue)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
}

func TestMergeEnvInvalidInt(t *testing.T) {
	t.Setenv("PMDREVIEW_CONCURRENCY", "many")

	cfg := Default()
	if err := mergeEnv(&cfg); err == nil {
		t.Error("expected error for invalid PMDREVIEW_CONCURRENCY")
	}
}

func TestMergeEnvInvalidBool(t *testing.T) {
	t.Setenv("PMDREVIEW_OPEN_ISSUES", "sometimes")

	cfg := Default()
	if err := mergeEnv(&cfg); err == nil {
		t.Error("expected error for invalid PMDREVIEW_OPEN_ISSUES")
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"format":      "sarif",
		"rulesets":    "a,b",
		"concurrency": "",
	})
	if err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}
	if cfg.Format != "sarif" {
		t.Errorf("Format = %q, want %q", cfg.Format, "sarif")
	}
	if len(cfg.Rulesets) != 2 {
		t.Errorf("Rulesets = %v, want 2 entries", cfg.Rulesets)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("empty override should be ignored, Concurrency = %d", cfg.Concurrency)
	}
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(Config) bool
	}{
		{"pmdInstallPath", "/srv/pmd", false, func(c Config) bool { return c.PMDInstallPath == "/srv/pmd" }},
		{"openIssues", "false", false, func(c Config) bool { return !c.OpenIssues }},
		{"issueComparison", "gte", false, func(c Config) bool { return c.IssueComparison == "gte" }},
		{"extensions", ".java,.kt", false, func(c Config) bool { return len(c.Extensions) == 2 }},
		{"cache.enabled", "false", false, func(c Config) bool { return !c.Cache.Enabled }},
		{"cache.ttlSeconds", "60", false, func(c Config) bool { return c.Cache.TTLSeconds == 60 }},
		{"privacy.redactSecrets", "false", false, func(c Config) bool { return !c.Privacy.RedactSecrets }},
		{"log.encoding", "json", false, func(c Config) bool { return c.Log.Encoding == "json" }},
		{"timeoutSeconds", "abc", true, nil},
		{"nope", "x", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			err := SetField(&cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetField(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("SetField(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"priority too low", func(c *Config) { c.MaxPriorityForIssue = 0 }},
		{"priority too high", func(c *Config) { c.MaxPriorityForIssue = 6 }},
		{"bad comparison", func(c *Config) { c.IssueComparison = "eq" }},
		{"bad format", func(c *Config) { c.Format = "html" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"empty install path", func(c *Config) { c.PMDInstallPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.PMDInstallPath != Default().PMDInstallPath {
		t.Errorf("missing file should yield defaults, got %q", cfg.PMDInstallPath)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"pmdInstallPath": "/srv/pmd", "rulesets": ["java-design"], "markdown": true}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.PMDInstallPath != "/srv/pmd" {
		t.Errorf("PMDInstallPath = %q, want %q", cfg.PMDInstallPath, "/srv/pmd")
	}
	if len(cfg.Rulesets) != 1 || cfg.Rulesets[0] != "java-design" {
		t.Errorf("Rulesets = %v, want [java-design]", cfg.Rulesets)
	}
	if !cfg.Markdown {
		t.Error("Markdown should be true")
	}
	// Untouched keys keep defaults.
	if !cfg.OpenIssues {
		t.Error("OpenIssues should keep its default")
	}
	if cfg.TimeoutSeconds != 120 {
		t.Errorf("TimeoutSeconds = %d, want 120", cfg.TimeoutSeconds)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "pmdInstallPath: /srv/pmd\nmaxPriorityForIssue: 3\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.MaxPriorityForIssue != 3 {
		t.Errorf("MaxPriorityForIssue = %d, want 3", cfg.MaxPriorityForIssue)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Encoding != "console" {
		t.Errorf("Log.Encoding = %q, want default %q", cfg.Log.Encoding, "console")
	}
}

func TestLoadFileSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unknown key", "config.json", `{"provider": "openai"}`},
		{"priority out of range", "config.json", `{"maxPriorityForIssue": 9}`},
		{"bad extension", "config.yaml", "extensions: [java]\n"},
		{"wrong type", "config.yaml", "markdown: maybe\n"},
		{"bad comparison", "config.json", `{"issueComparison": "eq"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("expected schema error")
			}
			if err := ValidateFile(path); err == nil {
				t.Error("ValidateFile should report the same error")
			}
		})
	}
}

func TestValidateFileMissing(t *testing.T) {
	if err := ValidateFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Rulesets = []string{"java-design", "java-unusedcode"}
			cfg.Markdown = true
			cfg.Cache.Dir = "/tmp/pmdcache"

			if err := Save(cfg, path); err != nil {
				t.Fatalf("Save error: %v", err)
			}
			if err := ValidateFile(path); err != nil {
				t.Fatalf("saved file should validate: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile error: %v", err)
			}
			if strings.Join(got.Rulesets, ",") != "java-design,java-unusedcode" {
				t.Errorf("Rulesets = %v", got.Rulesets)
			}
			if !got.Markdown {
				t.Error("Markdown should survive round trip")
			}
			if got.Cache.Dir != "/tmp/pmdcache" {
				t.Errorf("Cache.Dir = %q, want %q", got.Cache.Dir, "/tmp/pmdcache")
			}
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"format": "markdown", "concurrency": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PMDREVIEW_FORMAT", "json")

	cfg, err := Load(path, map[string]string{"concurrency": "8"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("env should override file, Format = %q", cfg.Format)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("flag should override file, Concurrency = %d", cfg.Concurrency)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), map[string]string{"maxPriorityForIssue": "7"})
	if err == nil {
		t.Error("expected validation error for out-of-range override")
	}
}

func TestConfigDirXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if want := filepath.Join(dir, "pmdreview"); got != want {
		t.Errorf("ConfigDir = %q, want %q", got, want)
	}
}

func TestConfigPathPrefersExisting(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfgDir := filepath.Join(dir, "pmdreview")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("markdown: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if got != yamlPath {
		t.Errorf("ConfigPath = %q, want %q", got, yamlPath)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, ,b ,c,")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("SplitList = %v, want [a b c]", got)
	}
	if SplitList("") != nil {
		t.Error("SplitList of empty string should be nil")
	}
}
