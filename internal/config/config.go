package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/pmdreview/internal/finding"
)

// Config represents the pmdreview configuration.
type Config struct {
	PMDInstallPath      string        `json:"pmdInstallPath" yaml:"pmdInstallPath"`
	Rulesets            []string      `json:"rulesets" yaml:"rulesets"`
	Markdown            bool          `json:"markdown" yaml:"markdown"`
	OpenIssues          bool          `json:"openIssues" yaml:"openIssues"`
	MaxPriorityForIssue int           `json:"maxPriorityForIssue" yaml:"maxPriorityForIssue"`
	IssueComparison     string        `json:"issueComparison" yaml:"issueComparison"`
	Extensions          []string      `json:"extensions" yaml:"extensions"`
	TimeoutSeconds      int           `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	Concurrency         int           `json:"concurrency" yaml:"concurrency"`
	Format              string        `json:"format" yaml:"format"`
	FailOnIssues        bool          `json:"failOnIssues" yaml:"failOnIssues"`
	Include             []string      `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude             []string      `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Cache               CacheConfig   `json:"cache" yaml:"cache"`
	Privacy             PrivacyConfig `json:"privacy" yaml:"privacy"`
	Log                 LogConfig     `json:"log" yaml:"log"`
}

// CacheConfig controls caching of parsed PMD results.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// PrivacyConfig controls redaction of comment text.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets" yaml:"redactSecrets"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		PMDInstallPath:      "/opt/pmd/",
		Rulesets:            []string{"java-basic"},
		Markdown:            false,
		OpenIssues:          true,
		MaxPriorityForIssue: int(finding.PriorityMin),
		IssueComparison:     string(finding.AtMost),
		Extensions:          []string{".java", ".js", ".xml", ".xsl"},
		TimeoutSeconds:      120,
		Concurrency:         4,
		Format:              "text",
		Exclude:             []string{"vendor/**", "**/target/**", "**/build/**"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
		Log: LogConfig{
			Level:    "warn",
			Encoding: "console",
		},
	}
}

// IssuePolicy returns the issue decision derived from the config.
func (c Config) IssuePolicy() finding.IssuePolicy {
	cmp, err := finding.ParseComparison(c.IssueComparison)
	if err != nil {
		cmp = finding.AtMost
	}
	return finding.IssuePolicy{
		Enabled:    c.OpenIssues,
		Threshold:  finding.Priority(c.MaxPriorityForIssue),
		Comparison: cmp,
	}
}

// Validate checks values that flags and environment variables may have set
// outside the schema's range.
func (c Config) Validate() error {
	if c.PMDInstallPath == "" {
		return fmt.Errorf("pmdInstallPath must not be empty")
	}
	if p := finding.Priority(c.MaxPriorityForIssue); !p.Valid() {
		return fmt.Errorf("maxPriorityForIssue must be between %d and %d, got %d",
			finding.PriorityMin, finding.PriorityMax, c.MaxPriorityForIssue)
	}
	if _, err := finding.ParseComparison(c.IssueComparison); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json", "markdown", "sarif":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("timeoutSeconds must be at least 1, got %d", c.TimeoutSeconds)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for pmdreview.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pmdreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "pmdreview"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pmdreview"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "pmdreview"), nil
	default:
		return filepath.Join(home, ".config", "pmdreview"), nil
	}
}

// ConfigPath returns the path of the config file in use: the first of
// config.json, config.yaml and config.yml that exists, or config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// readJSON returns the file at path as JSON, converting YAML if needed.
// A missing file yields nil data and a nil error.
func readJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if !isYAML(path) {
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting YAML config: %w", err)
	}
	return out, nil
}

// ValidateFile checks the file at path against the config schema.
func ValidateFile(path string) error {
	data, err := readJSON(path)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("config file %s does not exist", path)
	}
	return validateJSON(data)
}

// LoadFile returns the defaults overlaid with the file at path. An empty
// path selects ConfigPath. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	cfg := Default()
	data, err := readJSON(path)
	if err != nil {
		return Config{}, err
	}
	if data == nil {
		return cfg, nil
	}
	if err := validateJSON(data); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	// Keys absent from the file keep their defaults.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path (ConfigPath when empty), as YAML when the
// extension says so and as JSON otherwise.
func Save(cfg Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set)
// and uses the same keys as SetField.
func Load(path string, overrides map[string]string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envKeys = []struct {
	env string
	key string
}{
	{"PMDREVIEW_PMD_INSTALL_PATH", "pmdInstallPath"},
	{"PMDREVIEW_RULESETS", "rulesets"},
	{"PMDREVIEW_MARKDOWN", "markdown"},
	{"PMDREVIEW_OPEN_ISSUES", "openIssues"},
	{"PMDREVIEW_MAX_PRIORITY_FOR_ISSUE", "maxPriorityForIssue"},
	{"PMDREVIEW_ISSUE_COMPARISON", "issueComparison"},
	{"PMDREVIEW_TIMEOUT_SECONDS", "timeoutSeconds"},
	{"PMDREVIEW_CONCURRENCY", "concurrency"},
	{"PMDREVIEW_FORMAT", "format"},
	{"PMDREVIEW_LOG_LEVEL", "log.level"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "pmdInstallPath":
		cfg.PMDInstallPath = value
	case "rulesets":
		cfg.Rulesets = SplitList(value)
	case "markdown":
		return setBool(&cfg.Markdown, key, value)
	case "openIssues":
		return setBool(&cfg.OpenIssues, key, value)
	case "maxPriorityForIssue":
		return setInt(&cfg.MaxPriorityForIssue, key, value)
	case "issueComparison":
		cfg.IssueComparison = value
	case "extensions":
		cfg.Extensions = SplitList(value)
	case "timeoutSeconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "concurrency":
		return setInt(&cfg.Concurrency, key, value)
	case "format":
		cfg.Format = value
	case "failOnIssues":
		return setBool(&cfg.FailOnIssues, key, value)
	case "include":
		cfg.Include = SplitList(value)
	case "exclude":
		cfg.Exclude = SplitList(value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "log.level":
		cfg.Log.Level = value
	case "log.encoding":
		cfg.Log.Encoding = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

// SplitList splits a comma-separated value, trimming blanks.
func SplitList(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
