package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete CortexAST configuration, read fresh on
// every call from "<repo_root>/.cortexast.json".
type Config struct {
	OutputDir     string              `json:"outputDir" mapstructure:"outputDir"`
	SkeletonMode  string              `json:"skeletonMode" mapstructure:"skeletonMode"`
	Scan          ScanConfig          `json:"scan" mapstructure:"scan"`
	VectorSearch  VectorSearchConfig  `json:"vectorSearch" mapstructure:"vectorSearch"`
	TokenEstimator TokenEstimatorConfig `json:"tokenEstimator" mapstructure:"tokenEstimator"`
	Router        RouterConfig        `json:"router" mapstructure:"router"`
	Logging       LoggingConfig       `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls the Scanner/Walker.
type ScanConfig struct {
	ExcludeDirNames []string `json:"excludeDirNames" mapstructure:"excludeDirNames"`
	MaxFileBytes    int64    `json:"maxFileBytes" mapstructure:"maxFileBytes"`
	MaxLineChars    int      `json:"maxLineChars" mapstructure:"maxLineChars"`
}

// VectorSearchConfig controls the Vector Store.
type VectorSearchConfig struct {
	Model             string `json:"model" mapstructure:"model"`
	ChunkLines        int    `json:"chunkLines" mapstructure:"chunkLines"`
	DefaultQueryLimit int    `json:"defaultQueryLimit" mapstructure:"defaultQueryLimit"`
}

// TokenEstimatorConfig controls the coarse chars/token proxy.
type TokenEstimatorConfig struct {
	CharsPerToken int   `json:"charsPerToken" mapstructure:"charsPerToken"`
	MaxFileBytes  int64 `json:"maxFileBytes" mapstructure:"maxFileBytes"`
}

// RouterConfig controls Tool Router output safety.
type RouterConfig struct {
	DefaultMaxChars int `json:"defaultMaxChars" mapstructure:"defaultMaxChars"`
	MaxCharsClamp   int `json:"maxCharsClamp" mapstructure:"maxCharsClamp"`
}

// LoggingConfig mirrors internal/logging.Config shape for viper binding.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults applied when .cortexast.json
// is absent or silent on a field.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    ".cortexast",
		SkeletonMode: "auto",
		Scan: ScanConfig{
			ExcludeDirNames: []string{
				".git", "node_modules", "target", "dist", "build", "coverage",
				".next", ".nuxt", ".vscode-test", ".vscode", "out", "vendor",
				"__pycache__", ".venv", "venv", ".dart_tool", ".cortexast",
			},
			MaxFileBytes: 1 << 20,
			MaxLineChars: 10000,
		},
		VectorSearch: VectorSearchConfig{
			Model:             "text-embedding-default",
			ChunkLines:        40,
			DefaultQueryLimit: 10,
		},
		TokenEstimator: TokenEstimatorConfig{
			CharsPerToken: 4,
			MaxFileBytes:  1 << 20,
		},
		Router: RouterConfig{
			DefaultMaxChars: 8000,
			MaxCharsClamp:   200000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads "<repoRoot>/.cortexast.json" via viper, falling back to
// DefaultConfig() when the file does not exist.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".cortexast")
	v.SetConfigType("json")
	v.AddConfigPath(repoRoot)

	defaults := DefaultConfig()
	v.SetDefault("outputDir", defaults.OutputDir)
	v.SetDefault("skeletonMode", defaults.SkeletonMode)
	v.SetDefault("scan.excludeDirNames", defaults.Scan.ExcludeDirNames)
	v.SetDefault("scan.maxFileBytes", defaults.Scan.MaxFileBytes)
	v.SetDefault("scan.maxLineChars", defaults.Scan.MaxLineChars)
	v.SetDefault("vectorSearch.model", defaults.VectorSearch.Model)
	v.SetDefault("vectorSearch.chunkLines", defaults.VectorSearch.ChunkLines)
	v.SetDefault("vectorSearch.defaultQueryLimit", defaults.VectorSearch.DefaultQueryLimit)
	v.SetDefault("tokenEstimator.charsPerToken", defaults.TokenEstimator.CharsPerToken)
	v.SetDefault("tokenEstimator.maxFileBytes", defaults.TokenEstimator.MaxFileBytes)
	v.SetDefault("router.defaultMaxChars", defaults.Router.DefaultMaxChars)
	v.SetDefault("router.maxCharsClamp", defaults.Router.MaxCharsClamp)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, &ConfigError{Field: "<file>", Message: err.Error()}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "<unmarshal>", Message: err.Error()}
	}
	return &cfg, nil
}

// Save writes the configuration to "<repoRoot>/.cortexast.json".
func (c *Config) Save(repoRoot string) error {
	configPath := filepath.Join(repoRoot, ".cortexast.json")
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks invariants that would otherwise surface as confusing
// downstream failures.
func (c *Config) Validate() error {
	if c.VectorSearch.ChunkLines <= 0 {
		return &ConfigError{Field: "vectorSearch.chunkLines", Message: "must be positive"}
	}
	if c.TokenEstimator.CharsPerToken <= 0 {
		return &ConfigError{Field: "tokenEstimator.charsPerToken", Message: "must be positive"}
	}
	if c.Router.DefaultMaxChars <= 0 {
		return &ConfigError{Field: "router.defaultMaxChars", Message: "must be positive"}
	}
	if c.Router.MaxCharsClamp < c.Router.DefaultMaxChars {
		return &ConfigError{Field: "router.maxCharsClamp", Message: "must be >= defaultMaxChars"}
	}
	return nil
}

// ConfigError represents a configuration-loading or validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
