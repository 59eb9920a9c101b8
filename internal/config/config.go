// Package config loads the benchmark pipeline's YAML configuration and
// overlays credentials from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Paths      PathsConfig      `yaml:"paths"`
	Storage    StorageConfig    `yaml:"storage"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// GenerationConfig controls question authoring runs. Temperature and TopP
// are pointers so an explicit 0 in the file is distinguishable from unset.
type GenerationConfig struct {
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	// SkipFirst excludes the newest N cases from the selection window.
	SkipFirst int `yaml:"skip_first,omitempty"`
	MaxCases  int `yaml:"max_cases,omitempty"`
	// CaptionFilter keeps only cases whose figure captions mention one of
	// these keywords.
	CaptionFilter []string `yaml:"caption_filter,omitempty"`
}

// EvaluationConfig controls benchmark evaluation runs.
type EvaluationConfig struct {
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	UseURLs     bool     `yaml:"use_urls,omitempty"`
	LogPrefix   string   `yaml:"log_prefix,omitempty"`
}

type PathsConfig struct {
	MetadataPath string `yaml:"metadata_path,omitempty"`
	FiguresDir   string `yaml:"figures_dir,omitempty"`
	OutputDir    string `yaml:"output_dir,omitempty"`
	LogDir       string `yaml:"log_dir,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Load reads the YAML file at path and applies environment overrides. A
// missing file at the default path is not an error; explicit paths must
// exist.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	} else {
		path = strings.TrimSpace(path)
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.Providers == nil {
		c.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(c.LLM.DefaultProvider) == "" {
		c.LLM.DefaultProvider = "openai"
	}

	if strings.TrimSpace(c.Generation.Model) == "" {
		c.Generation.Model = "gpt-4o"
	}
	if c.Generation.Temperature == nil {
		c.Generation.Temperature = floatPtr(0.7)
	}
	if c.Generation.TopP == nil {
		c.Generation.TopP = floatPtr(0.95)
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = 1200
	}
	if c.Generation.SkipFirst == 0 {
		c.Generation.SkipFirst = 100
	}
	if c.Generation.CaptionFilter == nil {
		c.Generation.CaptionFilter = []string{"xray", "x-ray", "x ray", "ray", "xr", "radiograph"}
	}

	if strings.TrimSpace(c.Evaluation.Model) == "" {
		c.Evaluation.Model = "chatgpt-4o-latest"
	}
	if c.Evaluation.Temperature == nil {
		c.Evaluation.Temperature = floatPtr(0.2)
	}
	if c.Evaluation.MaxTokens == 0 {
		c.Evaluation.MaxTokens = 50
	}
	if strings.TrimSpace(c.Evaluation.LogPrefix) == "" {
		c.Evaluation.LogPrefix = "api_usage"
	}

	if strings.TrimSpace(c.Paths.MetadataPath) == "" {
		c.Paths.MetadataPath = "data/metadata.json"
	}
	if strings.TrimSpace(c.Paths.FiguresDir) == "" {
		c.Paths.FiguresDir = "data/figures"
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = "benchmark/questions"
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = "logs"
	}

	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = "chestbench.db"
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := c.LLM.Providers["openai"]
		p.APIKey = v
		c.LLM.Providers["openai"] = p
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		p := c.LLM.Providers["openai"]
		p.BaseURL = v
		c.LLM.Providers["openai"] = p
	}

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := c.LLM.Providers["claude"]
		p.APIKey = v
		c.LLM.Providers["claude"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := c.LLM.Providers["claude"]
		p.APIKey = v
		c.LLM.Providers["claude"] = p
	}
}

// Provider returns the named provider's settings. Missing credentials for
// the openai provider are fatal at run start rather than at first call.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if c == nil {
		return ProviderConfig{}, fmt.Errorf("config: nil config")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(c.LLM.DefaultProvider))
	}
	pcfg, ok := c.LLM.Providers[key]
	if !ok || strings.TrimSpace(pcfg.APIKey) == "" {
		switch key {
		case "openai":
			return ProviderConfig{}, fmt.Errorf("config: OPENAI_API_KEY not set and no api_key configured for provider %q", key)
		case "claude", "anthropic":
			return ProviderConfig{}, fmt.Errorf("config: ANTHROPIC_API_KEY not set and no api_key configured for provider %q", key)
		default:
			return ProviderConfig{}, fmt.Errorf("config: unknown provider %q", name)
		}
	}
	return pcfg, nil
}
