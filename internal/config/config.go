// Package config loads the conductor runtime's configuration: a YAML file,
// grounded in the teacher's internal/config package, overridden by
// CONDUCTOR_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ProviderKind names which LLM vendor binding to construct.
type ProviderKind string

const (
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
	ProviderBedrock   ProviderKind = "bedrock"
)

// Config is the conductor runtime's top-level configuration.
type Config struct {
	Provider ProviderKind `yaml:"provider"`

	Anthropic struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"anthropic"`

	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	Bedrock struct {
		Region string `yaml:"region"`
		Model  string `yaml:"model"`
	} `yaml:"bedrock"`

	TasksRoot    string `yaml:"tasks_root"`
	WorkspaceDir string `yaml:"workspace_dir"`
	SkillsDir    string `yaml:"skills_dir"`
	TraceDir     string `yaml:"trace_dir"`

	Compaction struct {
		ContextWindow int     `yaml:"context_window"`
		TriggerRatio  float64 `yaml:"trigger_ratio"`
		PreserveRatio float64 `yaml:"preserve_ratio"`
		CharsPerToken int     `yaml:"chars_per_token"`
	} `yaml:"compaction"`

	Server struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a Config with the spec's default compaction thresholds
// and conventional local paths.
func Default() Config {
	var c Config
	c.Provider = ProviderAnthropic
	c.TasksRoot = "./tasks"
	c.WorkspaceDir = "."
	c.SkillsDir = "./skills"
	c.TraceDir = ""
	c.Compaction.ContextWindow = 200000
	c.Compaction.TriggerRatio = 0.75
	c.Compaction.PreserveRatio = 0.25
	c.Compaction.CharsPerToken = 4
	c.Server.Addr = ":8080"
	c.MetricsAddr = ":9090"
	return c
}

// Load reads a YAML config file, falling back to Default()'s values for any
// field the file and environment leave unset, then applies CONDUCTOR_*
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONDUCTOR_PROVIDER"); v != "" {
		cfg.Provider = ProviderKind(v)
	}
	if v := os.Getenv("CONDUCTOR_ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("CONDUCTOR_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("CONDUCTOR_AWS_REGION"); v != "" {
		cfg.Bedrock.Region = v
	}
	if v := os.Getenv("CONDUCTOR_TASKS_ROOT"); v != "" {
		cfg.TasksRoot = v
	}
	if v := os.Getenv("CONDUCTOR_WORKSPACE_DIR"); v != "" {
		cfg.WorkspaceDir = v
	}
	if v := os.Getenv("CONDUCTOR_SKILLS_DIR"); v != "" {
		cfg.SkillsDir = v
	}
	if v := os.Getenv("CONDUCTOR_TRACE_DIR"); v != "" {
		cfg.TraceDir = v
	}
	if v := os.Getenv("CONDUCTOR_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CONDUCTOR_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("CONDUCTOR_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compaction.ContextWindow = n
		}
	}
}

// Validate reports whether the config carries enough information to
// construct the configured provider.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("config: anthropic provider selected but anthropic.api_key is empty")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("config: openai provider selected but openai.api_key is empty")
		}
	case ProviderBedrock:
		if c.Bedrock.Region == "" {
			return fmt.Errorf("config: bedrock provider selected but bedrock.region is empty")
		}
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	return nil
}
