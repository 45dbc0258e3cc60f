package domain

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can spell intervals either
// as Go duration strings ("120s") or as plain seconds (120).
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value on line %d", value.Line)
	}

	// A bare number means seconds; yaml decodes integer scalars into the
	// string as-is, so both spellings arrive here.
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config carries everything the investigator needs beyond its injected
// collaborators. Zero fields are filled from DefaultConfig.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Research ResearchConfig `yaml:"research"`
	Engine   EngineConfig   `yaml:"engine"`
}

// LLMConfig selects the synchronous text-generation model.
type LLMConfig struct {
	Model string `yaml:"model"`
}

// ResearchConfig bounds the asynchronous job-polling protocol.
type ResearchConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Model        string   `yaml:"model"`
	PollBudget   Duration `yaml:"poll_budget"`
	PollInterval Duration `yaml:"poll_interval"`
}

// EngineConfig bounds a whole run.
type EngineConfig struct {
	RunTimeout Duration `yaml:"run_timeout"`
}

// LoadConfig reads a YAML config file and overlays defaults onto any field
// left unset. An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() error {
	return mergo.Merge(c, DefaultConfig())
}
