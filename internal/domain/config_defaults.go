package domain

import "time"

func DefaultConfig() *Config {
	return &Config{
		LLM:      DefaultLLMConfig(),
		Research: DefaultResearchConfig(),
		Engine:   DefaultEngineConfig(),
	}
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model: "gemini-2.0-flash",
	}
}

func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		BaseURL:      "https://api.tavily.com",
		Model:        "mini",
		PollBudget:   Duration(120 * time.Second),
		PollInterval: Duration(2 * time.Second),
	}
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RunTimeout: Duration(10 * time.Minute),
	}
}
