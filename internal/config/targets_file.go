package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/easyasset/eam-backend/internal/domain"
)

// PromptConfig tunes the prompts sent to the language model
type PromptConfig struct {
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// DefaultPromptConfig returns the prompt settings used without a targets file
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompt: "You are a disciplined portfolio analyst. Answer concisely and only with the requested format.",
		Temperature:  0.3,
		MaxTokens:    1024,
	}
}

// targetsFile is the YAML layout of EAM_TARGETS_FILE
//
//	targets: {stable: 40, medium: 30, gamble: 30}
//	owners:
//	  alice: {stable: 60, medium: 30, gamble: 10}
//	llm:
//	  system_prompt: "..."
type targetsFile struct {
	Targets map[string]float64            `yaml:"targets"`
	Owners  map[string]map[string]float64 `yaml:"owners"`
	LLM     *PromptConfig                 `yaml:"llm"`
}

func (c *Config) loadTargetsFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read targets file: %w", err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("failed to parse targets file: %w", err)
	}

	if len(f.Targets) > 0 {
		targets, err := toTierTargets(f.Targets)
		if err != nil {
			return fmt.Errorf("targets: %w", err)
		}
		c.Targets = targets
	}

	for owner, raw := range f.Owners {
		targets, err := toTierTargets(raw)
		if err != nil {
			return fmt.Errorf("owners.%s: %w", owner, err)
		}
		c.OwnerTargets[owner] = targets
	}

	if f.LLM != nil {
		if f.LLM.SystemPrompt != "" {
			c.Prompt.SystemPrompt = f.LLM.SystemPrompt
		}
		if f.LLM.Temperature > 0 {
			c.Prompt.Temperature = f.LLM.Temperature
		}
		if f.LLM.MaxTokens > 0 {
			c.Prompt.MaxTokens = f.LLM.MaxTokens
		}
	}

	return nil
}

func toTierTargets(raw map[string]float64) (domain.TierTargets, error) {
	targets := make(domain.TierTargets, len(raw))
	for name, pct := range raw {
		tier, err := domain.ParseTier(name)
		if err != nil {
			return nil, err
		}
		targets[tier] = decimal.NewFromFloat(pct)
	}
	return targets, targets.Validate()
}
