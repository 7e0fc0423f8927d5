package notify

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Channel is one delivery target. Severities filters which alerts the
// channel receives; empty means all.
type Channel struct {
	Name       string   `yaml:"name" json:"name"`
	Type       string   `yaml:"type" json:"type"` // webhook
	URL        string   `yaml:"url" json:"url"`
	Severities []string `yaml:"severities" json:"severities"`
	Enabled    bool     `yaml:"enabled" json:"enabled"`
}

type ChannelsConfig struct {
	Channels []Channel `yaml:"channels" json:"channels"`
}

func LoadChannels(path string) (ChannelsConfig, error) {
	if path == "" {
		return DefaultChannels(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultChannels(), err
	}

	var cfg ChannelsConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return ChannelsConfig{}, err
	}

	if len(cfg.Channels) == 0 {
		return ChannelsConfig{}, errors.New("no notification channels configured")
	}

	return cfg, nil
}

func DefaultChannels() ChannelsConfig {
	return ChannelsConfig{Channels: []Channel{
		{
			Name:       "stewardship-oncall",
			Type:       "webhook",
			URL:        "http://localhost:9200/hooks/stewardship",
			Severities: []string{"critical"},
			Enabled:    true,
		},
		{
			Name:       "pharmacy-queue",
			Type:       "webhook",
			URL:        "http://localhost:9200/hooks/pharmacy",
			Severities: nil, // all severities
			Enabled:    true,
		},
	}}
}

// Matches reports whether the channel wants alerts of the given severity.
func (c Channel) Matches(severity string) bool {
	if !c.Enabled {
		return false
	}
	if len(c.Severities) == 0 {
		return true
	}
	for _, s := range c.Severities {
		if s == severity {
			return true
		}
	}
	return false
}
