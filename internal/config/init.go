package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Source: "styleguide.md",
		Output: "docs",
		Style:  "linear",
		Git: GitConfig{
			PrimaryBranch: "main",
			PublishBranch: "gh-pages",
			Remote:        "origin",
			CommitMessage: "docs",
		},
		Generator: GeneratorConfig{
			Mode:          RenderModeAuto,
			Command:       "docco",
			CommentPrefix: "//",
		},
		History: HistoryConfig{
			Path: ".stylepub/history.db",
		},
		Notify: NotifyConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "stylepub.runs",
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	header := "# stylepub configuration\n# Regenerates documentation from the annotated style guide and publishes it.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
