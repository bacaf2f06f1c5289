package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models dreamland.yml: where the Teamcenter server lives, which
// folder receives generated batches, and how the LLM is tuned.
type Config struct {
	Teamcenter struct {
		URL         string `yaml:"url"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		ItemsFolder struct {
			UID       string `yaml:"uid"`
			ClassName string `yaml:"class_name"`
			Type      string `yaml:"type"`
		} `yaml:"items_folder"`
	} `yaml:"teamcenter"`
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"llm"`
	Items struct {
		Types []string `yaml:"types"`
	} `yaml:"items"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with dreamland config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Teamcenter.URL == "" {
		return fmt.Errorf("config.teamcenter.url is required")
	}
	if c.Teamcenter.Username == "" {
		return fmt.Errorf("config.teamcenter.username is required")
	}
	f := c.Teamcenter.ItemsFolder
	if f.UID == "" || f.ClassName == "" || f.Type == "" {
		return fmt.Errorf("config.teamcenter.items_folder needs uid, class_name and type")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config.llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config.llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("config.llm.max_tokens must be positive")
	}
	if len(c.Items.Types) == 0 {
		return fmt.Errorf("config.items.types must list at least one item type")
	}
	for i, t := range c.Items.Types {
		if t == "" {
			return fmt.Errorf("config.items.types[%d] is empty", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dreamland.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `teamcenter:
  url: http://localhost:7001
  username: infodba
  password: ""
  items_folder:
    uid: ""
    class_name: Folder
    type: Folder

llm:
  base_url: https://api.deepseek.com
  api_key: ""
  model: deepseek-chat
  temperature: 0.7
  max_tokens: 2048

items:
  types: [Item, Part, Design]
`
