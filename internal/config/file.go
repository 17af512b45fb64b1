package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig holds defaults loaded from the optional YAML config file.
// Explicit flags always win over file values.
type FileConfig struct {
	Resolvers        string `yaml:"resolvers"`
	TrustedResolvers string `yaml:"trusted-resolvers"`
	MassdnsPath      string `yaml:"massdns"`
	TrustedRate      int    `yaml:"trusted-rate"`
}

// DefaultConfigPath returns the location of the user config file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "puredns", "puredns.yaml")
}

// LoadFile reads the YAML config file. A missing file is not an error.
func LoadFile(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	fc := &FileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

// Apply fills unset Config fields from file defaults
func (fc *FileConfig) Apply(c *Config) {
	if c.ResolversFile == "" && fc.Resolvers != "" {
		c.ResolversFile = fc.Resolvers
	}
	if c.TrustedResolversFile == "" && fc.TrustedResolvers != "" {
		c.TrustedResolversFile = fc.TrustedResolvers
	}
	if c.MassdnsPath == "massdns" && fc.MassdnsPath != "" {
		c.MassdnsPath = fc.MassdnsPath
	}
	if c.TrustedRate == 0 && fc.TrustedRate > 0 {
		c.TrustedRate = fc.TrustedRate
	}
}
