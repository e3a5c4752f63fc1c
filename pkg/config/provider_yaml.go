package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file. The file is read
// once and cached for the provider's lifetime.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var config ConfigData
	if err := yaml.UnmarshalStrict(cfgFile, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	y.config = &config
	return y.config, nil
}

// GetStations returns the configured stations.
func (y *YAMLProvider) GetStations() ([]StationData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Stations, nil
}

// GetStorageConfig returns storage configuration.
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// IsReadOnly returns true as YAML provider is read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// WriteYAML writes config to filename in the format YAMLProvider reads.
func WriteYAML(filename string, config *ConfigData) error {
	if config == nil {
		return errors.New("nil configuration")
	}
	out, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, out, 0o600)
}
