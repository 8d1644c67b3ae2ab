package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeFile fills v from a JSON or YAML file, picked by extension.
func decodeFile(path string, v interface{}) error {
	bb, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bb, v)
	default:
		err = json.Unmarshal(bb, v)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func ReadMonitorConfig(path string) (MonitorConfig, error) {
	cfg := DefaultMonitorConfig()
	if err := decodeFile(path, &cfg); err != nil {
		return MonitorConfig{}, err
	}
	for i := range cfg.Targets {
		cfg.Targets[i].FilePath = path
	}
	return cfg, nil
}

func ReadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := decodeFile(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func LoadTargetCfgFromPath(path string) (TargetConfig, error) {
	cfg := DefaultTargetConfig()
	if err := decodeFile(path, &cfg); err != nil {
		return TargetConfig{}, err
	}
	cfg.FilePath = path
	return cfg, nil
}

// ReadTargetConfigs loads every target file below path, the main config file is skipped.
func ReadTargetConfigs(path string) ([]TargetConfig, error) {
	var filePaths []string
	err := filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isConfigFile(path) || info.Name() == MainConfigFileName {
			return nil
		}
		filePaths = append(filePaths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(filePaths) == 0 {
		return nil, ErrNoConfigFiles
	}
	cfgs := make([]TargetConfig, 0, len(filePaths))
	for _, filePath := range filePaths {
		cfg, err := LoadTargetCfgFromPath(filePath)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}
