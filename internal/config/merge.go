package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML section names.
const (
	keyAPI     = "api"
	keyFeed    = "feed"
	keyOutput  = "output"
	keyLogging = "logging"
	keyMetrics = "metrics"
)

// ShallowMergeYAML reads a YAML file and applies each top-level section it
// contains onto target. A present section is decoded over the built-in
// defaults for that section, so fields it omits fall back to defaults rather
// than to whatever target held. Absent sections and unknown keys are left
// alone.
func ShallowMergeYAML(target *Config, path string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var sections map[string]yaml.Node
	if err = yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	for key, node := range sections {
		if err = applySection(target, key, &node); err != nil {
			return fmt.Errorf("applying section %q from %s: %w", key, path, err)
		}
	}
	return nil
}

func applySection(target *Config, key string, node *yaml.Node) error {
	defaults := DefaultConfig()
	switch key {
	case keyAPI:
		v := defaults.API
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.API = v
	case keyFeed:
		v := defaults.Feed
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Feed = v
	case keyOutput:
		v := defaults.Output
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Output = v
	case keyLogging:
		v := defaults.Logging
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyMetrics:
		v := defaults.Metrics
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Metrics = v
	}
	return nil
}
