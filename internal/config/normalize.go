package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScoring()
	c.normalizeAnalysis()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.PolicyPath = strings.TrimSpace(c.Paths.PolicyPath)
	if c.Paths.PolicyPath != "" {
		if c.Paths.PolicyPath, err = expandPath(c.Paths.PolicyPath); err != nil {
			return fmt.Errorf("paths.policy_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeScoring() {
	// A fully zeroed section means the operator did not configure weights.
	if c.Scoring.StructuralWeight == 0 && c.Scoring.AttributeWeight == 0 && c.Scoring.ValueWeight == 0 {
		c.Scoring = Scoring{
			StructuralWeight: defaultStructuralWeight,
			AttributeWeight:  defaultAttributeWeight,
			ValueWeight:      defaultValueWeight,
		}
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.Workers < 0 {
		c.Analysis.Workers = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
