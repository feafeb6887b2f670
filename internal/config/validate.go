package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	return c.validateAnalysis()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScoring() error {
	weights := map[string]float64{
		"scoring.structural_weight": c.Scoring.StructuralWeight,
		"scoring.attribute_weight":  c.Scoring.AttributeWeight,
		"scoring.value_weight":      c.Scoring.ValueWeight,
	}
	for key, value := range weights {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	sum := c.Scoring.StructuralWeight + c.Scoring.AttributeWeight + c.Scoring.ValueWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.Workers < 0 {
		return errors.New("analysis.workers must be >= 0")
	}
	return nil
}
