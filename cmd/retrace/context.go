package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"retrace/internal/analysis"
	"retrace/internal/archive"
	"retrace/internal/canonicalize"
	"retrace/internal/config"
	"retrace/internal/diff"
	"retrace/internal/logging"
	"retrace/internal/profilestore"
	"retrace/internal/report"
	"retrace/internal/score"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// stores bundles the opened databases behind one cleanup.
type stores struct {
	cfg      *config.Config
	archive  *archive.Store
	profiles *profilestore.Store
	reports  *report.Store
}

func (c *commandContext) openStores() (*stores, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	archiveStore, err := archive.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive store: %w", err)
	}
	profileStore, err := profilestore.Open(cfg)
	if err != nil {
		_ = archiveStore.Close()
		return nil, nil, fmt.Errorf("open profile store: %w", err)
	}
	reportStore, err := report.Open(cfg)
	if err != nil {
		_ = profileStore.Close()
		_ = archiveStore.Close()
		return nil, nil, fmt.Errorf("open report store: %w", err)
	}

	s := &stores{cfg: cfg, archive: archiveStore, profiles: profileStore, reports: reportStore}
	cleanup := func() {
		_ = reportStore.Close()
		_ = profileStore.Close()
		_ = archiveStore.Close()
	}
	return s, cleanup, nil
}

func (c *commandContext) openAnalyzer() (*analysis.Analyzer, *stores, func(), error) {
	s, cleanup, err := c.openStores()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := c.buildLogger(s.cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	policy, err := diff.LoadPolicy(s.cfg.Paths.PolicyPath)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	analyzer, err := analysis.New(analysis.Options{
		Archive:  s.archive,
		Profiles: s.profiles,
		Reports:  s.reports,
		Differ:   diff.New(policy),
		Weights: score.Weights{
			Structural: s.cfg.Scoring.StructuralWeight,
			Attribute:  s.cfg.Scoring.AttributeWeight,
			Value:      s.cfg.Scoring.ValueWeight,
		},
		Logger: logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return analyzer, s, cleanup, nil
}

// buildLogger keeps command output clean: structured logs go to the log file
// only, never to the terminal alongside tables.
func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "retrace.log")},
	})
}

func parseDialectArg(arg string) (canonicalize.Dialect, error) {
	dialect, ok := canonicalize.ParseDialect(arg)
	if !ok {
		return "", fmt.Errorf("unknown file type %q (expected descriptor or legacy)", arg)
	}
	return dialect, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
