package diff

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// MatchStrategy selects how repeated same-tag children are paired.
type MatchStrategy string

const (
	// MatchKey pairs elements by equality of a natural-key attribute.
	MatchKey MatchStrategy = "key"
	// MatchPositional pairs elements strictly by position.
	MatchPositional MatchStrategy = "positional"
)

// MatchRule configures list alignment for one tag. Keys are tried in order;
// the first attribute name present on a node is its key. An element missing
// every key attribute falls back to positional pairing among the leftovers.
type MatchRule struct {
	Strategy MatchStrategy `yaml:"strategy"`
	Keys     []string      `yaml:"keys"`
}

// SeverityRule selects constructs by tag and/or attribute name. An empty tag
// matches any tag; an empty attr matches the element itself.
type SeverityRule struct {
	Tag  string `yaml:"tag"`
	Attr string `yaml:"attr"`
}

// SeverityTable holds the ordered severity classes and the fallback.
type SeverityTable struct {
	Default  Severity       `yaml:"default"`
	Critical []SeverityRule `yaml:"critical"`
	Minor    []SeverityRule `yaml:"minor"`
}

// Policy is the externally configurable part of the differ: per-tag list
// alignment and the severity table.
type Policy struct {
	Match    map[string]MatchRule `yaml:"match"`
	Severity SeverityTable        `yaml:"severity"`
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() Policy {
	policy, err := parsePolicy(defaultPolicyYAML)
	if err != nil {
		// The embedded policy is validated by tests; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded diff policy: %v", err))
	}
	return policy
}

// LoadPolicy reads a policy file, or returns the embedded default when path
// is empty.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read diff policy: %w", err)
	}
	policy, err := parsePolicy(raw)
	if err != nil {
		return Policy{}, fmt.Errorf("parse diff policy %s: %w", path, err)
	}
	return policy, nil
}

func parsePolicy(raw []byte) (Policy, error) {
	var policy Policy
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, err
	}
	if policy.Severity.Default == "" {
		policy.Severity.Default = SeverityMajor
	}
	switch policy.Severity.Default {
	case SeverityCritical, SeverityMajor, SeverityMinor:
	default:
		return Policy{}, fmt.Errorf("unknown default severity %q", policy.Severity.Default)
	}
	for tag, rule := range policy.Match {
		switch rule.Strategy {
		case MatchKey:
			if len(rule.Keys) == 0 {
				return Policy{}, fmt.Errorf("match rule for %q: key strategy requires keys", tag)
			}
		case MatchPositional:
		default:
			return Policy{}, fmt.Errorf("match rule for %q: unknown strategy %q", tag, rule.Strategy)
		}
	}
	return policy, nil
}

// matchRule returns the alignment rule for a tag, defaulting to positional.
func (p Policy) matchRule(tag string) MatchRule {
	if rule, ok := p.Match[tag]; ok {
		return rule
	}
	return MatchRule{Strategy: MatchPositional}
}

// severityFor resolves the severity class for an element (attr == "") or an
// attribute of it. Resolution order: exact tag+attr rule, tag-only rule,
// attr-only rule, table default.
func (p Policy) severityFor(tag, attr string) Severity {
	classes := []struct {
		severity Severity
		rules    []SeverityRule
	}{
		{SeverityCritical, p.Severity.Critical},
		{SeverityMinor, p.Severity.Minor},
	}
	// Exact match wins over tag-only, which wins over attr-only, regardless
	// of which class the rules live in.
	for _, pass := range []func(SeverityRule) bool{
		func(r SeverityRule) bool { return r.Tag == tag && r.Attr == attr && (r.Tag != "" || r.Attr != "") },
		func(r SeverityRule) bool { return r.Tag == tag && r.Tag != "" && r.Attr == "" },
		func(r SeverityRule) bool { return r.Attr == attr && r.Attr != "" && r.Tag == "" },
	} {
		for _, class := range classes {
			for _, rule := range class.rules {
				if pass(rule) {
					return class.severity
				}
			}
		}
	}
	return p.Severity.Default
}
