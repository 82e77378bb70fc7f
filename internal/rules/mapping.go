package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping maps Sigma rule ids and tags to incident types.
type Mapping struct {
	Version int               `yaml:"version"`
	Rules   map[string]string `yaml:"rules"`
	Tags    map[string]string `yaml:"tags"`
}

const incidentTagPrefix = "chronosec."

// LoadMapping reads a mapping file. An empty path yields an empty mapping.
func LoadMapping(path string) (*Mapping, error) {
	m := &Mapping{}
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}
	m.normalize()
	return m, nil
}

func (m *Mapping) normalize() {
	tags := make(map[string]string, len(m.Tags))
	for k, v := range m.Tags {
		tags[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	m.Tags = tags
	ids := make(map[string]string, len(m.Rules))
	for k, v := range m.Rules {
		ids[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	m.Rules = ids
}

// IncidentType resolves a rule to an incident type: explicit rule id first,
// then mapped tags, then a chronosec.<type> tag on the rule itself.
func (m *Mapping) IncidentType(ruleID string, tags []string) string {
	if m != nil {
		if v, ok := m.Rules[ruleID]; ok && v != "" {
			return v
		}
		for _, raw := range tags {
			if v, ok := m.Tags[strings.ToLower(strings.TrimSpace(raw))]; ok && v != "" {
				return v
			}
		}
	}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if strings.HasPrefix(tag, incidentTagPrefix) {
			if v := strings.TrimPrefix(tag, incidentTagPrefix); v != "" {
				return v
			}
		}
	}
	return ""
}
