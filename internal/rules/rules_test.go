package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronosec/pkg/models"
)

const ransomwareRule = `title: Shadow Copy Deletion
id: 1a2b3c4d-0000-0000-0000-000000000001
level: high
tags:
  - attack.impact
  - attack.t1490
  - chronosec.ransomware
logsource:
  product: windows
detection:
  selection:
    CommandLine|contains: 'vssadmin delete shadows'
  condition: selection
`

const malwareRule = `title: Suspicious Vssadmin Use
id: 1a2b3c4d-0000-0000-0000-000000000002
level: medium
tags:
  - chronosec.malware
logsource:
  product: windows
detection:
  selection:
    CommandLine|contains: 'vssadmin'
  condition: selection
`

const phishingRule = `title: Invoice Lure
id: 1a2b3c4d-0000-0000-0000-000000000003
level: medium
tags:
  - mail.lure
logsource:
  product: m365
detection:
  selection:
    Subject|contains: 'invoice'
  condition: selection
`

const keywordRule = `title: Mimikatz Keyword
id: 1a2b3c4d-0000-0000-0000-000000000004
level: low
logsource:
  product: windows
detection:
  keywords:
    - 'mimikatz'
  condition: keywords
`

func writeRule(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func event(fields map[string]interface{}) *models.IncidentEvent {
	return &models.IncidentEvent{Fields: fields}
}

func TestSigmaClassifierHighestLevelWins(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "a_malware.yml", malwareRule)
	writeRule(t, dir, "b_ransomware.yml", ransomwareRule)
	writeRule(t, dir, "notes.txt", "not a rule")

	c, stats, err := NewSigmaClassifier(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.Loaded)

	incidentType, labels := c.Classify(event(map[string]interface{}{
		"CommandLine": "cmd /c vssadmin delete shadows /all /quiet",
	}))
	assert.Equal(t, "ransomware", incidentType)
	require.Len(t, labels, 2)
	assert.Equal(t, "malware", labels[0].IncidentType)
	assert.Equal(t, "high", labels[1].Severity)
	assert.Equal(t, "impact", labels[1].Tactic)
	assert.Equal(t, "T1490", labels[1].Technique)

	incidentType, labels = c.Classify(event(map[string]interface{}{"CommandLine": "vssadmin list shadows"}))
	assert.Equal(t, "malware", incidentType)
	assert.Len(t, labels, 1)
}

func TestSigmaClassifierTieGoesToLoadOrder(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "a_malware.yml", malwareRule)
	second := `title: Vssadmin Insider
id: 1a2b3c4d-0000-0000-0000-000000000009
level: medium
tags:
  - chronosec.insider_threat
logsource:
  product: windows
detection:
  selection:
    CommandLine|contains: 'vssadmin'
  condition: selection
`
	writeRule(t, dir, "b_insider.yml", second)

	c, _, err := NewSigmaClassifier(dir, "")
	require.NoError(t, err)

	incidentType, labels := c.Classify(event(map[string]interface{}{"CommandLine": "vssadmin"}))
	assert.Equal(t, "malware", incidentType)
	assert.Len(t, labels, 2)
}

func TestSigmaClassifierMappingFile(t *testing.T) {
	dir := t.TempDir()
	rulesDir := filepath.Join(dir, "rules")
	require.NoError(t, os.Mkdir(rulesDir, 0o755))
	writeRule(t, rulesDir, "phishing.yml", phishingRule)
	mapping := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(mapping, []byte("version: 1\ntags:\n  Mail.Lure: phishing\n"), 0o644))

	c, stats, err := NewSigmaClassifier(rulesDir, mapping)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Unmapped)

	incidentType, _ := c.Classify(event(map[string]interface{}{"Subject": "Overdue invoice #4411"}))
	assert.Equal(t, "phishing", incidentType)

	require.NoError(t, os.WriteFile(mapping, []byte("rules:\n  1a2b3c4d-0000-0000-0000-000000000003: data_breach\ntags:\n  mail.lure: phishing\n"), 0o644))
	_, err = c.Reload()
	require.NoError(t, err)
	incidentType, _ = c.Classify(event(map[string]interface{}{"Subject": "invoice"}))
	assert.Equal(t, "data_breach", incidentType)
}

func TestSigmaClassifierNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "ransomware.yml", ransomwareRule)
	writeRule(t, dir, "keyword.yml", keywordRule)
	writeRule(t, dir, "broken.yml", "title: [unterminated")

	c, stats, err := NewSigmaClassifier(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.SkippedComplex)
	assert.Equal(t, 1, stats.SkippedInvalid)

	incidentType, labels := c.Classify(event(map[string]interface{}{"CommandLine": "notepad.exe"}))
	assert.Equal(t, UnknownIncident, incidentType)
	assert.Empty(t, labels)

	incidentType, _ = c.Classify(nil)
	assert.Equal(t, UnknownIncident, incidentType)
}

func TestSigmaClassifierExplicitTypeWins(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "ransomware.yml", ransomwareRule)
	c, _, err := NewSigmaClassifier(dir, "")
	require.NoError(t, err)

	ev := event(map[string]interface{}{"CommandLine": "vssadmin delete shadows"})
	ev.IncidentType = "ddos"
	incidentType, labels := c.Classify(ev)
	assert.Equal(t, "ddos", incidentType)
	assert.Len(t, labels, 1)
}

func TestNewSigmaClassifierErrors(t *testing.T) {
	_, _, err := NewSigmaClassifier(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "rule.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	_, _, err = NewSigmaClassifier(file, "")
	assert.Error(t, err)
}

func TestNoopClassifier(t *testing.T) {
	n := &NoopClassifier{}
	incidentType, _ := n.Classify(&models.IncidentEvent{IncidentType: "phishing"})
	assert.Equal(t, "phishing", incidentType)
	incidentType, _ = n.Classify(&models.IncidentEvent{})
	assert.Equal(t, UnknownIncident, incidentType)
}

func TestMappingFallsBackToTag(t *testing.T) {
	var m *Mapping
	assert.Equal(t, "ddos", m.IncidentType("x", []string{"attack.impact", "Chronosec.DDoS"}))
	assert.Equal(t, "", m.IncidentType("x", []string{"attack.impact"}))
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "a_malware.yml", malwareRule)

	c, _, err := NewSigmaClassifier(dir, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan SigmaLoadStats, 4)
	require.NoError(t, c.Watch(ctx, func(s SigmaLoadStats, err error) {
		if err == nil {
			reloaded <- s
		}
	}))

	writeRule(t, dir, "b_ransomware.yml", ransomwareRule)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("rules were not reloaded")
	}
	require.Eventually(t, func() bool { return c.Stats().Loaded == 2 }, 5*time.Second, 50*time.Millisecond)

	incidentType, _ := c.Classify(event(map[string]interface{}{"CommandLine": "vssadmin delete shadows"}))
	assert.Equal(t, "ransomware", incidentType)
}
