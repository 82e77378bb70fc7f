package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	sigma "github.com/bradleyjkemp/sigma-go"
	sigmaevaluator "github.com/bradleyjkemp/sigma-go/evaluator"

	"chronosec/pkg/models"
)

var techniqueTagRegex = regexp.MustCompile(`^attack\.t\d{4}(?:\.\d{3})?$`)

var levelRank = map[string]int{
	"informational": 1,
	"low":           2,
	"medium":        3,
	"high":          4,
	"critical":      5,
}

// SigmaLoadStats tracks the number of loaded and skipped rules.
type SigmaLoadStats struct {
	TotalFiles     int
	Loaded         int
	SkippedComplex int
	SkippedInvalid int
	Unmapped       int
}

type compiledSigmaRule struct {
	eval         *sigmaevaluator.RuleEvaluator
	label        models.RuleLabel
	rank         int
	incidentType string
}

// SigmaClassifier evaluates Sigma rules against intake events.
type SigmaClassifier struct {
	path        string
	mappingPath string

	mu    sync.RWMutex
	rules []compiledSigmaRule
	stats SigmaLoadStats
	ctx   context.Context
}

// NewSigmaClassifier loads Sigma rules from a file or directory. mappingPath
// may be empty, in which case only chronosec.<type> rule tags map to types.
func NewSigmaClassifier(path, mappingPath string) (*SigmaClassifier, SigmaLoadStats, error) {
	c := &SigmaClassifier{path: path, mappingPath: mappingPath, ctx: context.Background()}
	stats, err := c.Reload()
	if err != nil {
		return nil, stats, err
	}
	return c, stats, nil
}

// Path returns the rule file or directory the classifier loads from.
func (c *SigmaClassifier) Path() string { return c.path }

// Stats returns the counts from the last successful load.
func (c *SigmaClassifier) Stats() SigmaLoadStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Reload re-reads the rules and mapping. On error the previous rules stay active.
func (c *SigmaClassifier) Reload() (SigmaLoadStats, error) {
	compiled, stats, err := loadSigmaRules(c.path, c.mappingPath)
	if err != nil {
		return stats, err
	}
	c.mu.Lock()
	c.rules = compiled
	c.stats = stats
	c.mu.Unlock()
	return stats, nil
}

// Classify returns the event's own incident type when set. Otherwise the
// highest-level matching rule decides; ties go to the rule loaded first.
// All matching rules are returned as labels.
func (c *SigmaClassifier) Classify(event *models.IncidentEvent) (string, []models.RuleLabel) {
	if event == nil {
		return UnknownIncident, nil
	}

	c.mu.RLock()
	rules := c.rules
	c.mu.RUnlock()

	eventMap := sigmaEventFrom(event)
	var labels []models.RuleLabel
	best := -1
	for i, rule := range rules {
		res, err := rule.eval.Matches(c.ctx, eventMap)
		if err != nil || !res.Match {
			continue
		}
		labels = append(labels, rule.label)
		if rule.incidentType == "" {
			continue
		}
		if best < 0 || rule.rank > rules[best].rank {
			best = i
		}
	}

	if event.IncidentType != "" {
		return event.IncidentType, labels
	}
	if best < 0 {
		return UnknownIncident, labels
	}
	return rules[best].incidentType, labels
}

func loadSigmaRules(path, mappingPath string) ([]compiledSigmaRule, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		return nil, stats, err
	}

	files, err := ruleFiles(path)
	if err != nil {
		return nil, stats, err
	}

	stats.TotalFiles = len(files)
	compiled := make([]compiledSigmaRule, 0, len(files))
	for _, ruleFile := range files {
		rule, err := parseSigmaRuleFile(ruleFile)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}

		if ok, _ := isSimpleSingleEventRule(rule); !ok {
			stats.SkippedComplex++
			continue
		}

		label := labelFromRule(rule)
		incidentType := mapping.IncidentType(label.ID, rule.Tags)
		if incidentType == "" {
			stats.Unmapped++
		}
		label.IncidentType = incidentType

		compiled = append(compiled, compiledSigmaRule{
			eval:         sigmaevaluator.ForRule(rule),
			label:        label,
			rank:         levelRank[label.Severity],
			incidentType: incidentType,
		})
		stats.Loaded++
	}
	return compiled, stats, nil
}

func ruleFiles(path string) ([]string, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve rule path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat rule path: %w", err)
	}

	if !info.IsDir() {
		if !isYAMLFile(resolved) {
			return nil, fmt.Errorf("rule file must end with .yml or .yaml: %s", resolved)
		}
		return []string{resolved}, nil
	}

	files := make([]string, 0, 64)
	err = filepath.WalkDir(resolved, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && isYAMLFile(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk rule directory: %w", err)
	}
	return files, nil
}

func parseSigmaRuleFile(path string) (sigma.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("read sigma rule %s: %w", path, err)
	}
	rule, err := sigma.ParseRule(raw)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("parse sigma rule %s: %w", path, err)
	}
	return rule, nil
}

func isYAMLFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

func isSimpleSingleEventRule(rule sigma.Rule) (bool, string) {
	if rule.Detection.Timeframe > 0 {
		return false, "timeframe is not supported"
	}

	for _, cond := range rule.Detection.Conditions {
		if cond.Aggregation != nil {
			return false, "aggregation condition is not supported"
		}
		if !isSimpleSearchExpression(cond.Search) {
			return false, "complex condition expression is not supported"
		}
	}

	for _, search := range rule.Detection.Searches {
		if len(search.Keywords) > 0 {
			return false, "keyword search is not supported"
		}
		if len(search.EventMatchers) == 0 {
			return false, "search has no event matchers"
		}
	}

	return true, ""
}

func isSimpleSearchExpression(expr sigma.SearchExpr) bool {
	switch e := expr.(type) {
	case sigma.SearchIdentifier:
		return true
	case sigma.And:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Or:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Not:
		return isSimpleSearchExpression(e.Expr)
	default:
		return false
	}
}

func sigmaEventFrom(event *models.IncidentEvent) map[string]interface{} {
	buf := make(map[string]interface{}, len(event.Fields)+4)
	for k, v := range event.Fields {
		buf[k] = v
	}
	if event.Hostname != "" {
		buf["Hostname"] = event.Hostname
		buf["hostname"] = event.Hostname
	}
	if event.AgentID != "" {
		buf["AgentID"] = event.AgentID
	}
	if event.Source != "" {
		buf["source"] = event.Source
	}
	return buf
}

func labelFromRule(rule sigma.Rule) models.RuleLabel {
	id := strings.TrimSpace(rule.ID)
	if id == "" {
		id = strings.TrimSpace(rule.Title)
	}

	level := strings.ToLower(strings.TrimSpace(rule.Level))
	if level == "" {
		level = "medium"
	}

	tactic, technique := parseAttackTags(rule.Tags)
	return models.RuleLabel{
		ID:        id,
		Name:      strings.TrimSpace(rule.Title),
		Severity:  level,
		Tactic:    tactic,
		Technique: technique,
	}
}

func parseAttackTags(tags []string) (string, string) {
	var tactic, technique string
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if !strings.HasPrefix(tag, "attack.") {
			continue
		}
		suffix := strings.TrimPrefix(tag, "attack.")
		if technique == "" && techniqueTagRegex.MatchString(tag) {
			technique = strings.ToUpper(strings.ReplaceAll(suffix, ".", "/"))
			continue
		}
		if tactic == "" && !strings.HasPrefix(suffix, "t") {
			tactic = strings.ReplaceAll(suffix, "_", "-")
		}
	}
	return tactic, technique
}
