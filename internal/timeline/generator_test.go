package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronosec/internal/catalog"
	"chronosec/pkg/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ids(steps []models.TimelineStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func find(t *testing.T, steps []models.TimelineStep, id string) models.TimelineStep {
	t.Helper()
	for _, s := range steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("step %q not found in %v", id, ids(steps))
	return models.TimelineStep{}
}

func allFrameworks() []string {
	out := []string{"", "unknown_framework"}
	for _, f := range catalog.Frameworks() {
		out = append(out, f.ID)
	}
	return out
}

func allIncidentTypes() []string {
	out := []string{"", "unknown"}
	for _, it := range catalog.IncidentTypes() {
		out = append(out, it.ID)
	}
	return out
}

func TestGenerateInvariants(t *testing.T) {
	starts := []time.Time{
		start,
		time.Unix(0, 0).UTC(),
		time.Date(9999, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, origin := range starts {
		for _, fw := range allFrameworks() {
			for _, it := range allIncidentTypes() {
				name := fmt.Sprintf("%s %s/%s", origin.Format(time.RFC3339), fw, it)
				steps := Generate(it, origin, fw)
				require.NotEmpty(t, steps, name)

				assert.Equal(t, DetectStepID, steps[0].ID, name)
				assert.Equal(t, models.StepIdentify, steps[0].Type, name)
				assert.True(t, steps[0].Time.Equal(origin), name)

				seen := map[string]bool{}
				for i, s := range steps {
					assert.False(t, seen[s.ID], "%s duplicate id %s", name, s.ID)
					seen[s.ID] = true
					assert.True(t, s.Type.Valid(), "%s bad type on %s", name, s.ID)
					assert.False(t, s.Time.Before(origin), "%s %s before start", name, s.ID)
					if i > 0 {
						assert.False(t, s.Time.Before(steps[i-1].Time), "%s not sorted at %s", name, s.ID)
					}
				}
				assert.NoError(t, Validate(steps, origin), name)
			}
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, fw := range allFrameworks() {
		a := Generate("data_breach", start, fw)
		b := Generate("data_breach", start, fw)
		assert.Equal(t, a, b, fw)
	}
}

func TestGenerateReturnsFreshSlices(t *testing.T) {
	a := Generate("phishing", start, FrameworkGDPR)
	a[1].Title = "changed"
	b := Generate("phishing", start, FrameworkGDPR)
	assert.Equal(t, titleInternalNotify, b[1].Title)
}

func TestUnknownFrameworkUsesDefault(t *testing.T) {
	want := Generate("malware", start, DefaultFramework)
	assert.Equal(t, want, Generate("malware", start, ""))
	assert.Equal(t, want, Generate("malware", start, "sox"))
	assert.Equal(t, []string{"detect", "internal_notify", "containment", "initial_documentation", "remediation", "stakeholder_notification", "final_report"}, ids(want))
}

func TestGDPRExample(t *testing.T) {
	steps := Generate("data_breach", start, FrameworkGDPR)
	require.Len(t, steps, 8)

	authority := find(t, steps, "authority_notification")
	assert.Equal(t, start.Add(72*time.Hour), authority.Time)
	assert.Equal(t, models.StepNotify, authority.Type)
	assert.Equal(t, "2024-01-04", authority.Time.Format("2006-01-02"))

	assert.Equal(t, "2024-01-05", find(t, steps, "data_subject_notification").Time.Format("2006-01-02"))
	assert.Equal(t, "2024-01-15", find(t, steps, "final_documentation").Time.Format("2006-01-02"))
}

func TestGDPRAuthorityNotificationAlwaysAt72Hours(t *testing.T) {
	for _, it := range allIncidentTypes() {
		s := find(t, Generate(it, start, FrameworkGDPR), "authority_notification")
		assert.Equal(t, 72*time.Hour, s.Time.Sub(start), it)
	}
}

func TestHIPAAConditionalSteps(t *testing.T) {
	cases := []struct {
		incident string
		vendor   bool
		law      bool
		media    bool
		count    int
	}{
		{"data_breach", true, true, true, 17},
		{"phishing", true, false, true, 16},
		{"ransomware", false, true, false, 15},
		{"ddos", false, false, false, 14},
		{"unknown", false, false, false, 14},
	}
	for _, tc := range cases {
		steps := Generate(tc.incident, start, FrameworkHIPAA)
		got := map[string]bool{}
		for _, s := range steps {
			got[s.ID] = true
		}
		assert.Equal(t, tc.vendor, got["vendor_notification"], tc.incident)
		assert.Equal(t, tc.law, got["law_enforcement"], tc.incident)
		assert.Equal(t, tc.media, got["media_notification"], tc.incident)
		assert.Len(t, steps, tc.count, tc.incident)
	}
}

func TestHIPAAEqualTimesKeepTableOrder(t *testing.T) {
	steps := Generate("data_breach", start, FrameworkHIPAA)
	var at45 []string
	for _, s := range steps {
		if s.Time.Equal(start.AddDate(0, 0, 45)) {
			at45 = append(at45, s.ID)
		}
	}
	assert.Equal(t, []string{"hhs_notification", "media_notification"}, at45)
	assert.Equal(t, "immediate_actions", steps[1].ID)
	assert.Equal(t, 30*time.Minute, steps[1].Time.Sub(start))
}

func TestCCPAAttorneyGeneralOnlyForDataBreach(t *testing.T) {
	for _, it := range allIncidentTypes() {
		steps := Generate(it, start, FrameworkCCPA)
		has := false
		for _, s := range steps {
			if s.ID == "ag_notification" {
				has = true
			}
		}
		assert.Equal(t, it == "data_breach", has, it)
	}
	steps := Generate("data_breach", start, FrameworkCCPA)
	assert.Equal(t, []string{"detect", "internal_notify", "containment", "initial_documentation", "remediation", "resident_notification", "ag_notification", "final_documentation"}, ids(steps))
}

func TestRuleSetSizes(t *testing.T) {
	for fw, want := range map[string]int{
		FrameworkNERCCIP: 8,
		FrameworkGDPR:    8,
		FrameworkPCIDSS:  8,
		FrameworkFERC:    8,
		FrameworkNIST:    8,
		DefaultFramework: 7,
	} {
		assert.Len(t, Generate("malware", start, fw), want, fw)
	}
}

func TestNERCCIPRegulatorNotification(t *testing.T) {
	s := find(t, Generate("ransomware", start, FrameworkNERCCIP), "regulator_notify")
	assert.Equal(t, "E-ISAC Notification", s.Title)
	assert.Equal(t, 3*time.Hour, s.Time.Sub(start))
	assert.Equal(t, start.AddDate(0, 0, 90), find(t, Generate("ransomware", start, FrameworkNERCCIP), "final_report").Time)
}

func TestDayOffsetsAreCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// Clocks move forward on 2024-03-10 in New York.
	local := time.Date(2024, 3, 9, 12, 0, 0, 0, ny)
	s := find(t, Generate("malware", local, DefaultFramework), "remediation")
	assert.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 0, ny), s.Time)
	assert.Equal(t, 23*time.Hour, s.Time.Sub(local))
}

func TestRulesIncludesDetectAndResolvesName(t *testing.T) {
	rs := Rules("nonsense")
	assert.Equal(t, DefaultFramework, rs.Framework)
	require.NotEmpty(t, rs.Rules)
	assert.Equal(t, DetectStepID, rs.Rules[0].ID)

	rs = Rules(FrameworkHIPAA)
	assert.Equal(t, FrameworkHIPAA, rs.Framework)
	assert.Len(t, rs.Rules, 17)
	rs.Rules[1].Title = "mutated"
	assert.Equal(t, "Immediate Response Actions", Rules(FrameworkHIPAA).Rules[1].Title)
}

func TestConditional(t *testing.T) {
	assert.True(t, Conditional(FrameworkHIPAA, "law_enforcement"))
	assert.True(t, Conditional(FrameworkCCPA, "ag_notification"))
	assert.False(t, Conditional(FrameworkHIPAA, "remediation"))
	assert.True(t, Applies(FrameworkGDPR, "anything", "anything"))
}

func TestOffsetString(t *testing.T) {
	assert.Equal(t, "+30m", minutes(30).String())
	assert.Equal(t, "+72h", hours(72).String())
	assert.Equal(t, "+14d", days(14).String())
	assert.Equal(t, "+0", Offset{}.String())
}

func TestBuild(t *testing.T) {
	tl := Build("phishing", start, FrameworkPCIDSS)
	assert.Equal(t, "phishing", tl.IncidentType)
	assert.Equal(t, FrameworkPCIDSS, tl.Framework)
	assert.Equal(t, start, tl.StartTime)
	assert.False(t, tl.GeneratedAt.IsZero())
	assert.Equal(t, Generate("phishing", start, FrameworkPCIDSS), tl.Steps)
}

func TestSortedIsStableCopy(t *testing.T) {
	in := []models.TimelineStep{
		{ID: "b", Time: start.Add(time.Hour)},
		{ID: "a1", Time: start},
		{ID: "a2", Time: start},
	}
	out := Sorted(in)
	assert.Equal(t, []string{"a1", "a2", "b"}, ids(out))
	assert.Equal(t, "b", in[0].ID)
}

func TestValidateRejects(t *testing.T) {
	ok := models.TimelineStep{ID: "x", Title: "X", Type: models.StepNotify, Time: start}
	assert.ErrorIs(t, Validate(nil, start), ErrEmptyTimeline)

	bad := ok
	bad.Type = "escalate"
	assert.Error(t, Validate([]models.TimelineStep{bad}, start))

	bad = ok
	bad.Time = start.Add(-time.Minute)
	assert.Error(t, Validate([]models.TimelineStep{bad}, start))

	bad = ok
	bad.ID = ""
	assert.Error(t, Validate([]models.TimelineStep{bad}, start))

	assert.Error(t, Validate([]models.TimelineStep{ok, ok}, start))
	assert.NoError(t, Validate([]models.TimelineStep{ok}, start))
}

func TestEnsureDetect(t *testing.T) {
	in := []models.TimelineStep{
		{ID: "notify", Title: "N", Type: models.StepNotify, Time: start},
		{ID: DetectStepID, Title: "Detected by EDR", Type: models.StepNotify, Time: start.Add(time.Hour)},
	}
	out := EnsureDetect(in, start)
	require.Len(t, out, 2)
	assert.Equal(t, DetectStepID, out[0].ID)
	assert.Equal(t, "Detected by EDR", out[0].Title)
	assert.Equal(t, models.StepIdentify, out[0].Type)
	assert.True(t, out[0].Time.Equal(start))
	assert.Equal(t, "notify", out[1].ID)
}
