package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronosec/internal/catalog"
	"chronosec/internal/timeline"
)

func TestPadString(t *testing.T) {
	assert.Equal(t, "ab   ", PadString("ab", 5))
	assert.Equal(t, "日本 ", PadString("日本", 5))
	assert.Equal(t, "toolong", PadString("toolong", 3))
}

func TestTableFitsWidth(t *testing.T) {
	tbl := Table{
		Headers: []string{"ID", "TEXT"},
		Rows: [][]string{
			{"a", "short"},
			{"b", strings.Repeat("x", 200)},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf, 40))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  TEXT", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "--  ----"))
	assert.Equal(t, "a   short", lines[2])
	for _, l := range lines {
		assert.LessOrEqual(t, runewidth.StringWidth(l), 40, l)
	}
	assert.True(t, strings.HasSuffix(lines[3], "…"))
}

func TestWriteTimeline(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tl := timeline.Build("ransomware", start, "nist")

	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, tl, map[string]bool{"detect": true}, 120))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Ransomware Attack · NIST Cybersecurity Framework · start 2024-01-01 09:00 UTC"))
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "Evidence Collection")
	assert.Contains(t, out, "T+14d")
	// heading, blank line, header, rule, one row per step
	assert.Equal(t, 4+len(tl.Steps), strings.Count(out, "\n"))
}

func TestWriteTimelineDefaultFramework(t *testing.T) {
	tl := timeline.Build("unknown", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "")
	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, tl, nil, 100))
	assert.True(t, strings.HasPrefix(buf.String(), "unknown · General · "))
}

func TestRulesAndCatalogTables(t *testing.T) {
	rt := RulesTable(timeline.Rules("gdpr"))
	require.NotEmpty(t, rt.Rows)
	assert.Equal(t, []string{"detect", "+0", "identify", "Initial Detection"}, rt.Rows[0])
	assert.Equal(t, "+72h", rt.Rows[4][1])

	ct := CatalogTable(catalog.Frameworks())
	assert.Len(t, ct.Rows, 7)
}
