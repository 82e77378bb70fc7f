package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStart(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	got, err := ParseStart("", now)
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), got)

	got, err = ParseStart("2024-01-01T09:30:00+02:00", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 7, 30, 0, 0, time.UTC)))

	got, err = ParseStart(" 2024-01-01 09:30 ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), got)

	_, err = ParseStart("yesterday", now)
	assert.Error(t, err)
}

func TestCheckRange(t *testing.T) {
	late := time.Date(9999, 12, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, CheckRange(Generate("ransomware", late, "gdpr")))

	err := CheckRange(Generate("ransomware", late, "nerc_cip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), `"final_report"`)

	assert.NoError(t, CheckRange(Generate("ransomware", time.Unix(0, 0).UTC(), "hipaa")))
}
