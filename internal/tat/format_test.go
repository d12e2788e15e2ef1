package tat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes *int64
		want    string
	}{
		{"missing", nil, "N/A"},
		{"zero", i64(0), "-"},
		{"negative", i64(-5), "N/A"},
		{"under an hour", i64(30), "30m"},
		{"fifty nine", i64(59), "59m"},
		{"exactly one hour keeps minute remainder", i64(60), "1h 0m"},
		{"hour and a half", i64(90), "1h 30m"},
		{"two hours five", i64(125), "2h 5m"},
		{"just under a day", i64(1439), "23h 59m"},
		{"exact day", i64(1440), "1d"},
		{"day and hours", i64(1500), "1d 1h"},
		{"three days", i64(4320), "3d"},
		{"exact week", i64(10080), "1w"},
		{"week and days", i64(12960), "1w 2d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMinutes(tt.minutes))
		})
	}
}

func TestParseStudyDate(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		got := ParseStudyDate("20250614", "")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("date with time", func(t *testing.T) {
		got := ParseStudyDate("20250614", "093045")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2025, 6, 14, 9, 30, 45, 0, time.UTC), *got)
	})

	t.Run("fractional seconds trimmed", func(t *testing.T) {
		got := ParseStudyDate("20250614", "093045.123")
		require.NotNil(t, got)
		assert.Equal(t, 9, got.Hour())
	})

	t.Run("garbage time falls back to midnight", func(t *testing.T) {
		got := ParseStudyDate("20250614", "zzzzzz")
		require.NotNil(t, got)
		assert.Equal(t, 0, got.Hour())
	})

	t.Run("short date rejected", func(t *testing.T) {
		assert.Nil(t, ParseStudyDate("2025", ""))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ParseStudyDate("", ""))
	})
}
