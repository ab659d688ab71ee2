package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"plain", "1500", f(1500)},
		{"dollar sign and commas", "$1,234,567.89", f(1234567.89)},
		{"million suffix M", "$1.2M", f(1200000)},
		{"million suffix MM", "45.5MM", f(45500000)},
		{"million word", "1.5 million", f(1500000)},
		{"parenthesized negative", "(2,500)", f(-2500)},
		{"sentinel dash", "-", nil},
		{"sentinel n/a", "N/A", nil},
		{"sentinel tbd", "TBD", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.raw)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.InDelta(t, *tt.want, *got, 0.001)
			}
		})
	}
}

func TestParseMoney_GarbageErrors(t *testing.T) {
	got, err := ParseMoney("call broker")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestParseCapRate_Idempotent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"explicit percent", "5.5%", 0.055},
		{"bare percentage magnitude", "5.5", 0.055},
		{"already decimal", "0.055", 0.055},
		{"decimal with percent sign", "0.055%", 0.00055},
		{"at cutoff converts", "0.3", 0.003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCapRate(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestParseOccupancy(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"95%", 0.95},
		{"95", 0.95},
		{"0.95", 0.95},
		{"1.0", 1.0}, // full occupancy as decimal, below the 1.5 cutoff
		{"100", 1.0},
	}
	for _, tt := range tests {
		got, err := ParseOccupancy(tt.raw)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, tt.want, *got, 1e-9)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"03/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"3/5/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"Mar 15, 2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"Jan 2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", *got)
		})
	}

	got, err := ParseDate("--")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDate("sometime soon")
	assert.Error(t, err)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"1987", i(1987)},
		{"1987 (reno 2019)", i(1987)},
		{"Built 2001", i(2001)},
		{"N/A", nil},
		{"vintage", nil},
	}
	for _, tt := range tests {
		got := ParseYear(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "raw %q", tt.raw)
		} else {
			require.NotNil(t, got, "raw %q", tt.raw)
			assert.Equal(t, *tt.want, *got)
		}
	}
}

func TestParseCount(t *testing.T) {
	got, err := ParseCount("1,250")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1250, *got)

	got, err = ParseCount("unk")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIsSentinel(t *testing.T) {
	for _, s := range []string{"", "-", "--", "—", "n/a", "NA", " Pending ", "Unknown", "nm", "TBD"} {
		assert.True(t, IsSentinel(s), "%q should be a sentinel", s)
	}
	for _, s := range []string{"0", "none of the above", "5.5%"} {
		assert.False(t, IsSentinel(s), "%q should not be a sentinel", s)
	}
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
