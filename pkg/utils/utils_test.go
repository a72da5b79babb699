package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "^GSPC", NormalizeSymbol("^gspc"))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, UniqueStrings([]string{"AAPL", "MSFT", "AAPL", "TSLA", "MSFT"}))
	assert.Empty(t, UniqueStrings(nil))
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestPeriodToDays(t *testing.T) {
	tests := []struct {
		period string
		want   int
	}{
		{"1m", 30},
		{"3m", 90},
		{"1y", 365},
		{"5y", 0},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodToDays(tt.period))
		})
	}
}

func TestSetLocation(t *testing.T) {
	require.NoError(t, SetLocation("Europe/Madrid"))
	assert.Equal(t, "Europe/Madrid", TimeNow().Location().String())

	assert.Error(t, SetLocation("Not/AZone"))
	assert.Equal(t, time.UTC, GetLocation())
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "\\*bold\\* \\_x\\_", EscapeMarkdown("*bold* _x_"))
}
