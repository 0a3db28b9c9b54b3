package usecase

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vitos/stratofi/internal/domain"
)

func TestFormatMillions(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "$0.0M"},
		{456789, "$0.5M"},
		{3570289, "$3.6M"},
		{127_500_000, "$127.5M"},
		{1_249_999, "$1.2M"},
		{1_250_000, "$1.3M"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatMillions(decimal.NewFromFloat(tt.amount)))
	}
}

func TestSumTVL(t *testing.T) {
	total := SumTVL(FallbackVaults())
	assert.True(t, total.Equal(decimal.NewFromInt(4539539)), "got %s", total)
}

func TestSumTVL_PanicsOnNaN(t *testing.T) {
	assert.Panics(t, func() {
		SumTVL([]domain.VaultEntry{{TotalValueLockedUSD: math.NaN()}})
	})
}
