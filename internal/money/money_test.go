package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-oja/internal/money"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		major    int64
		expected int64
	}{
		{"zero", 0, 0},
		{"one", 1, 100},
		{"order total", 5000, 500000},
		{"large", 9_999_999, 999_999_900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, money.ToMinorUnits(tt.major))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// toMinorUnits(toMajorUnits(x)) == x for every non-negative minor amount
	// that is a whole number of major units.
	for _, minor := range []int64{0, 100, 500000, 123400, 999_999_900} {
		major, err := money.ToMajorUnits(minor)
		require.NoError(t, err)
		assert.Equal(t, minor, money.ToMinorUnits(major))
	}
}

func TestToMajorUnitsRejectsFractional(t *testing.T) {
	_, err := money.ToMajorUnits(150)
	require.Error(t, err)

	_, err = money.ToMajorUnits(99)
	require.Error(t, err)
}

func TestMajorUnitsTruncated(t *testing.T) {
	assert.Equal(t, int64(1), money.MajorUnitsTruncated(150))
	assert.Equal(t, int64(5000), money.MajorUnitsTruncated(500000))
}
