package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplayUnits(t *testing.T) {
	cases := []struct {
		base    string
		display string
	}{
		{"1000000000000000000000000", "1.0000"},
		{"12500000000000000000000000", "12.5000"},
		{"0", "0.0000"},
		{"1250000000000000000000", "0.0012"},
	}
	for _, tc := range cases {
		display, err := ToDisplayUnits(tc.base)
		require.NoError(t, err)
		assert.Equal(t, tc.display, display)
	}

	_, err := ToDisplayUnits("not-a-number")
	assert.Error(t, err)
}

func TestToBaseUnits(t *testing.T) {
	base, err := ToBaseUnits("2.5")
	require.NoError(t, err)
	assert.Equal(t, "2500000000000000000000000", base)

	_, err = ToBaseUnits("")
	assert.Error(t, err)
}
