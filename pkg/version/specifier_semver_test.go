package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemverRangeFallback(t *testing.T) {
	cases := []struct {
		spec    string
		version string
		want    bool
	}{
		{"^1.2", "1.9.0", true},
		{"^1.2", "2.0.0", false},
		{"~2.3", "2.3.7", true},
		{"~2.3", "2.4.0", false},
		{"1.2.0 - 1.4.0", "1.3.0", true},
		{"1.2.0 - 1.4.0", "1.5.0", false},
	}
	for _, tc := range cases {
		s, err := ParseSpecifierSet(tc.spec)
		require.NoError(t, err, tc.spec)
		assert.Equal(t, tc.want, s.Contains(tc.version), "%s contains %s", tc.spec, tc.version)
	}
}

func TestSemverRangeRejectsMalformed(t *testing.T) {
	_, err := ParseSpecifierSet("^not.a.version")
	assert.Error(t, err)
}

func TestTildeEqualsStaysPEP440(t *testing.T) {
	s, err := ParseSpecifierSet("~=1.4.2")
	require.NoError(t, err)
	assert.True(t, s.Contains("1.4.5"))
	assert.False(t, s.Contains("1.5.0"))
}
