package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatcher_RejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := NewMatcher([]string{"^/de/", "[unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unclosed")
}

func TestMatcher_IsExcluded(t *testing.T) {
	t.Parallel()

	m, err := NewMatcher([]string{"^/de/", "^/fr/", "^/zh-CN/"})
	require.NoError(t, err)

	tests := []struct {
		url      string
		excluded bool
	}{
		{"https://docs.example.com/de/start", true},
		{"https://docs.example.com/fr/accueil", true},
		{"https://docs.example.com/zh-CN/", true},
		{"https://docs.example.com/en/start", false},
		{"https://docs.example.com/", false},
		{"https://docs.example.com/devices", false},
		{"https://docs.example.com/page?lang=/de/", false},
		{"://not-a-url", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.excluded, m.IsExcluded(tt.url), "url %q", tt.url)
	}
}

func TestMatcher_EmptyPatternsExcludeNothing(t *testing.T) {
	t.Parallel()

	m, err := NewMatcher(nil)
	require.NoError(t, err)
	assert.False(t, m.IsExcluded("https://example.com/de/anything"))
}

func TestMatcher_DefaultPolicyPatternsCompile(t *testing.T) {
	t.Parallel()

	// Every pattern shipped in the policy table must compile.
	_, err := NewMatcher(excludePathsFor("host-with-no-policy.example"))
	require.NoError(t, err)
	for host := range policies.Hosts {
		_, err := NewMatcher(excludePathsFor(host))
		require.NoErrorf(t, err, "host %s", host)
	}
}
