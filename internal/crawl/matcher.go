package crawl

import (
	"net/url"
	"regexp"

	"github.com/rotisserie/eris"
)

// Matcher reports whether a URL's path matches any of a set of exclusion
// patterns. Patterns are the same anchored regex fragments the policy table
// uses (e.g. "^/de/").
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the given patterns. Patterns come from the embedded
// policy table or operator config, so a compile failure is a configuration
// bug, not a runtime condition.
func NewMatcher(patterns []string) (*Matcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "crawl: compile exclusion pattern %q", p)
		}
		compiled = append(compiled, re)
	}
	return &Matcher{patterns: compiled}, nil
}

// IsExcluded checks whether a URL's path matches any exclusion pattern.
// Unparseable URLs are treated as excluded.
func (m *Matcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(u.Path) {
			return true
		}
	}
	return false
}
