// Package crawl manages asynchronous multi-page crawl jobs on the managed
// scraping backend: request construction with per-host exclusion policy,
// start, status, and cancel.
package crawl

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed policies.yaml
var policyYAML []byte

type policyTable struct {
	Hosts   map[string][]string `yaml:"hosts"`
	Default []string            `yaml:"default"`
}

var policies = mustLoadPolicies()

func mustLoadPolicies() policyTable {
	var t policyTable
	if err := yaml.Unmarshal(policyYAML, &t); err != nil {
		panic(fmt.Sprintf("crawl: embedded policy table invalid: %v", err))
	}
	return t
}

// excludePathsFor returns the exclusion patterns for a hostname: the host's
// own policy on an exact match, otherwise the universal default list.
func excludePathsFor(hostname string) []string {
	if patterns, ok := policies.Hosts[hostname]; ok {
		return patterns
	}
	return policies.Default
}
