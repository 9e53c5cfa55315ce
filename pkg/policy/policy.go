// Package policy provides purge.PolicyProvider implementations: a fixed
// snapshot and a watcher that follows the configuration file.
package policy

import "github.com/marmos91/artifactguard/pkg/purge"

// Static always returns the same policy.
type Static struct {
	policy purge.Policy
}

// NewStatic returns a provider for p.
func NewStatic(p purge.Policy) *Static {
	return &Static{policy: p}
}

func (s *Static) CurrentPolicy() purge.Policy { return s.policy }
