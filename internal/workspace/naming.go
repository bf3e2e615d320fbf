package workspace

import (
	"fmt"
	"time"
)

// DefaultBranchPrefix is used when no prefix is configured.
const DefaultBranchPrefix = "conflict-detection"

// NamingStrategy generates ephemeral branch names of the form
// "<prefix>-<unix milliseconds>".
type NamingStrategy struct {
	prefix string
	now    func() time.Time
}

// NewNamingStrategy creates a naming strategy. An empty prefix means
// DefaultBranchPrefix; a nil clock means time.Now.
func NewNamingStrategy(prefix string, now func() time.Time) *NamingStrategy {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &NamingStrategy{prefix: prefix, now: now}
}

// BranchName returns a fresh branch name.
// Example: "conflict-detection-1718000000123"
func (n *NamingStrategy) BranchName() string {
	return fmt.Sprintf("%s-%d", n.prefix, n.now().UnixMilli())
}

// Prefix returns the branch prefix.
func (n *NamingStrategy) Prefix() string {
	return n.prefix
}
