package executor

import (
	"fmt"
	"strings"
)

// CheckPolicy returns an error when text contains any blocked pattern.
func CheckPolicy(text string, blockedPatterns []string) error {
	for _, pattern := range blockedPatterns {
		if pattern != "" && strings.Contains(text, pattern) {
			return fmt.Errorf("blocked by policy: contains %q (remove it from execution.blocked_patterns in bugzero.yaml if intended)", pattern)
		}
	}
	return nil
}
