package middleware

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// CleanInput strips markup from user-supplied display strings before they
// are stored or echoed back.
func CleanInput(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
