package loader

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CleanDate parses s with format inference. Values without a zone are read
// as UTC. Any failure yields false rather than an error.
func CleanDate(s string) (t time.Time, ok bool) {
	// dateparse panics on a handful of malformed inputs.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
