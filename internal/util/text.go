package util

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// SplitFields splits line on the first n-1 separators. The last field keeps
// the remainder, separators included. ok is false when fewer than n fields exist.
func SplitFields(line, sep string, n int) ([]string, bool) {
	parts := strings.SplitN(line, sep, n)
	if len(parts) < n {
		return parts, false
	}
	return parts, true
}

func TrackTime(name string, start time.Time) {
	log.Debugf("%s took %d ms", name, time.Since(start).Milliseconds())
}
