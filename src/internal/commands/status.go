package commands

import (
	"strings"
	"time"

	"github.com/dns-browser/dns-browser/src/internal/log"
)

// reporter is implemented by anything that contributes to the periodic status report.
type reporter interface {
	Name() string
	Report(resetCounters bool) string
}

// nextInterval returns the duration to the next multiple of interval. If now is 00:01:17
// and interval is 30s the result is 13s.
func nextInterval(now time.Time, interval time.Duration) time.Duration {
	return now.Truncate(interval).Add(interval).Sub(now)
}

// statusReport logs one line per reporter line, prefixed with what and the reporter name.
func statusReport(what string, startTime time.Time, resetCounters bool, reporters []reporter) {
	log.Infof("%s Up: %s", what, time.Since(startTime).Truncate(time.Second))
	for _, r := range reporters {
		for _, line := range strings.Split(r.Report(resetCounters), "\n") {
			if line != "" {
				log.Infof("%s %s: %s", what, r.Name(), line)
			}
		}
	}
}
