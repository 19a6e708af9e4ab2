package telemetry

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"neurocalm/internal/models"
)

// heartRatePattern is the wire format emitted by the firmware, e.g. "Heart rate: 75.00".
var heartRatePattern = regexp.MustCompile(`Heart rate:\s*([\d.]+)`)

// Parse extracts a heart-rate reading from one telemetry line.
// Lines that do not carry a usable value (heartbeat markers, blanks, garbage)
// return ok=false; Parse never fails otherwise.
func Parse(line string) (models.Reading, bool) {
	m := heartRatePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return models.Reading{}, false
	}
	v, err := strconv.ParseFloat(numericPrefix(m[1]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > math.MaxInt32 {
		return models.Reading{}, false
	}
	return models.Reading{HeartRate: int(math.Round(v))}, true
}

// numericPrefix trims a run of digits and dots to its leading decimal
// number: "75.00.1" becomes "75.00". The result may be empty or ".".
func numericPrefix(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '.'); j >= 0 {
			return s[:i+1+j]
		}
	}
	return s
}
