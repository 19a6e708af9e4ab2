package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		line   string
		want   int
		wantOK bool
	}{
		{"two_decimals", "Heart rate: 75.00", 75, true},
		{"rounds_up", "Heart rate: 75.6", 76, true},
		{"rounds_half_up", "Heart rate: 75.5", 76, true},
		{"rounds_down", "Heart rate: 75.4", 75, true},
		{"integer", "Heart rate: 120", 120, true},
		{"no_space", "Heart rate:64", 64, true},
		{"surrounding_whitespace", "  Heart rate:   81.2 \r", 81, true},
		{"embedded_in_text", "[12] Heart rate: 99.9 bpm", 100, true},
		{"zero", "Heart rate: 0.00", 0, true},
		{"beat_marker", "Beat!", 0, false},
		{"empty", "", 0, false},
		{"letters", "Heart rate: abc", 0, false},
		{"too_many_dots", "Heart rate: 1.2.3", 1, true},
		{"repeated_decimals", "Heart rate: 75.00.1", 75, true},
		{"leading_dot", "Heart rate: .5", 1, true},
		{"trailing_dot", "Heart rate: 72.", 72, true},
		{"lone_dot", "Heart rate: .", 0, false},
		{"wrong_label", "heart rate: 70", 0, false},
		{"absurd_value", "Heart rate: 99999999999999999999", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.line)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got.HeartRate)
		})
	}
}

func TestFramerAndParser_ChunkedStream(t *testing.T) {
	t.Parallel()

	f := NewFramer(DefaultMaxLineBytes)
	var readings []int
	for _, chunk := range []string{"Heart ra", "te: 88.00\nHeart rate: 95", ".00\n"} {
		for _, line := range f.Feed(chunk) {
			if r, ok := Parse(line); ok {
				readings = append(readings, r.HeartRate)
			}
		}
	}
	assert.Equal(t, []int{88, 95}, readings)
}
