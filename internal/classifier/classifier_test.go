package classifier

import (
	"math/rand/v2"
	"testing"
	"time"

	"neurocalm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	t.Parallel()

	c := New()
	cases := []struct {
		hr   int
		want models.StressLevel
	}{
		{-5, models.StressNoData},
		{0, models.StressNoData},
		{1, models.StressNormal},
		{79, models.StressNormal},
		{80, models.StressMild},
		{120, models.StressMild},
		{121, models.StressHigh},
		{220, models.StressHigh},
	}
	for _, tc := range cases {
		got := c.Classify(tc.hr, 98)
		assert.Equal(t, tc.want, got.StressLevel, "hr=%d", tc.hr)
		assert.Contains(t, Suggestions(tc.want), got.Suggestion, "hr=%d", tc.hr)
		assert.Equal(t, 98, got.SpO2)
		assert.Equal(t, tc.hr, got.HeartRate)
	}
}

func TestClassify_ReasonEmbedsValue(t *testing.T) {
	t.Parallel()

	c := New()
	assert.Equal(t, "Arduino/ESP32 not connected or sensor data invalid.", c.Classify(0, 98).Reason)
	assert.Equal(t, "Heart rate (72 BPM) is within the normal resting range.", c.Classify(72, 98).Reason)
	assert.Equal(t, "Heart rate is moderately elevated (95 BPM).", c.Classify(95, 98).Reason)
	assert.Equal(t, "Heart rate is significantly high (130 BPM) indicating stress.", c.Classify(130, 98).Reason)
}

func TestClassify_SpO2DoesNotAffectCategory(t *testing.T) {
	t.Parallel()

	c := New()
	for _, spo2 := range []int{80, 90, 100} {
		assert.Equal(t, models.StressMild, c.Classify(100, spo2).StressLevel)
	}
}

func TestClassify_CategoryAndReasonDeterministic(t *testing.T) {
	t.Parallel()

	c := New()
	first := c.Classify(101, 97)
	for i := 0; i < 50; i++ {
		got := c.Classify(101, 97)
		assert.Equal(t, first.StressLevel, got.StressLevel)
		assert.Equal(t, first.Reason, got.Reason)
	}
}

func TestClassify_SeededDrawIsReproducible(t *testing.T) {
	t.Parallel()

	a := New(WithRand(rand.New(rand.NewPCG(1, 2))))
	b := New(WithRand(rand.New(rand.NewPCG(1, 2))))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Classify(130, 98).Suggestion, b.Classify(130, 98).Suggestion)
	}
}

func TestClassify_DrawCoversPool(t *testing.T) {
	t.Parallel()

	c := New(WithRand(rand.New(rand.NewPCG(7, 7))))
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seen[c.Classify(100, 98).Suggestion] = true
	}
	assert.Len(t, seen, len(Suggestions(models.StressMild)))
}

func TestClassify_UsesClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	c := New(WithClock(func() time.Time { return at }))
	assert.Equal(t, at, c.Classify(70, 98).AnalyzedAt)
}

func TestSuggestions_FallbackAndCopy(t *testing.T) {
	t.Parallel()

	unknown := Suggestions(models.StressUnknown)
	require.Equal(t, Suggestions(models.StressNormal), unknown)

	unknown[0] = "mutated"
	assert.NotEqual(t, "mutated", Suggestions(models.StressNormal)[0])
	assert.Contains(t, Suggestions(models.StressNormal), New().Suggest(models.StressUnknown))
}

func TestDisconnected(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	res := New(WithClock(func() time.Time { return at })).Disconnected(0, 97)
	assert.Equal(t, models.StressNoData, res.StressLevel)
	assert.Equal(t, "Device disconnected or no heartbeat detected.", res.Reason)
	assert.Equal(t, "Please connect the ESP32 device and ensure sensor placement.", res.Suggestion)
	assert.Equal(t, 97, res.SpO2)
	assert.Equal(t, at, res.AnalyzedAt)
}
