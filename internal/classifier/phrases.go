package classifier

import "neurocalm/internal/models"

var suggestions = map[models.StressLevel][]string{
	models.StressNormal: {
		"Maintain calm breathing and continue your routine.",
		"Your vitals are stable. Keep up the good work.",
		"Relaxed state detected. Perfect for focused tasks.",
	},
	models.StressMild: {
		"Take slow deep breaths for 30 seconds.",
		"Consider a quick stretching break to release tension.",
		"Drink some water and lower your shoulders.",
		"Try a 4-7-8 breathing exercise.",
	},
	models.StressHigh: {
		"Pause your activity immediately and rest.",
		"Deep slow breathing is recommended to lower heart rate.",
		"Take a short walk or step away from the current task.",
		"Focus on exhaling longer than you inhale.",
	},
	models.StressNoData: {
		"Reconnect the device and try again.",
		"Check the wiring and power supply of the ESP32.",
		"Ensure the sensor is properly placed on the finger.",
	},
}

// Suggestions returns the phrase pool for level, falling back to the
// Normal pool. The returned slice is a copy.
func Suggestions(level models.StressLevel) []string {
	pool, ok := suggestions[level]
	if !ok {
		pool = suggestions[models.StressNormal]
	}
	return append([]string(nil), pool...)
}
