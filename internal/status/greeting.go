package status

import "time"

// Greeting returns the salutation for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good Morning"
	case h < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

// Suggestions returns quick-pick status labels for the hour of now.
func Suggestions(now time.Time) []string {
	switch h := now.Hour(); {
	case h < 11:
		return []string{"Planning", string(Available), "Focus time"}
	case h < 17:
		return []string{"In session", "Admin tasks", "Coffee break"}
	default:
		return []string{string(Offline), "Done for today"}
	}
}
