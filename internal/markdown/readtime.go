package markdown

import "strings"

// wordsPerMinute is the average adult reading speed used for the estimate.
const wordsPerMinute = 200

// ReadTimeMinutes estimates reading time for the given content, rounding to
// the nearest minute with a minimum of 1.
func ReadTimeMinutes(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute/2) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
