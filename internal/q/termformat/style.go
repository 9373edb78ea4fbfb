package termformat

const (
	ansiReset   = "\x1b[0m"
	ansiReverse = "\x1b[7m"
	ansiBold    = "\x1b[1m"
	ansiFaint   = "\x1b[2m"
)

// Reverse renders s in reverse video (swapped foreground and background).
func Reverse(s string) string {
	return ansiReverse + s + ansiReset
}

// Bold renders s in bold.
func Bold(s string) string {
	return ansiBold + s + ansiReset
}

// Faint renders s dimmed.
func Faint(s string) string {
	return ansiFaint + s + ansiReset
}
