package llmcomplete

import "strings"

// Chat tags understood by Qwen-family models. Writers type UserTag and EndTag into the document (the editor has keys for them) to mark the
// instruction that KindTemplate pins at the top of every prompt.
const (
	UserTag      = "<|im_start|> user"
	EndTag       = "<|im_end|>"
	assistantTag = "<|im_start|> assistant\n"
)

const defaultChatSystemPrompt = "Continue the user's text from exactly where it stops. Reply with the continuation only, without quoting or repeating the text."

// tail returns the last n runes of s. n <= 0 returns s.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// head returns the first n runes of s. n <= 0 returns s.
func head(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func basePrompt(system, prefix string, window int) string {
	return system + tail(prefix, window)
}

// splitUserTurn finds the last user turn in prefix (from the user tag through the first end tag after it) and returns it along with the text that
// follows it. If there is no complete user turn, turn is empty and rest is prefix.
func splitUserTurn(prefix string) (turn, rest string) {
	start := strings.LastIndex(prefix, UserTag)
	if start < 0 {
		return "", prefix
	}
	end := strings.Index(prefix[start:], EndTag)
	if end < 0 {
		return "", prefix
	}
	end += start + len(EndTag)
	return prefix[start:end], prefix[end:]
}

// templatePrompt wraps prefix in chat tags: the system prompt, the pinned user turn (never cut by the window), the assistant header, then the window of
// what the writer has typed since.
func templatePrompt(system, prefix string, window int) string {
	turn, rest := splitUserTurn(prefix)
	rest = strings.TrimPrefix(rest, "\n")

	var b strings.Builder
	b.WriteString(system)
	if turn != "" {
		b.WriteString(turn)
		b.WriteString("\n")
	}
	b.WriteString(assistantTag)
	b.WriteString(tail(rest, window))
	return b.String()
}
