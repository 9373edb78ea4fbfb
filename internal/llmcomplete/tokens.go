package llmcomplete

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	encOnce sync.Once
	enc     tokenizer.Codec
)

// CountTokens returns the number of o200k_base tokens in text. Models served by other vendors tokenize differently, so this is an estimate; it falls
// back to len(text)/4 if the encoder is unavailable.
func CountTokens(text string) int {
	encOnce.Do(func() {
		enc, _ = tokenizer.Get(tokenizer.O200kBase)
	})
	if enc == nil {
		return len(text) / 4
	}
	count, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
