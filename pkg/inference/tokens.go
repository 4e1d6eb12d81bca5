package inference

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	minCompletionTokens = 4096
	maxCompletionTokens = 8192 * 4
)

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.EncodingForModel("gpt-4-0613")
})

// CountTokens counts text with the cl100k encoding. When the encoding cannot
// be loaded it falls back to the usual four-characters-per-token estimate.
func CountTokens(text string) int {
	tkm, err := encoding()
	if err != nil {
		return len(text)/4 + 1
	}
	return len(tkm.Encode(text, nil, nil))
}

// Budget returns the completion token limit for req: its own MaxTokens when set,
// otherwise twice the prompt size clamped to a sane range.
func Budget(req Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	n := int64(CountTokens(req.SystemPrompt + req.Prompt))
	return min(max(n*2, minCompletionTokens), maxCompletionTokens)
}
