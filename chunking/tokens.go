package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text length in model tokens
type TokenCounter interface {
	Count(text string) int
}

const tokenizerEncoding = "cl100k_base"

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a TokenCounter backed by the cl100k_base
// encoding, the tokenizer used by the OpenAI embedding models.
func NewTiktokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(tokenizerEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", tokenizerEncoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (t *tiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// HeuristicCounter estimates tokens at roughly four characters per token.
// It is the fallback when the tiktoken encoding cannot be loaded, and is
// handy for deterministic tests.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return utf8.RuneCountInString(text)/4 + 1
}
