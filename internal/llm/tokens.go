package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts prompt tokens for a model family.
type TokenCounter struct {
	once  sync.Once
	codec tokenizer.Codec
	err   error
	enc   tokenizer.Encoding
}

// NewTokenCounter picks the encoding used by model.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{enc: encodingFor(model)}
}

// encodingFor maps model names to encodings: o200k_base for gpt-4o, gpt-4.1,
// gpt-5 and the o-series; cl100k_base for older gpt-4 and gpt-3.5.
func encodingFor(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"), strings.HasPrefix(model, "gpt-5"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) (int, error) {
	c.once.Do(func() {
		c.codec, c.err = tokenizer.Get(c.enc)
	})
	if c.err != nil {
		return 0, fmt.Errorf("failed to get tokenizer encoding: %w", c.err)
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode prompt: %w", err)
	}
	return len(ids), nil
}
