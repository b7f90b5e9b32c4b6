// Package tokenizer counts tokens the way the chat model does.
package tokenizer

import (
	"context"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	once   sync.Once
	codec  tokenizer.Codec
	errGet error
)

func get() (tokenizer.Codec, error) {
	once.Do(func() {
		codec, errGet = tokenizer.Get(tokenizer.O200kBase)
	})
	return codec, errGet
}

// CountTokens returns the o200k_base token count of text.
func CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	c, err := get()
	if err != nil {
		return 0, err
	}
	return c.Count(text)
}

// CountTexts sums CountTokens over texts, stopping early if ctx is done.
func CountTexts(ctx context.Context, texts ...string) (int, error) {
	total := 0
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := CountTokens(t)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
