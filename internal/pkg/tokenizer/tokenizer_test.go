package tokenizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	n, err := CountTokens("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ko, err := CountTokens("요즘 너무 힘들어")
	require.NoError(t, err)
	assert.Positive(t, ko)
}

func TestCountTexts(t *testing.T) {
	a, _ := CountTokens("hello world")
	b, _ := CountTokens("안녕하세요")
	total, err := CountTexts(t.Context(), "hello world", "안녕하세요")
	require.NoError(t, err)
	assert.Equal(t, a+b, total)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = CountTexts(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
