package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskID(t *testing.T) {
	assert.Equal(t, "-", AskIDFromContext(context.Background()))

	ctx := WithAskID(context.Background(), "abc")
	assert.Equal(t, "abc", AskIDFromContext(ctx))

	assert.Equal(t, "-", AskIDFromContext(WithAskID(context.Background(), "")))
}
