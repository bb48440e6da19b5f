package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithFields(context.Background(), "requestId", "abc")
	ctx = WithFields(ctx, "userId", "u1")
	FromContext(ctx).Infow("moved card", "cardId", "c1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "abc", fields["requestId"])
		assert.Equal(t, "u1", fields["userId"])
		assert.Equal(t, "c1", fields["cardId"])
	}
}

func TestFromContextWithoutFields(t *testing.T) {
	assert.Equal(t, zap.S(), FromContext(context.Background()))
}

func TestWithFieldsDoesNotLeakBetweenSiblings(t *testing.T) {
	parent := WithFields(context.Background(), "requestId", "abc")
	a := WithFields(parent, "userId", "a")
	b := WithFields(parent, "userId", "b")

	assert.Equal(t, []interface{}{"requestId", "abc", "userId", "a"}, fieldsFrom(a))
	assert.Equal(t, []interface{}{"requestId", "abc", "userId", "b"}, fieldsFrom(b))
}
