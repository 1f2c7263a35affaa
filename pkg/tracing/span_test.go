package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "decrypt", "trace-1")
	_, load := StartChildSpan(ctx, "load_model")
	load.SetAttr("model_id", "abc")
	load.End()
	_, search := StartChildSpan(ctx, "search")
	search.End()
	root.End()

	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "load_model", children[0].Name)
	assert.Equal(t, "trace-1", children[1].TraceID)
	v, ok := children[0].Attr("model_id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Same(t, root, SpanFromContext(ctx))
}

func TestChildWithoutParentStartsTrace(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.NotEmpty(t, span.TraceID)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLogWritesEverySpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "decrypt", "")
	_, child := StartChildSpan(ctx, "persist_run")
	child.End()
	root.End()
	root.Log(logger)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "span=persist_run")
	assert.Contains(t, out, "depth=1")
}
