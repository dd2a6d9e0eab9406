package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithTrigger(ctx, "watch")
	ctx = WithStage(ctx, "render")

	require.Equal(t, LogContext{BuildID: "b-1", Trigger: "watch", Stage: "render"}, GetContext(ctx))
	require.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestStageDoesNotLeakToParent(t *testing.T) {
	parent := WithBuildID(context.Background(), "b-1")
	_ = WithStage(parent, "load")

	require.Empty(t, GetContext(parent).Stage)
}

func TestLogHelpersIncludeContext(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithStage(WithBuildID(context.Background(), "b-42"), "tree")

	InfoContext(ctx, "hello", slog.Int("pages", 3))
	DebugContext(ctx, "debugging")
	WarnContext(ctx, "careful")
	ErrorContext(context.Background(), "bare")

	out := buf.String()
	require.Contains(t, out, `msg=hello build_id=b-42 stage=tree pages=3`)
	require.Contains(t, out, "level=DEBUG msg=debugging build_id=b-42")
	require.Contains(t, out, "level=WARN msg=careful")
	require.Contains(t, out, "level=ERROR msg=bare")
}
