package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jorgenskogmo/webpub/internal/config"
	tsite "github.com/jorgenskogmo/webpub/internal/testing"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv("WEBPUB_LOG_LEVEL", "warn")
	require.Equal(t, slog.LevelWarn, parseLogLevel(false))

	t.Setenv("WEBPUB_LOG_LEVEL", "bogus")
	require.Equal(t, slog.LevelInfo, parseLogLevel(false))
}

func TestInitThenBuild(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFile)

	require.NoError(t, RunInit(cfgPath, false))
	require.FileExists(t, cfgPath)
	require.FileExists(t, filepath.Join(dir, "content", "index.md"))

	require.Error(t, RunInit(cfgPath, false))
	require.NoError(t, RunInit(cfgPath, true))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.NoError(t, runOnce(context.Background(), cfg))

	html, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), "Welcome")
}

func TestRunOnce_UnknownPluginIsConfigError(t *testing.T) {
	cfg := config.Default()
	cfg.ContentDirectory = t.TempDir()
	cfg.OutputDirectory = t.TempDir()
	cfg.Plugins = []config.PluginConfig{{Name: "nope"}}

	require.Error(t, runOnce(context.Background(), cfg))
}

func TestDevCmd_Apply(t *testing.T) {
	cfg := config.Default()
	(&DevCmd{Port: 4000, Open: true, NoServer: true}).apply(cfg)

	require.Equal(t, 4000, cfg.DevServerPort)
	require.True(t, cfg.OpenBrowser)
	require.False(t, cfg.DevServerEnabled)
}

func TestBuildCmd_CleanRemovesStaleOutput(t *testing.T) {
	site := tsite.NewSite(t).
		Page("", "---\ntitle: Home\n---\nhello").
		Page("docs", "---\ntitle: Docs\n---\nguide").
		WithManifest()
	path := site.WriteConfigFile()

	stale := filepath.Join(site.Config().OutputDirectory, "old", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o750))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))

	cmd := &BuildCmd{Clean: true}
	require.NoError(t, cmd.Run(&Global{Logger: slog.Default()}, &CLI{Config: path}))

	site.Output().
		AssertPage("/").
		AssertPage("/docs/").
		AssertNoPage("/old/").
		AssertFileContains("docs/index.html", "guide").
		AssertFileContains("content.json", `"/docs/"`)
}
