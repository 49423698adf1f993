package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stylepub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "source: styleguide.md\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "styleguide.md", cfg.Source)
	require.Equal(t, "docs", cfg.Output)
	require.Equal(t, "linear", cfg.Style)
	require.Equal(t, "styleguide", cfg.Title)
	require.Equal(t, "main", cfg.Git.PrimaryBranch)
	require.Equal(t, "gh-pages", cfg.Git.PublishBranch)
	require.Equal(t, "origin", cfg.Git.Remote)
	require.Equal(t, "docs", cfg.Git.CommitMessage)
	require.Equal(t, RenderModeAuto, cfg.Generator.Mode)
	require.Equal(t, "docco", cfg.Generator.Command)
	require.Equal(t, "//", cfg.Generator.CommentPrefix)
	require.Equal(t, 2*time.Second, cfg.Watch.DebounceDuration())
	require.Zero(t, cfg.Watch.IntervalDuration())
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("STYLEPUB_TEST_BRANCH", "pages")
	path := writeConfig(t, "git:\n  publish_branch: ${STYLEPUB_TEST_BRANCH}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "pages", cfg.Git.PublishBranch)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsSameBranches(t *testing.T) {
	path := writeConfig(t, "git:\n  primary_branch: main\n  publish_branch: main\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must differ")
}

func TestLoad_RejectsUnsafeOutput(t *testing.T) {
	for _, output := range []string{".", "..", "../elsewhere", "/tmp/out"} {
		path := writeConfig(t, "output: \""+output+"\"\n")
		_, err := Load(path)
		require.Error(t, err, "output %q should be rejected", output)
	}
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "generator:\n  mode: hugo\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown generator mode")
}

func TestLoad_RejectsBadDebounce(t *testing.T) {
	path := writeConfig(t, "watch:\n  debounce: soon\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stylepub.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	// Generated file must load cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gh-pages", cfg.Git.PublishBranch)
}

func TestResolveEffectiveRenderMode(t *testing.T) {
	cfg := &Config{Generator: GeneratorConfig{Mode: RenderModeExternal}}
	require.Equal(t, RenderModeExternal, ResolveEffectiveRenderMode(cfg))

	t.Setenv("STYLEPUB_FORCE_NATIVE", "1")
	require.Equal(t, RenderModeNative, ResolveEffectiveRenderMode(cfg))

	t.Setenv("STYLEPUB_FORCE_NATIVE", "")
	t.Setenv("STYLEPUB_FORCE_EXTERNAL", "1")
	require.Equal(t, RenderModeExternal, ResolveEffectiveRenderMode(&Config{Generator: GeneratorConfig{Mode: RenderModeNative}}))

	t.Setenv("STYLEPUB_FORCE_EXTERNAL", "")
	require.Equal(t, RenderModeAuto, ResolveEffectiveRenderMode(nil))
}
