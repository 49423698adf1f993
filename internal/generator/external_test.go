package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/styleguide-tools/stylepub/internal/config"
)

func TestExternalRender_MissingBinary(t *testing.T) {
	renderer := NewExternal("stylepub-no-such-generator", "linear")
	err := renderer.Render(t.Context(), "styleguide.md", t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found on PATH")
}

func TestExternalRender_FailingGenerator(t *testing.T) {
	// A fake generator that always fails and complains on stderr.
	dir := t.TempDir()
	script := filepath.Join(dir, "fakegen")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'bad layout' >&2\nexit 2\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	renderer := NewExternal("fakegen", "linear")
	err := renderer.Render(t.Context(), "styleguide.md", t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad layout")
}

func TestExternalRender_Success(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fakegen")
	// Mimics generate(style, source) -> output directory.
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nwhile [ $# -gt 2 ]; do\n  case $1 in\n    --output) out=$2; shift 2;;\n    *) shift;;\n  esac\ndone\nmkdir -p \"$out\" && echo '<html></html>' > \"$out/index.html\"\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	outputDir := filepath.Join(t.TempDir(), "docs")
	renderer := NewExternal("fakegen", "linear")
	require.NoError(t, renderer.Render(t.Context(), "styleguide.md", outputDir))

	_, err := os.Stat(filepath.Join(outputDir, "index.html"))
	require.NoError(t, err)
}

func TestNew_ModeSelection(t *testing.T) {
	cfg := &config.Config{
		Title: "g",
		Generator: config.GeneratorConfig{
			Mode:          config.RenderModeNative,
			Command:       "docco",
			CommentPrefix: "//",
		},
	}
	_, ok := New(cfg).(*Native)
	require.True(t, ok)

	cfg.Generator.Mode = config.RenderModeExternal
	_, ok = New(cfg).(*External)
	require.True(t, ok)

	// Auto falls back to native when the binary is absent.
	cfg.Generator.Mode = config.RenderModeAuto
	cfg.Generator.Command = "stylepub-no-such-generator"
	_, ok = New(cfg).(*Native)
	require.True(t, ok)
}
