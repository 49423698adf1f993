package generator

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/styleguide-tools/stylepub/internal/config"
)

// Renderer abstracts how the Content Document is turned into the Generated
// Output directory. This allows swapping the external literate-documentation
// binary (External) with the in-process fallback (Native) without changing
// pipeline orchestration.
type Renderer interface {
	Render(ctx context.Context, source, outputDir string) error
}

// New selects a renderer from the effective render mode. In auto mode the
// external binary wins when present on PATH.
func New(cfg *config.Config) Renderer {
	switch config.ResolveEffectiveRenderMode(cfg) {
	case config.RenderModeExternal:
		return NewExternal(cfg.Generator.Command, cfg.Style)
	case config.RenderModeNative:
		return NewNative(cfg.Title, cfg.Generator.CommentPrefix)
	default:
		if _, err := exec.LookPath(cfg.Generator.Command); err == nil {
			return NewExternal(cfg.Generator.Command, cfg.Style)
		}
		slog.Debug("Generator binary not found, using native renderer", "command", cfg.Generator.Command)
		return NewNative(cfg.Title, cfg.Generator.CommentPrefix)
	}
}
