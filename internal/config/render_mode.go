package config

import (
	"fmt"
	"log/slog"
	"os"
)

// RenderMode selects how the documentation generator is invoked.
type RenderMode string

const (
	// RenderModeExternal always invokes the configured external generator binary.
	RenderModeExternal RenderMode = "external"
	// RenderModeNative always uses the in-process literate renderer.
	RenderModeNative RenderMode = "native"
	// RenderModeAuto uses the external generator when its binary is on PATH,
	// falling back to the native renderer otherwise.
	RenderModeAuto RenderMode = "auto"
)

// Validate reports an error for unknown render modes.
func (m RenderMode) Validate() error {
	switch m {
	case RenderModeExternal, RenderModeNative, RenderModeAuto, "":
		return nil
	}
	return fmt.Errorf("unknown generator mode %q (want external, native or auto)", m)
}

// ResolveEffectiveRenderMode determines the final render decision honoring the
// config field while allowing environment overrides.
// Precedence:
// 1. STYLEPUB_FORCE_NATIVE=1 => native
// 2. STYLEPUB_FORCE_EXTERNAL=1 => external
// 3. generator.mode (external|native|auto)
// 4. fallback: auto
func ResolveEffectiveRenderMode(cfg *Config) RenderMode {
	if os.Getenv("STYLEPUB_FORCE_NATIVE") == "1" {
		if cfg != nil && cfg.Generator.Mode != RenderModeNative {
			slog.Info("Overriding configured generator mode due to STYLEPUB_FORCE_NATIVE=1", "configured", cfg.Generator.Mode)
		}
		return RenderModeNative
	}
	if os.Getenv("STYLEPUB_FORCE_EXTERNAL") == "1" {
		if cfg != nil && cfg.Generator.Mode != RenderModeExternal {
			slog.Info("Overriding configured generator mode due to STYLEPUB_FORCE_EXTERNAL=1", "configured", cfg.Generator.Mode)
		}
		return RenderModeExternal
	}
	if cfg == nil {
		return RenderModeAuto
	}
	switch cfg.Generator.Mode {
	case RenderModeExternal:
		return RenderModeExternal
	case RenderModeNative:
		return RenderModeNative
	default:
		return RenderModeAuto
	}
}
