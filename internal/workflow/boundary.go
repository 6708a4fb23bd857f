// File path: internal/workflow/boundary.go
package workflow

import (
	"context"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// Renderer maps a plan onto generated files keyed by slash-separated paths
// relative to the unit's output directory.
type Renderer interface {
	Render(ctx context.Context, plan *ir.ProcessPlan) (map[string]string, error)
}

// ValidationOutcome is the result of trying to build a generated project.
type ValidationOutcome struct {
	Compiled bool   `json:"compiled"`
	Details  string `json:"details"`
}

// Validator builds a generated project. An error means the build could not
// be attempted at all.
type Validator interface {
	Validate(ctx context.Context, outputDir string) (ValidationOutcome, error)
}

// Packager archives a generated project and returns the archive path.
type Packager interface {
	Archive(ctx context.Context, outputDir string) (string, error)
}

type RendererFunc func(ctx context.Context, plan *ir.ProcessPlan) (map[string]string, error)

func (f RendererFunc) Render(ctx context.Context, plan *ir.ProcessPlan) (map[string]string, error) {
	return f(ctx, plan)
}

type ValidatorFunc func(ctx context.Context, outputDir string) (ValidationOutcome, error)

func (f ValidatorFunc) Validate(ctx context.Context, outputDir string) (ValidationOutcome, error) {
	return f(ctx, outputDir)
}

type PackagerFunc func(ctx context.Context, outputDir string) (string, error)

func (f PackagerFunc) Archive(ctx context.Context, outputDir string) (string, error) {
	return f(ctx, outputDir)
}
