// File path: internal/workflow/validate.go
package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/common/process"
)

type buildCommand struct {
	buildFile string
	binary    string
	args      []string
}

// buildCommands are tried in order; project wrappers win over tools on PATH.
var buildCommands = []buildCommand{
	{buildFile: "pom.xml", binary: "./mvnw", args: []string{"-q", "-DskipTests", "package"}},
	{buildFile: "pom.xml", binary: "mvn", args: []string{"-q", "-DskipTests", "package"}},
	{buildFile: "build.gradle", binary: "./gradlew", args: []string{"build", "-x", "test"}},
	{buildFile: "build.gradle", binary: "gradle", args: []string{"build", "-x", "test"}},
}

// BuildValidator compiles generated projects with Maven or Gradle.
type BuildValidator struct {
	// lookup resolves a build binary; tests replace it.
	lookup func(dir, candidate string) (string, bool)
}

func NewBuildValidator() *BuildValidator {
	return &BuildValidator{lookup: process.ProjectBinary}
}

// Validate runs the first available build tool for the project in
// outputDir. A failed build is reported through the outcome.
func (v *BuildValidator) Validate(ctx context.Context, outputDir string) (ValidationOutcome, error) {
	lookup := v.lookup
	if lookup == nil {
		lookup = process.ProjectBinary
	}
	// wrapper paths are joined onto outputDir and must not be relative to it
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	hasBuildFile := false
	for _, cmd := range buildCommands {
		if !fileExists(filepath.Join(outputDir, cmd.buildFile)) {
			continue
		}
		hasBuildFile = true
		binary, ok := lookup(outputDir, cmd.binary)
		if !ok {
			continue
		}
		res, err := process.Run(ctx, outputDir, binary, cmd.args...)
		if err != nil {
			return ValidationOutcome{}, err
		}
		details := strings.TrimSpace(res.Output)
		if details == "" {
			details = res.Command
		}
		return ValidationOutcome{Compiled: res.ExitCode == 0, Details: details}, nil
	}
	if !hasBuildFile {
		return ValidationOutcome{Compiled: false, Details: "no build file"}, nil
	}
	return ValidationOutcome{Compiled: false, Details: "build tool not available"}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
