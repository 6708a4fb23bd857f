// File path: internal/workflow/validate_test.go
package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildValidatorWithoutBuildFile(t *testing.T) {
	outcome, err := NewBuildValidator().Validate(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if outcome.Compiled || outcome.Details != "no build file" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestBuildValidatorWithoutTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), "<project/>")
	v := &BuildValidator{lookup: func(string, string) (string, bool) { return "", false }}
	outcome, err := v.Validate(context.Background(), dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if outcome.Compiled || outcome.Details != "build tool not available" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func writeWrapper(t *testing.T, dir, body string) {
	t.Helper()
	path := filepath.Join(dir, "mvnw")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write wrapper: %v", err)
	}
}

func TestBuildValidatorPrefersProjectWrapper(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), "<project/>")
	writeWrapper(t, dir, `echo "BUILD SUCCESS $@"`)
	outcome, err := NewBuildValidator().Validate(context.Background(), dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !outcome.Compiled || !strings.Contains(outcome.Details, "BUILD SUCCESS -q -DskipTests package") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestBuildValidatorReportsFailedBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), "<project/>")
	writeWrapper(t, dir, "echo 'COMPILATION ERROR' >&2\nexit 1")
	outcome, err := NewBuildValidator().Validate(context.Background(), dir)
	if err != nil {
		t.Fatalf("a failed build is an outcome, not an error: %v", err)
	}
	if outcome.Compiled || !strings.Contains(outcome.Details, "COMPILATION ERROR") {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestBuildValidatorFallsBackToGradle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "build.gradle"), "plugins {}")
	var tried []string
	v := &BuildValidator{lookup: func(_ string, candidate string) (string, bool) {
		tried = append(tried, candidate)
		return "", false
	}}
	if _, err := v.Validate(context.Background(), dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.Join(tried, ",") != "./gradlew,gradle" {
		t.Fatalf("unexpected lookup order %v", tried)
	}
}
