// File path: internal/workflow/package_test.go
package workflow

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestZipPackagerArchivesRelativeEntries(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "LoanApp")
	writeFile(t, filepath.Join(project, "pom.xml"), "<project/>")
	writeFile(t, filepath.Join(project, "src", "main", "java", "App.java"), "class App {}")

	path, err := NewZipPackager("layered").Archive(context.Background(), project)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if path != filepath.Join(root, "LoanApp_layered.zip") {
		t.Fatalf("unexpected archive path %s", path)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary archive should be removed")
	}
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	var files []string
	for _, f := range reader.File {
		if strings.HasPrefix(f.Name, "/") || strings.Contains(f.Name, "..") {
			t.Fatalf("archive entry %q is not relative", f.Name)
		}
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		files = append(files, f.Name)
		if f.Name == "src/main/java/App.java" {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open entry: %v", err)
			}
			data, _ := io.ReadAll(rc)
			rc.Close()
			if string(data) != "class App {}" {
				t.Fatalf("unexpected entry content %q", data)
			}
		}
	}
	sort.Strings(files)
	if strings.Join(files, ",") != "pom.xml,src/main/java/App.java" {
		t.Fatalf("unexpected archive entries %v", files)
	}
}

func TestZipPackagerRejectsMissingDirectory(t *testing.T) {
	if _, err := NewZipPackager("").Archive(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing project")
	}
}
