// File path: internal/workflow/package.go
package workflow

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ZipPackager writes <output>/<folder>_<suffix>.zip next to each generated
// project directory.
type ZipPackager struct {
	Suffix string
}

func NewZipPackager(suffix string) *ZipPackager {
	return &ZipPackager{Suffix: suffix}
}

// Archive compresses sourceDir. Entry names are relative to sourceDir.
func (p *ZipPackager) Archive(ctx context.Context, sourceDir string) (string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", fmt.Errorf("locate project: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", sourceDir)
	}
	name := filepath.Base(filepath.Clean(sourceDir))
	if suffix := strings.TrimSpace(p.Suffix); suffix != "" {
		name += "_" + suffix
	}
	finalPath := filepath.Join(filepath.Dir(filepath.Clean(sourceDir)), name+".zip")
	tempPath := finalPath + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	zipWriter := zip.NewWriter(file)
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := zipWriter.Create(rel + "/")
			return err
		}
		fileInfo, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(fileInfo)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return err
		}
		inFile, err := os.Open(path)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(writer, inFile)
		closeErr := inFile.Close()
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	})
	if walkErr != nil {
		_ = zipWriter.Close()
		_ = file.Close()
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("package project: %w", walkErr)
	}
	if err := zipWriter.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	absPath, err := filepath.Abs(finalPath)
	if err != nil {
		_ = os.Remove(finalPath)
		return "", fmt.Errorf("resolve archive path: %w", err)
	}
	return absPath, nil
}
