package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FolderProvider provisions submission folders and returns an opaque URL
// pointing at them. Implementations may be backed by disk, a CDN, or a
// cloud media service.
type FolderProvider interface {
	EnsureFolder(relPath string) (string, error)
	FolderExists(relPath string) bool
	RemoveFolder(relPath string) error
}

// LocalFolders provisions folders on disk under a base directory and serves
// them through a configurable base URL.
type LocalFolders struct {
	baseDir string
	baseURL string
}

// NewLocalFolders ensures the base directory exists and returns a handle.
func NewLocalFolders(baseDir, baseURL string) (*LocalFolders, error) {
	if baseDir == "" {
		baseDir = "./thesis-folders"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create folder storage directory: %w", err)
	}
	return &LocalFolders{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// EnsureFolder creates the folder when missing and returns its public URL.
// Creating an already existing folder is a no-op.
func (s *LocalFolders) EnsureFolder(relPath string) (string, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("provision folder %s: %w", relPath, err)
	}
	return s.folderURL(relPath), nil
}

// FolderExists reports whether the folder has been provisioned.
func (s *LocalFolders) FolderExists(relPath string) bool {
	path, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveFolder deletes a provisioned folder and its contents.
func (s *LocalFolders) RemoveFolder(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove folder %s: %w", relPath, err)
	}
	return nil
}

func (s *LocalFolders) folderURL(relPath string) string {
	segments := strings.Split(filepath.ToSlash(relPath), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

func (s *LocalFolders) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || cleaned == string(filepath.Separator) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid folder path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
