package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// UserConfig manages per-user data directories
type UserConfig struct {
	BaseDir     string // $HOME/.autoctx
	ProjectsDir string // $HOME/.autoctx/projects
}

// DefaultUserConfig creates the default user configuration
func DefaultUserConfig() (*UserConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	return NewUserConfig(filepath.Join(homeDir, ".autoctx"))
}

// NewUserConfig creates a user configuration rooted at baseDir
func NewUserConfig(baseDir string) (*UserConfig, error) {
	config := &UserConfig{
		BaseDir:     baseDir,
		ProjectsDir: filepath.Join(baseDir, "projects"),
	}
	if err := config.EnsureDirectories(); err != nil {
		return nil, errors.Wrap(err, "failed to create user directories")
	}
	return config, nil
}

// EnsureDirectories creates the user configuration directories if they don't exist
func (c *UserConfig) EnsureDirectories() error {
	for _, dir := range []string{c.BaseDir, c.ProjectsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

// GetProjectDataDir returns a project-specific data directory
// Creates $HOME/.autoctx/projects/{project-hash}/
func (c *UserConfig) GetProjectDataDir(projectPath string) (string, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to get absolute path")
	}

	projectDir := filepath.Join(c.ProjectsDir, generateProjectHash(absPath))
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create project directory")
	}

	infoFile := filepath.Join(projectDir, "project_info.txt")
	if _, err := os.Stat(infoFile); os.IsNotExist(err) {
		info := fmt.Sprintf("Project Path: %s\nCreated: %s\n", absPath, time.Now().Format("2006-01-02 15:04:05"))
		if err := os.WriteFile(infoFile, []byte(info), 0644); err != nil {
			pkgLogger.NewComponentLogger("user-config").WarnWithIntention(pkgLogger.IntentionWarning, "Failed to create project info file", "error", err)
		}
	}

	return projectDir, nil
}

// GetProjectSessionFile returns the open-buffer state file for a project
func (c *UserConfig) GetProjectSessionFile(projectPath string) (string, error) {
	projectDir, err := c.GetProjectDataDir(projectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(projectDir, "session.json"), nil
}

// GetProjectHistoryFile returns the readline history file path for a project
func (c *UserConfig) GetProjectHistoryFile(projectPath string) (string, error) {
	projectDir, err := c.GetProjectDataDir(projectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(projectDir, "history.txt"), nil
}

// generateProjectHash turns an absolute path into a directory name,
// e.g. /home/me/src/app becomes -home-me-src-app
func generateProjectHash(projectPath string) string {
	dashPath := strings.ReplaceAll(filepath.ToSlash(projectPath), "/", "-")

	var b strings.Builder
	for _, r := range dashPath {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
