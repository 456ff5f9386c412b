package repository

import (
	"context"
	"io/fs"
)

// FilesystemRepository abstracts the filesystem operations editor sessions need
type FilesystemRepository interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
	IsRegular(ctx context.Context, path string) (bool, error)
}
