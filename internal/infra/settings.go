package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SettingsFileNames are probed, in order, inside each settings directory
var SettingsFileNames = []string{"settings.yaml", "settings.yml", "settings.toml"}

var ErrNoSettingsFile = errors.New("no settings file found")

// FileSettingsRepository persists settings in a file. An empty path means
// searching .autoctx/ in the working directory, then ~/.autoctx/.
type FileSettingsRepository struct {
	configPath string
}

// InMemorySettingsRepository keeps settings bytes in memory only
type InMemorySettingsRepository struct {
	data []byte
}

// NewFileSettingsRepository creates a new file-based settings repository
func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	return &FileSettingsRepository{configPath: configPath}
}

// NewInMemorySettingsRepository creates a new in-memory settings repository
func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

func (fr *FileSettingsRepository) Load() ([]byte, error) {
	path, err := fr.FindSettingsFile()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNoSettingsFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read settings file %s", path)
	}
	return data, nil
}

func (fr *FileSettingsRepository) Save(data []byte) error {
	path := fr.configPath
	if path == "" {
		found, _ := fr.FindSettingsFile()
		if found != "" {
			path = found
		} else {
			path = filepath.Join(".autoctx", SettingsFileNames[0])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

// FindSettingsFile returns the explicit path when it exists, otherwise the
// first settings file found in ./.autoctx or ~/.autoctx.
func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	if fr.configPath != "" {
		if _, err := os.Stat(fr.configPath); err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return "", errors.Wrap(err, "failed to stat settings file")
		}
		return fr.configPath, nil
	}

	dirs := []string{".autoctx"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".autoctx"))
	}
	for _, dir := range dirs {
		for _, name := range SettingsFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", nil
}

// Path returns the configured path, which may be empty
func (fr *FileSettingsRepository) Path() string {
	return fr.configPath
}

func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, errors.New("no data stored in memory repository")
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = append([]byte(nil), data...)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	return "", nil
}
