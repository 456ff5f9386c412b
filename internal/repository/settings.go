package repository

// SettingsRepository abstracts settings persistence
type SettingsRepository interface {
	Load() ([]byte, error)
	Save(data []byte) error
	// FindSettingsFile returns the path settings are read from, or "" when none exists
	FindSettingsFile() (string, error)
}
