package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/pkg/aggregator"
	"github.com/fpt/auto-context/pkg/delimiter"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// Default watch debounce applied when the setting is empty
const DefaultWatchDebounce = 300 * time.Millisecond

// Settings file formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings represents the main application settings
type Settings struct {
	Markers   delimiter.Markers `yaml:"markers" toml:"markers" json:"markers"`
	Languages LanguageSettings  `yaml:"languages" toml:"languages" json:"languages"`
	Watch     WatchSettings     `yaml:"watch" toml:"watch" json:"watch"`
	LogLevel  string            `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Repository for persistence (nil for in-memory only)
	settingsRepository repository.SettingsRepository
	format             string
}

// LanguageSettings controls which targets receive context and how each language comments
type LanguageSettings struct {
	Supported          []string                           `yaml:"supported" toml:"supported" json:"supported"`
	PerCandidateSyntax bool                               `yaml:"per_candidate_syntax" toml:"per_candidate_syntax" json:"per_candidate_syntax"`
	Comments           map[string]delimiter.CommentSyntax `yaml:"comments,omitempty" toml:"comments,omitempty" json:"comments,omitempty"`
}

// WatchSettings configures the file watcher
type WatchSettings struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"` // Go duration, e.g. "300ms"
}

// DebounceDuration parses Debounce, falling back to DefaultWatchDebounce
func (w WatchSettings) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return DefaultWatchDebounce
	}
	return d
}

// NewSettings creates new settings with in-memory repository
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates new settings with injected repository
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates new settings with file-based repository
func NewSettingsWithPath(configPath string) *Settings {
	settings := NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
	settings.format = formatForPath(configPath)
	return settings
}

func formatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Format returns the encoding used when loading and saving
func (s *Settings) Format() string {
	if s.format == "" {
		return FormatYAML
	}
	return s.format
}

// Load loads settings from the repository
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	if path, err := s.settingsRepository.FindSettingsFile(); err == nil && path != "" {
		s.format = formatForPath(path)
	}
	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}
	if err := s.decode(data); err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(s)
	return nil
}

func (s *Settings) decode(data []byte) error {
	if s.Format() == FormatTOML {
		_, err := toml.Decode(string(data), s)
		return err
	}
	return yaml.Unmarshal(data, s)
}

// Encode renders the settings in their file format
func (s *Settings) Encode() ([]byte, error) {
	if s.Format() == FormatTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(s)
}

// Save saves settings to the repository
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.Encode()
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	return s.settingsRepository.Save(data)
}

// LoadSettings loads application settings. An empty configPath searches
// .autoctx/ and ~/.autoctx/, creating a default file in the home directory
// when neither has one.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return createDefaultSettingsFile()
		}
	}

	if err := settings.Load(); err != nil {
		if errors.Is(err, infra.ErrNoSettingsFile) && configPath != "" {
			return createSettingsFileAtPath(configPath)
		}
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Markers: delimiter.DefaultMarkers(),
		Languages: LanguageSettings{
			Supported: append([]string(nil), aggregator.DefaultSupportedLanguages...),
		},
		Watch: WatchSettings{
			Enabled:  false,
			Debounce: DefaultWatchDebounce.String(),
		},
		LogLevel: "info",
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	settings.Markers = settings.Markers.WithDefaults()
	if len(settings.Languages.Supported) == 0 {
		settings.Languages.Supported = defaults.Languages.Supported
	}
	if settings.Watch.Debounce == "" {
		settings.Watch.Debounce = defaults.Watch.Debounce
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	if err := settings.Markers.Validate(); err != nil {
		return err
	}

	for _, id := range settings.Languages.Supported {
		if strings.TrimSpace(id) == "" {
			return errors.Wrap(ErrInvalidSettings, "languages.supported contains an empty id")
		}
	}
	for id, syntax := range settings.Languages.Comments {
		if strings.ContainsAny(syntax.Line+syntax.BlockStart+syntax.BlockEnd, "\r\n") {
			return errors.Wrapf(ErrInvalidSettings, "comment syntax for %s spans lines", id)
		}
	}

	if settings.Watch.Debounce != "" {
		d, err := time.ParseDuration(settings.Watch.Debounce)
		if err != nil {
			return errors.Wrapf(ErrInvalidSettings, "watch.debounce: %v", err)
		}
		if d <= 0 {
			return errors.Wrap(ErrInvalidSettings, "watch.debounce must be positive")
		}
	}

	switch strings.ToLower(settings.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrInvalidSettings, "unknown log_level %q", settings.LogLevel)
	}
	return nil
}

// LanguageTable returns the built-in comment table with configured overrides applied
func (s *Settings) LanguageTable() delimiter.LanguageTable {
	return delimiter.DefaultLanguageTable().Merge(s.Languages.Comments)
}

// NewResolver builds the delimiter resolver described by the settings
func (s *Settings) NewResolver() *delimiter.Resolver {
	return delimiter.NewResolver(s.Markers, s.LanguageTable())
}

// NewEngine builds the aggregation engine described by the settings
func (s *Settings) NewEngine(opts ...aggregator.Option) *aggregator.Engine {
	opts = append([]aggregator.Option{aggregator.WithPerCandidateSyntax(s.Languages.PerCandidateSyntax)}, opts...)
	return aggregator.NewEngine(s.NewResolver(), s.Languages.Supported, opts...)
}

// createDefaultSettingsFile creates a default settings.yaml in ~/.autoctx/
func createDefaultSettingsFile() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return GetDefaultSettings(), nil
	}

	settingsPath := filepath.Join(homeDir, ".autoctx", infra.SettingsFileNames[0])
	return createSettingsFileAtPath(settingsPath)
}

// createSettingsFileAtPath creates a default settings file at the specified path
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := NewSettingsWithPath(settingsPath)

	if err := settings.Save(); err != nil {
		// Return defaults without repository if saving fails
		return GetDefaultSettings(), nil
	}

	log := pkgLogger.NewComponentLogger("settings")
	log.InfoWithIntention(pkgLogger.IntentionConfig, "Created default settings file", "path", settingsPath)
	log.InfoWithIntention(pkgLogger.IntentionStatus, "You can edit this file to customize markers and languages")

	return settings, nil
}
