package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	ioutils "github.com/handiism/spotidown/internal/io"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIBaseURL    = "SPOTIDOWN_API_BASE_URL"
	EnvDownloadsPath = "SPOTIDOWN_DOWNLOADS_PATH"
	EnvHistoryPath   = "SPOTIDOWN_HISTORY_PATH"
	EnvPollInterval  = "SPOTIDOWN_POLL_INTERVAL"
)

// Settings holds all configuration options.
type Settings struct {
	// Backend settings
	APIBaseURL     string  `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout float64 `json:"request_timeout" yaml:"request_timeout"`
	LinkMarker     string  `json:"link_marker" yaml:"link_marker"`

	// Timings, in seconds
	ProgressTick    float64 `json:"progress_tick" yaml:"progress_tick"`
	SlowResponse    float64 `json:"slow_response" yaml:"slow_response"`
	PollInterval    float64 `json:"poll_interval" yaml:"poll_interval"`
	CompletionGrace float64 `json:"completion_grace" yaml:"completion_grace"`

	// PollFailureLimit ends an archive job after this many consecutive
	// failed polls. Zero polls forever.
	PollFailureLimit int `json:"poll_failure_limit" yaml:"poll_failure_limit"`

	// Download settings
	DownloadsPath         string `json:"downloads_path" yaml:"downloads_path"`
	MaxConcurrentRequests int    `json:"max_concurrent_requests" yaml:"max_concurrent_requests"`

	// Tag settings
	ModifyTags            bool `json:"modify_tags" yaml:"modify_tags"`
	SaveCoverArtInTags    bool `json:"save_cover_art_in_tags" yaml:"save_cover_art_in_tags"`
	CoverArtInTagsMaxSize int  `json:"cover_art_in_tags_max_size" yaml:"cover_art_in_tags_max_size"`
	ConvertCoverArtToJPG  bool `json:"convert_cover_art_to_jpg" yaml:"convert_cover_art_to_jpg"`

	// Playlist settings
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended"`

	// History settings
	HistoryPath  string `json:"history_path" yaml:"history_path"`
	HistoryLimit int    `json:"history_limit" yaml:"history_limit"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		APIBaseURL:     "https://spotidown-project.onrender.com",
		RequestTimeout: 120,
		LinkMarker:     "spotify.com",

		ProgressTick:     0.3,
		SlowResponse:     5,
		PollInterval:     2,
		CompletionGrace:  3,
		PollFailureLimit: 0,

		DownloadsPath:         filepath.Join(homeDir, "Music", "Spotidown"),
		MaxConcurrentRequests: 4,

		ModifyTags:            false,
		SaveCoverArtInTags:    true,
		CoverArtInTagsMaxSize: 1000,
		ConvertCoverArtToJPG:  true,

		PlaylistFormat: "m3u",
		M3UExtended:    true,

		HistoryPath:  filepath.Join(homeDir, ".config", "spotidown", "history.json"),
		HistoryLimit: 50,
	}
}

// DefaultPath returns the settings file used when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "spotidown", "settings.json")
}

// Load reads settings from a JSON or YAML file, chosen by extension.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return ioutils.WriteFileAtomic(path, data)
}

// ApplyEnv overrides settings from SPOTIDOWN_* environment variables.
func (s *Settings) ApplyEnv() error {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		s.APIBaseURL = v
	}
	if v := os.Getenv(EnvDownloadsPath); v != "" {
		s.DownloadsPath = v
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		s.HistoryPath = v
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s: invalid interval %q", EnvPollInterval, v)
		}
		s.PollInterval = f
	}
	return nil
}

// Validate checks values that would make the client misbehave.
func (s *Settings) Validate() error {
	if s.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is empty")
	}
	if s.LinkMarker == "" {
		return fmt.Errorf("link_marker is empty")
	}
	for name, v := range map[string]float64{
		"progress_tick":    s.ProgressTick,
		"slow_response":    s.SlowResponse,
		"poll_interval":    s.PollInterval,
		"completion_grace": s.CompletionGrace,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	if s.PollFailureLimit < 0 {
		return fmt.Errorf("poll_failure_limit must not be negative")
	}
	return nil
}

// Expand resolves a leading ~ in the path settings.
func (s *Settings) Expand() {
	s.DownloadsPath = ioutils.ExpandHome(s.DownloadsPath)
	s.HistoryPath = ioutils.ExpandHome(s.HistoryPath)
}

// Timing accessors convert the seconds fields to durations.

func (s *Settings) ProgressTickDuration() time.Duration    { return seconds(s.ProgressTick) }
func (s *Settings) SlowResponseDuration() time.Duration    { return seconds(s.SlowResponse) }
func (s *Settings) PollIntervalDuration() time.Duration    { return seconds(s.PollInterval) }
func (s *Settings) CompletionGraceDuration() time.Duration { return seconds(s.CompletionGrace) }
func (s *Settings) RequestTimeoutDuration() time.Duration  { return seconds(s.RequestTimeout) }

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Resolve loads the settings used by the binaries: path, or DefaultPath
// when empty, then environment overrides. The result is expanded and
// validated.
func Resolve(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}
	settings, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	settings.Expand()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return settings, nil
}
