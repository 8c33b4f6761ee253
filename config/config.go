// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/omni/internal/types"
)

const (
	appName        = "omni"
	configFileName = "config.json"

	// EnvGeminiKey seeds a Gemini credential when none is configured.
	EnvGeminiKey = "GEMINI_API_KEY"

	// DefaultExtractionModel is used for files, media, and URLs.
	DefaultExtractionModel = "gemini-2.5-flash"

	// DefaultSpeechModel is used for voice input transcription.
	DefaultSpeechModel = "whisper-1"

	// DefaultPollInterval is the playback liveness check period.
	DefaultPollInterval = 500 * time.Millisecond
)

// Config represents the application configuration.
type Config struct {
	Credentials         []types.APICredential      `json:"credentials,omitempty"`
	TranslationProfiles []types.TranslationProfile `json:"translation_profiles,omitempty"`
	SpeechConfig        *types.SpeechConfig        `json:"speech_config,omitempty"`
	ExtractionConfig    *types.ExtractionConfig    `json:"extraction_config,omitempty"`

	Languages LanguagePair   `json:"languages"`
	Playback  PlaybackConfig `json:"playback"`
	Log       LogConfig      `json:"log"`

	// DefaultLanguages maps a detected source language to a target.
	DefaultLanguages map[string]string `json:"default_languages"`

	path string
	// envCredID and envProfileID name the entries seeded from the
	// environment. They are never written to disk.
	envCredID    string
	envProfileID string
}

// LanguagePair is the initial source/target selection.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// PlaybackConfig tunes speech playback.
type PlaybackConfig struct {
	Rate         float64  `json:"rate,omitempty"`
	PollInterval Duration `json:"poll_interval,omitempty"`
}

// LogConfig selects log level and an optional rotating log file.
type LogConfig struct {
	Level      string `json:"level,omitempty"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
}

// Duration is a time.Duration encoded as a string ("500ms").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Load loads configuration from the default config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadOrDefault loads the configuration at path, or the default one if
// that fails. The load error is returned for the caller to report once
// logging is set up.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = Default()
		cfg.path = path
		return cfg, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			cfg.path = path
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.path = path
	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Save persists the configuration to disk.
// Entries seeded from the environment are left out.
func (c *Config) Save() error {
	if c.path == "" {
		path, err := configPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		c.path = path
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c.persisted(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// persisted returns a copy of c without the environment-derived entries.
func (c *Config) persisted() *Config {
	if c.envCredID == "" {
		return c
	}

	out := *c
	out.Credentials = slices.DeleteFunc(slices.Clone(c.Credentials), func(cred types.APICredential) bool {
		return cred.ID == c.envCredID
	})
	out.TranslationProfiles = slices.DeleteFunc(slices.Clone(c.TranslationProfiles), func(p types.TranslationProfile) bool {
		return p.ID == c.envProfileID || p.CredentialID == c.envCredID
	})
	if c.ExtractionConfig != nil && c.ExtractionConfig.CredentialID == c.envCredID {
		out.ExtractionConfig = nil
	}
	if c.SpeechConfig != nil && c.SpeechConfig.CredentialID == c.envCredID {
		out.SpeechConfig = nil
	}
	return &out
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.path
}

// PollInterval returns the playback poll interval with default applied.
func (c *Config) PollInterval() time.Duration {
	if c.Playback.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.Playback.PollInterval)
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	return configPath()
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Dir returns the application config directory.
func Dir() (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Default returns the built-in configuration with environment overrides.
// It has no file path until saved.
func Default() *Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Languages.Source == "" {
		c.Languages.Source = "zh"
	}
	if c.Languages.Target == "" {
		c.Languages.Target = "en"
	}
	if c.Playback.Rate == 0 {
		c.Playback.Rate = 1.0
	}
	if c.DefaultLanguages == nil {
		c.DefaultLanguages = defaultLanguages()
	}
}

func defaultLanguages() map[string]string {
	return map[string]string{
		"zh": "en",
		"en": "zh",
	}
}

// applyEnv seeds a Gemini credential, profile, and extraction config from
// the environment when nothing is configured yet.
func (c *Config) applyEnv() {
	key := os.Getenv(EnvGeminiKey)
	if key == "" || len(c.Credentials) > 0 {
		return
	}

	cred := types.APICredential{
		ID:     uuid.New().String(),
		Name:   "Gemini (env)",
		Type:   "gemini",
		APIKey: key,
	}
	profileID := uuid.New().String()
	c.Credentials = append(c.Credentials, cred)
	c.TranslationProfiles = append(c.TranslationProfiles, types.TranslationProfile{
		ID:           profileID,
		Name:         "Gemini",
		CredentialID: cred.ID,
		Model:        DefaultExtractionModel,
		MaxTokens:    types.DefaultMaxTokens,
		Temperature:  types.DefaultTemperature,
		Active:       true,
	})
	if c.ExtractionConfig == nil {
		c.ExtractionConfig = &types.ExtractionConfig{CredentialID: cred.ID, Model: DefaultExtractionModel}
	}
	c.envCredID = cred.ID
	c.envProfileID = profileID
}

// ─────────────────────────────────────────────────────────────────────────────
// API Credential Management
// ─────────────────────────────────────────────────────────────────────────────

// GetCredentials returns all API credentials.
func (c *Config) GetCredentials() []types.APICredential {
	return c.Credentials
}

// GetCredential returns a credential by ID.
func (c *Config) GetCredential(id string) *types.APICredential {
	for i := range c.Credentials {
		if c.Credentials[i].ID == id {
			return &c.Credentials[i]
		}
	}
	return nil
}

// AddCredential adds a new API credential.
func (c *Config) AddCredential(cred types.APICredential) error {
	if cred.Name == "" {
		return fmt.Errorf("credential name required")
	}
	if cred.APIKey == "" {
		return fmt.Errorf("api key required")
	}
	if cred.Type == "openai-compatible" && cred.BaseURL == "" {
		return fmt.Errorf("base url required for openai-compatible")
	}

	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}

	c.Credentials = append(c.Credentials, cred)
	return c.Save()
}

// UpdateCredential updates an existing credential.
func (c *Config) UpdateCredential(id string, cred types.APICredential) error {
	idx := slices.IndexFunc(c.Credentials, func(x types.APICredential) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("credential not found: %s", id)
	}

	cred.ID = id // Preserve ID
	c.Credentials[idx] = cred
	return c.Save()
}

// RemoveCredential removes a credential by ID.
// Returns error if credential is referenced by a profile, speech, or extraction config.
func (c *Config) RemoveCredential(id string) error {
	for _, p := range c.TranslationProfiles {
		if p.CredentialID == id {
			return fmt.Errorf("credential in use by translation profile: %s", p.Name)
		}
	}
	if c.SpeechConfig != nil && c.SpeechConfig.CredentialID == id {
		return fmt.Errorf("credential in use by speech config")
	}
	if c.ExtractionConfig != nil && c.ExtractionConfig.CredentialID == id {
		return fmt.Errorf("credential in use by extraction config")
	}

	idx := slices.IndexFunc(c.Credentials, func(x types.APICredential) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("credential not found: %s", id)
	}

	c.Credentials = slices.Delete(c.Credentials, idx, idx+1)
	return c.Save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Translation Profile Management
// ─────────────────────────────────────────────────────────────────────────────

// GetTranslationProfiles returns all translation profiles.
func (c *Config) GetTranslationProfiles() []types.TranslationProfile {
	return c.TranslationProfiles
}

// GetActiveTranslationProfile returns the currently active translation profile.
func (c *Config) GetActiveTranslationProfile() *types.TranslationProfile {
	for i := range c.TranslationProfiles {
		if c.TranslationProfiles[i].Active {
			return &c.TranslationProfiles[i]
		}
	}
	// Auto-activate first if none active
	if len(c.TranslationProfiles) > 0 {
		c.TranslationProfiles[0].Active = true
		_ = c.Save()
		return &c.TranslationProfiles[0]
	}
	return nil
}

// AddTranslationProfile adds a new translation profile.
func (c *Config) AddTranslationProfile(profile types.TranslationProfile) error {
	if profile.Name == "" {
		return fmt.Errorf("profile name required")
	}
	if profile.CredentialID == "" {
		return fmt.Errorf("credential id required")
	}
	if profile.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.GetCredential(profile.CredentialID) == nil {
		return fmt.Errorf("credential not found: %s", profile.CredentialID)
	}

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.MaxTokens == 0 {
		profile.MaxTokens = types.DefaultMaxTokens
	}
	if profile.Temperature == 0 {
		profile.Temperature = types.DefaultTemperature
	}

	// First profile or explicitly active: deactivate others
	if len(c.TranslationProfiles) == 0 || profile.Active {
		for i := range c.TranslationProfiles {
			c.TranslationProfiles[i].Active = false
		}
		profile.Active = true
	}

	c.TranslationProfiles = append(c.TranslationProfiles, profile)
	return c.Save()
}

// UpdateTranslationProfile updates an existing translation profile.
func (c *Config) UpdateTranslationProfile(id string, profile types.TranslationProfile) error {
	idx := slices.IndexFunc(c.TranslationProfiles, func(x types.TranslationProfile) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("profile not found: %s", id)
	}
	if c.GetCredential(profile.CredentialID) == nil {
		return fmt.Errorf("credential not found: %s", profile.CredentialID)
	}

	wasActive := c.TranslationProfiles[idx].Active
	if profile.Active && !wasActive {
		for i := range c.TranslationProfiles {
			c.TranslationProfiles[i].Active = false
		}
	} else {
		profile.Active = wasActive
	}

	profile.ID = id // Preserve ID
	c.TranslationProfiles[idx] = profile
	return c.Save()
}

// RemoveTranslationProfile removes a translation profile by ID.
func (c *Config) RemoveTranslationProfile(id string) error {
	idx := slices.IndexFunc(c.TranslationProfiles, func(x types.TranslationProfile) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("profile not found: %s", id)
	}

	wasActive := c.TranslationProfiles[idx].Active
	c.TranslationProfiles = slices.Delete(c.TranslationProfiles, idx, idx+1)

	if wasActive && len(c.TranslationProfiles) > 0 {
		c.TranslationProfiles[0].Active = true
	}

	return c.Save()
}

// SetTranslationProfileActive sets a translation profile as active.
func (c *Config) SetTranslationProfileActive(id string) error {
	found := false
	for i := range c.TranslationProfiles {
		if c.TranslationProfiles[i].ID == id {
			c.TranslationProfiles[i].Active = true
			found = true
		} else {
			c.TranslationProfiles[i].Active = false
		}
	}
	if !found {
		return fmt.Errorf("profile not found: %s", id)
	}
	return c.Save()
}

// ─────────────────────────────────────────────────────────────────────────────
// Speech & Extraction Configuration
// ─────────────────────────────────────────────────────────────────────────────

// GetSpeechConfig returns the speech configuration.
func (c *Config) GetSpeechConfig() *types.SpeechConfig {
	return c.SpeechConfig
}

// SetSpeechConfig sets the speech configuration.
func (c *Config) SetSpeechConfig(cfg types.SpeechConfig) error {
	if cfg.Enabled && cfg.CredentialID != "" {
		cred := c.GetCredential(cfg.CredentialID)
		if cred == nil {
			return fmt.Errorf("credential not found: %s", cfg.CredentialID)
		}
		if cred.Type != "openai" && cred.Type != "openai-compatible" {
			return fmt.Errorf("speech config requires OpenAI-compatible credential")
		}
	}

	if cfg.Model == "" {
		cfg.Model = DefaultSpeechModel
	}

	c.SpeechConfig = &cfg
	return c.Save()
}

// GetExtractionConfig returns the extraction configuration.
func (c *Config) GetExtractionConfig() *types.ExtractionConfig {
	return c.ExtractionConfig
}

// SetExtractionConfig sets the extraction configuration.
func (c *Config) SetExtractionConfig(cfg types.ExtractionConfig) error {
	cred := c.GetCredential(cfg.CredentialID)
	if cred == nil {
		return fmt.Errorf("credential not found: %s", cfg.CredentialID)
	}
	if cred.Type != "gemini" {
		return fmt.Errorf("extraction config requires a gemini credential")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultExtractionModel
	}

	c.ExtractionConfig = &cfg
	return c.Save()
}
