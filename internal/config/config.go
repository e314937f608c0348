// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the complete rigchat configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// APIConfig describes the chat-completion endpoint.
type APIConfig struct {
	Host   string `toml:"host" json:"host"`
	Port   int    `toml:"port" json:"port"`
	Path   string `toml:"path" json:"path"`
	Model  string `toml:"model" json:"model"`
	APIKey string `toml:"api_key" json:"api_key"`

	// ReadTimeoutSecs bounds each socket read, not the whole reply.
	ReadTimeoutSecs int    `toml:"read_timeout_secs" json:"read_timeout_secs"`
	CAFile          string `toml:"ca_file" json:"ca_file"`

	// SendSystemMessages includes local system entries in requests.
	SendSystemMessages bool `toml:"send_system_messages" json:"send_system_messages"`

	// RequestsPerMinute caps how often turns may start; 0 is unlimited.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig selects where the conversation is persisted.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"` // json | sqlite
	Path    string `toml:"path" json:"path"`
}

// UIConfig controls the full-screen interface.
type UIConfig struct {
	FrameRate      int    `toml:"frame_rate" json:"frame_rate"`
	EventsPerFrame int    `toml:"events_per_frame" json:"events_per_frame"`
	ScrollSpeed    int    `toml:"scroll_speed" json:"scroll_speed"`
	Theme          string `toml:"theme" json:"theme"` // auto | dark | light
	Mouse          bool   `toml:"mouse" json:"mouse"`
	AltScreen      bool   `toml:"alt_screen" json:"alt_screen"`
	PromptPrefix   string `toml:"prompt_prefix" json:"prompt_prefix"`

	Colors ColorConfig `toml:"colors" json:"colors"`
}

// ColorConfig overrides theme colors. Values are "#rrggbb" or an ANSI
// color number; empty keeps the theme color.
type ColorConfig struct {
	User      string `toml:"user" json:"user"`
	Assistant string `toml:"assistant" json:"assistant"`
	System    string `toml:"system" json:"system"`
	Input     string `toml:"input" json:"input"`
	Separator string `toml:"separator" json:"separator"`
	Selection string `toml:"selection" json:"selection"`
}

// LoggingConfig controls the debug log. The TUI owns the terminal, so logs
// always go to a file.
type LoggingConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	File    string `toml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host:            "api.openai.com",
			Port:            443,
			Path:            "/v1/chat/completions",
			Model:           "gpt-3.5-turbo",
			ReadTimeoutSecs: 10,
		},
		Storage: StorageConfig{
			Backend: "json",
		},
		UI: UIConfig{
			FrameRate:      60,
			EventsPerFrame: 1,
			ScrollSpeed:    3,
			Theme:          "auto",
			Mouse:          true,
			AltScreen:      true,
			PromptPrefix:   "■  ",
		},
		Logging: LoggingConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigchat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ResolvePath returns the config file Load would read: explicit if set,
// otherwise the TOML file, or the JSON file if only that exists.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// SECURITY: Config files may hold an API key, so they are kept 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration from path, or from the default locations
// when path is empty. A missing file yields the defaults. Environment
// overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, statErr := os.Stat(resolved); statErr == nil {
		if strings.HasSuffix(resolved, ".json") {
			err = LoadJSON(cfg, resolved)
		} else {
			err = LoadTOML(cfg, resolved)
		}
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", resolved, err)
		}
	} else if path != "" && errors.Is(statErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", path, statErr)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg; keys absent from the file
// keep their current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file on top of cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read JSON: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

// SetDefaults fills derived values that depend on other settings.
func (c *Config) SetDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "json"
	}
	if c.Storage.Path == "" {
		name := "conversation.json"
		if c.Storage.Backend == "sqlite" {
			name = "conversation.db"
		}
		if dir, err := ConfigDir(); err == nil {
			c.Storage.Path = filepath.Join(dir, name)
		} else {
			c.Storage.Path = name
		}
	}
	if c.Logging.File == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Logging.File = filepath.Join(dir, "rigchat.log")
		} else {
			c.Logging.File = "rigchat.log"
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# rigchat configuration file\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// RELIABILITY: Atomic write so a crash never leaves a truncated config.
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// EncodeTOML renders cfg as TOML with secrets redacted.
func (c *Config) EncodeTOML() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c.Redacted()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.API.Host) == "" {
		add("api.host", "must not be empty")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		add("api.port", "must be between 1 and 65535, got %d", c.API.Port)
	}
	if !strings.HasPrefix(c.API.Path, "/") {
		add("api.path", "must start with '/', got %q", c.API.Path)
	}
	if strings.TrimSpace(c.API.Model) == "" {
		add("api.model", "must not be empty")
	}
	if c.API.ReadTimeoutSecs < 0 {
		add("api.read_timeout_secs", "must not be negative")
	}
	if c.API.RequestsPerMinute < 0 {
		add("api.requests_per_minute", "must not be negative")
	}
	if c.API.CAFile != "" {
		if _, err := os.Stat(c.API.CAFile); err != nil {
			add("api.ca_file", "%v", err)
		}
	}

	switch c.Storage.Backend {
	case "json", "sqlite":
	default:
		add("storage.backend", "invalid backend %q, must be one of: json, sqlite", c.Storage.Backend)
	}

	if c.UI.FrameRate < 1 || c.UI.FrameRate > 240 {
		add("ui.frame_rate", "must be between 1 and 240, got %d", c.UI.FrameRate)
	}
	if c.UI.EventsPerFrame < 1 {
		add("ui.events_per_frame", "must be at least 1, got %d", c.UI.EventsPerFrame)
	}
	if c.UI.ScrollSpeed < 1 {
		add("ui.scroll_speed", "must be at least 1, got %d", c.UI.ScrollSpeed)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme %q, must be one of: auto, dark, light", c.UI.Theme)
	}

	colors := map[string]string{
		"ui.colors.user":      c.UI.Colors.User,
		"ui.colors.assistant": c.UI.Colors.Assistant,
		"ui.colors.system":    c.UI.Colors.System,
		"ui.colors.input":     c.UI.Colors.Input,
		"ui.colors.separator": c.UI.Colors.Separator,
		"ui.colors.selection": c.UI.Colors.Selection,
	}
	for _, field := range slices.Sorted(maps.Keys(colors)) {
		if v := colors[field]; v != "" && !ValidColor(v) {
			add(field, "invalid color %q, use #rrggbb or 0-255", v)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidColor reports whether s is a hex color or an ANSI color number.
func ValidColor(s string) bool {
	if n, err := strconv.Atoi(s); err == nil {
		return n >= 0 && n <= 255
	}
	return strings.HasPrefix(s, "#") && termenv.TrueColor.Color(s) != nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of the file
// settings. RIGCHAT_API_KEY always wins; OPENAI_API_KEY and GPT_SECRET_KEY
// only fill an empty key.
func (c *Config) ApplyEnvOverrides() {
	if c.API.APIKey == "" {
		for _, name := range []string{"OPENAI_API_KEY", "GPT_SECRET_KEY"} {
			if key := os.Getenv(name); key != "" {
				c.API.APIKey = key
				break
			}
		}
	}
	if key := os.Getenv("RIGCHAT_API_KEY"); key != "" {
		c.API.APIKey = key
	}
	if model := os.Getenv("RIGCHAT_MODEL"); model != "" {
		c.API.Model = model
	}
	if host := os.Getenv("RIGCHAT_HOST"); host != "" {
		c.API.Host = host
	}
	if path := os.Getenv("RIGCHAT_CONVERSATION"); path != "" {
		c.Storage.Path = path
	}
	if backend := os.Getenv("RIGCHAT_STORAGE"); backend != "" {
		c.Storage.Backend = strings.ToLower(backend)
	}
	if theme := os.Getenv("RIGCHAT_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// lookup walks a dotted TOML key ("ui.scroll_speed") to its field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		t := v.Type()
		found := false
		for f := 0; f < t.NumField(); f++ {
			if tag, _, _ := strings.Cut(t.Field(f).Tag.Get("toml"), ","); tag == part {
				v = v.Field(f)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
	}
	return v, nil
}

// Get returns the value at a dotted key such as "api.model".
func (c *Config) Get(key string) (any, error) {
	v, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Set parses value into the field at a dotted key. Sections cannot be set
// as a whole.
func (c *Config) Set(key, value string) error {
	v, err := c.lookup(key)
	if err != nil {
		return err
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		v.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("cannot set section %s", key)
	}
	return nil
}

// Redacted returns a copy with secrets masked, safe to print or log.
func (c *Config) Redacted() *Config {
	safe := *c
	if safe.API.APIKey != "" {
		safe.API.APIKey = "[REDACTED]"
	}
	return &safe
}

// String returns the redacted config as JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}
