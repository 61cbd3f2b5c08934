// Package config provides configuration management for countdown.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xvierd/countdown-cli/internal/validate"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "COUNTDOWN_CONFIG"

const defaultDataDir = "~/.countdown"

// Config holds all configuration for the countdown application.
type Config struct {
	Timer         TimerConfig        `mapstructure:"timer"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Sound         SoundConfig        `mapstructure:"sound"`
	Presets       PresetConfig       `mapstructure:"presets"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// TimerConfig holds countdown settings.
type TimerConfig struct {
	// DefaultMinutes is the minutes placeholder while every field is empty.
	DefaultMinutes int      `mapstructure:"default_minutes" validate:"gte=0,lte=99"`
	TickInterval   Duration `mapstructure:"tick_interval" validate:"gt=0"`
}

// NotificationConfig holds the expiry alert text and how long an alert is
// tracked before it clears on its own. A zero lifetime keeps it until
// dismissed.
type NotificationConfig struct {
	Title    string   `mapstructure:"title" validate:"required"`
	Body     string   `mapstructure:"body" validate:"required"`
	Icon     string   `mapstructure:"icon"`
	Lifetime Duration `mapstructure:"lifetime" validate:"gte=0"`
}

// SoundConfig describes the alarm tone pattern.
type SoundConfig struct {
	Frequency    float64  `mapstructure:"frequency" validate:"gt=0,lte=20000"`
	BeepDuration Duration `mapstructure:"beep_duration" validate:"gt=0"`
	Pause        Duration `mapstructure:"pause" validate:"gte=0"`
	// Beeps is the number of tones in one pass of the pattern.
	Beeps int `mapstructure:"beeps" validate:"gte=1,lte=20"`
}

// PresetConfig holds the three named countdown presets.
type PresetConfig struct {
	Preset1Name     string   `mapstructure:"preset1_name" validate:"required"`
	Preset1Duration Duration `mapstructure:"preset1_duration" validate:"countdown"`
	Preset2Name     string   `mapstructure:"preset2_name" validate:"required"`
	Preset2Duration Duration `mapstructure:"preset2_duration" validate:"countdown"`
	Preset3Name     string   `mapstructure:"preset3_name" validate:"required"`
	Preset3Duration Duration `mapstructure:"preset3_duration" validate:"countdown"`
}

// Preset is a named countdown duration.
type Preset struct {
	Name     string
	Duration time.Duration
}

// GetPresets returns the three presets.
func (c *PresetConfig) GetPresets() []Preset {
	return []Preset{
		{Name: c.Preset1Name, Duration: time.Duration(c.Preset1Duration)},
		{Name: c.Preset2Name, Duration: time.Duration(c.Preset2Duration)},
		{Name: c.Preset3Name, Duration: time.Duration(c.Preset3Duration)},
	}
}

// SetPreset replaces preset num (1-3).
func (c *PresetConfig) SetPreset(num int, name string, d time.Duration) error {
	switch num {
	case 1:
		c.Preset1Name, c.Preset1Duration = name, Duration(d)
	case 2:
		c.Preset2Name, c.Preset2Duration = name, Duration(d)
	case 3:
		c.Preset3Name, c.Preset3Duration = name, Duration(d)
	default:
		return fmt.Errorf("preset %d out of range 1-3", num)
	}
	return nil
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// ThemeConfig holds theme customization settings (colors and icons).
type ThemeConfig struct {
	ColorRunning  string `mapstructure:"color_running" validate:"hexcolor"`
	ColorExpired  string `mapstructure:"color_expired" validate:"hexcolor"`
	ColorIdle     string `mapstructure:"color_idle" validate:"hexcolor"`
	ColorTitle    string `mapstructure:"color_title" validate:"hexcolor"`
	ColorLabel    string `mapstructure:"color_label" validate:"hexcolor"`
	ColorMuted    string `mapstructure:"color_muted" validate:"hexcolor"`
	ColorHelp     string `mapstructure:"color_help" validate:"hexcolor"`
	ColorWarning  string `mapstructure:"color_warning" validate:"hexcolor"`
	GradientStart string `mapstructure:"gradient_start" validate:"hexcolor"`
	GradientEnd   string `mapstructure:"gradient_end" validate:"hexcolor"`
	IconApp       string `mapstructure:"icon_app"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorRunning:  "#7C6FE0",
		ColorExpired:  "#E74C3C",
		ColorIdle:     "#A0AEC0",
		ColorTitle:    "#6B7280",
		ColorLabel:    "#E2E8F0",
		ColorMuted:    "#4B5563",
		ColorHelp:     "#95A5A6",
		ColorWarning:  "#F39C12",
		GradientStart: "#7C6FE0",
		GradientEnd:   "#A78BFA",
		IconApp:       "⏲",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			DefaultMinutes: 5,
			TickInterval:   Duration(time.Second),
		},
		Notifications: NotificationConfig{
			Title:    "Timer",
			Body:     "Time's up!",
			Lifetime: Duration(30 * time.Second),
		},
		Sound: SoundConfig{
			Frequency:    880,
			BeepDuration: Duration(200 * time.Millisecond),
			Pause:        Duration(600 * time.Millisecond),
			Beeps:        3,
		},
		Presets: PresetConfig{
			Preset1Name:     "Tea",
			Preset1Duration: Duration(3 * time.Minute),
			Preset2Name:     "Pasta",
			Preset2Duration: Duration(10 * time.Minute),
			Preset3Name:     "Laundry",
			Preset3Duration: Duration(45 * time.Minute),
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Validate checks every constrained setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load loads the configuration from the config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("toml")

	setDefaults()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := viper.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if cfg.Notifications.Icon != "" {
		icon, err := expandHome(cfg.Notifications.Icon)
		if err != nil {
			return nil, err
		}
		cfg.Notifications.Icon = icon
	}

	return &cfg, nil
}

// Save saves the configuration to the config file.
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("toml")

	viper.Set("timer.default_minutes", cfg.Timer.DefaultMinutes)
	viper.Set("timer.tick_interval", cfg.Timer.TickInterval.String())
	viper.Set("notifications.title", cfg.Notifications.Title)
	viper.Set("notifications.body", cfg.Notifications.Body)
	viper.Set("notifications.icon", cfg.Notifications.Icon)
	viper.Set("notifications.lifetime", cfg.Notifications.Lifetime.String())
	viper.Set("sound.frequency", cfg.Sound.Frequency)
	viper.Set("sound.beep_duration", cfg.Sound.BeepDuration.String())
	viper.Set("sound.pause", cfg.Sound.Pause.String())
	viper.Set("sound.beeps", cfg.Sound.Beeps)
	viper.Set("presets.preset1_name", cfg.Presets.Preset1Name)
	viper.Set("presets.preset1_duration", cfg.Presets.Preset1Duration.String())
	viper.Set("presets.preset2_name", cfg.Presets.Preset2Name)
	viper.Set("presets.preset2_duration", cfg.Presets.Preset2Duration.String())
	viper.Set("presets.preset3_name", cfg.Presets.Preset3Name)
	viper.Set("presets.preset3_duration", cfg.Presets.Preset3Duration.String())
	viper.Set("storage.data_dir", cfg.Storage.DataDir)
	viper.Set("theme.color_running", cfg.Theme.ColorRunning)
	viper.Set("theme.color_expired", cfg.Theme.ColorExpired)
	viper.Set("theme.color_idle", cfg.Theme.ColorIdle)
	viper.Set("theme.color_title", cfg.Theme.ColorTitle)
	viper.Set("theme.color_label", cfg.Theme.ColorLabel)
	viper.Set("theme.color_muted", cfg.Theme.ColorMuted)
	viper.Set("theme.color_help", cfg.Theme.ColorHelp)
	viper.Set("theme.color_warning", cfg.Theme.ColorWarning)
	viper.Set("theme.gradient_start", cfg.Theme.GradientStart)
	viper.Set("theme.gradient_end", cfg.Theme.GradientEnd)
	viper.Set("theme.icon_app", cfg.Theme.IconApp)

	return viper.WriteConfig()
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".countdown", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "countdown.db")
}

// expandHome resolves a leading ~ in the data directory.
func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}

// setDefaults sets default values for viper.
func setDefaults() {
	defaults := DefaultConfig()
	viper.SetDefault("timer.default_minutes", defaults.Timer.DefaultMinutes)
	viper.SetDefault("timer.tick_interval", defaults.Timer.TickInterval.String())
	viper.SetDefault("notifications.title", defaults.Notifications.Title)
	viper.SetDefault("notifications.body", defaults.Notifications.Body)
	viper.SetDefault("notifications.icon", defaults.Notifications.Icon)
	viper.SetDefault("notifications.lifetime", defaults.Notifications.Lifetime.String())
	viper.SetDefault("sound.frequency", defaults.Sound.Frequency)
	viper.SetDefault("sound.beep_duration", defaults.Sound.BeepDuration.String())
	viper.SetDefault("sound.pause", defaults.Sound.Pause.String())
	viper.SetDefault("sound.beeps", defaults.Sound.Beeps)
	viper.SetDefault("presets.preset1_name", defaults.Presets.Preset1Name)
	viper.SetDefault("presets.preset1_duration", defaults.Presets.Preset1Duration.String())
	viper.SetDefault("presets.preset2_name", defaults.Presets.Preset2Name)
	viper.SetDefault("presets.preset2_duration", defaults.Presets.Preset2Duration.String())
	viper.SetDefault("presets.preset3_name", defaults.Presets.Preset3Name)
	viper.SetDefault("presets.preset3_duration", defaults.Presets.Preset3Duration.String())
	viper.SetDefault("storage.data_dir", defaultDataDir)

	// Theme defaults
	viper.SetDefault("theme.color_running", defaults.Theme.ColorRunning)
	viper.SetDefault("theme.color_expired", defaults.Theme.ColorExpired)
	viper.SetDefault("theme.color_idle", defaults.Theme.ColorIdle)
	viper.SetDefault("theme.color_title", defaults.Theme.ColorTitle)
	viper.SetDefault("theme.color_label", defaults.Theme.ColorLabel)
	viper.SetDefault("theme.color_muted", defaults.Theme.ColorMuted)
	viper.SetDefault("theme.color_help", defaults.Theme.ColorHelp)
	viper.SetDefault("theme.color_warning", defaults.Theme.ColorWarning)
	viper.SetDefault("theme.gradient_start", defaults.Theme.GradientStart)
	viper.SetDefault("theme.gradient_end", defaults.Theme.GradientEnd)
	viper.SetDefault("theme.icon_app", defaults.Theme.IconApp)
}
