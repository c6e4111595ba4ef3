// Package config loads settings from murmur.yaml, environment
// variables and built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"murmur/key"
)

type Config struct {
	Hotkey   string         `mapstructure:"hotkey"`
	Language string         `mapstructure:"language"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Save     SaveConfig     `mapstructure:"save"`
	Sound    SoundConfig    `mapstructure:"sound"`
	Paste    PasteConfig    `mapstructure:"paste"`
	Provider ProviderConfig `mapstructure:"provider"`
}

type AudioConfig struct {
	Device      string        `mapstructure:"device"` // "" = system default
	MinDuration time.Duration `mapstructure:"min_duration"`
	MaxDuration time.Duration `mapstructure:"max_duration"`
	VAD         bool          `mapstructure:"vad"`
}

type SaveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	Format  string `mapstructure:"format"` // wav or flac
}

type SoundConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PasteConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ProviderConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// Load reads murmur.yaml (from path if given, else the working
// directory), applies MURMUR_* env overrides and fills defaults. A
// missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("murmur")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/murmur")
	}

	v.SetDefault("hotkey", "CTRL+SHIFT+R")
	v.SetDefault("language", "")
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.min_duration", 500*time.Millisecond)
	v.SetDefault("audio.max_duration", 300*time.Second)
	v.SetDefault("audio.vad", true)
	v.SetDefault("save.enabled", false)
	v.SetDefault("save.dir", "recordings")
	v.SetDefault("save.format", "wav")
	v.SetDefault("sound.enabled", true)
	v.SetDefault("paste.enabled", true)
	v.SetDefault("provider.endpoint", "https://api.groq.com/openai/v1/audio/transcriptions")
	v.SetDefault("provider.model", "whisper-large-v3-turbo")

	v.SetEnvPrefix("MURMUR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that would fail once the listener is
// running: an unparseable or modifier-less hotkey, a bad save format,
// inverted duration bounds.
func (c *Config) Validate(reg *key.Registry) error {
	combo, err := key.ParseCombination(reg, c.Hotkey)
	if err != nil {
		return fmt.Errorf("hotkey %q: %w", c.Hotkey, err)
	}
	if !combo.ValidForRecording() {
		return fmt.Errorf("hotkey %q: at least one modifier required", c.Hotkey)
	}
	switch c.Save.Format {
	case "wav", "flac":
	default:
		return fmt.Errorf("save format %q: want wav or flac", c.Save.Format)
	}
	if c.Audio.MinDuration <= 0 || c.Audio.MaxDuration <= c.Audio.MinDuration {
		return fmt.Errorf("duration bounds min=%s max=%s invalid", c.Audio.MinDuration, c.Audio.MaxDuration)
	}
	return nil
}
