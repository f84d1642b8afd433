package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type VoiceConfig struct {
	STTBaseURL string `mapstructure:"stt_base_url"`
	TTSBaseURL string `mapstructure:"tts_base_url"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Prefs are the user-facing knobs that persist across runs. Indexes refer to
// the Languages and SpeedFactors tables; MicIndex -1 means system default.
type Prefs struct {
	STTLangIndex int    `mapstructure:"lang_stt_index" json:"sttLangIndex"`
	TTSLangIndex int    `mapstructure:"lang_tts_index" json:"ttsLangIndex"`
	SpeedIndex   int    `mapstructure:"tts_speed_index" json:"speedIndex"`
	Volume       int    `mapstructure:"tts_volume" json:"volume"` // playback volume, 0..100
	MicIndex     int    `mapstructure:"audio_mic_index" json:"micIndex"`
	LastSaveDir  string `mapstructure:"paths_last_save_dir" json:"lastSaveDir"`
}

type Settings struct {
	Voice  VoiceConfig  `mapstructure:"voice"`
	Server ServerConfig `mapstructure:"server"`
	Debug  bool         `mapstructure:"debug"`
	Prefs  Prefs        `mapstructure:"prefs"`

	v         *viper.Viper
	configDir string
}

// Load reads config.yaml from the working directory. A missing file is not an
// error: everything has a usable default and SavePrefs creates the file.
func Load() (*Settings, error) {
	return LoadFrom(".")
}

func LoadFrom(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("voice.stt_base_url", "http://localhost:9000")
	v.SetDefault("voice.tts_base_url", "http://localhost:5000")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("prefs.lang_stt_index", 0)
	v.SetDefault("prefs.lang_tts_index", 0)
	v.SetDefault("prefs.tts_speed_index", 1) // x1
	v.SetDefault("prefs.tts_volume", 100)
	v.SetDefault("prefs.audio_mic_index", -1)
	v.SetDefault("prefs.paths_last_save_dir", home)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	settings.v = v
	settings.configDir = dir
	settings.Prefs.sanitize()
	return &settings, nil
}

// SavePrefs writes the current preference values back to the config file.
// Connection and server settings are left as the user wrote them.
func (s *Settings) SavePrefs() error {
	s.Prefs.sanitize()
	s.v.Set("prefs.lang_stt_index", s.Prefs.STTLangIndex)
	s.v.Set("prefs.lang_tts_index", s.Prefs.TTSLangIndex)
	s.v.Set("prefs.tts_speed_index", s.Prefs.SpeedIndex)
	s.v.Set("prefs.tts_volume", s.Prefs.Volume)
	s.v.Set("prefs.audio_mic_index", s.Prefs.MicIndex)
	s.v.Set("prefs.paths_last_save_dir", s.Prefs.LastSaveDir)

	if err := s.v.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return s.v.WriteConfigAs(filepath.Join(s.configDir, "config.yaml"))
		}
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// sanitize clamps persisted values into their valid ranges so a hand-edited
// file cannot push indexes out of the tables.
func (p *Prefs) sanitize() {
	if p.STTLangIndex < 0 || p.STTLangIndex >= len(Languages) {
		p.STTLangIndex = 0
	}
	if p.TTSLangIndex < 0 || p.TTSLangIndex >= len(Languages) {
		p.TTSLangIndex = 0
	}
	if p.SpeedIndex < 0 || p.SpeedIndex >= len(SpeedFactors) {
		p.SpeedIndex = 1
	}
	if p.Volume < 0 {
		p.Volume = 0
	}
	if p.Volume > 100 {
		p.Volume = 100
	}
	if p.MicIndex < -1 {
		p.MicIndex = -1
	}
	if p.LastSaveDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			p.LastSaveDir = home
		} else {
			p.LastSaveDir = "."
		}
	}
}
